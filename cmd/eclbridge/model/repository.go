package model

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"

	"github.com/clinmodel/eclbridge/models/cem"
)

// elementRow mirrors one row of the data_elements table.
type elementRow struct {
	ID       string         `db:"id"`
	ParentID sql.NullString `db:"parent_id"`
	Name     string         `db:"name"`
	Path     sql.NullString `db:"path"`
	Metadata []byte         `db:"metadata"`
}

// Repository loads and persists the element model from Postgres. Elements
// live in a single data_elements table (id, parent_id, name, path,
// metadata jsonb); the tree is reassembled in memory from parent links.
type Repository struct {
	db  *sqlx.DB
	log zerolog.Logger
}

// NewRepository creates a Repository on an open database handle.
func NewRepository(db *sqlx.DB, log zerolog.Logger) *Repository {
	return &Repository{db: db, log: log}
}

// LoadTree reads all data elements and assembles them into a single tree
// under a synthetic root. Rows without a resolvable parent become children
// of the root.
func (repo *Repository) LoadTree() (*cem.Element, error) {
	var rows []elementRow
	if err := repo.db.Select(&rows, `SELECT id, parent_id, name, path, metadata FROM data_elements ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to load data elements: %w", err)
	}

	byID := make(map[string]*cem.Element, len(rows))
	for _, row := range rows {
		el := &cem.Element{
			ID:   row.ID,
			Name: row.Name,
			Path: row.Path.String,
		}
		if len(row.Metadata) > 0 {
			if err := json.Unmarshal(row.Metadata, &el.Metadata); err != nil {
				return nil, fmt.Errorf("malformed metadata on element %s: %w", row.ID, err)
			}
		}
		byID[row.ID] = el
	}

	root := &cem.Element{ID: "root", Name: "root"}
	for _, row := range rows {
		el := byID[row.ID]
		if row.ParentID.Valid {
			if parent, ok := byID[row.ParentID.String]; ok {
				parent.Children = append(parent.Children, el)
				continue
			}
			repo.log.Warn().
				Str("element", row.ID).
				Str("parent", row.ParentID.String).
				Msg("Parent not found, attaching element to root")
		}
		root.Children = append(root.Children, el)
	}

	repo.log.Info().Int("elements", len(rows)).Msg("Loaded element tree")
	return root, nil
}

// SaveMetadata writes back the metadata of a single element.
func (repo *Repository) SaveMetadata(el *cem.Element) error {
	data, err := json.Marshal(el.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata for %s: %w", el.ID, err)
	}

	res, err := repo.db.Exec(`UPDATE data_elements SET metadata = $1 WHERE id = $2`, data, el.ID)
	if err != nil {
		return fmt.Errorf("failed to update element %s: %w", el.ID, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("element %s not found", el.ID)
	}
	return nil
}

// SaveTree persists the metadata of every element in the tree, skipping the
// synthetic root. Failures are logged per element and the last error is
// returned, so one bad row does not abort the rest.
func (repo *Repository) SaveTree(root *cem.Element) error {
	var lastErr error
	saved := 0
	root.Walk(func(el *cem.Element) {
		if el == root {
			return
		}
		if err := repo.SaveMetadata(el); err != nil {
			repo.log.Error().Err(err).Str("element", el.ID).Msg("Failed to save element metadata")
			lastErr = err
			return
		}
		saved++
	})

	repo.log.Debug().Int("saved", saved).Msg("Persisted element metadata")
	return lastErr
}
