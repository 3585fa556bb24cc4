package audit

import (
	"fmt"
	"time"

	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/rs/zerolog"

	"github.com/clinmodel/eclbridge/cmd/eclbridge/conversion"
)

// ConversionRecord is the persisted audit row for one successful
// conversion. Re-running a batch appends new rows rather than updating, so
// the table keeps the full conversion history.
type ConversionRecord struct {
	ID          uint   `gorm:"primary_key"`
	ElementRef  string `gorm:"index"`
	SnomedECL   string
	Source      string
	ConvertedOn string
	CreatedAt   time.Time
}

// Store writes conversion audit records to Postgres.
type Store struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewStore opens the audit database and migrates the record table.
func NewStore(dsn string, log zerolog.Logger) (*Store, error) {
	db, err := gorm.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit database: %w", err)
	}

	if err := db.AutoMigrate(&ConversionRecord{}).Error; err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate audit schema: %w", err)
	}

	return &Store{db: db, log: log}, nil
}

// Save appends one audit row per conversion record.
func (s *Store) Save(records []conversion.Record) error {
	for _, rec := range records {
		row := ConversionRecord{
			ElementRef:  rec.ElementRef,
			SnomedECL:   rec.SnomedECL,
			Source:      rec.Source,
			ConvertedOn: rec.ConvertedOn,
		}
		if err := s.db.Create(&row).Error; err != nil {
			return fmt.Errorf("failed to save audit record for %s: %w", rec.ElementRef, err)
		}
	}

	s.log.Info().Int("records", len(records)).Msg("Saved conversion audit records")
	return nil
}

// History returns the audit rows for one element, newest first.
func (s *Store) History(elementRef string) ([]ConversionRecord, error) {
	var rows []ConversionRecord
	err := s.db.
		Where("element_ref = ?", elementRef).
		Order("created_at desc").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load audit history for %s: %w", elementRef, err)
	}
	return rows, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
