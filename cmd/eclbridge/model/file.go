package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/clinmodel/eclbridge/models/cem"
)

// FileRepository loads element models from a directory of JSON model
// packages, one tree per file, and writes converted trees back.
type FileRepository struct {
	log       zerolog.Logger
	localPath string
	mutex     sync.RWMutex
	models    map[string]*cem.Element // filename -> model root
}

// NewFileRepository creates a FileRepository over localPath.
func NewFileRepository(log zerolog.Logger, localPath string) *FileRepository {
	return &FileRepository{
		log:       log,
		localPath: localPath,
		models:    make(map[string]*cem.Element),
	}
}

// LoadModels reads every .json model package in the directory into memory.
func (repo *FileRepository) LoadModels() error {
	files, err := os.ReadDir(repo.localPath)
	if err != nil {
		return fmt.Errorf("failed to read model directory: %w", err)
	}

	loaded := 0
	for _, file := range files {
		if file.IsDir() || !strings.HasSuffix(file.Name(), ".json") {
			continue
		}
		filePath := filepath.Join(repo.localPath, file.Name())

		root, err := repo.loadModelFile(filePath)
		if err != nil {
			repo.log.Error().
				Err(err).
				Str("file", file.Name()).
				Msg("Failed to load model package")
			continue
		}

		repo.mutex.Lock()
		repo.models[file.Name()] = root
		repo.mutex.Unlock()
		loaded++

		repo.log.Debug().
			Str("file", file.Name()).
			Int("elements", root.Count()).
			Msg("Loaded model package")
	}

	repo.log.Info().Int("models", loaded).Msg("Loaded model packages")
	return nil
}

func (repo *FileRepository) loadModelFile(filePath string) (*cem.Element, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var root cem.Element
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, fmt.Errorf("failed to parse model package: %w", err)
	}
	return &root, nil
}

// Models returns the loaded model roots keyed by filename.
func (repo *FileRepository) Models() map[string]*cem.Element {
	repo.mutex.RLock()
	defer repo.mutex.RUnlock()

	out := make(map[string]*cem.Element, len(repo.models))
	for name, root := range repo.models {
		out[name] = root
	}
	return out
}

// SaveModel writes a model tree back to its package file.
func (repo *FileRepository) SaveModel(name string, root *cem.Element) error {
	data, err := json.MarshalIndent(root, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal model package: %w", err)
	}

	filePath := filepath.Join(repo.localPath, name)
	if err := os.WriteFile(filePath, data, 0644); err != nil {
		return fmt.Errorf("failed to write model package: %w", err)
	}

	repo.mutex.Lock()
	repo.models[name] = root
	repo.mutex.Unlock()

	repo.log.Info().
		Str("file", name).
		Msg("Saved model package")
	return nil
}
