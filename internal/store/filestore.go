package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/appetiteclub/apt"
	"github.com/appetiteclub/bowltrack/internal/bowl"
)

// FileStore keeps the snapshot in a single JSON document.
type FileStore struct {
	path   string
	logger apt.Logger
}

func NewFileStore(path string, logger apt.Logger) *FileStore {
	if logger == nil {
		logger = apt.NewNoopLogger()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Start(ctx context.Context) error {
	return nil
}

func (s *FileStore) Stop(ctx context.Context) error {
	return nil
}

// Load reads the snapshot. A missing file is an empty registry.
func (s *FileStore) Load(ctx context.Context) (bowl.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("no data file, starting empty", "path", s.path)
		return bowl.Snapshot{}, nil
	}
	if err != nil {
		return bowl.Snapshot{}, fmt.Errorf("cannot read %s: %w", s.path, err)
	}

	var snap bowl.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return bowl.Snapshot{}, fmt.Errorf("cannot decode %s: %w", s.path, err)
	}
	return snap, nil
}

// Save writes through a temp file in the same directory and renames it.
func (s *FileStore) Save(ctx context.Context, snap bowl.Snapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("cannot encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("cannot create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("cannot write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("cannot close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("cannot replace %s: %w", s.path, err)
	}

	s.logger.Debug("snapshot saved", "path", s.path, "bowls", len(snap.Bowls))
	return nil
}
