// Package store persists registration records as one pretty-printed JSON
// array per profile.
//
// Error Contract:
// - Load returns an empty list when the file is missing or malformed
// - Other read failures and every write failure are returned wrapped
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/spf13/afero"

	"certdesk/pkg/domain"
)

const indent = "    "

// JSONFileStore keeps records in a single JSON file on an afero.Fs.
// Appends are serialized within the process; concurrent writers in other
// processes can still lose updates.
type JSONFileStore struct {
	mu     sync.Mutex
	fs     afero.Fs
	path   string
	logger *slog.Logger
}

// NewJSONFileStore creates a store backed by path on fsys.
func NewJSONFileStore(fsys afero.Fs, path string, logger *slog.Logger) *JSONFileStore {
	return &JSONFileStore{fs: fsys, path: path, logger: logger}
}

// Path returns the backing file path.
func (s *JSONFileStore) Path() string {
	return s.path
}

// Load returns every record in insertion order.
func (s *JSONFileStore) Load(ctx context.Context) ([]domain.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Append adds rec at the end of the collection and rewrites the file.
func (s *JSONFileStore) Append(ctx context.Context, rec domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.load(ctx)
	if err != nil {
		return err
	}
	records = append(records, rec)

	data, err := json.MarshalIndent(records, "", indent)
	if err != nil {
		return fmt.Errorf("encoding records: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "." {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating store directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("writing store: %w", err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		return errors.Join(fmt.Errorf("replacing store: %w", err), s.fs.Remove(tmp))
	}
	return nil
}

func (s *JSONFileStore) load(ctx context.Context) ([]domain.Record, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) || errors.Is(err, os.ErrNotExist) {
			return []domain.Record{}, nil
		}
		return nil, fmt.Errorf("reading store %s: %w", s.path, err)
	}

	var records []domain.Record
	if err := json.Unmarshal(data, &records); err != nil {
		s.logger.WarnContext(ctx, "store file is malformed, treating as empty",
			"path", s.path,
			"error", err,
		)
		return []domain.Record{}, nil
	}
	if records == nil {
		records = []domain.Record{}
	}
	return records, nil
}
