// Package history persists the log of completed transfers as a JSON array,
// newest entry first.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/gofrs/flock"

	"github.com/ytget/ytqueue/internal/model"
)

const jsonIndent = "    "

// Store appends history entries and rewrites the backing file after every
// change. It is safe for concurrent use.
type Store struct {
	mu      sync.Mutex
	path    string
	lock    *flock.Flock
	logger  *slog.Logger
	entries []model.HistoryEntry
}

// Open loads the history at path. A missing or unreadable file yields an
// empty history; the file is only created on the first write.
func Open(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		path:   path,
		lock:   flock.New(path + ".lock"),
		logger: logger,
	}
	entries, err := readEntries(path)
	if err != nil {
		logger.Warn("history file unreadable, starting empty", "path", path, "error", err)
	}
	s.entries = entries
	return s
}

// Path returns the backing file location
func (s *Store) Path() string {
	return s.path
}

// Append records entry as the newest item and persists the log. When the
// write fails the entry stays in memory and the returned error wraps
// model.ErrPersistence.
func (s *Store) Append(entry model.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = append([]model.HistoryEntry{entry}, s.entries...)
	return s.withFileLock(func() error {
		return s.persist(s.entries)
	})
}

// All returns the entries newest first
func (s *Store) All() []model.HistoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.HistoryEntry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Len returns the number of recorded entries
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Clear empties the history and persists an empty array. Like Append, the
// in-memory change stands even when the file cannot be written.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = nil
	return s.withFileLock(func() error {
		return s.persist([]model.HistoryEntry{})
	})
}

func (s *Store) withFileLock(fn func() error) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return model.Wrap(model.ErrPersistence, "history", "create directory", err)
	}
	if err := s.lock.Lock(); err != nil {
		return model.Wrap(model.ErrPersistence, "history", "acquire lock", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.logger.Warn("failed to release history lock", "path", s.path, "error", err)
		}
	}()
	return fn()
}

func (s *Store) persist(entries []model.HistoryEntry) error {
	if entries == nil {
		entries = []model.HistoryEntry{}
	}
	data, err := json.MarshalIndent(entries, "", jsonIndent)
	if err != nil {
		return model.Wrap(model.ErrPersistence, "history", "encode", err)
	}

	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return model.Wrap(model.ErrPersistence, "history", "write temp file", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return model.Wrap(model.ErrPersistence, "history", "replace file", err)
	}
	return nil
}

func readEntries(path string) ([]model.HistoryEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read history: %w", err)
	}
	if len(data) == 0 {
		return nil, nil
	}
	var entries []model.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history: %w", err)
	}
	return entries, nil
}
