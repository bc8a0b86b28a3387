package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileStore keeps values in a flat JSON object.
type FileStore struct {
	mu     sync.Mutex
	path   string
	values map[string]string
}

// OpenFile loads path. A missing or malformed file starts empty.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("credentials file path is empty")
	}
	s := &FileStore{path: path, values: map[string]string{}}
	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("read credentials: %w", err)
	}
	if err := json.Unmarshal(data, &s.values); err != nil || s.values == nil {
		s.values = map[string]string{}
	}
	return s, nil
}

// Get returns the value stored under key.
func (s *FileStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok, nil
}

// Set stores value and rewrites the file.
func (s *FileStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return s.save()
}

// Close is a no-op; every Set is written immediately.
func (s *FileStore) Close() error {
	return nil
}

func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.values, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return fmt.Errorf("create credentials directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
