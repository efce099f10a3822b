package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// JSONStore persists named JSON documents on disk under a base directory.
// A missing document reads as an empty value, so first use needs no seeding.
type JSONStore struct {
	baseDir string
}

// NewJSONStore ensures the base directory exists and returns a handle.
func NewJSONStore(baseDir string) (*JSONStore, error) {
	if baseDir == "" {
		baseDir = "./data"
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &JSONStore{baseDir: baseDir}, nil
}

// Read unmarshals the named document into dest. A missing file leaves dest
// untouched and returns no error.
func (s *JSONStore) Read(name string, dest interface{}) error {
	raw, err := os.ReadFile(s.resolve(name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read document %s: %w", name, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode document %s: %w", name, err)
	}
	return nil
}

// Write marshals value and replaces the named document atomically: the payload
// lands in a temp file first and is renamed over the target, so readers never
// observe a partially written document.
func (s *JSONStore) Write(name string, value interface{}) error {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return fmt.Errorf("encode document %s: %w", name, err)
	}

	path := s.resolve(name)
	tmp, err := os.CreateTemp(filepath.Dir(path), name+".*.tmp")
	if err != nil {
		return fmt.Errorf("stage document %s: %w", name, err)
	}
	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write document %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("flush document %s: %w", name, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("commit document %s: %w", name, err)
	}
	return nil
}

// Delete removes the named document if present.
func (s *JSONStore) Delete(name string) error {
	if err := os.Remove(s.resolve(name)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete document %s: %w", name, err)
	}
	return nil
}

// Path exposes the underlying absolute path (useful for debugging).
func (s *JSONStore) Path(name string) string {
	return s.resolve(name)
}

func (s *JSONStore) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(s.baseDir, name)
}
