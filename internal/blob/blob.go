// Package blob persists named JSON payloads for the session log.
package blob

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Store saves and loads named payloads.
type Store interface {
	Save(name string, v any) error
	Load(name string, v any) (bool, error)
	Close() error
}

func validName(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("blob name is required")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid blob name %q", name)
	}
	return nil
}

// FileStore keeps each payload in <dir>/<name>.json.
type FileStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("data directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (s *FileStore) path(name string) string {
	return filepath.Join(s.dir, name+".json")
}

// Save writes v atomically.
func (s *FileStore) Save(name string, v any) error {
	if err := validName(name); err != nil {
		return err
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Write to a temp file first, then rename for atomicity.
	target := s.path(name)
	tmp := target + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	if err := os.Rename(tmp, target); err != nil {
		return fmt.Errorf("replace %s: %w", name, err)
	}
	return nil
}

// Load decodes the payload named name into v. It reports false when nothing
// has been saved under that name.
func (s *FileStore) Load(name string, v any) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}

	s.mu.Lock()
	raw, err := os.ReadFile(s.path(name))
	s.mu.Unlock()
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// Close is a no-op.
func (s *FileStore) Close() error { return nil }

// MemoryStore keeps payloads in process memory.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
	// Fail, when set, is returned by every Save.
	Fail error
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Save encodes v and keeps it under name.
func (s *MemoryStore) Save(name string, v any) error {
	if err := validName(name); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail != nil {
		return s.Fail
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", name, err)
	}
	s.blobs[name] = raw
	return nil
}

// Load decodes the payload saved under name.
func (s *MemoryStore) Load(name string, v any) (bool, error) {
	if err := validName(name); err != nil {
		return false, err
	}
	s.mu.Lock()
	raw, ok := s.blobs[name]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return false, fmt.Errorf("decode %s: %w", name, err)
	}
	return true, nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }
