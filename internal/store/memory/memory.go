// Package memory implements the durable store port in process memory, with
// optional mirroring to plain files so state survives restarts in the
// zero-dependency setup.
package memory

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store holds blobs in a map. With a base directory set, every key is
// mirrored to <dir>/<key>.json and seeded from there at construction.
type Store struct {
	mu    sync.Mutex
	blobs map[string]string
	dir   string
}

// New creates an ephemeral store.
func New() *Store {
	return &Store{blobs: make(map[string]string)}
}

// NewFromFiles creates a store mirrored to dir, seeding any blobs already
// on disk. Unreadable files are skipped; hydration treats that as no prior
// state anyway.
func NewFromFiles(dir string) *Store {
	s := &Store{blobs: make(map[string]string), dir: dir}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return s
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || filepath.Ext(name) != ".json" {
			continue
		}
		blob, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			continue
		}
		key := name[:len(name)-len(".json")]
		s.blobs[key] = string(blob)
	}
	return s
}

func (s *Store) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.blobs[key]
	return v, ok, nil
}

func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = value
	if s.dir == "" {
		return nil
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(s.path(key), []byte(value), 0o644); err != nil {
		return fmt.Errorf("write blob %s: %w", key, err)
	}
	return nil
}

func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.blobs, key)
	if s.dir == "" {
		return nil
	}
	if err := os.Remove(s.path(key)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", key, err)
	}
	return nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+".json")
}
