// Package backend selects and constructs the durable store implementation
// from configuration.
package backend

import (
	"fmt"

	"kumbara/internal/config"
	applog "kumbara/internal/log"
	"kumbara/internal/store"
	"kumbara/internal/store/memory"
	"kumbara/internal/store/sqlite"
)

// Type names a durable store implementation.
type Type string

const (
	Memory Type = "memory"
	SQLite Type = "sqlite"
)

func (t Type) String() string {
	return string(t)
}

// IsValid reports whether t names a known implementation.
func (t Type) IsValid() bool {
	switch t {
	case Memory, SQLite:
		return true
	default:
		return false
	}
}

// CleanupFunc releases the store's resources.
type CleanupFunc func() error

// Result carries the constructed store and its optional cleanup.
type Result struct {
	Store   store.DurableStore
	Cleanup CleanupFunc
}

// Open builds the durable store named by the configuration.
func Open(cfg *config.Config, logger *applog.Logger) (*Result, error) {
	if logger == nil {
		logger = applog.New(applog.DefaultConfig())
	}
	log := logger.WithComponent(applog.ComponentBackend)

	t := Type(cfg.StoreBackend)
	switch t {
	case SQLite:
		s, err := sqlite.Open(cfg.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("initialize sqlite store: %w", err)
		}
		log.Info("initialized sqlite store", "db_path", cfg.SQLiteDBPath)
		return &Result{Store: s, Cleanup: s.Close}, nil
	case Memory:
		s := memory.NewFromFiles(cfg.DataDir)
		log.Info("initialized memory store", "data_directory", cfg.DataDir)
		return &Result{Store: s, Cleanup: nil}, nil
	default:
		return nil, fmt.Errorf("invalid store backend: %s", cfg.StoreBackend)
	}
}
