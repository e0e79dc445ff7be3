package store

import (
	"context"
	"fmt"

	"z2api-hq/z2api/pkg/config"
)

// Store is a key/value mirror for the credential list.
//
// Implementations must be safe for concurrent use. GetValue returns an empty
// string and no error when the key has never been set.
type Store interface {
	// SetValue persists value under key, replacing any previous value.
	SetValue(ctx context.Context, key, value string) error

	// GetValue returns the persisted value for key, or "" if absent.
	GetValue(ctx context.Context, key string) (string, error)

	// Close releases any resources held by the store.
	Close() error
}

// Backend names accepted by config and Open.
const (
	BackendNone    = "none"
	BackendEnvFile = "envfile"
	BackendSQLite  = "sqlite"
)

// Open constructs the store selected by cfg. The "none" backend returns a
// nil Store; callers treat a nil store as persistence disabled.
func Open(cfg config.StoreConfig) (Store, error) {
	switch cfg.Backend {
	case "", BackendNone:
		return nil, nil
	case BackendEnvFile:
		return NewEnvFileStore(cfg.EnvFile.Path)
	case BackendSQLite:
		return NewSQLiteStore(SQLiteStoreConfig{
			Path:        cfg.SQLite.Path,
			BusyTimeout: cfg.SQLite.BusyTimeout,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %q", cfg.Backend)
	}
}
