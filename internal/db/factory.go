package db

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"vdsobench/internal/benchmark"
	harnesserr "vdsobench/internal/errors"
)

const (
	DefaultFilePath   = ".vdsobench/bench.json"
	DefaultSQLitePath = ".vdsobench/history.db"
)

// StoreConfig holds configuration for the storage backend
type StoreConfig struct {
	Type             string `mapstructure:"type" yaml:"type"`             // "file", "sqlite" or "postgres"
	ConnectionString string `mapstructure:"connection" yaml:"connection"` // path for file/sqlite, DSN for postgres
}

// NewStore creates a new run store based on the provided configuration
func NewStore(config StoreConfig) (benchmark.Store, error) {
	switch strings.ToLower(config.Type) {
	case "postgres", "postgresql":
		if config.ConnectionString == "" {
			return nil, fmt.Errorf("postgres connection string is required: %w", harnesserr.ErrConfiguration)
		}
		store, err := NewPostgresStore(config.ConnectionString)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "sqlite", "sqlite3":
		path := config.ConnectionString
		if path == "" {
			path = DefaultSQLitePath
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
		}
		store, err := NewSQLiteStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	case "", "file", "json":
		path := config.ConnectionString
		if path == "" {
			path = DefaultFilePath
		}
		store, err := benchmark.NewFileStore(path)
		if err != nil {
			return nil, err
		}
		return store, nil
	default:
		return nil, fmt.Errorf("unsupported store type %q: %w", config.Type, harnesserr.ErrConfiguration)
	}
}
