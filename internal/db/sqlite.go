package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"vdsobench/internal/benchmark"
)

// SQLiteStore implements benchmark.Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and applies migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) migrate() error {
	query := `
	CREATE TABLE IF NOT EXISTS bench_runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		recorded_at DATETIME NOT NULL,
		arch TEXT NOT NULL,
		counter TEXT NOT NULL,
		payload TEXT NOT NULL
	);
	`
	_, err := s.db.Exec(query)
	return err
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) Save(run benchmark.Run) error {
	return saveRun(s.db, `INSERT INTO bench_runs (recorded_at, arch, counter, payload) VALUES (?, ?, ?, ?)`, run)
}

// LoadAll returns every run in insertion order.
func (s *SQLiteStore) LoadAll() ([]benchmark.Run, error) {
	return loadRuns(s.db, `SELECT payload FROM bench_runs ORDER BY id ASC`)
}

// LoadLatest returns nil, nil when the table is empty.
func (s *SQLiteStore) LoadLatest() (*benchmark.Run, error) {
	return loadLatestRun(s.db, `SELECT payload FROM bench_runs ORDER BY id DESC LIMIT 1`)
}
