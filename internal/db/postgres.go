package db

import (
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"

	"vdsobench/internal/benchmark"
)

// PostgresStore implements benchmark.Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS bench_runs (
			id SERIAL PRIMARY KEY,
			recorded_at TIMESTAMPTZ NOT NULL,
			arch TEXT NOT NULL,
			counter TEXT NOT NULL,
			payload JSONB NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS bench_runs_arch_idx ON bench_runs (arch, counter);`,
	}
	for _, query := range queries {
		if _, err := s.db.Exec(query); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Save(run benchmark.Run) error {
	return saveRun(s.db, `INSERT INTO bench_runs (recorded_at, arch, counter, payload) VALUES ($1, $2, $3, $4)`, run)
}

func (s *PostgresStore) LoadAll() ([]benchmark.Run, error) {
	return loadRuns(s.db, `SELECT payload FROM bench_runs ORDER BY id ASC`)
}

func (s *PostgresStore) LoadLatest() (*benchmark.Run, error) {
	return loadLatestRun(s.db, `SELECT payload FROM bench_runs ORDER BY id DESC LIMIT 1`)
}
