package db

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"vdsobench/internal/benchmark"
)

// Runs are stored whole as a JSON payload. The indexed columns only serve
// ordering and ad-hoc queries.

func encodeRun(run benchmark.Run) ([]byte, error) {
	payload, err := json.Marshal(run)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal run: %w", err)
	}
	return payload, nil
}

func saveRun(db *sql.DB, query string, run benchmark.Run) error {
	payload, err := encodeRun(run)
	if err != nil {
		return err
	}
	if _, err := db.Exec(query, run.Timestamp.UTC(), run.Host.Arch, run.Host.Counter, payload); err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

func loadRuns(db *sql.DB, query string) ([]benchmark.Run, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []benchmark.Run{}
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, err
		}
		var run benchmark.Run
		if err := json.Unmarshal(payload, &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func loadLatestRun(db *sql.DB, query string) (*benchmark.Run, error) {
	var payload []byte
	if err := db.QueryRow(query).Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query latest run: %w", err)
	}
	var run benchmark.Run
	if err := json.Unmarshal(payload, &run); err != nil {
		return nil, fmt.Errorf("failed to unmarshal run: %w", err)
	}
	return &run, nil
}
