// Package history records batch runs and per-account outcomes in sqlite so
// past retrieval runs can be inspected. It is an audit trail, not a
// checkpoint: nothing is resumed from it.
package history

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/pfinch/bankexport/internal/models"
	"github.com/pfinch/bankexport/pkg/database"
	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id TEXT PRIMARY KEY,
	month INTEGER NOT NULL,
	year INTEGER NOT NULL,
	account_count INTEGER NOT NULL,
	started_at TIMESTAMP NOT NULL,
	finished_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS run_results (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id TEXT NOT NULL REFERENCES runs(id),
	position INTEGER NOT NULL,
	account_name TEXT NOT NULL,
	account_number TEXT NOT NULL,
	status TEXT NOT NULL,
	error TEXT NOT NULL DEFAULT '',
	recorded_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_run_results_run ON run_results(run_id, position);
`

// Store persists run outcomes.
type Store struct {
	db     *database.DB
	logger *zap.Logger
}

// NewStore creates the store and its schema.
func NewStore(db *database.DB, logger *zap.Logger) (*Store, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

// StartRun records the beginning of a batch run.
func (s *Store) StartRun(runID string, period models.Period, accountCount int) error {
	_, err := s.db.Exec(
		`INSERT INTO runs (id, month, year, account_count, started_at) VALUES (?, ?, ?, ?, ?)`,
		runID, int(period.Month), period.Year, accountCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}
	return nil
}

// RecordResult appends one account outcome to a run.
func (s *Store) RecordResult(runID string, position int, result models.AccountResult) error {
	return s.db.WithTransaction(func(tx *sql.Tx) error {
		_, err := tx.Exec(
			`INSERT INTO run_results (run_id, position, account_name, account_number, status, error, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			runID, position, result.Account.Name, result.Account.Number,
			result.Status, result.Err, time.Now().UTC(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert run result: %w", err)
		}
		return nil
	})
}

// FinishRun stamps a run as finished.
func (s *Store) FinishRun(runID string) error {
	_, err := s.db.Exec(`UPDATE runs SET finished_at = ? WHERE id = ?`, time.Now().UTC(), runID)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// ResultsForRun returns a run's account outcomes in processing order.
func (s *Store) ResultsForRun(runID string) (models.BatchResult, error) {
	rows, err := s.db.Query(
		`SELECT account_name, account_number, status, error
		 FROM run_results WHERE run_id = ? ORDER BY position`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query run results: %w", err)
	}
	defer rows.Close()

	var results models.BatchResult
	for rows.Next() {
		var r models.AccountResult
		if err := rows.Scan(&r.Account.Name, &r.Account.Number, &r.Status, &r.Err); err != nil {
			return nil, fmt.Errorf("failed to scan run result: %w", err)
		}
		results = append(results, r)
	}
	return results, rows.Err()
}
