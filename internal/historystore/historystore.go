// Package historystore is a small sqlite-backed append-only log of past
// deployment results, written by the CLI after each run (never by the
// orchestrator) and queryable via `rolloutctl history`. It supplements a
// feature the core explicitly stays out of (spec §1: the core does not
// persist history beyond what it returns in its result) with a store
// that lives strictly outside the core.
package historystore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"rollout.sh/internal/rolloutmodel"
)

// Store is a handle to the history database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the sqlite database at path and
// ensures its schema exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history store: %w", err)
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS deployment_run (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id TEXT,
			started_at TEXT NOT NULL,
			desired_code_version TEXT NOT NULL,
			desired_configuration_version TEXT NOT NULL,
			success INTEGER NOT NULL,
			rolled_back INTEGER NOT NULL,
			aborted_reason TEXT,
			updated_count INTEGER NOT NULL,
			failed_count INTEGER NOT NULL,
			result_json TEXT NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("migrate history store: %w", err)
	}
	return nil
}

// Run is one recorded deployment run.
type Run struct {
	ID                   int64
	RunID                string
	StartedAt            time.Time
	DesiredCodeVersion   string
	DesiredConfigVersion string
	Result               rolloutmodel.DeploymentResult
}

// Record appends a finished deployment result.
func (s *Store) Record(ctx context.Context, desiredCode, desiredConfig string, result *rolloutmodel.DeploymentResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO deployment_run
			(run_id, started_at, desired_code_version, desired_configuration_version,
			 success, rolled_back, aborted_reason, updated_count, failed_count, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		result.RunID,
		time.Now().UTC().Format(time.RFC3339),
		desiredCode, desiredConfig,
		boolToInt(result.Success), boolToInt(result.RolledBack), result.AbortedReason,
		len(result.Updated), len(result.Failed),
		string(resultJSON),
	)
	if err != nil {
		return fmt.Errorf("record deployment run: %w", err)
	}
	return nil
}

// List returns up to limit most recent runs, newest first.
func (s *Store) List(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, run_id, started_at, desired_code_version, desired_configuration_version, result_json
		FROM deployment_run
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list deployment runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			run        Run
			runID      sql.NullString
			startedAt  string
			resultJSON string
		)
		if err := rows.Scan(&run.ID, &runID, &startedAt, &run.DesiredCodeVersion, &run.DesiredConfigVersion, &resultJSON); err != nil {
			return nil, fmt.Errorf("scan deployment run: %w", err)
		}
		run.RunID = runID.String
		run.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
		if err := json.Unmarshal([]byte(resultJSON), &run.Result); err != nil {
			return nil, fmt.Errorf("unmarshal stored result: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
