// Package ledger records batch runs and merges in a SQLite database so an
// operator can see which batches of a sweep finished, failed or are still
// running. It holds bookkeeping only; tasks and results live in the dataset
// files.
package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/banshee-data/joint-strength/internal/timeutil"
	"github.com/banshee-data/joint-strength/internal/version"
)

// Run statuses.
const (
	StatusRunning   = "running"
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// ErrRunNotFound is returned when a run id is not in the ledger.
var ErrRunNotFound = errors.New("run not found")

// Ledger is an open run ledger.
type Ledger struct {
	db    *sql.DB
	clock timeutil.Clock
}

// Open opens (creating if needed) the ledger database at path and applies
// pending migrations.
func Open(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection serialises writers from concurrent commands.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}

	l := &Ledger{db: db, clock: timeutil.RealClock{}}
	if err := l.MigrateUp(); err != nil {
		db.Close()
		return nil, err
	}
	return l, nil
}

// SetClock replaces the clock used for timestamps.
func (l *Ledger) SetClock(c timeutil.Clock) {
	l.clock = c
}

// Close closes the database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// RunStart describes a batch run as it begins.
type RunStart struct {
	BatchLabel   string
	BatchIndex   int
	TotalBatches int
	TaskCount    int
}

// Run is one ledger entry.
type Run struct {
	RunID        string
	BatchLabel   string
	BatchIndex   int
	TotalBatches int
	TaskCount    int
	RowCount     int
	Status       string
	Error        string
	OutputPath   string
	ToolVersion  string
	StartedAt    time.Time
	FinishedAt   *time.Time
}

// StartRun inserts a running entry and returns its run id.
func (l *Ledger) StartRun(ctx context.Context, s RunStart) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO batch_runs (run_id, batch_label, batch_index, total_batches, task_count, status, tool_version, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, id, s.BatchLabel, s.BatchIndex, s.TotalBatches, s.TaskCount, StatusRunning, version.String(), formatTime(l.clock.Now()))
	if err != nil {
		return "", fmt.Errorf("failed to insert batch run: %w", err)
	}
	return id, nil
}

// CompleteRun marks a run as succeeded.
func (l *Ledger) CompleteRun(ctx context.Context, runID string, rows int, outputPath string) error {
	return l.finish(ctx, runID, StatusSucceeded, rows, outputPath, "")
}

// FailRun marks a run as failed with the error text.
func (l *Ledger) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	return l.finish(ctx, runID, StatusFailed, 0, "", msg)
}

func (l *Ledger) finish(ctx context.Context, runID, status string, rows int, outputPath, errText string) error {
	res, err := l.db.ExecContext(ctx, `
		UPDATE batch_runs
		SET status = ?, row_count = ?, output_path = ?, error = ?, finished_at = ?
		WHERE run_id = ?
	`, status, rows, outputPath, errText, formatTime(l.clock.Now()), runID)
	if err != nil {
		return fmt.Errorf("failed to update batch run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

// RecordMerge stores a completed merge and returns its id.
func (l *Ledger) RecordMerge(ctx context.Context, pattern, outputPath string, files int, rows int64) (string, error) {
	id := uuid.NewString()
	_, err := l.db.ExecContext(ctx, `
		INSERT INTO merges (merge_id, pattern, output_path, file_count, row_count, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, pattern, outputPath, files, rows, formatTime(l.clock.Now()))
	if err != nil {
		return "", fmt.Errorf("failed to insert merge: %w", err)
	}
	return id, nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (l *Ledger) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `
		SELECT run_id, batch_label, batch_index, total_batches, task_count, row_count,
		       status, error, output_path, tool_version, started_at, finished_at
		FROM batch_runs
		ORDER BY started_at DESC, rowid DESC
	`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query batch runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var r Run
		var started string
		var finished sql.NullString
		if err := rows.Scan(&r.RunID, &r.BatchLabel, &r.BatchIndex, &r.TotalBatches, &r.TaskCount, &r.RowCount,
			&r.Status, &r.Error, &r.OutputPath, &r.ToolVersion, &started, &finished); err != nil {
			return nil, fmt.Errorf("failed to scan batch run: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if finished.Valid {
			t, err := parseTime(finished.String)
			if err != nil {
				return nil, err
			}
			r.FinishedAt = &t
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
