package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrNotFound is returned when a run id or vector has no stored trace.
var ErrNotFound = errors.New("store: not found")

// Run is one stored replay's metadata.
type Run struct {
	ID          string
	Vector      string
	Machine     string
	Fingerprint string
	Backends    []string
	CreatedAt   time.Time
}

// StepRow is one stored replay step.
type StepRow struct {
	Seq         int
	Event       string
	Reset       bool
	Handled     bool
	State       string
	ContextJSON string
	ContextHash string
}

// GetRun loads one run's metadata by id.
func (s *Store) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, vector, machine, fingerprint, backends, created_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

// LatestRun loads the most recent run for a vector.
func (s *Store) LatestRun(ctx context.Context, vector string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, vector, machine, fingerprint, backends, created_at
		 FROM runs WHERE vector = ? ORDER BY created_at DESC, id DESC LIMIT 1`,
		vector,
	)
	return scanRun(row)
}

// ListRuns returns runs for a machine, newest first. machine may be ""
// to list everything.
func (s *Store) ListRuns(ctx context.Context, machine string) ([]Run, error) {
	query := `SELECT id, vector, machine, fingerprint, backends, created_at FROM runs`
	var args []any
	if machine != "" {
		query += ` WHERE machine = ?`
		args = append(args, machine)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *run)
	}
	return out, rows.Err()
}

// LoadSteps returns a run's steps in sequence order.
func (s *Store) LoadSteps(ctx context.Context, runID string) ([]StepRow, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT seq, event, reset, handled, state, context_json, context_hash
		 FROM steps WHERE run_id = ? ORDER BY seq`,
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("load steps for %s: %w", runID, err)
	}
	defer rows.Close()

	var out []StepRow
	for rows.Next() {
		var step StepRow
		var event sql.NullString
		if err := rows.Scan(&step.Seq, &event, &step.Reset, &step.Handled, &step.State, &step.ContextJSON, &step.ContextHash); err != nil {
			return nil, fmt.Errorf("scan step: %w", err)
		}
		step.Event = event.String
		out = append(out, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		if _, err := s.GetRun(ctx, runID); err != nil {
			return nil, err
		}
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*Run, error) {
	var run Run
	var backends, createdAt string
	err := row.Scan(&run.ID, &run.Vector, &run.Machine, &run.Fingerprint, &backends, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan run: %w", err)
	}
	if backends != "" {
		run.Backends = strings.Split(backends, ",")
	}
	ts, err := time.Parse("2006-01-02T15:04:05.999Z", createdAt)
	if err != nil {
		ts, err = time.Parse(time.RFC3339Nano, createdAt)
		if err != nil {
			return nil, fmt.Errorf("parse run timestamp %q: %w", createdAt, err)
		}
	}
	run.CreatedAt = ts
	return &run, nil
}
