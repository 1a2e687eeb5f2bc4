package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/rubigo-ui/rubigo/internal/harness"
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// SaveResult writes one agreed replay trace in a single transaction
// and returns the generated run id. A partially written run never
// becomes visible.
func (s *Store) SaveResult(ctx context.Context, result *harness.Result) (string, error) {
	runID := uuid.NewString()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin save run: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO runs (id, vector, machine, fingerprint, backends) VALUES (?, ?, ?, ?, ?)`,
		runID, result.Vector, result.Machine, result.Fingerprint, strings.Join(result.Backends, ","),
	)
	if err != nil {
		return "", fmt.Errorf("insert run %s: %w", result.Vector, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO steps (run_id, seq, event, reset, handled, state, context_json, context_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return "", fmt.Errorf("prepare step insert: %w", err)
	}
	defer stmt.Close()

	for _, step := range result.Steps {
		contextJSON, err := ir.MarshalCanonical(step.Context)
		if err != nil {
			return "", fmt.Errorf("serialize step %d context: %w", step.Seq, err)
		}
		var event any
		if !step.Reset {
			event = step.Event
		}
		_, err = stmt.ExecContext(ctx,
			runID, step.Seq, event, step.Reset, step.Handled, step.State, string(contextJSON), step.Hash,
		)
		if err != nil {
			return "", fmt.Errorf("insert step %d: %w", step.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit run: %w", err)
	}
	return runID, nil
}
