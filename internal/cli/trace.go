package cli

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rubigo-ui/rubigo/internal/store"
)

// TraceRun is one run's metadata in trace output.
type TraceRun struct {
	ID          string `json:"id"`
	Vector      string `json:"vector"`
	Machine     string `json:"machine"`
	Fingerprint string `json:"fingerprint"`
	CreatedAt   string `json:"created_at"`
	Steps       []TraceStep `json:"steps,omitempty"`
}

// TraceStep is one stored step in trace output.
type TraceStep struct {
	Seq     int    `json:"seq"`
	Event   string `json:"event,omitempty"`
	Reset   bool   `json:"reset,omitempty"`
	Handled bool   `json:"handled"`
	State   string `json:"state"`
	Context string `json:"context"`
	Hash    string `json:"hash"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string
	var runID string
	var vector string
	var machineID string

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Inspect stored replay traces",
		Long: `List or dump replay traces stored by "rubigo test --db".

Without --run or --vector, lists runs (optionally filtered by
--machine). With --run, dumps that run's full step trace; with
--vector, dumps the latest run for that vector.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(rootOpts, dbPath, runID, vector, machineID, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "rubigo.db", "SQLite trace database")
	cmd.Flags().StringVar(&runID, "run", "", "dump one run by id")
	cmd.Flags().StringVar(&vector, "vector", "", "dump the latest run for a vector")
	cmd.Flags().StringVar(&machineID, "machine", "", "filter run listing by machine id")
	return cmd
}

func runTrace(opts *RootOptions, dbPath, runID, vector, machineID string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	traces, err := store.Open(dbPath)
	if err != nil {
		formatter.Error("E001", err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("open trace store %s", dbPath))
	}
	defer traces.Close()

	ctx := context.Background()

	if runID == "" && vector == "" {
		runs, err := traces.ListRuns(ctx, machineID)
		if err != nil {
			return WrapExitError(ExitCommandError, "list runs", err)
		}
		out := make([]TraceRun, len(runs))
		for i, run := range runs {
			out[i] = traceRunFrom(run)
		}
		if opts.Format == "json" {
			return formatter.Success(out)
		}
		for _, run := range out {
			fmt.Fprintf(formatter.Writer, "%s  %-24s %-16s %s\n", run.ID, run.Vector, run.Machine, run.CreatedAt)
		}
		fmt.Fprintf(formatter.Writer, "%d run(s)\n", len(out))
		return nil
	}

	var run *store.Run
	if runID != "" {
		run, err = traces.GetRun(ctx, runID)
	} else {
		run, err = traces.LatestRun(ctx, vector)
	}
	if errors.Is(err, store.ErrNotFound) {
		formatter.Error("E001", "no matching run", nil)
		return NewExitError(ExitCommandError, "no matching run")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "load run", err)
	}

	steps, err := traces.LoadSteps(ctx, run.ID)
	if err != nil {
		return WrapExitError(ExitCommandError, "load steps", err)
	}

	out := traceRunFrom(*run)
	for _, s := range steps {
		out.Steps = append(out.Steps, TraceStep{
			Seq:     s.Seq,
			Event:   s.Event,
			Reset:   s.Reset,
			Handled: s.Handled,
			State:   s.State,
			Context: s.ContextJSON,
			Hash:    s.ContextHash,
		})
	}

	if opts.Format == "json" {
		return formatter.Success(out)
	}
	fmt.Fprintf(formatter.Writer, "run %s\n", out.ID)
	fmt.Fprintf(formatter.Writer, "  vector:      %s\n", out.Vector)
	fmt.Fprintf(formatter.Writer, "  machine:     %s\n", out.Machine)
	fmt.Fprintf(formatter.Writer, "  fingerprint: %s\n", out.Fingerprint)
	for _, s := range out.Steps {
		label := s.Event
		if s.Reset {
			label = "<reset>"
		}
		mark := " "
		if s.Handled {
			mark = "*"
		}
		fmt.Fprintf(formatter.Writer, "%s %3d %-24s state=%s context=%s\n", mark, s.Seq, label, s.State, s.Context)
	}
	return nil
}

func traceRunFrom(run store.Run) TraceRun {
	return TraceRun{
		ID:          run.ID,
		Vector:      run.Vector,
		Machine:     run.Machine,
		Fingerprint: run.Fingerprint,
		CreatedAt:   run.CreatedAt.UTC().Format(time.RFC3339),
	}
}
