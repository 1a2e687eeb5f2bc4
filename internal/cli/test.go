package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"github.com/rubigo-ui/rubigo/internal/compiler"
	"github.com/rubigo-ui/rubigo/internal/harness"
	"github.com/rubigo-ui/rubigo/internal/machine"
	"github.com/rubigo-ui/rubigo/internal/store"
)

// VectorResult is one vector's outcome in the test report.
type VectorResult struct {
	Vector    string `json:"vector"`
	Component string `json:"component"`
	Passed    bool   `json:"passed"`
	Steps     int    `json:"steps"`
	Error     string `json:"error,omitempty"`
	RunID     string `json:"run_id,omitempty"`
}

// TestReport is the test command's result payload.
type TestReport struct {
	Vectors  []VectorResult      `json:"vectors"`
	Passed   int                 `json:"passed"`
	Failed   int                 `json:"failed"`
	Coverage map[string][]string `json:"coverage_gaps,omitempty"` // machine id -> unmet requirements
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	var dbPath string
	var skipCoverage bool

	cmd := &cobra.Command{
		Use:   "test <documents-dir> <vectors-dir>",
		Short: "Replay conformance vectors",
		Long: `Replay every vector in a directory against all execution backends.

Each vector names a component; its document is loaded from
<documents-dir>/<component>.json. A vector fails on any backend
divergence, expectation violation, or evaluation error. After all
vectors replay, per-machine coverage is checked: every guard must be
seen passing and failing, every action must run, every state must see
an unhandled event, and the set must include a mid-sequence reset and
a repeated self-transition.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args[0], args[1], dbPath, skipCoverage, cmd)
		},
	}

	cmd.Flags().StringVar(&dbPath, "db", "", "save agreed traces to this SQLite database")
	cmd.Flags().BoolVar(&skipCoverage, "skip-coverage", false, "report coverage gaps without failing on them")
	return cmd
}

func runTest(opts *RootOptions, docsDir, vectorsDir, dbPath string, skipCoverage bool, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	vectors, err := harness.LoadVectorDir(vectorsDir)
	if err != nil {
		formatter.Error(compiler.ErrDocUnreadable, err.Error(), nil)
		return NewExitError(ExitCommandError, fmt.Sprintf("load vectors from %s", vectorsDir))
	}
	if len(vectors) == 0 {
		formatter.Error(compiler.ErrDocUnreadable, fmt.Sprintf("no vectors found in %s", vectorsDir), nil)
		return NewExitError(ExitCommandError, "no vectors found")
	}

	var traces *store.Store
	if dbPath != "" {
		traces, err = store.Open(dbPath)
		if err != nil {
			formatter.Error(compiler.ErrDocUnreadable, err.Error(), nil)
			return NewExitError(ExitCommandError, fmt.Sprintf("open trace store %s", dbPath))
		}
		defer traces.Close()
	}

	specs := make(map[string]*machine.Spec)
	coverage := make(map[string]*harness.Coverage)
	report := TestReport{}

	for _, v := range vectors {
		spec, ok := specs[v.Component]
		if !ok {
			data, err := os.ReadFile(filepath.Join(docsDir, v.Component+".json"))
			if err != nil {
				formatter.Error(compiler.ErrDocUnreadable, fmt.Sprintf("vector %s: read document: %v", v.Name, err), nil)
				return NewExitError(ExitCommandError, fmt.Sprintf("read document for component %s", v.Component))
			}
			var verrs []compiler.ValidationError
			spec, verrs = compiler.Compile(data)
			if len(verrs) > 0 {
				formatter.Error(verrs[0].Code, fmt.Sprintf("component %s failed validation", v.Component), verrs)
				return NewExitError(ExitFailure, fmt.Sprintf("component %s failed validation", v.Component))
			}
			specs[v.Component] = spec
			coverage[spec.ID()] = harness.NewCoverage(spec)
		}

		vr := VectorResult{Vector: v.Name, Component: v.Component, Steps: len(v.Steps)}
		result, err := harness.ReplayInto(spec, v, coverage[spec.ID()])
		if err != nil {
			vr.Error = err.Error()
			report.Failed++
			formatter.VerboseLog("FAIL %s: %v", v.Name, err)
		} else {
			vr.Passed = true
			report.Passed++
			formatter.VerboseLog("pass %s (%d steps)", v.Name, len(result.Steps))
			if traces != nil {
				runID, err := traces.SaveResult(context.Background(), result)
				if err != nil {
					return WrapExitError(ExitCommandError, fmt.Sprintf("save trace for %s", v.Name), err)
				}
				vr.RunID = runID
			}
		}
		report.Vectors = append(report.Vectors, vr)
	}

	report.Coverage = make(map[string][]string)
	var machines []string
	for id := range coverage {
		machines = append(machines, id)
	}
	sort.Strings(machines)
	gaps := 0
	for _, id := range machines {
		if unmet := coverage[id].Unmet(); len(unmet) > 0 {
			report.Coverage[id] = unmet
			gaps += len(unmet)
		}
	}

	if opts.Format == "json" {
		if err := formatter.Success(report); err != nil {
			return err
		}
	} else {
		for _, vr := range report.Vectors {
			if vr.Passed {
				fmt.Fprintf(formatter.Writer, "pass %s (%d steps)\n", vr.Vector, vr.Steps)
			} else {
				fmt.Fprintf(formatter.Writer, "FAIL %s: %s\n", vr.Vector, vr.Error)
			}
		}
		fmt.Fprintf(formatter.Writer, "%d passed, %d failed\n", report.Passed, report.Failed)
		for _, id := range machines {
			for _, gap := range report.Coverage[id] {
				fmt.Fprintf(formatter.Writer, "coverage %s: %s\n", id, gap)
			}
		}
	}

	if report.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d vector(s) failed", report.Failed))
	}
	if gaps > 0 && !skipCoverage {
		return NewExitError(ExitFailure, fmt.Sprintf("%d coverage gap(s)", gaps))
	}
	return nil
}
