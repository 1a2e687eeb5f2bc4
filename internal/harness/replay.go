package harness

import (
	"fmt"
	"sort"

	"github.com/rubigo-ui/rubigo/internal/ir"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

// StepResult is the observable outcome of one replay step, identical
// across every backend by the time a Result exists.
type StepResult struct {
	Seq     int
	Event   string // "" for reset steps
	Reset   bool
	Handled bool
	State   string
	Context ir.Context
	Hash    string
}

// Result is a completed replay: the agreed trace plus identity
// metadata for storage and golden comparison.
type Result struct {
	Vector      string
	Machine     string
	Fingerprint string
	Backends    []string
	Steps       []StepResult
}

// DivergenceError reports two backends disagreeing on an observable
// after a step. Any divergence is a conformance failure; there are no
// tolerated differences.
type DivergenceError struct {
	Vector   string
	Seq      int
	Event    string
	Field    string // "handled", "state", or "context"
	Backend  string
	Baseline string
	Got      string
	Want     string
}

// Error implements the error interface.
func (e *DivergenceError) Error() string {
	return fmt.Sprintf("vector %q step %d (%s): backend %s disagrees with %s on %s: got %s, want %s",
		e.Vector, e.Seq, e.Event, e.Backend, e.Baseline, e.Field, e.Got, e.Want)
}

// ExpectationError reports a step whose agreed outcome violates the
// vector's pinned expectation.
type ExpectationError struct {
	Vector string
	Seq    int
	Event  string
	Field  string
	Got    string
	Want   string
}

// Error implements the error interface.
func (e *ExpectationError) Error() string {
	return fmt.Sprintf("vector %q step %d (%s): expected %s %s, got %s",
		e.Vector, e.Seq, e.Event, e.Field, e.Want, e.Got)
}

// Replay runs a vector against every engine backend and returns the
// agreed trace. It fails on the first backend divergence, expectation
// violation, or evaluation error.
func Replay(spec *machine.Spec, v *Vector) (*Result, error) {
	return ReplayInto(spec, v, nil)
}

// ReplayInto is Replay with optional coverage accounting and an
// explicit backend set. cov may be nil; an empty backend list means
// every engine backend.
func ReplayInto(spec *machine.Spec, v *Vector, cov *Coverage, backends ...Backend) (*Result, error) {
	if len(backends) == 0 {
		backends = EngineBackends(spec)
	}
	if len(backends) < 2 {
		return nil, fmt.Errorf("vector %q: conformance replay needs at least two backends, got %d", v.Name, len(backends))
	}

	names := make([]string, len(backends))
	for i, b := range backends {
		if err := b.Start(); err != nil {
			return nil, fmt.Errorf("vector %q: start backend %s: %w", v.Name, b.Name(), err)
		}
		names[i] = b.Name()
	}

	if len(v.Context) > 0 {
		fields, err := contextFromGo(v.Context)
		if err != nil {
			return nil, fmt.Errorf("vector %q: %w", v.Name, err)
		}
		for _, b := range backends {
			if err := b.Sync("", fields); err != nil {
				return nil, fmt.Errorf("vector %q: seed context on backend %s: %w", v.Name, b.Name(), err)
			}
		}
	}

	fingerprint := spec.Fingerprint()
	result := &Result{
		Vector:      v.Name,
		Machine:     spec.ID(),
		Fingerprint: fingerprint,
		Backends:    names,
		Steps:       make([]StepResult, 0, len(v.Steps)),
	}

	for seq, step := range v.Steps {
		prevState := backends[0].State()

		var ev machine.Event
		if !step.Reset {
			ev.Name = step.Event
			if step.Value != nil {
				payload, err := ir.FromGo(step.Value)
				if err != nil {
					return nil, fmt.Errorf("vector %q step %d: payload: %w", v.Name, seq, err)
				}
				ev.Value = payload
			}
		}

		// First backend sets the baseline; the rest must match it.
		base, err := runStep(backends[0], step, ev)
		if err != nil {
			return nil, fmt.Errorf("vector %q step %d on backend %s: %w", v.Name, seq, names[0], err)
		}
		for _, b := range backends[1:] {
			got, err := runStep(b, step, ev)
			if err != nil {
				return nil, fmt.Errorf("vector %q step %d on backend %s: %w", v.Name, seq, b.Name(), err)
			}
			if d := diffOutcome(v.Name, seq, step.Event, names[0], b.Name(), base, got); d != nil {
				return nil, d
			}
		}

		hash, err := ir.ContextHash(base.ctx)
		if err != nil {
			return nil, fmt.Errorf("vector %q step %d: %w", v.Name, seq, err)
		}
		sr := StepResult{
			Seq:     seq,
			Event:   step.Event,
			Reset:   step.Reset,
			Handled: base.handled,
			State:   base.state,
			Context: base.ctx,
			Hash:    hash,
		}
		result.Steps = append(result.Steps, sr)

		if err := checkExpect(v.Name, seq, step, sr); err != nil {
			return nil, err
		}
		if cov != nil {
			cov.observe(spec, prevState, step, sr)
		}
	}

	return result, nil
}

type outcome struct {
	handled bool
	state   string
	ctx     ir.Context
}

func runStep(b Backend, step Step, ev machine.Event) (outcome, error) {
	var handled bool
	if step.Reset {
		if err := b.Reset(); err != nil {
			return outcome{}, err
		}
	} else {
		var err error
		handled, err = b.Send(ev)
		if err != nil {
			return outcome{}, err
		}
	}
	return outcome{handled: handled, state: b.State(), ctx: b.Context()}, nil
}

func diffOutcome(vector string, seq int, event, baseline, backend string, base, got outcome) error {
	if got.handled != base.handled {
		return &DivergenceError{
			Vector: vector, Seq: seq, Event: event, Field: "handled",
			Backend: backend, Baseline: baseline,
			Got: fmt.Sprintf("%v", got.handled), Want: fmt.Sprintf("%v", base.handled),
		}
	}
	if got.state != base.state {
		return &DivergenceError{
			Vector: vector, Seq: seq, Event: event, Field: "state",
			Backend: backend, Baseline: baseline,
			Got: got.state, Want: base.state,
		}
	}
	if !got.ctx.Equal(base.ctx) {
		return &DivergenceError{
			Vector: vector, Seq: seq, Event: event, Field: "context",
			Backend: backend, Baseline: baseline,
			Got: canonicalString(got.ctx), Want: canonicalString(base.ctx),
		}
	}
	return nil
}

func checkExpect(vector string, seq int, step Step, sr StepResult) error {
	if step.Expect == nil {
		return nil
	}
	e := step.Expect
	if e.Handled != nil && sr.Handled != *e.Handled {
		return &ExpectationError{
			Vector: vector, Seq: seq, Event: step.Event, Field: "handled",
			Got: fmt.Sprintf("%v", sr.Handled), Want: fmt.Sprintf("%v", *e.Handled),
		}
	}
	if e.State != "" && sr.State != e.State {
		return &ExpectationError{
			Vector: vector, Seq: seq, Event: step.Event, Field: "state",
			Got: sr.State, Want: e.State,
		}
	}
	for _, field := range sortedFieldNames(e.Context) {
		want, err := ir.FromGo(e.Context[field])
		if err != nil {
			return fmt.Errorf("vector %q step %d: expected context.%s: %w", vector, seq, field, err)
		}
		got, ok := sr.Context[field]
		if !ok {
			return &ExpectationError{
				Vector: vector, Seq: seq, Event: step.Event, Field: "context." + field,
				Got: "<missing>", Want: fmt.Sprintf("%v", ir.GoValue(want)),
			}
		}
		if !ir.Equal(got, want) {
			return &ExpectationError{
				Vector: vector, Seq: seq, Event: step.Event, Field: "context." + field,
				Got: fmt.Sprintf("%v", ir.GoValue(got)), Want: fmt.Sprintf("%v", ir.GoValue(want)),
			}
		}
	}
	return nil
}

func contextFromGo(m map[string]any) (ir.Context, error) {
	out := make(ir.Context, len(m))
	for name, raw := range m {
		v, err := ir.FromGo(raw)
		if err != nil {
			return nil, fmt.Errorf("context field %q: %w", name, err)
		}
		out[name] = v
	}
	return out, nil
}

func sortedFieldNames(m map[string]any) []string {
	out := make([]string, 0, len(m))
	for name := range m {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

func canonicalString(ctx ir.Context) string {
	data, err := ir.MarshalCanonical(ctx)
	if err != nil {
		return fmt.Sprintf("<unencodable: %v>", err)
	}
	return string(data)
}
