package harness

import (
	"fmt"
	"sort"

	"github.com/rubigo-ui/rubigo/internal/machine"
)

// Coverage accumulates what a vector set actually exercised on one
// machine. A vector set that replays green but leaves coverage gaps
// has proven nothing about the uncovered paths, so test suites check
// Unmet after replaying everything.
//
// The requirements: every guard observed both passing and failing,
// every action executed at least once, at least one unhandled event
// per state, at least one mid-sequence reset, and at least one
// immediately repeated self-transition.
type Coverage struct {
	machine string

	guardTrue  map[string]int
	guardFalse map[string]int
	actions    map[string]int
	noop       map[string]int

	resets      int
	selfRepeats int

	// selfPossible is false when the spec declares no self-transition,
	// which makes the repeat requirement unsatisfiable.
	selfPossible bool

	// last self-transition taken, for repeat detection
	lastSelf struct {
		state string
		event string
		valid bool
	}
}

// NewCoverage creates an empty accumulator for spec.
func NewCoverage(spec *machine.Spec) *Coverage {
	c := &Coverage{
		machine:    spec.ID(),
		guardTrue:  make(map[string]int),
		guardFalse: make(map[string]int),
		actions:    make(map[string]int),
		noop:       make(map[string]int),
	}
	for _, name := range spec.GuardNames() {
		c.guardTrue[name] = 0
		c.guardFalse[name] = 0
	}
	for _, name := range spec.ActionNames() {
		c.actions[name] = 0
	}
	for _, state := range spec.States() {
		c.noop[state] = 0
	}
	for _, tr := range spec.Transitions() {
		if tr.Source == tr.Target {
			c.selfPossible = true
			break
		}
	}
	return c
}

// observe accounts one agreed replay step. prevState is the state the
// instance was in before the step ran.
func (c *Coverage) observe(spec *machine.Spec, prevState string, step Step, sr StepResult) {
	if step.Reset {
		if sr.Seq > 0 {
			c.resets++
		}
		c.lastSelf.valid = false
		return
	}

	tr := spec.Lookup(prevState, step.Event)
	if tr == nil {
		// The state does not accept the event: the per-state no-op.
		c.noop[prevState]++
		c.lastSelf.valid = false
		return
	}

	if !sr.Handled {
		// A transition exists but the step was not handled, so the
		// guard must have refused it.
		if tr.GuardName != "" {
			c.guardFalse[tr.GuardName]++
		}
		c.lastSelf.valid = false
		return
	}

	if tr.GuardName != "" {
		c.guardTrue[tr.GuardName]++
	}
	for _, name := range tr.ActionNames {
		c.actions[name]++
	}

	if tr.Target == prevState {
		if c.lastSelf.valid && c.lastSelf.state == prevState && c.lastSelf.event == step.Event {
			c.selfRepeats++
		}
		c.lastSelf.state = prevState
		c.lastSelf.event = step.Event
		c.lastSelf.valid = true
	} else {
		c.lastSelf.valid = false
	}
}

// Merge folds another accumulator for the same machine into c.
// Repeat detection state does not carry across vectors.
func (c *Coverage) Merge(o *Coverage) {
	for name, n := range o.guardTrue {
		c.guardTrue[name] += n
	}
	for name, n := range o.guardFalse {
		c.guardFalse[name] += n
	}
	for name, n := range o.actions {
		c.actions[name] += n
	}
	for state, n := range o.noop {
		c.noop[state] += n
	}
	c.resets += o.resets
	c.selfRepeats += o.selfRepeats
}

// Unmet returns the coverage requirements the replayed vectors did not
// satisfy, sorted, empty when the set is complete.
func (c *Coverage) Unmet() []string {
	var out []string
	for name, n := range c.guardTrue {
		if n == 0 {
			out = append(out, fmt.Sprintf("guard %q never passed", name))
		}
	}
	for name, n := range c.guardFalse {
		if n == 0 {
			out = append(out, fmt.Sprintf("guard %q never failed", name))
		}
	}
	for name, n := range c.actions {
		if n == 0 {
			out = append(out, fmt.Sprintf("action %q never executed", name))
		}
	}
	for state, n := range c.noop {
		if n == 0 {
			out = append(out, fmt.Sprintf("state %q never received an unhandled event", state))
		}
	}
	if c.resets == 0 {
		out = append(out, "no mid-sequence reset observed")
	}
	if c.selfPossible && c.selfRepeats == 0 {
		out = append(out, "no repeated self-transition observed")
	}
	sort.Strings(out)
	return out
}

// Complete reports whether every requirement was met.
func (c *Coverage) Complete() bool { return len(c.Unmet()) == 0 }
