// Package machine implements the runtime core: immutable machine
// specs built from validated documents, and instances that dispatch
// events against them.
//
// The core is a flat (non-hierarchical) state machine. Every dispatch
// is synchronous and either commits completely or leaves the instance
// untouched; there is no partially applied transition.
package machine

import (
	"fmt"
	"sort"

	"github.com/rubigo-ui/rubigo/internal/expr"
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// Transition is one compiled edge of the machine: an event accepted in
// some state, an optional guard, an ordered action list, and a target
// state. Self-transitions name their own state as the target.
type Transition struct {
	Event       string
	Source      string
	Target      string
	GuardName   string // "" when unguarded
	Guard       *expr.Guard
	ActionNames []string
	Actions     []*expr.Action
}

// Spec is an immutable, fully compiled machine definition. All
// expression compilation and referential validation happens before a
// Spec exists; instances never re-check any of it on the dispatch
// path.
type Spec struct {
	id          string
	initial     string
	states      map[string]map[string]*Transition
	fields      map[string]ir.Kind
	defaults    ir.Context
	guards      map[string]*expr.Guard
	actions     map[string]*expr.Action
	fingerprint string
}

// SpecConfig carries the pieces the compiler assembles into a Spec.
// States lists every declared state, including terminal states with no
// outgoing transitions; when empty, the state set is derived from
// transition sources.
type SpecConfig struct {
	ID          string
	Initial     string
	States      []string
	Defaults    ir.Context
	Guards      map[string]*expr.Guard
	Actions     map[string]*expr.Action
	Transitions []Transition
	Fingerprint string
}

// NewSpec builds an immutable Spec from compiled parts. It re-checks
// referential integrity so a Spec can never exist half-wired, even if
// a caller bypasses the document compiler.
func NewSpec(cfg SpecConfig) (*Spec, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("machine: spec has no id")
	}
	if len(cfg.Defaults) == 0 {
		return nil, fmt.Errorf("machine: spec %q declares no context fields", cfg.ID)
	}

	fields := make(map[string]ir.Kind, len(cfg.Defaults))
	for name, v := range cfg.Defaults {
		fields[name] = v.Kind()
	}

	states := make(map[string]map[string]*Transition, len(cfg.States))
	for _, name := range cfg.States {
		states[name] = make(map[string]*Transition)
	}
	if len(states) == 0 {
		// No declared list given; fall back to transition sources.
		// Terminal states cannot be expressed this way.
		for i := range cfg.Transitions {
			src := cfg.Transitions[i].Source
			if _, ok := states[src]; !ok {
				states[src] = make(map[string]*Transition)
			}
		}
	}
	if _, ok := states[cfg.Initial]; !ok {
		return nil, fmt.Errorf("machine: spec %q initial state %q is not declared", cfg.ID, cfg.Initial)
	}

	for i := range cfg.Transitions {
		tr := cfg.Transitions[i]
		if _, ok := states[tr.Source]; !ok {
			return nil, fmt.Errorf("machine: spec %q transition %s.%s starts from unknown state %q",
				cfg.ID, tr.Source, tr.Event, tr.Source)
		}
		if _, ok := states[tr.Target]; !ok {
			return nil, fmt.Errorf("machine: spec %q transition %s.%s targets unknown state %q",
				cfg.ID, tr.Source, tr.Event, tr.Target)
		}
		if tr.GuardName != "" && tr.Guard == nil {
			return nil, fmt.Errorf("machine: spec %q transition %s.%s names guard %q but carries no compiled form",
				cfg.ID, tr.Source, tr.Event, tr.GuardName)
		}
		if len(tr.ActionNames) != len(tr.Actions) {
			return nil, fmt.Errorf("machine: spec %q transition %s.%s action list is incomplete",
				cfg.ID, tr.Source, tr.Event)
		}
		if prev, ok := states[tr.Source][tr.Event]; ok && prev != nil {
			return nil, fmt.Errorf("machine: spec %q state %q declares event %q twice",
				cfg.ID, tr.Source, tr.Event)
		}
		cp := tr
		states[tr.Source][tr.Event] = &cp
	}

	return &Spec{
		id:          cfg.ID,
		initial:     cfg.Initial,
		states:      states,
		fields:      fields,
		defaults:    cfg.Defaults.Clone(),
		guards:      cfg.Guards,
		actions:     cfg.Actions,
		fingerprint: cfg.Fingerprint,
	}, nil
}

// ID returns the machine identifier.
func (s *Spec) ID() string { return s.id }

// Initial returns the initial state name.
func (s *Spec) Initial() string { return s.initial }

// Fingerprint returns the canonical document hash this spec was
// compiled from, or "" when built directly from a SpecConfig.
func (s *Spec) Fingerprint() string { return s.fingerprint }

// States returns all declared state names, sorted.
func (s *Spec) States() []string {
	out := make([]string, 0, len(s.states))
	for name := range s.states {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// HasState reports whether name is a declared state.
func (s *Spec) HasState(name string) bool {
	_, ok := s.states[name]
	return ok
}

// Events returns the event names state accepts, sorted. Unknown states
// yield nil.
func (s *Spec) Events(state string) []string {
	table, ok := s.states[state]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(table))
	for name := range table {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// EventNames returns every event name the machine accepts in any
// state, sorted and deduplicated.
func (s *Spec) EventNames() []string {
	seen := make(map[string]struct{})
	for _, table := range s.states {
		for name := range table {
			seen[name] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for name := range seen {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Lookup returns the transition for (state, event), or nil when the
// state does not accept the event.
func (s *Spec) Lookup(state, event string) *Transition {
	return s.states[state][event]
}

// Transitions returns every transition, ordered by source state then
// event name. The slice is freshly allocated.
func (s *Spec) Transitions() []Transition {
	var out []Transition
	for _, state := range s.States() {
		for _, event := range s.Events(state) {
			out = append(out, *s.states[state][event])
		}
	}
	return out
}

// Fields returns the declared context fields and their kinds. The map
// is freshly allocated.
func (s *Spec) Fields() map[string]ir.Kind {
	out := make(map[string]ir.Kind, len(s.fields))
	for name, kind := range s.fields {
		out[name] = kind
	}
	return out
}

// FieldKind returns the declared kind of a context field.
func (s *Spec) FieldKind(name string) (ir.Kind, bool) {
	k, ok := s.fields[name]
	return k, ok
}

// Defaults returns a fresh copy of the initial context.
func (s *Spec) Defaults() ir.Context { return s.defaults.Clone() }

// GuardNames returns all declared guard names, sorted.
func (s *Spec) GuardNames() []string {
	out := make([]string, 0, len(s.guards))
	for name := range s.guards {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// ActionNames returns all declared action names, sorted.
func (s *Spec) ActionNames() []string {
	out := make([]string, 0, len(s.actions))
	for name := range s.actions {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Guard returns a declared guard by name.
func (s *Spec) Guard(name string) (*expr.Guard, bool) {
	g, ok := s.guards[name]
	return g, ok
}

// Action returns a declared action by name.
func (s *Spec) Action(name string) (*expr.Action, bool) {
	a, ok := s.actions[name]
	return a, ok
}
