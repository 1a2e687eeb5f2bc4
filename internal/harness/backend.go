package harness

import (
	"github.com/rubigo-ui/rubigo/internal/ir"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

// Backend is one replayable execution of a machine spec. The harness
// only observes backends through this surface, which is exactly the
// surface a host sees; anything a backend gets wrong here is a bug a
// host would hit.
type Backend interface {
	// Name identifies the backend in divergence reports.
	Name() string

	// Start (re)creates the instance at the initial state.
	Start() error

	// Send dispatches one event.
	Send(ev machine.Event) (bool, error)

	// Reset returns to the initial state and default context.
	Reset() error

	// Sync is the privileged host write: set state and/or overwrite
	// context fields, bypassing guards. Used to seed vector contexts.
	Sync(state string, fields ir.Context) error

	// State returns the current state name.
	State() string

	// Context returns a snapshot of the current context.
	Context() ir.Context
}

// instanceBackend runs a spec in-process on one of the engine's
// execution modes.
type instanceBackend struct {
	spec *machine.Spec
	mode machine.Backend
	inst *machine.Instance
}

// NewInstanceBackend wraps an in-process instance as a harness
// backend.
func NewInstanceBackend(spec *machine.Spec, mode machine.Backend) Backend {
	return &instanceBackend{spec: spec, mode: mode}
}

// EngineBackends returns one harness backend per engine execution
// mode, in conformance order.
func EngineBackends(spec *machine.Spec) []Backend {
	out := make([]Backend, 0, len(machine.Backends))
	for _, mode := range machine.Backends {
		out = append(out, NewInstanceBackend(spec, mode))
	}
	return out
}

func (b *instanceBackend) Name() string { return b.mode.String() }

func (b *instanceBackend) Start() error {
	b.inst = machine.NewInstance(b.spec, b.mode)
	return nil
}

func (b *instanceBackend) Send(ev machine.Event) (bool, error) {
	return b.inst.Send(ev)
}

func (b *instanceBackend) Reset() error {
	b.inst.Reset()
	return nil
}

func (b *instanceBackend) Sync(state string, fields ir.Context) error {
	return b.inst.ForceSync(state, fields)
}

func (b *instanceBackend) State() string { return b.inst.State() }

func (b *instanceBackend) Context() ir.Context { return b.inst.Context() }
