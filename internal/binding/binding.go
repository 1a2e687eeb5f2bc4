// Package binding is the host-facing surface over a machine instance:
// snapshot reads, event dispatch, and the privileged sync writes a
// controlled-component host needs. One Binding wraps one instance;
// hosts that render several components hold several bindings.
package binding

import (
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/rubigo-ui/rubigo/internal/ir"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

// Binding exposes one machine instance to a host. All reads return
// snapshots; nothing a host does to a returned value can reach the
// instance except through Send, Reset, and ForceSync.
type Binding struct {
	id   string
	inst *machine.Instance
	log  *slog.Logger
	ops  []Op
}

// Option configures a Binding.
type Option func(*Binding)

// WithLogger sets the structured logger. The default discards nothing
// and writes nowhere useful for hosts; embedding surfaces always pass
// their own.
func WithLogger(log *slog.Logger) Option {
	return func(b *Binding) { b.log = log }
}

// WithID pins the binding id instead of generating one. Used by the
// conformance harness so replay traces are stable.
func WithID(id string) Option {
	return func(b *Binding) { b.id = id }
}

// New creates a binding over a fresh instance of spec.
func New(spec *machine.Spec, backend machine.Backend, opts ...Option) *Binding {
	b := &Binding{
		id:   uuid.NewString(),
		inst: machine.NewInstance(spec, backend),
		log:  slog.Default(),
	}
	for _, opt := range opts {
		opt(b)
	}
	b.ops = buildOps(spec)
	b.log = b.log.With("machine", spec.ID(), "binding", b.id, "backend", backend.String())
	return b
}

// ID returns the binding's unique identifier.
func (b *Binding) ID() string { return b.id }

// Machine returns the bound spec's id.
func (b *Binding) Machine() string { return b.inst.Spec().ID() }

// Instance exposes the underlying instance for harness use.
func (b *Binding) Instance() *machine.Instance { return b.inst }

// GetState returns the current state name.
func (b *Binding) GetState() string { return b.inst.State() }

// GetContext returns a snapshot of the current context as plain Go
// values (bool, float64, string), keyed by field name.
func (b *Binding) GetContext() map[string]any {
	ctx := b.inst.Context()
	out := make(map[string]any, len(ctx))
	for name, v := range ctx {
		out[name] = ir.GoValue(v)
	}
	return out
}

// GetContextJSON returns the current context in canonical JSON form.
func (b *Binding) GetContextJSON() ([]byte, error) {
	return ir.MarshalCanonical(b.inst.Context())
}

// Send dispatches a payload-free event.
func (b *Binding) Send(event string) (bool, error) {
	return b.send(machine.Event{Name: event})
}

// SendValue dispatches an event carrying a payload. value must be a
// bool, a number, or a string.
func (b *Binding) SendValue(event string, value any) (bool, error) {
	v, err := ir.FromGo(value)
	if err != nil {
		return false, fmt.Errorf("event %q payload: %w", event, err)
	}
	return b.send(machine.Event{Name: event, Value: v})
}

func (b *Binding) send(ev machine.Event) (bool, error) {
	handled, err := b.inst.Send(ev)
	if err != nil {
		b.log.Error("dispatch failed", "event", ev.Name, "error", err)
		return false, err
	}
	b.log.Debug("dispatch", "event", ev.Name, "handled", handled, "state", b.inst.State())
	return handled, nil
}

// Reset returns the instance to its initial state and default context.
func (b *Binding) Reset() {
	b.inst.Reset()
	b.log.Debug("reset", "state", b.inst.State())
}

// ForceSync overwrites state and/or context fields without guard
// checks. This is the controlled-component write path: the host owns
// the value and the machine follows it. Values must match the declared
// field kinds; a failed sync changes nothing.
func (b *Binding) ForceSync(state string, fields map[string]any) error {
	var ctx ir.Context
	if len(fields) > 0 {
		ctx = make(ir.Context, len(fields))
		for name, raw := range fields {
			v, err := ir.FromGo(raw)
			if err != nil {
				return fmt.Errorf("force-sync field %q: %w", name, err)
			}
			ctx[name] = v
		}
	}
	if err := b.inst.ForceSync(state, ctx); err != nil {
		b.log.Error("force-sync rejected", "state", state, "error", err)
		return err
	}
	b.log.Debug("force-sync", "state", b.inst.State())
	return nil
}

// SetBool force-syncs a single boolean context field.
func (b *Binding) SetBool(field string, value bool) error {
	return b.inst.SetField(field, ir.Bool(value))
}

// SetNumber force-syncs a single numeric context field.
func (b *Binding) SetNumber(field string, value float64) error {
	return b.inst.SetField(field, ir.Number(value))
}

// SetString force-syncs a single string context field.
func (b *Binding) SetString(field string, value string) error {
	return b.inst.SetField(field, ir.String(value))
}
