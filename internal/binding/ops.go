package binding

import (
	"fmt"
	"sort"
	"strings"

	"github.com/rubigo-ui/rubigo/internal/machine"
)

// Op is one generated host operation: a camelCase method name derived
// from an event the machine accepts somewhere. Framework adapters
// surface these as component props (onToggle, onSelect) without
// hand-writing a wrapper per event.
type Op struct {
	// Name is the host-side operation name, e.g. "clearIndeterminate"
	// for the CLEAR_INDETERMINATE event.
	Name string

	// Event is the machine event the op dispatches.
	Event string

	// States lists the states in which the event is accepted, sorted.
	States []string
}

// Ops returns the binding's generated operations, sorted by name.
func (b *Binding) Ops() []Op {
	out := make([]Op, len(b.ops))
	copy(out, b.ops)
	return out
}

// Invoke dispatches the event behind a generated op.
func (b *Binding) Invoke(op string) (bool, error) {
	event, ok := b.lookupOp(op)
	if !ok {
		return false, fmt.Errorf("binding %s: unknown op %q", b.Machine(), op)
	}
	return b.Send(event)
}

// InvokeValue dispatches the event behind a generated op with a
// payload.
func (b *Binding) InvokeValue(op string, value any) (bool, error) {
	event, ok := b.lookupOp(op)
	if !ok {
		return false, fmt.Errorf("binding %s: unknown op %q", b.Machine(), op)
	}
	return b.SendValue(event, value)
}

func (b *Binding) lookupOp(op string) (string, bool) {
	for i := range b.ops {
		if b.ops[i].Name == op {
			return b.ops[i].Event, true
		}
	}
	return "", false
}

func buildOps(spec *machine.Spec) []Op {
	states := make(map[string][]string)
	for _, tr := range spec.Transitions() {
		states[tr.Event] = append(states[tr.Event], tr.Source)
	}

	ops := make([]Op, 0, len(states))
	for _, event := range spec.EventNames() {
		srcs := states[event]
		sort.Strings(srcs)
		ops = append(ops, Op{
			Name:   OpName(event),
			Event:  event,
			States: srcs,
		})
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Name < ops[j].Name })
	return ops
}

// OpName converts an UPPER_SNAKE event name to the camelCase operation
// name hosts see: "TOGGLE" becomes "toggle", "CLEAR_INDETERMINATE"
// becomes "clearIndeterminate".
func OpName(event string) string {
	parts := strings.Split(strings.ToLower(event), "_")
	var sb strings.Builder
	for i, p := range parts {
		if p == "" {
			continue
		}
		if i == 0 {
			sb.WriteString(p)
			continue
		}
		sb.WriteString(strings.ToUpper(p[:1]))
		sb.WriteString(p[1:])
	}
	return sb.String()
}
