package machine

import (
	"github.com/rubigo-ui/rubigo/internal/expr"
	"github.com/rubigo-ui/rubigo/internal/ir"
)

// Backend selects how an instance executes guard and action
// expressions. Both backends run the same compiled spec and must
// produce identical (state, context, handled) sequences; the
// conformance harness replays every vector against both to prove it.
type Backend int

const (
	// BackendInterpreted walks the expression ASTs on every dispatch.
	BackendInterpreted Backend = iota

	// BackendCompiled calls closures pre-built at spec construction.
	BackendCompiled
)

// Backends lists every execution backend, in conformance order.
var Backends = []Backend{BackendInterpreted, BackendCompiled}

// String returns the backend's wire name.
func (b Backend) String() string {
	switch b {
	case BackendInterpreted:
		return "interpreted"
	case BackendCompiled:
		return "compiled"
	default:
		return "unknown"
	}
}

// ParseBackend maps a wire name back to a Backend.
func ParseBackend(name string) (Backend, bool) {
	switch name {
	case "interpreted":
		return BackendInterpreted, true
	case "compiled":
		return BackendCompiled, true
	default:
		return 0, false
	}
}

// Event is one dispatched occurrence: a name and an optional payload
// reachable in expressions as event.value.
type Event struct {
	Name  string
	Value ir.Value // nil when the event carries no payload
}

// Instance is one live machine: a spec plus the mutable (state,
// context) pair. Instances are not safe for concurrent use; hosts
// serialize dispatch, matching the single-threaded embedding surface.
type Instance struct {
	spec    *Spec
	backend Backend
	state   string
	ctx     ir.Context
}

// NewInstance starts an instance at the spec's initial state with a
// fresh copy of the default context.
func NewInstance(spec *Spec, backend Backend) *Instance {
	return &Instance{
		spec:    spec,
		backend: backend,
		state:   spec.Initial(),
		ctx:     spec.Defaults(),
	}
}

// Spec returns the immutable spec this instance runs.
func (in *Instance) Spec() *Spec { return in.spec }

// Backend returns the execution backend.
func (in *Instance) Backend() Backend { return in.backend }

// State returns the current state name.
func (in *Instance) State() string { return in.state }

// Context returns a snapshot of the current context. Mutating the
// returned map never affects the instance.
func (in *Instance) Context() ir.Context { return in.ctx.Clone() }

// ContextHash returns the domain-separated hash of the current
// context's canonical form.
func (in *Instance) ContextHash() (string, error) { return ir.ContextHash(in.ctx) }

// Send dispatches one event. It returns handled=false, with the
// instance untouched, when the current state does not accept the event
// or the transition's guard evaluates to false. It returns
// handled=true after the transition commits: actions applied in
// declared order, then the state set to the target.
//
// On any evaluation error the instance keeps its exact pre-call state
// and context. Actions run against a scratch copy that is only
// committed once every action has succeeded.
func (in *Instance) Send(ev Event) (bool, error) {
	tr := in.spec.Lookup(in.state, ev.Name)
	if tr == nil {
		return false, nil
	}

	env := expr.Env{Ctx: in.ctx, Event: ev.Value}
	if tr.Guard != nil {
		ok, err := in.evalGuard(tr.Guard, env)
		if err != nil {
			return false, in.runtimeErr(ErrCodeEvalFailed, ev.Name, err)
		}
		if !ok {
			return false, nil
		}
	}

	scratch := in.ctx.Clone()
	env.Ctx = scratch
	for _, act := range tr.Actions {
		if err := in.runAction(act, env); err != nil {
			return false, in.runtimeErr(ErrCodeEvalFailed, ev.Name, err)
		}
	}

	in.ctx = scratch
	in.state = tr.Target
	return true, nil
}

func (in *Instance) evalGuard(g *expr.Guard, env expr.Env) (bool, error) {
	if in.backend == BackendCompiled {
		return g.Call(env)
	}
	return g.Interpret(env)
}

func (in *Instance) runAction(a *expr.Action, env expr.Env) error {
	if in.backend == BackendCompiled {
		return a.Call(env)
	}
	return a.Interpret(env)
}

// Reset returns the instance to the initial state and default context,
// discarding all accumulated history. Reset is not guarded and cannot
// fail.
func (in *Instance) Reset() {
	in.state = in.spec.Initial()
	in.ctx = in.spec.Defaults()
}

// ForceSync is the privileged host write: it sets the state and
// overwrites the named context fields without consulting any guard.
// state may be "" to keep the current state; fields may be nil. The
// write is validated in full before anything is applied, so a failed
// ForceSync leaves the instance untouched.
func (in *Instance) ForceSync(state string, fields ir.Context) error {
	if state != "" && !in.spec.HasState(state) {
		return &RuntimeError{
			Code:    ErrCodeUnknownState,
			Message: "force-sync targets state " + state + " which the machine does not declare",
			Machine: in.spec.ID(),
			State:   in.state,
		}
	}
	for name, v := range fields {
		kind, ok := in.spec.FieldKind(name)
		if !ok {
			return &RuntimeError{
				Code:    ErrCodeUnknownField,
				Message: "force-sync writes undeclared context field " + name,
				Machine: in.spec.ID(),
				State:   in.state,
			}
		}
		if v.Kind() != kind {
			return &RuntimeError{
				Code:    ErrCodeTypeMismatch,
				Message: "force-sync writes " + v.Kind().String() + " into " + kind.String() + " field " + name,
				Machine: in.spec.ID(),
				State:   in.state,
			}
		}
	}

	if state != "" {
		in.state = state
	}
	for name, v := range fields {
		in.ctx[name] = v
	}
	return nil
}

// SetField force-syncs a single context field.
func (in *Instance) SetField(name string, v ir.Value) error {
	return in.ForceSync("", ir.Context{name: v})
}

func (in *Instance) runtimeErr(code RuntimeErrorCode, event string, cause error) error {
	return &RuntimeError{
		Code:    code,
		Message: cause.Error(),
		Machine: in.spec.ID(),
		State:   in.state,
		Event:   event,
	}
}
