//go:build js && wasm

// Package wasm exposes the binding surface to a JavaScript host. The
// exported object holds a registry of live bindings keyed by id;
// every call crosses the boundary with plain strings, numbers, and
// booleans, and context snapshots cross as fresh JS objects.
package wasm

import (
	"log/slog"
	"strings"
	"syscall/js"

	"github.com/rubigo-ui/rubigo/internal/binding"
	"github.com/rubigo-ui/rubigo/internal/compiler"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

// Runtime is the JS-visible engine: a registry of bindings plus the
// constructor that compiles documents into them.
type Runtime struct {
	log      *slog.Logger
	bindings map[string]*binding.Binding
}

// New creates an empty runtime.
func New(log *slog.Logger) *Runtime {
	return &Runtime{log: log, bindings: make(map[string]*binding.Binding)}
}

// Install attaches the runtime's API object to the given JS value
// under the "rubigo" property.
func (r *Runtime) Install(global js.Value) {
	api := js.ValueOf(map[string]any{})
	api.Set("newMachine", js.FuncOf(r.newMachine))
	api.Set("dispose", js.FuncOf(r.dispose))
	api.Set("currentState", js.FuncOf(r.currentState))
	api.Set("getContext", js.FuncOf(r.getContext))
	api.Set("getContextJson", js.FuncOf(r.getContextJSON))
	api.Set("send", js.FuncOf(r.send))
	api.Set("sendWithPayload", js.FuncOf(r.sendWithPayload))
	api.Set("setContextBool", js.FuncOf(r.setContextBool))
	api.Set("forceSync", js.FuncOf(r.forceSync))
	api.Set("reset", js.FuncOf(r.reset))
	api.Set("ops", js.FuncOf(r.ops))
	global.Set("rubigo", api)
}

// newMachine(documentJSON, backend) compiles a document and registers
// a binding over it. Returns {id} on success or {errors: [...]} with
// one entry per validation failure.
func (r *Runtime) newMachine(_ js.Value, args []js.Value) any {
	if len(args) < 1 {
		return errObj("newMachine requires a document argument")
	}
	doc := []byte(args[0].String())

	backend := machine.BackendCompiled
	if len(args) > 1 && args[1].Type() == js.TypeString {
		b, ok := machine.ParseBackend(args[1].String())
		if !ok {
			return errObj("unknown backend " + args[1].String())
		}
		backend = b
	}

	spec, verrs := compiler.Compile(doc)
	if len(verrs) > 0 {
		msgs := make([]any, len(verrs))
		for i, e := range verrs {
			msgs[i] = e.Error()
		}
		return map[string]any{"errors": msgs}
	}

	b := binding.New(spec, backend, binding.WithLogger(r.log))
	r.bindings[b.ID()] = b
	return map[string]any{"id": b.ID(), "machine": spec.ID(), "state": b.GetState()}
}

// dispose(id) drops a binding from the registry.
func (r *Runtime) dispose(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	delete(r.bindings, b.ID())
	return js.Undefined()
}

func (r *Runtime) currentState(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	return b.GetState()
}

func (r *Runtime) getContext(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	ctx := b.GetContext()
	out := make(map[string]any, len(ctx))
	for name, v := range ctx {
		out[name] = v
	}
	return out
}

func (r *Runtime) getContextJSON(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	data, err := b.GetContextJSON()
	if err != nil {
		return errObj(err.Error())
	}
	return string(data)
}

// send(id, event) dispatches a payload-free event and returns whether
// the machine handled it.
func (r *Runtime) send(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	if len(args) < 2 {
		return errObj("send requires an event name")
	}
	handled, err := b.Send(args[1].String())
	if err != nil {
		return errObj(err.Error())
	}
	return handled
}

// sendWithPayload(id, event, value) dispatches an event whose payload
// is readable in expressions as event.value.
func (r *Runtime) sendWithPayload(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	if len(args) < 3 {
		return errObj("sendWithPayload requires an event name and a value")
	}
	value, ok := jsScalar(args[2])
	if !ok {
		return errObj("payload must be a boolean, number, or string")
	}
	handled, err := b.SendValue(args[1].String(), value)
	if err != nil {
		return errObj(err.Error())
	}
	return handled
}

// setContextBool(id, field, value) is the narrow controlled-prop
// write: hosts push a boolean the machine must follow.
func (r *Runtime) setContextBool(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	if len(args) < 3 {
		return errObj("setContextBool requires a field name and a value")
	}
	if err := b.SetBool(args[1].String(), args[2].Bool()); err != nil {
		return errObj(err.Error())
	}
	return js.Undefined()
}

// forceSync(id, state, fields) overwrites state and context fields in
// one validated write. state may be "" and fields may be omitted.
func (r *Runtime) forceSync(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	state := ""
	if len(args) > 1 && args[1].Type() == js.TypeString {
		state = args[1].String()
	}
	var fields map[string]any
	if len(args) > 2 && args[2].Type() == js.TypeObject {
		fields = make(map[string]any)
		keys := js.Global().Get("Object").Call("keys", args[2])
		for i := 0; i < keys.Length(); i++ {
			key := keys.Index(i).String()
			value, ok := jsScalar(args[2].Get(key))
			if !ok {
				return errObj("field " + key + " must be a boolean, number, or string")
			}
			fields[key] = value
		}
	}
	if err := b.ForceSync(state, fields); err != nil {
		return errObj(err.Error())
	}
	return js.Undefined()
}

func (r *Runtime) reset(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	b.Reset()
	return js.Undefined()
}

// ops(id) returns the generated operation names and the events behind
// them, for adapters that build prop surfaces dynamically.
func (r *Runtime) ops(_ js.Value, args []js.Value) any {
	b, errv := r.resolve(args)
	if errv != nil {
		return errv
	}
	out := make([]any, 0)
	for _, op := range b.Ops() {
		states := make([]any, len(op.States))
		for i, s := range op.States {
			states[i] = s
		}
		out = append(out, map[string]any{
			"name":   op.Name,
			"event":  op.Event,
			"states": states,
		})
	}
	return out
}

func (r *Runtime) resolve(args []js.Value) (*binding.Binding, any) {
	if len(args) < 1 {
		return nil, errObj("missing binding id")
	}
	id := args[0].String()
	b, ok := r.bindings[id]
	if !ok {
		return nil, errObj("unknown binding " + id)
	}
	return b, nil
}

func jsScalar(v js.Value) (any, bool) {
	switch v.Type() {
	case js.TypeBoolean:
		return v.Bool(), true
	case js.TypeNumber:
		return v.Float(), true
	case js.TypeString:
		return v.String(), true
	default:
		return nil, false
	}
}

func errObj(msg string) map[string]any {
	return map[string]any{"error": strings.TrimSpace(msg)}
}
