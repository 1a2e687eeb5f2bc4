package binding_test

import (
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubigo-ui/rubigo/internal/binding"
	"github.com/rubigo-ui/rubigo/internal/machine"
	"github.com/rubigo-ui/rubigo/internal/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newBinding(t *testing.T, component string) *binding.Binding {
	t.Helper()
	spec := testutil.CompileSpec(t, component)
	return binding.New(spec, machine.BackendCompiled, binding.WithLogger(quietLogger()))
}

func TestBindingSnapshots(t *testing.T) {
	b := newBinding(t, "checkbox")

	assert.Equal(t, "checkbox", b.Machine())
	assert.NotEmpty(t, b.ID())
	assert.Equal(t, "idle", b.GetState())

	ctx := b.GetContext()
	assert.Equal(t, false, ctx["checked"])

	// Mutating the snapshot never reaches the instance.
	ctx["checked"] = true
	assert.Equal(t, false, b.GetContext()["checked"])
}

func TestBindingSend(t *testing.T) {
	b := newBinding(t, "checkbox")

	handled, err := b.Send("TOGGLE")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, true, b.GetContext()["checked"])

	handled, err = b.Send("BLUR")
	require.NoError(t, err)
	assert.False(t, handled)
}

func TestBindingSendValue(t *testing.T) {
	b := newBinding(t, "slider")

	handled, err := b.SendValue("SET", 75)
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, float64(75), b.GetContext()["value"])

	_, err = b.SendValue("SET", []int{1})
	assert.Error(t, err)
}

func TestBindingContextJSON(t *testing.T) {
	b := newBinding(t, "toggle-group")

	data, err := b.GetContextJSON()
	require.NoError(t, err)
	assert.Equal(t, `{"disabled":false,"value":""}`, string(data))
}

func TestBindingForceSync(t *testing.T) {
	b := newBinding(t, "checkbox")

	require.NoError(t, b.ForceSync("focused", map[string]any{"checked": true}))
	assert.Equal(t, "focused", b.GetState())
	assert.Equal(t, true, b.GetContext()["checked"])

	err := b.ForceSync("", map[string]any{"checked": 1.0})
	require.Error(t, err)
	assert.Equal(t, true, b.GetContext()["checked"])

	assert.Error(t, b.ForceSync("", map[string]any{"checked": []bool{true}}))
}

func TestBindingFieldSetters(t *testing.T) {
	b := newBinding(t, "slider")

	require.NoError(t, b.SetBool("disabled", true))
	require.NoError(t, b.SetNumber("value", 10))
	assert.Equal(t, true, b.GetContext()["disabled"])
	assert.Equal(t, float64(10), b.GetContext()["value"])

	handled, err := b.Send("INCREMENT")
	require.NoError(t, err)
	assert.False(t, handled)

	g := newBinding(t, "toggle-group")
	require.NoError(t, g.SetString("value", "a"))
	assert.Equal(t, "a", g.GetContext()["value"])
}

func TestBindingReset(t *testing.T) {
	b := newBinding(t, "checkbox")

	_, err := b.Send("TOGGLE")
	require.NoError(t, err)
	b.Reset()
	assert.Equal(t, "idle", b.GetState())
	assert.Equal(t, false, b.GetContext()["checked"])
}

func TestOpName(t *testing.T) {
	assert.Equal(t, "toggle", binding.OpName("TOGGLE"))
	assert.Equal(t, "clearIndeterminate", binding.OpName("CLEAR_INDETERMINATE"))
	assert.Equal(t, "setIndeterminate", binding.OpName("SET_INDETERMINATE"))
}

func TestGeneratedOps(t *testing.T) {
	b := newBinding(t, "checkbox")

	ops := b.Ops()
	require.NotEmpty(t, ops)

	byName := make(map[string]binding.Op, len(ops))
	for _, op := range ops {
		byName[op.Name] = op
	}

	toggle, ok := byName["toggle"]
	require.True(t, ok)
	assert.Equal(t, "TOGGLE", toggle.Event)
	assert.Equal(t, []string{"focused", "idle"}, toggle.States)

	blur, ok := byName["blur"]
	require.True(t, ok)
	assert.Equal(t, []string{"focused"}, blur.States)
}

func TestInvoke(t *testing.T) {
	b := newBinding(t, "checkbox")

	handled, err := b.Invoke("toggle")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, true, b.GetContext()["checked"])

	_, err = b.Invoke("explode")
	assert.Error(t, err)

	g := newBinding(t, "toggle-group")
	handled, err = g.InvokeValue("select", "a")
	require.NoError(t, err)
	assert.True(t, handled)
	assert.Equal(t, "a", g.GetContext()["value"])
}

func TestWithID(t *testing.T) {
	spec := testutil.CompileSpec(t, "dialog")
	b := binding.New(spec, machine.BackendInterpreted,
		binding.WithID("replay-0"), binding.WithLogger(quietLogger()))
	assert.Equal(t, "replay-0", b.ID())
}
