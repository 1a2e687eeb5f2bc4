package harness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubigo-ui/rubigo/internal/harness"
	"github.com/rubigo-ui/rubigo/internal/ir"
	"github.com/rubigo-ui/rubigo/internal/machine"
	"github.com/rubigo-ui/rubigo/internal/testutil"
)

func TestAllVectorsReplay(t *testing.T) {
	for _, v := range testutil.Vectors(t) {
		t.Run(v.Name, func(t *testing.T) {
			spec := testutil.CompileSpec(t, v.Component)

			result, err := harness.Replay(spec, v)
			require.NoError(t, err)
			assert.Equal(t, v.Name, result.Vector)
			assert.Equal(t, spec.ID(), result.Machine)
			assert.Equal(t, spec.Fingerprint(), result.Fingerprint)
			assert.Equal(t, []string{"interpreted", "compiled"}, result.Backends)
			assert.Len(t, result.Steps, len(v.Steps))

			for i, sr := range result.Steps {
				assert.Equal(t, i, sr.Seq)
				assert.Len(t, sr.Hash, 64)
			}
		})
	}
}

func TestCheckboxVectorsMeetCoverage(t *testing.T) {
	assertVectorsMeetCoverage(t, "checkbox",
		"checkbox-interaction", "checkbox-disabled", "checkbox-indeterminate")
}

func TestSliderVectorsMeetCoverage(t *testing.T) {
	assertVectorsMeetCoverage(t, "slider", "slider-bounds", "slider-disabled")
}

func assertVectorsMeetCoverage(t *testing.T, component string, vectors ...string) {
	t.Helper()
	spec := testutil.CompileSpec(t, component)
	cov := harness.NewCoverage(spec)

	for _, name := range vectors {
		v := testutil.Vector(t, name)
		require.Equal(t, component, v.Component)

		part := harness.NewCoverage(spec)
		_, err := harness.ReplayInto(spec, v, part)
		require.NoError(t, err)
		cov.Merge(part)
	}

	assert.True(t, cov.Complete(), "unmet coverage: %v", cov.Unmet())
}

func TestCorpusCoverageComplete(t *testing.T) {
	// The shipped vector set must fully cover every shipped machine.
	specs := make(map[string]*machine.Spec)
	coverage := make(map[string]*harness.Coverage)

	for _, v := range testutil.Vectors(t) {
		spec, ok := specs[v.Component]
		if !ok {
			spec = testutil.CompileSpec(t, v.Component)
			specs[v.Component] = spec
			coverage[v.Component] = harness.NewCoverage(spec)
		}
		_, err := harness.ReplayInto(spec, v, coverage[v.Component])
		require.NoError(t, err, "vector %s", v.Name)
	}

	require.Equal(t, len(testutil.SpecNames()), len(specs), "every shipped machine needs at least one vector")
	for component, cov := range coverage {
		assert.True(t, cov.Complete(), "machine %s unmet coverage: %v", component, cov.Unmet())
	}
}

func TestCoverageStartsUnmet(t *testing.T) {
	spec := testutil.CompileSpec(t, "checkbox")
	cov := harness.NewCoverage(spec)

	unmet := cov.Unmet()
	assert.False(t, cov.Complete())
	assert.Contains(t, unmet, `guard "interactive" never passed`)
	assert.Contains(t, unmet, `action "toggle" never executed`)
	assert.Contains(t, unmet, "no mid-sequence reset observed")
	assert.Contains(t, unmet, "no repeated self-transition observed")
}

func TestReplayNeedsTwoBackends(t *testing.T) {
	spec := testutil.CompileSpec(t, "checkbox")
	v := testutil.Vector(t, "checkbox-interaction")

	_, err := harness.ReplayInto(spec, v, nil,
		harness.NewInstanceBackend(spec, machine.BackendCompiled))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "at least two backends")
}

// lyingBackend wraps a real backend and inverts handled after a chosen
// number of steps, standing in for a broken execution mode.
type lyingBackend struct {
	harness.Backend
	after int
	seen  int
}

func (b *lyingBackend) Name() string { return "lying" }

func (b *lyingBackend) Send(ev machine.Event) (bool, error) {
	handled, err := b.Backend.Send(ev)
	b.seen++
	if b.seen > b.after {
		return !handled, err
	}
	return handled, err
}

func TestReplayDetectsDivergence(t *testing.T) {
	spec := testutil.CompileSpec(t, "checkbox")
	v := testutil.Vector(t, "checkbox-interaction")

	_, err := harness.ReplayInto(spec, v, nil,
		harness.NewInstanceBackend(spec, machine.BackendInterpreted),
		&lyingBackend{Backend: harness.NewInstanceBackend(spec, machine.BackendCompiled), after: 2})
	require.Error(t, err)

	var d *harness.DivergenceError
	require.ErrorAs(t, err, &d)
	assert.Equal(t, "handled", d.Field)
	assert.Equal(t, "lying", d.Backend)
	assert.Equal(t, 2, d.Seq)
}

func TestReplayChecksExpectations(t *testing.T) {
	spec := testutil.CompileSpec(t, "checkbox")
	handled := false
	v := &harness.Vector{
		Name:      "wrong-expectation",
		Component: "checkbox",
		Steps: []harness.Step{
			{Event: "TOGGLE", Expect: &harness.Expect{Handled: &handled}},
		},
	}

	_, err := harness.Replay(spec, v)
	require.Error(t, err)

	var e *harness.ExpectationError
	require.ErrorAs(t, err, &e)
	assert.Equal(t, "handled", e.Field)
	assert.Equal(t, 0, e.Seq)
}

func TestReplaySeedsVectorContext(t *testing.T) {
	spec := testutil.CompileSpec(t, "checkbox")
	v := &harness.Vector{
		Name:      "seeded",
		Component: "checkbox",
		Context:   map[string]any{"disabled": true},
		Steps: []harness.Step{
			{Event: "TOGGLE"},
		},
	}

	result, err := harness.Replay(spec, v)
	require.NoError(t, err)
	require.Len(t, result.Steps, 1)
	assert.False(t, result.Steps[0].Handled)
	assert.Equal(t, ir.Bool(true), result.Steps[0].Context["disabled"])
}

func TestReplayRejectsBadSeedField(t *testing.T) {
	spec := testutil.CompileSpec(t, "checkbox")
	v := &harness.Vector{
		Name:      "bad-seed",
		Component: "checkbox",
		Context:   map[string]any{"missing": true},
		Steps:     []harness.Step{{Event: "TOGGLE"}},
	}

	_, err := harness.Replay(spec, v)
	assert.Error(t, err)
}
