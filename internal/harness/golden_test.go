package harness_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubigo-ui/rubigo/internal/harness"
	"github.com/rubigo-ui/rubigo/internal/testutil"
)

func TestGoldenDialogModal(t *testing.T) {
	spec := testutil.CompileSpec(t, "dialog")
	v := testutil.Vector(t, "dialog-modal")

	result := harness.RunWithGolden(t, spec, v)
	assert.Equal(t, "dialog", result.Machine)
}

func TestGoldenToggleGroupSingleSelect(t *testing.T) {
	spec := testutil.CompileSpec(t, "toggle-group")
	v := testutil.Vector(t, "toggle-group-single-select")

	result := harness.RunWithGolden(t, spec, v)
	assert.Equal(t, "toggle-group", result.Machine)
}

func TestCanonicalJSONIsStable(t *testing.T) {
	spec := testutil.CompileSpec(t, "dialog")
	v := testutil.Vector(t, "dialog-modal")

	r1, err := harness.Replay(spec, v)
	require.NoError(t, err)
	r2, err := harness.Replay(spec, v)
	require.NoError(t, err)

	j1, err := r1.CanonicalJSON()
	require.NoError(t, err)
	j2, err := r2.CanonicalJSON()
	require.NoError(t, err)
	assert.Equal(t, string(j1), string(j2))
}
