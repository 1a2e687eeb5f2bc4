package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubigo-ui/rubigo/internal/compiler"
	"github.com/rubigo-ui/rubigo/internal/testutil"
)

func TestEmbeddedComponentsCompile(t *testing.T) {
	names := testutil.SpecNames()
	require.NotEmpty(t, names)

	fingerprints := make(map[string]string, len(names))
	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			spec, errs := compiler.Compile(testutil.SpecJSON(t, name))
			require.Empty(t, errs)
			require.NotNil(t, spec)

			assert.Equal(t, name, spec.ID())
			assert.Len(t, spec.Fingerprint(), 64)
			assert.NotEmpty(t, spec.States())
			fingerprints[spec.Fingerprint()] = name
		})
	}

	// Distinct documents hash to distinct fingerprints.
	assert.Len(t, fingerprints, len(names))
}

func TestEmbeddedComponentsPassSchema(t *testing.T) {
	for _, name := range testutil.SpecNames() {
		assert.Empty(t, compiler.CheckSchema(testutil.SpecJSON(t, name)), "component %s", name)
	}
}
