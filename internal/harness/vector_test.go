package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const toggleVector = `name: toggle-twice
description: Flip a toggle on and off.
component: toggle
steps:
  - event: TOGGLE
    expect: { handled: true, context: { on: true } }
  - event: TOGGLE
    expect: { handled: true, context: { on: false } }
`

func TestParseVector(t *testing.T) {
	v, err := ParseVector([]byte(toggleVector))
	require.NoError(t, err)

	assert.Equal(t, "toggle-twice", v.Name)
	assert.Equal(t, "toggle", v.Component)
	require.Len(t, v.Steps, 2)

	s := v.Steps[0]
	assert.Equal(t, "TOGGLE", s.Event)
	require.NotNil(t, s.Expect)
	require.NotNil(t, s.Expect.Handled)
	assert.True(t, *s.Expect.Handled)
	assert.Equal(t, true, s.Expect.Context["on"])
}

func TestParseVectorRejectsUnknownFields(t *testing.T) {
	_, err := ParseVector([]byte(`name: x
component: toggle
stepz:
  - event: TOGGLE
`))
	assert.Error(t, err)
}

func TestParseVectorRejectsBadSteps(t *testing.T) {
	cases := []struct {
		name string
		src  string
	}{
		{"no name", "component: toggle\nsteps:\n  - event: TOGGLE\n"},
		{"no component", "name: x\nsteps:\n  - event: TOGGLE\n"},
		{"no steps", "name: x\ncomponent: toggle\n"},
		{"reset and event", "name: x\ncomponent: toggle\nsteps:\n  - event: TOGGLE\n    reset: true\n"},
		{"neither reset nor event", "name: x\ncomponent: toggle\nsteps:\n  - expect: { handled: true }\n"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseVector([]byte(tc.src))
			assert.Error(t, err)
		})
	}
}

func TestLoadVectorDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(`name: b
component: toggle
steps:
  - event: TOGGLE
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`name: a
component: toggle
steps:
  - reset: true
`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	vectors, err := LoadVectorDir(dir)
	require.NoError(t, err)
	require.Len(t, vectors, 2)
	assert.Equal(t, "a", vectors[0].Name)
	assert.Equal(t, "b", vectors[1].Name)
}

func TestLoadVectorDirPropagatesParseErrors(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("name: only-a-name\n"), 0o644))

	_, err := LoadVectorDir(dir)
	assert.Error(t, err)
}
