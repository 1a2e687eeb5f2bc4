// Package harness replays conformance vectors against every execution
// backend and fails on the first observable divergence. A vector is a
// YAML event sequence with optional per-step expectations; replay
// compares (handled, state, context) after every step, so two backends
// that merely end in the same place but travel differently still fail.
package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Vector defines one conformance vector: the component document it
// drives and the event sequence to replay.
type Vector struct {
	// Name uniquely identifies this vector. Doubles as the golden file
	// name when the vector is golden-checked.
	Name string `yaml:"name"`

	// Description explains what this vector exercises.
	Description string `yaml:"description,omitempty"`

	// Component names the machine document the vector drives, e.g.
	// "checkbox". Resolution to bytes is the caller's concern.
	Component string `yaml:"component"`

	// Context optionally overrides default context fields before the
	// first step, applied through the privileged sync path.
	Context map[string]any `yaml:"context,omitempty"`

	// Steps is the replayed sequence.
	Steps []Step `yaml:"steps"`
}

// Step is one replay step: either an event dispatch or a reset.
type Step struct {
	// Event is the event name to dispatch. Empty when Reset is set.
	Event string `yaml:"event,omitempty"`

	// Value is the optional event payload (bool, number, or string).
	Value any `yaml:"value,omitempty"`

	// Reset, when true, resets the instance instead of dispatching.
	Reset bool `yaml:"reset,omitempty"`

	// Expect optionally pins the observable outcome of this step.
	Expect *Expect `yaml:"expect,omitempty"`
}

// Expect pins the outcome of a step. Unset fields are not checked;
// Context is a subset match over the named fields.
type Expect struct {
	Handled *bool          `yaml:"handled,omitempty"`
	State   string         `yaml:"state,omitempty"`
	Context map[string]any `yaml:"context,omitempty"`
}

// ParseVector decodes one vector from YAML bytes. Unknown fields are
// rejected so typos in hand-written vectors fail loudly.
func ParseVector(data []byte) (*Vector, error) {
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)

	var v Vector
	if err := decoder.Decode(&v); err != nil {
		return nil, fmt.Errorf("parse vector: %w", err)
	}
	if err := v.check(); err != nil {
		return nil, err
	}
	return &v, nil
}

// LoadVector reads and decodes a vector file.
func LoadVector(path string) (*Vector, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read vector: %w", err)
	}
	v, err := ParseVector(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return v, nil
}

// LoadVectorDir loads every .yaml vector under dir, sorted by file
// name.
func LoadVectorDir(dir string) ([]*Vector, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read vector dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	vectors := make([]*Vector, 0, len(names))
	for _, name := range names {
		v, err := LoadVector(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, v)
	}
	return vectors, nil
}

func (v *Vector) check() error {
	if v.Name == "" {
		return fmt.Errorf("vector has no name")
	}
	if v.Component == "" {
		return fmt.Errorf("vector %q names no component", v.Name)
	}
	if len(v.Steps) == 0 {
		return fmt.Errorf("vector %q has no steps", v.Name)
	}
	for i, s := range v.Steps {
		if s.Reset && s.Event != "" {
			return fmt.Errorf("vector %q step %d is both a reset and an event", v.Name, i)
		}
		if !s.Reset && s.Event == "" {
			return fmt.Errorf("vector %q step %d has no event", v.Name, i)
		}
	}
	return nil
}
