// Package testutil embeds the component fixtures the test suites
// share: one machine document per shipped component, plus the
// conformance vectors that drive them. Tests compile fixtures through
// the real pipeline; there are no hand-assembled specs.
package testutil

import (
	"embed"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/rubigo-ui/rubigo/internal/compiler"
	"github.com/rubigo-ui/rubigo/internal/harness"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

//go:embed specs/*.json
var specFS embed.FS

//go:embed vectors/*.yaml
var vectorFS embed.FS

// SpecNames returns the embedded component names, sorted.
func SpecNames() []string {
	entries, _ := specFS.ReadDir("specs")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".json"))
	}
	sort.Strings(out)
	return out
}

// SpecJSON returns the raw document bytes for one component.
func SpecJSON(t *testing.T, name string) []byte {
	t.Helper()
	data, err := specFS.ReadFile("specs/" + name + ".json")
	if err != nil {
		t.Fatalf("read embedded spec %s: %v", name, err)
	}
	return data
}

// CompileSpec compiles one embedded component document, failing the
// test on any validation error.
func CompileSpec(t *testing.T, name string) *machine.Spec {
	t.Helper()
	spec, errs := compiler.Compile(SpecJSON(t, name))
	if len(errs) > 0 {
		t.Fatalf("compile embedded spec %s: %v", name, errs)
	}
	return spec
}

// VectorNames returns the embedded vector names, sorted.
func VectorNames() []string {
	entries, _ := vectorFS.ReadDir("vectors")
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(out)
	return out
}

// Vector loads one embedded conformance vector.
func Vector(t *testing.T, name string) *harness.Vector {
	t.Helper()
	data, err := vectorFS.ReadFile("vectors/" + name + ".yaml")
	if err != nil {
		t.Fatalf("read embedded vector %s: %v", name, err)
	}
	v, err := harness.ParseVector(data)
	if err != nil {
		t.Fatalf("parse embedded vector %s: %v", name, err)
	}
	return v
}

// Vectors loads every embedded vector, sorted by name.
func Vectors(t *testing.T) []*harness.Vector {
	t.Helper()
	names := VectorNames()
	out := make([]*harness.Vector, 0, len(names))
	for _, name := range names {
		out = append(out, Vector(t, name))
	}
	return out
}

// WriteSpecDir materializes every embedded document into a temp
// directory laid out the way the CLI expects (<component>.json).
func WriteSpecDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range SpecNames() {
		path := filepath.Join(dir, name+".json")
		if err := os.WriteFile(path, SpecJSON(t, name), 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}

// WriteVectorDir materializes every embedded vector into a temp
// directory.
func WriteVectorDir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range VectorNames() {
		data, err := vectorFS.ReadFile("vectors/" + name + ".yaml")
		if err != nil {
			t.Fatalf("read embedded vector %s: %v", name, err)
		}
		path := filepath.Join(dir, name+".yaml")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
	return dir
}
