package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/rubigo-ui/rubigo/internal/ir"
	"github.com/rubigo-ui/rubigo/internal/machine"
)

// toCanonicalMap flattens a Result for canonical JSON serialization.
// Golden files must be byte-stable, so everything goes through the
// canonical encoder rather than encoding/json. Only observable
// behavior participates: hashes and fingerprints are store concerns,
// not conformance surface.
func (r *Result) toCanonicalMap() map[string]any {
	steps := make([]any, len(r.Steps))
	for i, s := range r.Steps {
		step := map[string]any{
			"seq":     s.Seq,
			"handled": s.Handled,
			"state":   s.State,
			"context": s.Context,
		}
		if s.Reset {
			step["reset"] = true
		} else {
			step["event"] = s.Event
		}
		steps[i] = step
	}

	backends := make([]any, len(r.Backends))
	for i, b := range r.Backends {
		backends[i] = b
	}

	return map[string]any{
		"vector":   r.Vector,
		"machine":  r.Machine,
		"backends": backends,
		"steps":    steps,
	}
}

// CanonicalJSON returns the result's byte-stable serialized form, the
// bytes golden files pin.
func (r *Result) CanonicalJSON() ([]byte, error) {
	return ir.MarshalCanonical(r.toCanonicalMap())
}

// RunWithGolden replays a vector and compares the agreed trace against
// testdata/golden/{vector.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
func RunWithGolden(t *testing.T, spec *machine.Spec, v *Vector) *Result {
	t.Helper()

	result, err := Replay(spec, v)
	if err != nil {
		t.Fatalf("replay %s: %v", v.Name, err)
	}
	AssertGolden(t, result)
	return result
}

// AssertGolden compares an already computed result against its golden
// file.
func AssertGolden(t *testing.T, result *Result) {
	t.Helper()

	data, err := result.CanonicalJSON()
	if err != nil {
		t.Fatalf("serialize trace %s: %v", result.Vector, err)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, result.Vector, data)
}
