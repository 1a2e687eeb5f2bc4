package compiler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubigo-ui/rubigo/internal/ir"
)

const toggleDoc = `{
  "machine": {
    "id": "toggle",
    "initial": "idle",
    "states": {
      "idle": {
        "on": {
          "TOGGLE": { "target": "idle", "guard": "interactive", "actions": ["flip"] }
        }
      }
    }
  },
  "context": { "on": false, "disabled": false },
  "guards": { "interactive": "!context.disabled" },
  "actions": { "flip": "context.on = !context.on" }
}`

func codes(errs []ValidationError) []string {
	out := make([]string, 0, len(errs))
	for _, e := range errs {
		out = append(out, e.Code)
	}
	return out
}

func TestCompileToggleDocument(t *testing.T) {
	spec, errs := Compile([]byte(toggleDoc))
	require.Empty(t, errs)
	require.NotNil(t, spec)

	assert.Equal(t, "toggle", spec.ID())
	assert.Equal(t, "idle", spec.Initial())
	assert.Len(t, spec.Fingerprint(), 64)

	tr := spec.Lookup("idle", "TOGGLE")
	require.NotNil(t, tr)
	assert.NotNil(t, tr.Guard)
	require.Len(t, tr.Actions, 1)
}

func TestCompileTerminalState(t *testing.T) {
	// A declared state with no outgoing transitions is a legal target.
	spec, errs := Compile([]byte(`{
	  "machine": {
	    "id": "wizard",
	    "initial": "start",
	    "states": {
	      "start": { "on": { "FINISH": "done" } },
	      "done": {}
	    }
	  },
	  "context": { "complete": false }
	}`))
	require.Empty(t, errs)
	require.NotNil(t, spec)

	assert.Equal(t, []string{"done", "start"}, spec.States())
	assert.Empty(t, spec.Events("done"))

	tr := spec.Lookup("start", "FINISH")
	require.NotNil(t, tr)
	assert.Equal(t, "done", tr.Target)
}

func TestCheckSchemaRejectsMalformedJSON(t *testing.T) {
	errs := CheckSchema([]byte(`{"machine":`))
	require.Len(t, errs, 1)
	assert.Equal(t, ErrDocUnreadable, errs[0].Code)
}

func TestCheckSchemaRejectsWrongShape(t *testing.T) {
	// id must be a non-empty string.
	errs := CheckSchema([]byte(`{
	  "machine": { "id": 42, "initial": "a", "states": { "a": {} } },
	  "context": { "on": false }
	}`))
	require.NotEmpty(t, errs)
	assert.Contains(t, codes(errs), ErrDocSchema)

	// Unknown top-level fields are rejected.
	errs = CheckSchema([]byte(`{
	  "machine": { "id": "x", "initial": "a", "states": { "a": {} } },
	  "context": { "on": false },
	  "extras": {}
	}`))
	require.NotEmpty(t, errs)
	assert.Contains(t, codes(errs), ErrDocSchema)
}

func TestCheckSchemaAcceptsShorthand(t *testing.T) {
	errs := CheckSchema([]byte(`{
	  "machine": {
	    "id": "wizard",
	    "initial": "a",
	    "states": { "a": { "on": { "NEXT": "b" } }, "b": {} }
	  },
	  "context": { "done": false },
	  "actions": { "mark": "context.done = true" }
	}`))
	assert.Empty(t, errs)
}

func TestValidateReferentialErrors(t *testing.T) {
	doc, err := ir.ParseDocument([]byte(`{
	  "machine": {
	    "id": "",
	    "initial": "ghost",
	    "states": {
	      "idle": {
	        "on": {
	          "GO": { "target": "nowhere", "guard": "missingGuard", "actions": ["missingAction"] }
	        }
	      }
	    }
	  },
	  "context": { "on": false }
	}`))
	require.NoError(t, err)

	errs := Validate(doc)
	got := codes(errs)
	assert.Contains(t, got, ErrMissingID)
	assert.Contains(t, got, ErrUnknownInitial)
	assert.Contains(t, got, ErrUnknownTarget)
	assert.Contains(t, got, ErrUnknownGuard)
	assert.Contains(t, got, ErrUnknownAction)
	assert.Len(t, errs, 5)
}

func TestValidateEmptyMachine(t *testing.T) {
	doc, err := ir.ParseDocument([]byte(`{
	  "machine": { "id": "empty", "initial": "idle", "states": {} },
	  "context": {}
	}`))
	require.NoError(t, err)

	got := codes(Validate(doc))
	assert.Contains(t, got, ErrNoStates)
	assert.Contains(t, got, ErrNoContext)
	// With no states declared the initial check is moot.
	assert.NotContains(t, got, ErrUnknownInitial)
}

func TestCompileReportsExpressionErrors(t *testing.T) {
	_, errs := Compile([]byte(`{
	  "machine": {
	    "id": "broken",
	    "initial": "idle",
	    "states": {
	      "idle": {
	        "on": {
	          "GO": { "target": "idle", "guard": "bad", "actions": ["worse"] }
	        }
	      }
	    }
	  },
	  "context": { "on": false },
	  "guards": { "bad": "context.on +" },
	  "actions": { "worse": "context.missing = 1" }
	}`))
	require.NotEmpty(t, errs)

	got := codes(errs)
	assert.Contains(t, got, ErrGuardCompile)
	assert.Contains(t, got, ErrActionCompile)
}

func TestValidationErrorFormat(t *testing.T) {
	e := ValidationError{Field: "machine.initial", Message: `initial state "ghost" is not declared`, Code: ErrUnknownInitial}
	assert.Equal(t, `[E102] machine.initial: initial state "ghost" is not declared`, e.Error())
}
