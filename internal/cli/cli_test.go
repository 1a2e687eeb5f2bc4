package cli_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rubigo-ui/rubigo/internal/cli"
	"github.com/rubigo-ui/rubigo/internal/testutil"
)

// execute runs the CLI with args and returns stdout, stderr, and the
// command error.
func execute(args ...string) (string, string, error) {
	cmd := cli.NewRootCommand()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidateCommand(t *testing.T) {
	docs := testutil.WriteSpecDir(t)

	out, _, err := execute("validate", filepath.Join(docs, "checkbox.json"))
	require.NoError(t, err)
	assert.Contains(t, out, "valid")
	assert.Contains(t, out, "machine:     checkbox")
	assert.Contains(t, out, "fingerprint:")
}

func TestValidateCommandJSON(t *testing.T) {
	docs := testutil.WriteSpecDir(t)

	out, _, err := execute("validate", "--format", "json", filepath.Join(docs, "slider.json"))
	require.NoError(t, err)

	var resp cli.CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)

	data, ok := resp.Data.(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, "slider", data["machine"])
}

func TestValidateCommandInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
	  "machine": { "id": "broken", "initial": "ghost", "states": { "idle": {} } },
	  "context": { "on": false }
	}`), 0o644))

	out, _, err := execute("validate", path)
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.GetExitCode(err))
	assert.Contains(t, out, "E102")
}

func TestValidateCommandMissingFile(t *testing.T) {
	_, _, err := execute("validate", filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.Equal(t, cli.ExitCommandError, cli.GetExitCode(err))
}

func TestValidateCommandRejectsBadFormat(t *testing.T) {
	docs := testutil.WriteSpecDir(t)

	_, _, err := execute("validate", "--format", "xml", filepath.Join(docs, "checkbox.json"))
	assert.Error(t, err)
}

func TestRunCommand(t *testing.T) {
	docs := testutil.WriteSpecDir(t)

	out, _, err := execute("run", filepath.Join(docs, "slider.json"), "SET=75", "INCREMENT", "BLUR")
	require.NoError(t, err)
	assert.Contains(t, out, "machine slider (compiled backend)")
	assert.Contains(t, out, `"value":75`)
	assert.Contains(t, out, `"value":76`)
	// BLUR is ignored in idle.
	assert.Contains(t, out, "\n  2 BLUR")
}

func TestRunCommandInterpretedBackend(t *testing.T) {
	docs := testutil.WriteSpecDir(t)

	out, _, err := execute("run", "--backend", "interpreted", filepath.Join(docs, "checkbox.json"), "TOGGLE")
	require.NoError(t, err)
	assert.Contains(t, out, "interpreted backend")
	assert.Contains(t, out, `"checked":true`)
}

func TestRunCommandUnknownBackend(t *testing.T) {
	docs := testutil.WriteSpecDir(t)

	_, _, err := execute("run", "--backend", "jit", filepath.Join(docs, "checkbox.json"), "TOGGLE")
	require.Error(t, err)
	assert.Equal(t, cli.ExitCommandError, cli.GetExitCode(err))
}

func TestTestCommand(t *testing.T) {
	docs := testutil.WriteSpecDir(t)
	vectors := testutil.WriteVectorDir(t)
	dbPath := filepath.Join(t.TempDir(), "traces.db")

	out, _, err := execute("test", "--db", dbPath, docs, vectors)
	require.NoError(t, err)
	assert.Contains(t, out, "pass checkbox-interaction")
	assert.Contains(t, out, "0 failed")
	assert.NotContains(t, out, "coverage")

	// Stored traces are visible to the trace command.
	out, _, err = execute("trace", "--db", dbPath)
	require.NoError(t, err)
	assert.Contains(t, out, "checkbox-interaction")
	assert.Contains(t, out, "run(s)")
}

func TestTestCommandFailsOnCoverageGap(t *testing.T) {
	docs := testutil.WriteSpecDir(t)
	dir := t.TempDir()

	// One lone vector leaves most of the checkbox machine uncovered.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "lonely.yaml"), []byte(`name: lonely
component: checkbox
steps:
  - event: TOGGLE
`), 0o644))

	out, _, err := execute("test", docs, dir)
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.GetExitCode(err))
	assert.Contains(t, out, "coverage checkbox:")

	// The same run is tolerated with --skip-coverage.
	out, _, err = execute("test", "--skip-coverage", docs, dir)
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed")
	assert.Contains(t, out, "coverage checkbox:")
}

func TestTestCommandReportsVectorFailure(t *testing.T) {
	docs := testutil.WriteSpecDir(t)
	dir := t.TempDir()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "wrong.yaml"), []byte(`name: wrong
component: checkbox
steps:
  - event: TOGGLE
    expect: { handled: false }
`), 0o644))

	out, _, err := execute("test", "--skip-coverage", docs, dir)
	require.Error(t, err)
	assert.Equal(t, cli.ExitFailure, cli.GetExitCode(err))
	assert.Contains(t, out, "FAIL wrong")
	assert.Contains(t, out, "0 passed, 1 failed")
}

func TestTestCommandMissingVectorDir(t *testing.T) {
	docs := testutil.WriteSpecDir(t)

	_, _, err := execute("test", docs, filepath.Join(t.TempDir(), "absent"))
	require.Error(t, err)
	assert.Equal(t, cli.ExitCommandError, cli.GetExitCode(err))
}

func TestTraceCommandDumpsRun(t *testing.T) {
	docs := testutil.WriteSpecDir(t)
	vectors := testutil.WriteVectorDir(t)
	dbPath := filepath.Join(t.TempDir(), "traces.db")

	_, _, err := execute("test", "--db", dbPath, docs, vectors)
	require.NoError(t, err)

	out, _, err := execute("trace", "--db", dbPath, "--vector", "dialog-modal")
	require.NoError(t, err)
	assert.Contains(t, out, "vector:      dialog-modal")
	assert.Contains(t, out, "machine:     dialog")
	assert.Contains(t, out, "ESCAPE")
	assert.Contains(t, out, `"dismissable":false`)
}

func TestTraceCommandFiltersByMachine(t *testing.T) {
	docs := testutil.WriteSpecDir(t)
	vectors := testutil.WriteVectorDir(t)
	dbPath := filepath.Join(t.TempDir(), "traces.db")

	_, _, err := execute("test", "--db", dbPath, docs, vectors)
	require.NoError(t, err)

	out, _, err := execute("trace", "--db", dbPath, "--machine", "slider")
	require.NoError(t, err)
	assert.Contains(t, out, "slider-bounds")
	assert.NotContains(t, out, "checkbox-interaction")
	assert.Contains(t, out, "2 run(s)")
}

func TestTraceCommandNoMatchingRun(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "traces.db")

	_, _, err := execute("trace", "--db", dbPath, "--run", "missing")
	require.Error(t, err)
	assert.Equal(t, cli.ExitCommandError, cli.GetExitCode(err))
}
