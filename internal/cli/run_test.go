package cli

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunCommand_Text(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Scenario: basic (session basic, 2 events)")
	assert.Contains(t, out, "  step  2: a")
	assert.Contains(t, out, "Connections: 1")
	assert.Contains(t, out, "✓ All assertions passed")
}

func TestRunCommand_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "basic.yaml", passingScenario)

	out, err := execute(t, "run", path, "--format", "json")
	require.NoError(t, err)

	var resp struct {
		Status string    `json:"status"`
		Data   RunResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.True(t, resp.Data.Pass)
	require.Len(t, resp.Data.Generators, 1)
	assert.Equal(t, "g", resp.Data.Generators[0].ID)
	assert.Equal(t, []StepView{{Step: 2, Elements: []string{"a"}}}, resp.Data.Generators[0].Steps)
	assert.Equal(t, 1, resp.Data.Connections)
}

func TestRunCommand_FailingScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ Scenario failed")
	assert.Contains(t, out, "expected a on step 9 of g, got step 2")
}

func TestRunCommand_FailingScenarioJSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "wrong.yaml", failingScenario)

	out, err := execute(t, "run", path, "--format", "json")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, ErrCodeScenarioFailed, resp.Error.Code)
}

func TestRunCommand_MissingScenario(t *testing.T) {
	_, err := execute(t, "run", filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "scenario not found")
}

func TestRunCommand_InvalidScenario(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.yaml", "name: x\n")

	_, err := execute(t, "run", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid scenario")
}

func TestRunCommand_WithConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.yaml", `name: coarse
description: "subdivision from config"
events:
  - type: create
    id: g
    element: start-trigger
    at: {x: 0, y: 0}
  - type: create
    id: a
    element: sound
    at: {x: 200, y: 0}
assertions:
  - type: step
    generator: g
    element: a
    step: 4
`)
	cfg := writeFile(t, dir, "stepfield.cue", "subdivision: 4\n")

	out, err := execute(t, "run", path, "--config", cfg)
	require.NoError(t, err)
	assert.Contains(t, out, "  step  4: a")
}

func TestRunCommand_InvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.yaml", passingScenario)
	cfg := writeFile(t, dir, "bad.cue", "subdivision: 0\n")

	_, err := execute(t, "run", path, "--config", cfg)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "invalid config")
}

func TestRunCommand_MissingConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.yaml", passingScenario)

	_, err := execute(t, "run", path, "--config", filepath.Join(dir, "nope.cue"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "config file not found")
}

func TestRunCommand_JournalsToDatabase(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "basic.yaml", passingScenario)
	db := filepath.Join(dir, "journal.db")

	_, err := execute(t, "run", path, "--db", db, "--session", "s1")
	require.NoError(t, err)

	out, err := execute(t, "trace", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, "s1  events=2  seq=1..3")
}
