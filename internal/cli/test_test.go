package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const passingScenario = `
name: conflict_then_override
description: "remote wins, then the local category is restored"
categories: [wisdom]
local:
  - { text: "Know thyself", author: Socrates, category: wisdom }
steps:
  - sync:
      records:
        - { text: "Know thyself", author: Socrates, category: philosophy }
    expect: { phase: success, conflicts: 1 }
  - override: { index: 0, choice: local }
    expect: { category: wisdom }
assertions:
  - type: store_contains
    record: { text: "Know thyself", author: Socrates, category: wisdom }
`

const failingScenario = `
name: wrong_count
description: "expects two additions from a one-record payload"
steps:
  - sync:
      records:
        - { text: "Carpe diem", author: Horace, category: latin }
    expect: { added: 2 }
`

func TestTestCommand_Passes(t *testing.T) {
	work := isolate(t)
	writeFile(t, filepath.Join(work, "scenarios", "conflict.yaml"), passingScenario)

	out, err := execute(t, "test", "scenarios")
	require.NoError(t, err)
	assert.Contains(t, out, "✓ conflict_then_override")
	assert.Contains(t, out, "Test Summary: 1 passed, 0 failed, 1 total")

	// No database is created.
	_, statErr := os.Stat(filepath.Join(os.Getenv("HOME"), ".local", "share", "quotesync", "quotesync.db"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestTestCommand_Fails(t *testing.T) {
	work := isolate(t)
	writeFile(t, filepath.Join(work, "scenarios", "a.yaml"), passingScenario)
	writeFile(t, filepath.Join(work, "scenarios", "b.yaml"), failingScenario)

	out, err := execute(t, "test", "scenarios")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, "✗ wrong_count")
	assert.Contains(t, out, "added: expected 2, got 1")
	assert.Contains(t, out, "1 passed, 1 failed, 2 total")
}

func TestTestCommand_Filter(t *testing.T) {
	work := isolate(t)
	writeFile(t, filepath.Join(work, "scenarios", "a.yaml"), passingScenario)
	writeFile(t, filepath.Join(work, "scenarios", "b.yaml"), failingScenario)

	out, err := execute(t, "test", "scenarios", "--filter", "a*")
	require.NoError(t, err)
	assert.Contains(t, out, "1 passed, 0 failed, 1 total")
}

func TestTestCommand_GoldenUpdateAndMismatch(t *testing.T) {
	work := isolate(t)
	writeFile(t, filepath.Join(work, "scenarios", "conflict.yaml"), passingScenario)
	golden := filepath.Join(work, "scenarios", "golden", "conflict_then_override.golden")

	_, err := execute(t, "test", "scenarios", "--update")
	require.NoError(t, err)
	data, err := os.ReadFile(golden)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"scenario_name": "conflict_then_override"`)

	_, err = execute(t, "test", "scenarios")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(golden, []byte("{}\n"), 0o644))
	out, err := execute(t, "test", "scenarios")
	require.Error(t, err)
	assert.Contains(t, out, "golden file mismatch")
}

func TestTestCommand_JSON(t *testing.T) {
	work := isolate(t)
	writeFile(t, filepath.Join(work, "scenarios", "b.yaml"), failingScenario)

	out, err := execute(t, "test", "scenarios", "--format", "json")
	require.Error(t, err)

	resp := decodeResponse(t, out, nil)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, CodeTestFailed, resp.Error.Code)

	details, ok := resp.Error.Details.(map[string]any)
	require.True(t, ok)
	assert.EqualValues(t, 1, details["failed"])
}

func TestTestCommand_MissingDir(t *testing.T) {
	isolate(t)

	_, err := execute(t, "test", "nope")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
