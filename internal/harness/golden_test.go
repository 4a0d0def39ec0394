package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden(t *testing.T) {
	for _, name := range []string{"merge_conflict_override", "entity_missing_readd"} {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
			require.NoError(t, err)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestSnapshot_MarshalStable(t *testing.T) {
	scenario, err := LoadScenario("testdata/scenarios/local_duplicates.yaml")
	require.NoError(t, err)

	result, err := Run(scenario)
	require.NoError(t, err)

	snap := Snapshot{ScenarioName: scenario.Name, Trace: result.Trace, Final: result.Final}
	first, err := snap.Marshal()
	require.NoError(t, err)

	again, err := Run(scenario)
	require.NoError(t, err)
	snap2 := Snapshot{ScenarioName: scenario.Name, Trace: again.Trace, Final: again.Final}
	second, err := snap2.Marshal()
	require.NoError(t, err)

	assert.Equal(t, string(first), string(second))
	assert.NotContains(t, string(first), "detected_at")
	assert.Equal(t, byte('\n'), first[len(first)-1])
}
