package harness

import (
	"bytes"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

// =============================================================================
// Scenario suite
// =============================================================================

func TestScenarios(t *testing.T) {
	paths, err := filepath.Glob(filepath.Join("testdata", "scenarios", "*.yaml"))
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err, path)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := Run(scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestGoldenScenarios(t *testing.T) {
	for _, name := range []string{"counter", "tests_aggregate", "duplicate_type"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

// =============================================================================
// Run
// =============================================================================

func TestRunRecordsBuild(t *testing.T) {
	result, err := Run(loadTestScenario(t, "counter"))
	require.NoError(t, err)
	assert.Equal(t, "build-counter", result.BuildID)
	assert.Equal(t, []string{"Counter", "galvan_module"}, result.UnitNames())
}

func TestRunFailureHasNoBuild(t *testing.T) {
	result, err := Run(loadTestScenario(t, "duplicate_type"))
	require.NoError(t, err)
	assert.Empty(t, result.BuildID)
	assert.Empty(t, result.Units)
	require.Len(t, result.Diagnostics, 1)
	assert.Equal(t, "b.gv", result.Diagnostics[0].Unit)
}

func TestRunCheckMode(t *testing.T) {
	result, err := Run(loadTestScenario(t, "check_collects"))
	require.NoError(t, err)
	require.Len(t, result.Diagnostics, 3)
	assert.Equal(t, "a.gv", result.Diagnostics[0].Unit)
	assert.Equal(t, "b.gv", result.Diagnostics[2].Unit)
}

func TestRunCheckModeCleanCompiles(t *testing.T) {
	s := loadTestScenario(t, "counter")
	s.Mode = ModeCheck
	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Len(t, result.Units, 2)
}

func TestRunUnmetExpectations(t *testing.T) {
	s := loadTestScenario(t, "counter")
	s.Expect.Units = []string{"galvan_module"}
	s.Expect.Contains = map[string][]string{"Counter": {"enum Counter"}, "Missing": {"x"}}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "units")
	assert.Contains(t, result.Errors[1], `Counter to contain "enum Counter"`)
	assert.Contains(t, result.Errors[2], "unit Missing")
}

func TestRunExpectedFailureSucceeded(t *testing.T) {
	s := loadTestScenario(t, "counter")
	s.Expect = Expect{ErrorCode: "RESOLVE_DuplicateType"}

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "compilation to be rejected")
}

func TestRunWrongErrorCode(t *testing.T) {
	s := loadTestScenario(t, "duplicate_type")
	s.Expect.ErrorCode = "E201"
	s.Expect.ErrorUnit = "a.gv"

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Len(t, result.Errors, 2)
}

func TestRunWithLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	_, err := RunWithLogger(loadTestScenario(t, "counter"), logger)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "running scenario")
	assert.Contains(t, buf.String(), "build=build-counter")
}

func TestSnapshotFormats(t *testing.T) {
	r := NewResult()
	r.contents = map[string]string{"a.gv": "type A = Int\n  x"}
	assert.Empty(t, string(r.Snapshot()))

	result, err := Run(loadTestScenario(t, "duplicate_type"))
	require.NoError(t, err)
	assert.Equal(t,
		"// diagnostics\nb.gv:1:1: error[RESOLVE_DuplicateType]: DuplicateType(\"A\"): type is already declared\n",
		string(result.Snapshot()))
}
