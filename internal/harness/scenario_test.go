package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario(t *testing.T) {
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", "counter.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "counter", s.Name)
	assert.Equal(t, ModeCompile, s.Mode, "mode defaults to compile")
	assert.Len(t, s.Sources, 2)
	assert.Equal(t, []string{"Counter", "galvan_module"}, s.Expect.Units)
	assert.False(t, s.Expect.Failure())
}

func TestLoadScenarioMissingFile(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestSortedSources(t *testing.T) {
	s := &Scenario{Sources: map[string]string{"b.gv": "B", "a.gv": "A", "c/d.gv": "D"}}
	got := s.SortedSources()
	require.Len(t, got, 3)
	assert.Equal(t, "a.gv", got[0].Name)
	assert.Equal(t, "A", got[0].Content)
	assert.Equal(t, "b.gv", got[1].Name)
	assert.Equal(t, "c/d.gv", got[2].Name)
}

func TestParseScenarioValidation(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "unknown field",
			yaml: "name: x\ndescription: d\nsource:\n  a.gv: x\n",
			want: "field source not found",
		},
		{
			name: "missing name",
			yaml: "description: d\nsources:\n  a.gv: x\nexpect:\n  units: [a]\n",
			want: "name is required",
		},
		{
			name: "missing description",
			yaml: "name: x\nsources:\n  a.gv: x\nexpect:\n  units: [a]\n",
			want: "description is required",
		},
		{
			name: "bad mode",
			yaml: "name: x\ndescription: d\nmode: run\nsources:\n  a.gv: x\nexpect:\n  units: [a]\n",
			want: "mode must be",
		},
		{
			name: "no sources",
			yaml: "name: x\ndescription: d\nexpect:\n  units: [a]\n",
			want: "sources map is required",
		},
		{
			name: "no expectation",
			yaml: "name: x\ndescription: d\nsources:\n  a.gv: x\n",
			want: "expect must name",
		},
		{
			name: "success and failure",
			yaml: "name: x\ndescription: d\nsources:\n  a.gv: x\nexpect:\n  units: [a]\n  error_code: E201\n",
			want: "both success and failure",
		},
		{
			name: "codes outside check mode",
			yaml: "name: x\ndescription: d\nsources:\n  a.gv: x\nexpect:\n  codes: [E201]\n",
			want: "requires mode",
		},
		{
			name: "empty contains",
			yaml: "name: x\ndescription: d\nsources:\n  a.gv: x\nexpect:\n  contains:\n    a: []\n",
			want: "at least one substring",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadAllTestdataScenarios(t *testing.T) {
	entries, err := os.ReadDir(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)
	names := map[string]bool{}
	for _, e := range entries {
		s, err := LoadScenario(filepath.Join("testdata", "scenarios", e.Name()))
		require.NoError(t, err, e.Name())
		assert.False(t, names[s.Name], "duplicate scenario name %s", s.Name)
		names[s.Name] = true
	}
}
