package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithGolden_Recolor(t *testing.T) {
	result, err := RunWithGolden(t, loadTestScenario(t, "recolor"), "")
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestGolden_AllScenariosAreReproducible(t *testing.T) {
	paths, err := FindScenarios(filepath.Join("testdata", "scenarios"))
	require.NoError(t, err)

	dir := t.TempDir()
	for _, path := range paths {
		s, err := LoadScenario(path)
		require.NoError(t, err)

		first, err := Run(s)
		require.NoError(t, err)
		require.NoError(t, UpdateGolden(t, s.Name, first, dir))

		_, err = RunWithGolden(t, s, dir)
		require.NoError(t, err)
	}
}

func TestTraceSnapshot_Marshal(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{
			{Seq: 1, Kind: "set", Source: "gene", Version: 2, Value: "PTEN"},
			{Seq: 2, Kind: "store", Source: "expression", Version: 1, Deps: []string{"gene"}, Cached: true},
			{Seq: 3, Kind: "fail", Source: "plot", Error: "boom"},
		},
		Runs: map[string]int64{"plot": 1, "expression": 1},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)
	assert.Equal(t,
		`{"runs":{"expression":1,"plot":1},"scenario_name":"tiny","trace":[`+
			`{"kind":"set","seq":1,"source":"gene","value":"PTEN","version":2},`+
			`{"cached":true,"deps":["gene"],"kind":"store","seq":2,"source":"expression","version":1},`+
			`{"error":"boom","kind":"fail","seq":3,"source":"plot"}]}`,
		string(data))
}
