package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTrace() []TraceEvent {
	return []TraceEvent{
		{Seq: 1, Kind: "evaluate", Source: "plot"},
		{Seq: 2, Kind: "evaluate", Source: "groups"},
		{Seq: 3, Kind: "store", Source: "groups", Version: 1},
		{Seq: 4, Kind: "store", Source: "plot", Version: 1},
		{Seq: 5, Kind: "set", Source: "color", Value: "firebrick", Version: 2},
		{Seq: 6, Kind: "invalidate", Source: "plot"},
		{Seq: 7, Kind: "evaluate", Source: "plot"},
	}
}

func TestAssertTraceContains(t *testing.T) {
	assert.NoError(t, assertTraceContains(testTrace(), Assertion{Event: "set:color"}))

	err := assertTraceContains(testTrace(), Assertion{Event: "set:gene"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found in trace")
	assert.Contains(t, err.Error(), "[5] set:color = firebrick")
}

func TestAssertTraceOrder(t *testing.T) {
	tests := []struct {
		name   string
		events []string
		ok     bool
	}{
		{"adjacent", []string{"evaluate:plot", "evaluate:groups"}, true},
		{"gapped", []string{"evaluate:plot", "set:color", "evaluate:plot"}, true},
		{"repeated", []string{"evaluate:plot", "evaluate:plot"}, true},
		{"reversed", []string{"set:color", "store:groups"}, false},
		{"missing", []string{"evaluate:plot", "hit:groups"}, false},
		{"too many repeats", []string{"evaluate:plot", "evaluate:plot", "evaluate:plot"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := assertTraceOrder(testTrace(), Assertion{Events: tt.events})
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestAssertTraceCount(t *testing.T) {
	assert.NoError(t, assertTraceCount(testTrace(), Assertion{Event: "evaluate:plot", Count: 2}))
	assert.NoError(t, assertTraceCount(testTrace(), Assertion{Event: "hit:plot", Count: 0}))

	err := assertTraceCount(testTrace(), Assertion{Event: "evaluate:plot", Count: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2 occurrences")
}

func TestAssertRunsAndDirty(t *testing.T) {
	result := NewResult()
	result.Runs["plot"] = 2
	result.Dirty["plot"] = true

	assert.NoError(t, assertRuns(result, Assertion{Node: "plot", Count: 2}))
	assert.Error(t, assertRuns(result, Assertion{Node: "plot", Count: 1}))
	assert.NoError(t, assertRuns(result, Assertion{Node: "ttest", Count: 0}))

	yes, no := true, false
	assert.NoError(t, assertDirty(result, Assertion{Node: "plot", Dirty: &yes}))
	assert.Error(t, assertDirty(result, Assertion{Node: "plot", Dirty: &no}))
}

func TestMatchSubset(t *testing.T) {
	actual := map[string]any{
		"key":   "PTEN",
		"alpha": 0.05,
		"plot":  map[string]any{"color": "red", "title": "t"},
		"rows":  []any{"a", "b"},
	}

	assert.True(t, matchSubset(actual, nil))
	assert.True(t, matchSubset(actual, map[string]any{"key": "PTEN"}))
	assert.True(t, matchSubset(actual, map[string]any{"plot": map[string]any{"color": "red"}}))
	assert.True(t, matchSubset(actual, map[string]any{"rows": []any{"a", "b"}}))

	assert.False(t, matchSubset(actual, map[string]any{"key": "ESR1"}))
	assert.False(t, matchSubset(actual, map[string]any{"missing": 1.0}))
	assert.False(t, matchSubset(actual, map[string]any{"rows": []any{"a"}}))
	assert.False(t, matchSubset("not a map", map[string]any{"key": "PTEN"}))
}

func TestEvaluateAssertions(t *testing.T) {
	result := NewResult()
	result.Trace = testTrace()
	result.Runs["plot"] = 2

	errs := EvaluateAssertions(result, []Assertion{
		{Type: AssertTraceContains, Event: "set:color"},
		{Type: AssertRuns, Node: "plot", Count: 2},
		{Type: AssertDirty, Node: "plot"},
		{Type: "bogus"},
	})
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0], "dirty requires an expected value")
	assert.Contains(t, errs[1], `unknown assertion type "bogus"`)
}
