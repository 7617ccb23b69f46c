package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/exprdash/internal/ir"
)

// DefaultGoldenDir is where golden traces live relative to the test.
const DefaultGoldenDir = "testdata/golden"

// TraceSnapshot captures the complete trace for a scenario execution.
type TraceSnapshot struct {
	ScenarioName string           `json:"scenario_name"`
	Trace        []TraceEvent     `json:"trace"`
	Runs         map[string]int64 `json:"runs"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical
// JSON serialization. Empty fields are omitted.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	traceList := make([]any, len(s.Trace))
	for i, event := range s.Trace {
		eventMap := map[string]any{
			"seq":    event.Seq,
			"kind":   event.Kind,
			"source": event.Source,
		}
		if event.Version != 0 {
			eventMap["version"] = event.Version
		}
		if event.Value != "" {
			eventMap["value"] = event.Value
		}
		if len(event.Deps) > 0 {
			deps := make([]any, len(event.Deps))
			for j, d := range event.Deps {
				deps[j] = d
			}
			eventMap["deps"] = deps
		}
		if event.Cached {
			eventMap["cached"] = true
		}
		if event.Error != "" {
			eventMap["error"] = event.Error
		}
		traceList[i] = eventMap
	}

	runs := make(map[string]any, len(s.Runs))
	for name, n := range s.Runs {
		runs[name] = n
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"trace":         traceList,
		"runs":          runs,
	}
}

// Marshal returns the snapshot as canonical JSON.
func (s *TraceSnapshot) Marshal() ([]byte, error) {
	return ir.MarshalCanonical(s.toCanonicalMap())
}

// Snapshot returns the canonical golden bytes for a result.
func Snapshot(scenarioName string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: scenarioName,
		Trace:        result.Trace,
		Runs:         result.Runs,
	}
	return snapshot.Marshal()
}

// RunWithGolden executes a scenario and compares its trace against
// {dir}/{scenario.Name}.golden. An empty dir means DefaultGoldenDir.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns an error if the scenario cannot run. A trace mismatch fails t
// through goldie.
func RunWithGolden(t *testing.T, scenario *Scenario, dir string) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}
	if err := AssertGolden(t, scenario.Name, result, dir); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares an existing result's trace against a golden file
// without re-running the scenario.
func AssertGolden(t *testing.T, scenarioName string, result *Result, dir string) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}

	newGoldie(t, dir).Assert(t, scenarioName, traceJSON)
	return nil
}

// UpdateGolden writes the golden file for a result unconditionally.
func UpdateGolden(t *testing.T, scenarioName string, result *Result, dir string) error {
	t.Helper()

	traceJSON, err := Snapshot(scenarioName, result)
	if err != nil {
		return err
	}
	return newGoldie(t, dir).Update(t, scenarioName, traceJSON)
}

func newGoldie(t *testing.T, dir string) *goldie.Goldie {
	if dir == "" {
		dir = DefaultGoldenDir
	}
	return goldie.New(t,
		goldie.WithFixtureDir(dir),
		goldie.WithNameSuffix(".golden"),
	)
}
