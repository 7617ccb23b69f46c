package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/roach88/exprdash/internal/dashboard"
)

// Scenario defines one dashboard test: a sequence of cell writes and node
// evaluations, followed by assertions on the trace and final state.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Dashboard is the path to a CUE definition, relative to the scenario
	// file. Empty means the built-in default dashboard.
	Dashboard string `yaml:"dashboard,omitempty"`

	// Fanout overrides the definition's fan-out strategy.
	Fanout string `yaml:"fanout,omitempty"`

	// GraphID is the fixed graph id. If empty, defaults to
	// "test-graph-default".
	GraphID string `yaml:"graph_id,omitempty"`

	// Steps run in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the final trace and state.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is either a cell write (Set) or a node evaluation (Evaluate).
type Step struct {
	// Set names the cell to write. Value is its new value.
	Set   string `yaml:"set,omitempty"`
	Value any    `yaml:"value,omitempty"`

	// Evaluate names the node to evaluate.
	Evaluate string `yaml:"evaluate,omitempty"`

	// Expect checks the step outcome. If nil, the step must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Error is the expected error code (see ErrorCode). Empty means the
	// step must succeed.
	Error string `yaml:"error,omitempty"`

	// Rows is the expected number of rows, probes, or results in an
	// evaluated value.
	Rows *int `yaml:"rows,omitempty"`

	// Result is a subset match against the value's JSON form.
	Result map[string]any `yaml:"result,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Event is "kind:source" (trace_contains, trace_count).
	Event string `yaml:"event,omitempty"`

	// Events is the expected order (trace_order).
	Events []string `yaml:"events,omitempty"`

	// Node names the node (runs, dirty).
	Node string `yaml:"node,omitempty"`

	// Count is the expected number (trace_count, runs).
	Count int `yaml:"count,omitempty"`

	// Dirty is the expected dirty flag (dirty).
	Dirty *bool `yaml:"dirty,omitempty"`
}

// Assertion type constants.
const (
	AssertTraceContains = "trace_contains"
	AssertTraceOrder    = "trace_order"
	AssertTraceCount    = "trace_count"
	AssertRuns          = "runs"
	AssertDirty         = "dirty"
)

// LoadScenario reads and parses a scenario YAML file. A relative dashboard
// path is resolved against the scenario file's directory.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads and parses a scenario YAML file,
// resolving the dashboard path relative to basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	// Unknown fields are rejected to catch typos like "assertion:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Dashboard != "" && !filepath.IsAbs(scenario.Dashboard) && basePath != "" {
		scenario.Dashboard = filepath.Join(basePath, scenario.Dashboard)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	if s.Dashboard != "" {
		if _, err := os.Stat(s.Dashboard); os.IsNotExist(err) {
			return fmt.Errorf("dashboard file not found: %s", s.Dashboard)
		}
	}

	for i, step := range s.Steps {
		switch {
		case step.Set != "" && step.Evaluate != "":
			return fmt.Errorf("steps[%d]: set and evaluate are mutually exclusive", i)
		case step.Set != "":
			if step.Value == nil {
				return fmt.Errorf("steps[%d]: value is required for set", i)
			}
			if step.Expect != nil && (step.Expect.Rows != nil || step.Expect.Result != nil) {
				return fmt.Errorf("steps[%d]: set steps can only expect an error", i)
			}
		case step.Evaluate != "":
			if step.Value != nil {
				return fmt.Errorf("steps[%d]: value is only valid for set", i)
			}
		default:
			return fmt.Errorf("steps[%d]: set or evaluate is required", i)
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, &a); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertTraceContains:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_contains", index)
		}
	case AssertTraceOrder:
		if len(a.Events) == 0 {
			return fmt.Errorf("assertions[%d]: events list is required for trace_order", index)
		}
	case AssertTraceCount:
		if a.Event == "" {
			return fmt.Errorf("assertions[%d]: event is required for trace_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for trace_count", index)
		}
	case AssertRuns:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for runs", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for runs", index)
		}
	case AssertDirty:
		if a.Node == "" {
			return fmt.Errorf("assertions[%d]: node is required for dirty", index)
		}
		if a.Dirty == nil {
			return fmt.Errorf("assertions[%d]: dirty is required for dirty", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	if a.Node != "" && !slices.Contains(dashboard.NodeNames(), a.Node) {
		return fmt.Errorf("assertions[%d]: unknown node %q", index, a.Node)
	}
	return nil
}
