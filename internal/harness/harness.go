package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/roach88/exprdash/internal/config"
	"github.com/roach88/exprdash/internal/dashboard"
	"github.com/roach88/exprdash/internal/lookup"
	"github.com/roach88/exprdash/internal/reactive"
	"github.com/roach88/exprdash/internal/testutil"
)

// Error codes an ExpectClause can name.
const (
	ErrorNotFound         = "not_found"
	ErrorTypeMismatch     = "type_mismatch"
	ErrorEvaluationFailed = "evaluation_failed"
	ErrorCycle            = "cyclic_dependency"
	ErrorDepthExceeded    = "depth_exceeded"
	ErrorUnknownName      = "unknown_name"
	ErrorOther            = "error"
)

// ErrorCode classifies err for scenario expectations. A lookup miss is
// reported as not_found even though the graph wraps it as an evaluation
// failure.
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, lookup.ErrNotFound):
		return ErrorNotFound
	case errors.Is(err, reactive.ErrUnknownName):
		return ErrorUnknownName
	case reactive.IsCycleError(err):
		return ErrorCycle
	case reactive.IsDepthError(err):
		return ErrorDepthExceeded
	case reactive.IsTypeError(err):
		return ErrorTypeMismatch
	case reactive.IsEvaluationError(err):
		return ErrorEvaluationFailed
	default:
		return ErrorOther
	}
}

// Harness executes one scenario against one dashboard.
type Harness struct {
	dash   *dashboard.Dashboard
	clock  *testutil.DeterministicClock
	logger *slog.Logger

	mu    sync.Mutex
	trace []TraceEvent
}

// Observe records a graph event.
func (h *Harness) Observe(e reactive.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.trace = append(h.trace, traceEvent(e))
}

// Run executes a scenario and returns the result.
//
// Each scenario runs on a fresh dashboard with a deterministic clock and
// a fixed graph id. Setup problems (bad definition, unreachable dataset)
// are returned as errors; step and assertion failures are recorded in
// the result.
func Run(scenario *Scenario) (*Result, error) {
	return RunContext(context.Background(), scenario)
}

// RunContext is Run with a context for lookups.
func RunContext(ctx context.Context, scenario *Scenario) (*Result, error) {
	cfg := config.Default()
	if scenario.Dashboard != "" {
		loaded, err := config.Load(scenario.Dashboard)
		if err != nil {
			return nil, fmt.Errorf("failed to load dashboard: %w", err)
		}
		cfg = loaded
	}
	def := cfg.Dashboard
	if scenario.Fanout != "" {
		def.Dataset.Fanout = scenario.Fanout
	}

	h := &Harness{
		clock:  testutil.NewDeterministicClock(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	svc, closeFn, err := dashboard.OpenService(ctx, def.Dataset, h.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer func() { _ = closeFn() }()

	h.dash, err = dashboard.New(def, svc,
		reactive.WithClock(h.clock),
		reactive.WithIDGenerator(testutil.NewFixedIDGenerator(scenario.GraphID)),
		reactive.WithObserver(h),
		reactive.WithLogger(h.logger),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to build dashboard: %w", err)
	}

	result := NewResult()
	h.executeSteps(ctx, scenario.Steps, result)

	h.mu.Lock()
	result.Trace = append(result.Trace, h.trace...)
	h.mu.Unlock()

	g := h.dash.Graph()
	for _, name := range g.NodeNames() {
		n, _ := g.Node(name)
		result.Runs[name] = n.Runs()
		result.Dirty[name] = g.IsDirty(name)
	}

	for _, msg := range EvaluateAssertions(result, scenario.Assertions) {
		result.AddError(msg)
	}
	return result, nil
}

// executeSteps runs every step, recording mismatches in result.
func (h *Harness) executeSteps(ctx context.Context, steps []Step, result *Result) {
	for i, step := range steps {
		var (
			value any
			err   error
			what  string
		)
		if step.Set != "" {
			what = "set " + step.Set
			err = h.set(step.Set, step.Value)
		} else {
			what = "evaluate " + step.Evaluate
			value, err = h.dash.Evaluate(ctx, step.Evaluate)
		}

		h.logger.Info("step completed", "step", i, "action", what, "error", ErrorCode(err))

		if msg := checkStep(step.Expect, value, err); msg != "" {
			result.AddError(fmt.Sprintf("steps[%d] (%s): %s", i, what, msg))
		}
	}
}

// set writes a YAML value to a cell. Strings go through the cell's
// parser so "0.01" works for a number cell.
func (h *Harness) set(name string, v any) error {
	c, ok := h.dash.Graph().Cell(name)
	if !ok {
		return fmt.Errorf("set %q: %w", name, reactive.ErrUnknownName)
	}
	if s, ok := v.(string); ok {
		return c.SetString(s)
	}
	return c.SetAny(v)
}

// checkStep compares a step outcome with its expectation and returns a
// failure message, or "" if it matched.
func checkStep(expect *ExpectClause, value any, err error) string {
	code := ErrorCode(err)
	want := ""
	if expect != nil {
		want = expect.Error
	}
	if code != want {
		if want == "" {
			return fmt.Sprintf("unexpected error %s: %v", code, err)
		}
		return fmt.Sprintf("expected error %s, got %q (%v)", want, code, err)
	}
	if err != nil || expect == nil {
		return ""
	}

	if expect.Rows != nil {
		n, ok := rowCount(value)
		if !ok {
			return fmt.Sprintf("rows: %T has no rows", value)
		}
		if n != *expect.Rows {
			return fmt.Sprintf("expected %d rows, got %d", *expect.Rows, n)
		}
	}

	if expect.Result != nil {
		actual, err := jsonForm(value)
		if err != nil {
			return fmt.Sprintf("result: %v", err)
		}
		expected, err := jsonForm(expect.Result)
		if err != nil {
			return fmt.Sprintf("expected result: %v", err)
		}
		if !matchSubset(actual, expected.(map[string]any)) {
			return fmt.Sprintf("expected result %v, got %v", expected, actual)
		}
	}
	return ""
}

// rowCount returns the number of rows in an evaluated value.
func rowCount(v any) (int, bool) {
	switch val := v.(type) {
	case lookup.Result:
		return len(val.Rows), true
	case dashboard.Groups:
		return len(val.Probes), true
	case dashboard.Tests:
		return len(val.Results), true
	case dashboard.Plot:
		return len(val.Series), true
	case string:
		return strings.Count(strings.TrimSpace(val), "\n"), true
	default:
		return 0, false
	}
}

// jsonForm converts v to the generic form encoding/json decodes into, so
// YAML expectations and Go values compare with the same number types.
func jsonForm(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}
