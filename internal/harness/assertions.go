package harness

import (
	"fmt"
	"reflect"
	"strings"
)

// AssertionError is returned when an assertion fails.
// It includes the trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nFull trace:\n")
		for _, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s", event.Seq, event.Key())
			if event.Value != "" {
				fmt.Fprintf(&buf, " = %s", event.Value)
			}
			if event.Error != "" {
				fmt.Fprintf(&buf, " (%s)", event.Error)
			}
			buf.WriteByte('\n')
		}
	}
	return buf.String()
}

// assertTraceContains checks that the trace contains the event.
func assertTraceContains(trace []TraceEvent, assertion Assertion) error {
	for _, event := range trace {
		if event.Key() == assertion.Event {
			return nil
		}
	}
	return &AssertionError{
		Type:     AssertTraceContains,
		Expected: fmt.Sprintf("event %s", assertion.Event),
		Actual:   "not found in trace",
		Trace:    trace,
	}
}

// assertTraceOrder checks that events appear in the specified order.
// Events need not be adjacent. Each expected event is matched against the
// first occurrence after the previous match, so a repeated event can be
// listed more than once.
func assertTraceOrder(trace []TraceEvent, assertion Assertion) error {
	pos := 0
	for _, want := range assertion.Events {
		found := false
		for pos < len(trace) {
			key := trace[pos].Key()
			pos++
			if key == want {
				found = true
				break
			}
		}
		if !found {
			return &AssertionError{
				Type:     AssertTraceOrder,
				Expected: fmt.Sprintf("events in order: %v", assertion.Events),
				Actual:   fmt.Sprintf("%s missing or out of order", want),
				Trace:    trace,
			}
		}
	}
	return nil
}

// assertTraceCount checks that the event appears exactly Count times.
func assertTraceCount(trace []TraceEvent, assertion Assertion) error {
	count := 0
	for _, event := range trace {
		if event.Key() == assertion.Event {
			count++
		}
	}
	if count != assertion.Count {
		return &AssertionError{
			Type:     AssertTraceCount,
			Expected: fmt.Sprintf("%d occurrences of %s", assertion.Count, assertion.Event),
			Actual:   fmt.Sprintf("%d occurrences", count),
			Trace:    trace,
		}
	}
	return nil
}

// assertRuns checks how many times a node's function ran.
func assertRuns(result *Result, assertion Assertion) error {
	runs := result.Runs[assertion.Node]
	if runs != int64(assertion.Count) {
		return &AssertionError{
			Type:     AssertRuns,
			Expected: fmt.Sprintf("%s ran %d times", assertion.Node, assertion.Count),
			Actual:   fmt.Sprintf("%d runs", runs),
			Trace:    result.Trace,
		}
	}
	return nil
}

// assertDirty checks a node's final dirty flag.
func assertDirty(result *Result, assertion Assertion) error {
	dirty := result.Dirty[assertion.Node]
	if dirty != *assertion.Dirty {
		return &AssertionError{
			Type:     AssertDirty,
			Expected: fmt.Sprintf("%s dirty=%t", assertion.Node, *assertion.Dirty),
			Actual:   fmt.Sprintf("dirty=%t", dirty),
			Trace:    result.Trace,
		}
	}
	return nil
}

// matchSubset checks if actual contains every key of expected with an
// equal value. Nested objects match by subset too; extra keys in actual
// are ignored.
func matchSubset(actual any, expected map[string]any) bool {
	if len(expected) == 0 {
		return true
	}
	actualMap, ok := actual.(map[string]any)
	if !ok {
		return false
	}
	for key, expectedVal := range expected {
		actualVal, exists := actualMap[key]
		if !exists {
			return false
		}
		if !valuesEqual(actualVal, expectedVal) {
			return false
		}
	}
	return true
}

// valuesEqual compares two values in JSON form. Objects recurse through
// matchSubset; everything else must be deeply equal.
func valuesEqual(actual, expected any) bool {
	if actual == nil || expected == nil {
		return actual == nil && expected == nil
	}
	if em, ok := expected.(map[string]any); ok {
		return matchSubset(actual, em)
	}
	return reflect.DeepEqual(actual, expected)
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion) []string {
	var errors []string

	for i, assertion := range assertions {
		var err error

		switch assertion.Type {
		case AssertTraceContains:
			err = assertTraceContains(result.Trace, assertion)
		case AssertTraceOrder:
			err = assertTraceOrder(result.Trace, assertion)
		case AssertTraceCount:
			err = assertTraceCount(result.Trace, assertion)
		case AssertRuns:
			err = assertRuns(result, assertion)
		case AssertDirty:
			if assertion.Dirty == nil {
				err = fmt.Errorf("assertion[%d]: dirty requires an expected value", i)
			} else {
				err = assertDirty(result, assertion)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errors = append(errors, err.Error())
		}
	}
	return errors
}
