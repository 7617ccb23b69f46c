// Package harness runs dashboard scenarios as executable contract tests.
//
// A scenario builds a dashboard from a CUE definition, drives its cells,
// evaluates nodes, and asserts on the recorded graph trace and the final
// run counts.
//
// # Scenario Format
//
// Scenarios are YAML files:
//
//	name: recolor_keeps_lookup
//	description: "Changing the plot color does not repeat the lookup"
//	dashboard: ../dashboards/er_status.cue   # optional, built-in default otherwise
//	fanout: all                              # optional override
//	steps:
//	  - evaluate: plot
//	  - set: color
//	    value: firebrick
//	  - evaluate: plot
//	    expect:
//	      result: { color: firebrick }
//	assertions:
//	  - type: runs
//	    node: expression
//	    count: 1
//	  - type: trace_count
//	    event: evaluate:expression
//	    count: 1
//
// # Assertion Types
//
//   - trace_contains: an event "kind:source" appears in the trace
//   - trace_order: events appear in the given order, not necessarily adjacent
//   - trace_count: an event appears exactly N times
//   - runs: a node's function ran exactly N times
//   - dirty: a node is (or is not) dirty at the end
//
// # Deterministic Testing
//
// Every scenario runs on a fresh graph with a deterministic logical clock
// and a fixed graph id, so the same scenario always produces the same trace.
// RunWithGolden compares that trace against a golden file.
package harness
