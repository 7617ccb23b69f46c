package harness

import "github.com/roach88/exprdash/internal/reactive"

// TraceEvent is one graph event as recorded by the harness.
type TraceEvent struct {
	Seq     int64    `json:"seq"`
	Kind    string   `json:"kind"`
	Source  string   `json:"source"`
	Version int64    `json:"version,omitempty"`
	Value   string   `json:"value,omitempty"`
	Deps    []string `json:"deps,omitempty"`
	Cached  bool     `json:"cached,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// Key returns "kind:source", the form assertions match on.
func (e TraceEvent) Key() string {
	return e.Kind + ":" + e.Source
}

func traceEvent(e reactive.Event) TraceEvent {
	return TraceEvent{
		Seq:     e.Seq,
		Kind:    string(e.Kind),
		Source:  e.Source,
		Version: e.Version,
		Value:   e.Value,
		Deps:    e.Deps,
		Cached:  e.Cached,
		Error:   e.Error,
	}
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every step expectation and assertion held.
	Pass bool `json:"pass"`

	// Trace contains every graph event in Seq order.
	Trace []TraceEvent `json:"trace"`

	// Errors contains failure messages. Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// Runs and Dirty capture the final state of every node.
	Runs  map[string]int64 `json:"runs"`
	Dirty map[string]bool  `json:"dirty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
		Runs:   make(map[string]int64),
		Dirty:  make(map[string]bool),
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
