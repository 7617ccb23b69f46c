package reactive

// EventKind identifies what happened in the graph.
type EventKind string

const (
	// EventSet is an effective cell write.
	EventSet EventKind = "set"

	// EventSkip is a cell write equal to the current value under SkipEqual.
	EventSkip EventKind = "skip"

	// EventInvalidate is a node changing from clean to dirty.
	EventInvalidate EventKind = "invalidate"

	// EventEvaluate is a node's function starting to run.
	EventEvaluate EventKind = "evaluate"

	// EventHit is a read served from a node's cache.
	EventHit EventKind = "hit"

	// EventStore is a successful evaluation. Cached is false when a
	// dependency changed while the function ran.
	EventStore EventKind = "store"

	// EventFail is a failed evaluation.
	EventFail EventKind = "fail"
)

// Event is one observable step of the graph, stamped with a logical
// sequence number from the graph's clock.
type Event struct {
	Seq     int64     `json:"seq"`
	Kind    EventKind `json:"kind"`
	Source  string    `json:"source"`
	Version int64     `json:"version,omitempty"`
	Value   string    `json:"value,omitempty"`
	Deps    []string  `json:"deps,omitempty"`
	Cached  bool      `json:"cached,omitempty"`
	Error   string    `json:"error,omitempty"`
}

// Observer receives graph events.
//
// Events are delivered synchronously and one at a time, in Seq order.
// An observer must not write cells or register nodes.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(e).
func (f ObserverFunc) Observe(e Event) {
	f(e)
}

// emit stamps e and delivers it to every observer.
// Must not be called with g.mu held.
func (g *Graph) emit(e Event) {
	g.obsMu.Lock()
	defer g.obsMu.Unlock()

	e.Seq = g.clock.Next()
	g.logger.Debug("graph event",
		"graph", g.id,
		"seq", e.Seq,
		"kind", string(e.Kind),
		"source", e.Source,
		"version", e.Version,
	)
	for _, o := range g.observers {
		o.Observe(e)
	}
}
