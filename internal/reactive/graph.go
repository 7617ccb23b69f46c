package reactive

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/roach88/exprdash/internal/ir"
)

// DefaultMaxDepth bounds nested evaluation. Together with cycle detection
// it guarantees every Evaluate terminates.
const DefaultMaxDepth = 256

const tracerName = "github.com/roach88/exprdash/internal/reactive"

// Graph owns a set of cells and nodes and the dependency bookkeeping
// between them.
//
// Thread-safety model:
//   - NewCell, NewNode, Set, Evaluate and the introspection methods are
//     safe from any goroutine
//   - mu guards bookkeeping only and is released while functions run
//   - each node admits one in-flight evaluation; callers share it
type Graph struct {
	id string

	mu       sync.Mutex
	nextID   uint64
	cells    map[string]*Cell
	nodes    map[string]*Node
	declared map[string][]string // node name -> DependsOn names

	clock     Sequencer
	obsMu     sync.Mutex
	observers []Observer

	logger   *slog.Logger
	metrics  *Metrics
	tracer   trace.Tracer
	maxDepth int
}

// GraphOption configures a graph.
type GraphOption func(*Graph)

// WithLogger sets the structured logger. Default discards.
func WithLogger(l *slog.Logger) GraphOption {
	return func(g *Graph) {
		if l != nil {
			g.logger = l
		}
	}
}

// WithObserver adds an observer for graph events.
func WithObserver(o Observer) GraphOption {
	return func(g *Graph) {
		if o != nil {
			g.observers = append(g.observers, o)
		}
	}
}

// WithMetrics sets the Prometheus collectors. Default none.
func WithMetrics(m *Metrics) GraphOption {
	return func(g *Graph) {
		g.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer. Default is the global tracer
// provider's tracer, a no-op unless the program installs one.
func WithTracer(t trace.Tracer) GraphOption {
	return func(g *Graph) {
		if t != nil {
			g.tracer = t
		}
	}
}

// WithMaxDepth sets the nested evaluation limit. Values below 1 are ignored.
func WithMaxDepth(n int) GraphOption {
	return func(g *Graph) {
		if n >= 1 {
			g.maxDepth = n
		}
	}
}

// WithClock sets the event sequencer. Default is a fresh Clock.
func WithClock(c Sequencer) GraphOption {
	return func(g *Graph) {
		if c != nil {
			g.clock = c
		}
	}
}

// WithIDGenerator sets the generator for the graph id.
func WithIDGenerator(gen IDGenerator) GraphOption {
	return func(g *Graph) {
		if gen != nil {
			g.id = gen.Generate()
		}
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		cells:    make(map[string]*Cell),
		nodes:    make(map[string]*Node),
		declared: make(map[string][]string),
		clock:    NewClock(),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		tracer:   otel.Tracer(tracerName),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.id == "" {
		g.id = UUIDv7Generator{}.Generate()
	}
	return g
}

// ID returns the graph identifier used in logs and spans.
func (g *Graph) ID() string {
	return g.id
}

// Clock returns the graph's event sequencer.
func (g *Graph) Clock() Sequencer {
	return g.clock
}

// nameTaken reports whether name is registered. Caller must hold g.mu.
func (g *Graph) nameTaken(name string) bool {
	_, isCell := g.cells[name]
	_, isNode := g.nodes[name]
	return isCell || isNode
}

// Cell returns the cell registered under name.
func (g *Graph) Cell(name string) (*Cell, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	c, ok := g.cells[name]
	return c, ok
}

// Node returns the node registered under name.
func (g *Graph) Node(name string) (*Node, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	return n, ok
}

// CellNames returns registered cell names in sorted order.
func (g *Graph) CellNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.cells))
	for name := range g.cells {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// NodeNames returns registered node names in sorted order.
func (g *Graph) NodeNames() []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	names := make([]string, 0, len(g.nodes))
	for name := range g.nodes {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Set writes a value to the named cell.
func (g *Graph) Set(name string, v ir.Value) error {
	c, ok := g.Cell(name)
	if !ok {
		return fmt.Errorf("cell %q: %w", name, ErrUnknownName)
	}
	return c.Set(v)
}

// Evaluate evaluates the named node.
func (g *Graph) Evaluate(ctx context.Context, name string) (any, error) {
	n, ok := g.Node(name)
	if !ok {
		return nil, fmt.Errorf("node %q: %w", name, ErrUnknownName)
	}
	return n.Evaluate(ctx)
}

// IsDirty reports whether the named node would recompute on its next
// read. Cells and unknown names are never dirty.
func (g *Graph) IsDirty(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	return ok && n.dirty
}

// Dependencies returns the sorted names of the sources the named node read
// during its last evaluation.
func (g *Graph) Dependencies(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	n, ok := g.nodes[name]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(n.deps))
	for _, d := range n.deps {
		names = append(names, d.src.name)
	}
	slices.Sort(names)
	return names
}

// Dependents returns the sorted names of the nodes subscribed to the named
// cell or node.
func (g *Graph) Dependents(name string) []string {
	g.mu.Lock()
	defer g.mu.Unlock()
	src := g.lookup(name)
	if src == nil {
		return nil
	}
	names := make([]string, 0, len(src.subs))
	for _, n := range src.sortedSubs() {
		names = append(names, n.name)
	}
	slices.Sort(names)
	return names
}

// lookup finds a source by name. Caller must hold g.mu.
func (g *Graph) lookup(name string) *sourceBase {
	if c, ok := g.cells[name]; ok {
		return &c.sourceBase
	}
	if n, ok := g.nodes[name]; ok {
		return &n.sourceBase
	}
	return nil
}

// Stats summarizes the graph.
type Stats struct {
	Cells int   `json:"cells"`
	Nodes int   `json:"nodes"`
	Dirty int   `json:"dirty"`
	Runs  int64 `json:"runs"`
}

// Stats returns a snapshot of the graph's size and activity.
func (g *Graph) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	s := Stats{Cells: len(g.cells), Nodes: len(g.nodes)}
	for _, n := range g.nodes {
		if n.dirty {
			s.Dirty++
		}
		s.Runs += n.runs.Load()
	}
	return s
}

// Check runs cycle analysis over declared edges merged with the edges
// observed at the last evaluation of each node.
func (g *Graph) Check() []Cycle {
	g.mu.Lock()
	edges := make(map[string][]string, len(g.nodes))
	for name, n := range g.nodes {
		seen := make(map[string]bool)
		for _, dep := range g.declared[name] {
			if !seen[dep] {
				seen[dep] = true
				edges[name] = append(edges[name], dep)
			}
		}
		for _, d := range n.deps {
			if !seen[d.src.name] {
				seen[d.src.name] = true
				edges[name] = append(edges[name], d.src.name)
			}
		}
		slices.Sort(edges[name])
	}
	g.mu.Unlock()
	return AnalyzeCycles(edges)
}

// evaluate returns n's value and the version the caller should record.
// parent is the tracker of the evaluation reading n, or nil at top level.
func (g *Graph) evaluate(ctx context.Context, n *Node, parent *Tracker) (any, int64, error) {
	if parent != nil {
		if path := parent.cyclePath(n); path != nil {
			return nil, 0, NewCycleError(path)
		}
		if depth := parent.depth + 1; depth > g.maxDepth {
			return nil, 0, NewDepthError(n.name, depth, g.maxDepth)
		}
	}

	if v, version, ok := g.cached(n); ok {
		return v, version, nil
	}

	// The shared run outlives any one caller: it keeps the first caller's
	// values but not its cancellation, and each caller stops waiting when
	// its own context ends.
	runCtx := context.WithoutCancel(ctx)
	ch := n.flight.DoChan("evaluate", func() (any, error) {
		return g.recompute(runCtx, n, parent)
	})
	select {
	case <-ctx.Done():
		return nil, 0, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, 0, res.Err
		}
		r := res.Val.(evalResult)
		return r.value, r.version, nil
	}
}

// cached returns the node's value if it is clean.
func (g *Graph) cached(n *Node) (any, int64, bool) {
	g.mu.Lock()
	if n.dirty {
		g.mu.Unlock()
		return nil, 0, false
	}
	v, version := n.value, n.version
	g.mu.Unlock()

	g.metrics.hit(n.name)
	g.emit(Event{Kind: EventHit, Source: n.name, Version: version})
	return v, version, true
}

// recompute runs n's function once and commits the result. Runs inside
// the node's singleflight group.
func (g *Graph) recompute(ctx context.Context, n *Node, parent *Tracker) (any, error) {
	// A flight that finished between the cache check and Do leaves n clean.
	if v, version, ok := g.cached(n); ok {
		return evalResult{value: v, version: version}, nil
	}

	ctx, span := g.tracer.Start(ctx, "reactive.evaluate",
		trace.WithAttributes(
			attribute.String("graph.id", g.id),
			attribute.String("node.name", n.name),
		),
	)
	defer span.End()

	tr := newTracker(ctx, g, n, parent)
	n.runs.Add(1)
	g.emit(Event{Kind: EventEvaluate, Source: n.name})

	start := time.Now()
	value, err := g.call(n, tr)
	g.metrics.evaluated(n.name, time.Since(start))

	if err != nil {
		err = g.fail(n, tr, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	version, cached, deps := g.commit(n, tr, value)
	span.SetAttributes(
		attribute.Bool("node.cached", cached),
		attribute.Int("node.deps", len(deps)),
	)
	g.emit(Event{Kind: EventStore, Source: n.name, Version: version, Deps: deps, Cached: cached})
	return evalResult{value: value, version: version}, nil
}

// call invokes the node function, converting a panic into an error.
func (g *Graph) call(n *Node, tr *Tracker) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			value = nil
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return n.fn(tr)
}

// fail records a failed evaluation. The node stays dirty and keeps no
// value, but subscribes to what it read before failing so a write that
// fixes the cause reaches its readers. Cycle and depth errors pass through so the caller sees the root
// cause; everything else is wrapped as EVALUATION_FAILED.
func (g *Graph) fail(n *Node, tr *Tracker, cause error) error {
	reads := tr.snapshot()

	g.mu.Lock()
	g.resubscribe(n, reads)
	n.dirty = true
	n.value = nil
	g.mu.Unlock()

	err := cause
	if !IsCycleError(cause) && !IsDepthError(cause) {
		err = NewEvaluationError(n.name, cause)
	}
	g.metrics.failed(n.name)
	g.emit(Event{Kind: EventFail, Source: n.name, Error: err.Error()})
	return err
}

// commit swaps n's subscriptions to the sources read by tr and stores the
// value. The node becomes clean only if every dependency is still at the
// version read and no node dependency went dirty meanwhile.
func (g *Graph) commit(n *Node, tr *Tracker, value any) (version int64, cached bool, deps []string) {
	reads := tr.snapshot()

	g.mu.Lock()
	defer g.mu.Unlock()

	g.resubscribe(n, reads)

	stale := false
	deps = make([]string, 0, len(reads))
	for _, d := range reads {
		if d.src.version != d.version || d.src.dirty {
			stale = true
		}
		deps = append(deps, d.src.name)
	}
	slices.Sort(deps)

	n.value = value
	if !stale {
		n.dirty = false
		n.version++
	}
	return n.version, !stale, deps
}

// resubscribe moves n's subscriptions from its previous dependencies to
// reads. Caller must hold g.mu.
func (g *Graph) resubscribe(n *Node, reads map[uint64]dependency) {
	for id, d := range n.deps {
		if _, still := reads[id]; !still {
			delete(d.src.subs, n.id)
		}
	}
	for _, d := range reads {
		d.src.subs[n.id] = n
	}
	n.deps = reads
}
