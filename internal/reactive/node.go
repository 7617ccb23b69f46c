package reactive

import (
	"context"
	"fmt"
	"slices"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ComputeFunc computes a node's value. Every cell or node it reads through
// tr becomes a dependency of this evaluation.
type ComputeFunc func(tr *Tracker) (any, error)

// NodeOption configures a node at creation.
type NodeOption func(*Node)

// DependsOn declares the names of the sources a node is expected to read.
// Declared edges are checked for cycles when the node is registered.
// Reads are still discovered dynamically; the declaration is not a limit.
func DependsOn(names ...string) NodeOption {
	return func(n *Node) {
		n.declared = append(n.declared, names...)
	}
}

// Node is a memoized computation over cells and other nodes.
type Node struct {
	sourceBase

	fn       ComputeFunc
	declared []string

	// value is meaningful only while the node is clean.
	value any

	// deps is the version-vector recorded at the last evaluation. After a
	// failure it holds the reads made before the error.
	deps map[uint64]dependency

	runs   atomic.Int64
	flight singleflight.Group
}

// evalResult is what a single evaluation hands to everyone waiting on it.
type evalResult struct {
	value   any
	version int64
}

// NewNode registers a node. The node starts dirty and runs on first read.
//
// Returns a CYCLIC_DEPENDENCY error if the declared edges (DependsOn) of
// the nodes registered so far form a cycle through this node; the node is
// not registered in that case.
func (g *Graph) NewNode(name string, fn ComputeFunc, opts ...NodeOption) (*Node, error) {
	if name == "" {
		return nil, newDefinitionError(name, "node name is required")
	}
	if fn == nil {
		return nil, newDefinitionError(name, "node function is required")
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.nameTaken(name) {
		return nil, NewDuplicateNameError(name)
	}

	g.nextID++
	n := &Node{
		sourceBase: newSourceBase(g, g.nextID, name),
		fn:         fn,
		deps:       make(map[uint64]dependency),
	}
	n.dirty = true
	for _, opt := range opts {
		opt(n)
	}

	if len(n.declared) > 0 {
		g.declared[name] = slices.Clone(n.declared)
		if path := cycleThrough(g.declared, name); path != nil {
			delete(g.declared, name)
			return nil, NewCycleError(path)
		}
	}
	g.nodes[name] = n

	g.logger.Debug("node registered", "graph", g.id, "node", name, "declared", n.declared)
	return n, nil
}

// Evaluate returns the node's value, recomputing only if the node is dirty.
//
// A failed evaluation returns an EVALUATION_FAILED error wrapping the
// cause and leaves the node dirty; calling Evaluate again retries.
func (n *Node) Evaluate(ctx context.Context) (any, error) {
	v, _, err := n.graph.evaluate(ctx, n, nil)
	return v, err
}

// Read evaluates the node as a dependency of the node evaluating through
// tr. A nil tracker behaves like Evaluate with a background context.
func (n *Node) Read(tr *Tracker) (any, error) {
	if tr == nil {
		return n.Evaluate(context.Background())
	}
	tr.mustOwn(n)

	v, version, err := n.graph.evaluate(tr.ctx, n, tr)
	if err != nil {
		// A failed read is still a dependency. The reader subscribes to n
		// so fixing n's inputs reaches it even if it recovered from err.
		tr.record(&n.sourceBase, n.Version())
		return nil, err
	}
	tr.record(&n.sourceBase, version)
	return v, nil
}

// Runs returns how many times the node's function has been invoked.
func (n *Node) Runs() int64 {
	return n.runs.Load()
}

// Version returns the number of successful recomputations.
func (n *Node) Version() int64 {
	n.graph.mu.Lock()
	defer n.graph.mu.Unlock()
	return n.version
}

// ReadAs reads a node through tr and asserts the result type.
func ReadAs[T any](tr *Tracker, n *Node) (T, error) {
	var zero T
	v, err := n.Read(tr)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("node %q produced %T, want %T", n.name, v, zero)
	}
	return t, nil
}

// EvaluateAs evaluates a node and asserts the result type.
func EvaluateAs[T any](ctx context.Context, n *Node) (T, error) {
	var zero T
	v, err := n.Evaluate(ctx)
	if err != nil {
		return zero, err
	}
	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("node %q produced %T, want %T", n.name, v, zero)
	}
	return t, nil
}
