package reactive

import (
	"context"
	"fmt"
	"slices"
	"sync"
)

// Tracker records the reads made by one evaluation of one node.
//
// A Tracker is created by the graph for each evaluation and handed to the
// node's ComputeFunc. Trackers chain to the evaluation that triggered them,
// which forms the evaluation stack used for cycle detection.
type Tracker struct {
	ctx    context.Context
	graph  *Graph
	node   *Node
	parent *Tracker
	depth  int

	mu    sync.Mutex
	reads map[uint64]dependency
}

func newTracker(ctx context.Context, g *Graph, n *Node, parent *Tracker) *Tracker {
	depth := 1
	if parent != nil {
		depth = parent.depth + 1
	}
	return &Tracker{
		ctx:    ctx,
		graph:  g,
		node:   n,
		parent: parent,
		depth:  depth,
		reads:  make(map[uint64]dependency),
	}
}

// Context returns the context of the evaluation.
func (t *Tracker) Context() context.Context {
	return t.ctx
}

// Node returns the name of the node being evaluated.
func (t *Tracker) Node() string {
	return t.node.name
}

// Depth returns the nesting depth of this evaluation (1 for a top-level
// Evaluate).
func (t *Tracker) Depth() int {
	return t.depth
}

// record adds a read to the version-vector. A source read twice keeps the
// first version observed so a concurrent change is detected at commit.
func (t *Tracker) record(src *sourceBase, version int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.reads[src.id]; ok {
		return
	}
	t.reads[src.id] = dependency{src: src, version: version}
}

// snapshot returns a copy of the recorded reads.
func (t *Tracker) snapshot() map[uint64]dependency {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[uint64]dependency, len(t.reads))
	for id, d := range t.reads {
		out[id] = d
	}
	return out
}

// stack returns node names from the outermost evaluation to this one.
func (t *Tracker) stack() []string {
	var names []string
	for cur := t; cur != nil; cur = cur.parent {
		names = append(names, cur.node.name)
	}
	slices.Reverse(names)
	return names
}

// cyclePath returns the dependency path if n is already being evaluated
// on this stack, or nil.
func (t *Tracker) cyclePath(n *Node) []string {
	for cur := t; cur != nil; cur = cur.parent {
		if cur.node == n {
			stack := t.stack()
			idx := slices.Index(stack, n.name)
			return append(stack[idx:], n.name)
		}
	}
	return nil
}

// mustOwn panics when a source from another graph is read; that is a
// programming error, not a runtime condition.
func (t *Tracker) mustOwn(s Source) {
	if s.base().graph != t.graph {
		panic(fmt.Sprintf("reactive: %q read through a tracker of another graph", s.Name()))
	}
}
