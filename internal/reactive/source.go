package reactive

import (
	"slices"
)

// Source is anything a compute function can read through a Tracker:
// a *Cell or a *Node.
type Source interface {
	// Name returns the source's unique name within its graph.
	Name() string

	base() *sourceBase
}

// sourceBase carries identity and subscriber bookkeeping shared by cells
// and nodes. All mutable fields are guarded by the owning graph's mutex.
type sourceBase struct {
	graph *Graph
	id    uint64
	name  string

	// version increments on every effective cell write or node recompute.
	version int64

	// dirty is always false for cells.
	dirty bool

	// subs are the nodes that read this source during their last
	// evaluation, keyed by node id.
	subs map[uint64]*Node
}

func newSourceBase(g *Graph, id uint64, name string) sourceBase {
	return sourceBase{
		graph: g,
		id:    id,
		name:  name,
		subs:  make(map[uint64]*Node),
	}
}

// Name returns the source's unique name.
func (s *sourceBase) Name() string {
	return s.name
}

func (s *sourceBase) base() *sourceBase {
	return s
}

// sortedSubs returns subscribers ordered by id for deterministic traversal.
// Caller must hold the graph mutex.
func (s *sourceBase) sortedSubs() []*Node {
	subs := make([]*Node, 0, len(s.subs))
	for _, n := range s.subs {
		subs = append(subs, n)
	}
	slices.SortFunc(subs, func(a, b *Node) int {
		switch {
		case a.id < b.id:
			return -1
		case a.id > b.id:
			return 1
		default:
			return 0
		}
	})
	return subs
}

// dependency is one entry of a node's version-vector: the source read and
// the version observed.
type dependency struct {
	src     *sourceBase
	version int64
}
