package reactive

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/exprdash/internal/ir"
	"github.com/roach88/exprdash/internal/testutil"
)

// recorder collects events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []Event
}

func (r *recorder) Observe(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

// kinds returns "kind:source" for every recorded event.
func (r *recorder) kinds() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = string(e.Kind) + ":" + e.Source
	}
	return out
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}

func newTestGraph(t *testing.T, opts ...GraphOption) *Graph {
	t.Helper()
	base := []GraphOption{WithIDGenerator(testutil.NewFixedIDGenerator("graph-test"))}
	return NewGraph(append(base, opts...)...)
}

func mustCell(t *testing.T, g *Graph, name string, typ Type, initial ir.Value, opts ...CellOption) *Cell {
	t.Helper()
	c, err := g.NewCell(name, typ, initial, opts...)
	require.NoError(t, err)
	return c
}

func mustNode(t *testing.T, g *Graph, name string, fn ComputeFunc, opts ...NodeOption) *Node {
	t.Helper()
	n, err := g.NewNode(name, fn, opts...)
	require.NoError(t, err)
	return n
}

// constNode returns a node that reads nothing and yields v.
func constNode(t *testing.T, g *Graph, name string, v any) *Node {
	t.Helper()
	return mustNode(t, g, name, func(*Tracker) (any, error) { return v, nil })
}
