package reactive

// worklist is a FIFO queue of nodes awaiting dirty-marking.
//
// Invalidation walks the dependents graph breadth-first. Each level is
// visited in node-id order so the invalidation sequence is deterministic
// for a given graph. Not safe for concurrent use; the graph mutex guards
// every walk.
type worklist struct {
	nodes []*Node
}

func (w *worklist) push(ns ...*Node) {
	w.nodes = append(w.nodes, ns...)
}

func (w *worklist) pop() (*Node, bool) {
	if len(w.nodes) == 0 {
		return nil, false
	}
	n := w.nodes[0]
	// Release the slot so the backing array does not pin popped nodes.
	w.nodes[0] = nil
	w.nodes = w.nodes[1:]
	return n, true
}

func (w *worklist) len() int {
	return len(w.nodes)
}

// invalidate marks every transitive dependent of src dirty and returns the
// names of the nodes that changed from clean to dirty, in visit order.
//
// Propagation stops at nodes that are already dirty: a clean node only has
// clean dependencies, so everything downstream of a dirty node is dirty too.
// Caller must hold g.mu.
func (g *Graph) invalidate(src *sourceBase) []string {
	var (
		queue worklist
		names []string
	)
	queue.push(src.sortedSubs()...)

	for queue.len() > 0 {
		n, _ := queue.pop()
		if n.dirty {
			continue
		}
		n.dirty = true
		names = append(names, n.name)
		queue.push(n.sortedSubs()...)
	}
	return names
}
