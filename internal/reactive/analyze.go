package reactive

import (
	"fmt"
	"slices"
	"strings"
)

// Cycle describes one strongly connected component of declared edges.
type Cycle struct {
	// Path is a traversal of the cycle; first and last elements are equal.
	Path []string `json:"path"`

	// Message is a human-readable description.
	Message string `json:"message"`
}

// AnalyzeCycles finds cycles in a dependency graph given as
// node name -> names it reads.
//
// Uses Tarjan's algorithm to find strongly connected components. Every
// component with more than one member, or a single member that reads
// itself, is reported. Names that only appear as targets (cells) are
// leaves. Results are sorted by path for stable output.
func AnalyzeCycles(edges map[string][]string) []Cycle {
	var cycles []Cycle
	for _, scc := range tarjanSCC(edges) {
		if len(scc) == 1 && !slices.Contains(edges[scc[0]], scc[0]) {
			continue
		}
		path := cyclePathFrom(scc[0], scc, edges)
		cycles = append(cycles, Cycle{
			Path:    path,
			Message: fmt.Sprintf("dependency cycle: %s", strings.Join(path, " -> ")),
		})
	}
	slices.SortFunc(cycles, func(a, b Cycle) int {
		return strings.Compare(strings.Join(a.Path, "\x00"), strings.Join(b.Path, "\x00"))
	})
	return cycles
}

// cycleThrough returns a cycle path starting and ending at name, or nil if
// name is not on a cycle.
func cycleThrough(edges map[string][]string, name string) []string {
	for _, scc := range tarjanSCC(edges) {
		if !slices.Contains(scc, name) {
			continue
		}
		if len(scc) == 1 && !slices.Contains(edges[name], name) {
			return nil
		}
		return cyclePathFrom(name, scc, edges)
	}
	return nil
}

// tarjanSCC returns the strongly connected components of edges.
// Nodes are visited in sorted order so the output is deterministic.
func tarjanSCC(edges map[string][]string) [][]string {
	var (
		index   int
		stack   []string
		indices = make(map[string]int)
		lowlink = make(map[string]int)
		onStack = make(map[string]bool)
		sccs    [][]string
	)

	var strongConnect func(string)
	strongConnect = func(v string) {
		indices[v] = index
		lowlink[v] = index
		index++
		stack = append(stack, v)
		onStack[v] = true

		for _, w := range edges[v] {
			if _, visited := indices[w]; !visited {
				strongConnect(w)
				lowlink[v] = min(lowlink[v], lowlink[w])
			} else if onStack[w] {
				lowlink[v] = min(lowlink[v], indices[w])
			}
		}

		if lowlink[v] == indices[v] {
			var scc []string
			for {
				w := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				onStack[w] = false
				scc = append(scc, w)
				if w == v {
					break
				}
			}
			sccs = append(sccs, scc)
		}
	}

	names := make([]string, 0, len(edges))
	for name := range edges {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		if _, visited := indices[name]; !visited {
			strongConnect(name)
		}
	}
	return sccs
}

// cyclePathFrom walks edges inside scc from start until it returns to
// start, preferring unvisited members. Every member of an SCC reaches
// start, so a depth-first walk always closes the loop.
func cyclePathFrom(start string, scc []string, edges map[string][]string) []string {
	members := make(map[string]bool, len(scc))
	for _, m := range scc {
		members[m] = true
	}

	visited := map[string]bool{start: true}
	var walk func(cur string, path []string) []string
	walk = func(cur string, path []string) []string {
		for _, next := range edges[cur] {
			if next == start {
				return append(path, start)
			}
			if !members[next] || visited[next] {
				continue
			}
			visited[next] = true
			if p := walk(next, append(path, next)); p != nil {
				return p
			}
		}
		return nil
	}
	return walk(start, []string{start})
}
