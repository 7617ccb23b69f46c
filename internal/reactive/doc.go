// Package reactive implements a demand-driven reactive computation cache.
//
// A Graph holds two kinds of sources:
//   - Cells: externally written input slots with a declared Type
//   - Nodes: memoized functions of cells and other nodes
//
// EVALUATION MODEL:
//
// Pull-based and lazy. Node.Evaluate returns the cached value when the node
// is clean and runs its ComputeFunc only when dirty. Reads made through the
// Tracker handed to the function are recorded as that evaluation's
// dependencies, so the dependency set may change from run to run.
//
// Invalidation:
//  1. Cell.Set validates the value, bumps the cell version
//  2. Every node that read the cell during its last evaluation, failed
//     or not, is marked dirty, transitively, in breadth-first id order
//  3. Propagation stops at nodes that are already dirty
//  4. Nothing recomputes until something reads it
//
// Invariant: a clean node only depends on clean nodes and on the cell
// versions it recorded. A result computed while a dependency moved is
// returned to the caller but not cached.
//
// CONCURRENCY:
//
// Bookkeeping is guarded by one graph mutex that is never held while a
// ComputeFunc runs. Each node admits at most one in-flight evaluation
// (singleflight); concurrent readers share it. A reader whose context ends
// stops waiting, but the shared run continues for the others. Cached reads
// never wait on an unrelated slow computation.
//
// ERRORS:
//
// Failures surface as *RuntimeError with a Code. A failed evaluation leaves
// the node dirty with no cached value; nothing is retried automatically.
package reactive
