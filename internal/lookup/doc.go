// Package lookup resolves a gene symbol to rows of the expression matrix.
//
// A Service takes a key, normalizes it (dataset.NormalizeSymbol), maps it
// to probe identifiers through the mapping table, and joins those to the
// value matrix. Two back ends share the contract:
//   - Memory: an index over a dataset.Dataset
//   - SQLService: queries against a store.Store
//
// A symbol that maps to several probes fans out according to a Strategy.
// An unknown symbol is a *NotFoundError, never an empty Result.
package lookup
