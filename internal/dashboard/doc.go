// Package dashboard wires a gene-expression dashboard onto a reactive
// graph.
//
// Three input cells drive five nodes:
//
//	gene ──► expression ──► groups ──┬──► ttest ◄── alpha
//	              │                  └──► plot  ◄── color
//	              └──► download
//
// Only plot reads color, so recoloring never repeats the lookup or the
// grouping. Changing gene invalidates everything downstream of
// expression, but nothing recomputes until a node is read.
package dashboard
