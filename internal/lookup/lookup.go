package lookup

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/roach88/exprdash/internal/dataset"
)

// ErrNotFound matches every *NotFoundError under errors.Is.
var ErrNotFound = errors.New("not found")

// NotFoundError reports a key with no match in the mapping table.
type NotFoundError struct {
	Key string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("gene symbol %q not found", e.Key)
}

// Is reports whether target is ErrNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// Strategy decides what a symbol mapping to several probes returns.
type Strategy string

const (
	// StrategyAll returns every matching probe in canonical order.
	StrategyAll Strategy = "all"

	// StrategyFirst returns only the first probe in canonical order.
	StrategyFirst Strategy = "first"
)

// ParseStrategy parses a strategy name. The empty string means StrategyAll.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(strings.ToLower(strings.TrimSpace(s))) {
	case "", StrategyAll:
		return StrategyAll, nil
	case StrategyFirst:
		return StrategyFirst, nil
	default:
		return "", fmt.Errorf("unknown fan-out strategy %q: must be all or first", s)
	}
}

// apply trims canonically ordered rows to the strategy.
func (s Strategy) apply(rows []Row) []Row {
	if s == StrategyFirst && len(rows) > 1 {
		return rows[:1]
	}
	return rows
}

// Row is one probe's values, one per sample.
type Row struct {
	ProbeID string    `json:"probe_id"`
	Ordinal int       `json:"ordinal"`
	Values  []float64 `json:"values"`
}

// Result is the answer to a lookup. It is read-only: callers must not
// modify the slices.
type Result struct {
	// Key is the normalized symbol that matched.
	Key string `json:"key"`

	// Rows holds at least one row, in canonical order.
	Rows []Row `json:"rows"`

	// Samples and Labels describe the columns of every row.
	Samples []string `json:"samples"`
	Labels  []string `json:"labels"`
}

// Service is a read-only gene lookup.
type Service interface {
	// Lookup returns the rows for key, or a *NotFoundError.
	Lookup(ctx context.Context, key string) (Result, error)
}

// rowsFromProbes converts canonically ordered probes into rows.
func rowsFromProbes(probes []dataset.Probe) []Row {
	rows := make([]Row, len(probes))
	for i, p := range probes {
		rows[i] = Row{ProbeID: p.ID, Ordinal: p.Ordinal, Values: p.Values}
	}
	return rows
}

// String renders the result as a sample-by-probe table.
func (r Result) String() string {
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprint(tw, "sample\tlabel")
	for _, row := range r.Rows {
		fmt.Fprintf(tw, "\t%s", row.ProbeID)
	}
	fmt.Fprintln(tw)
	for i, sample := range r.Samples {
		fmt.Fprintf(tw, "%s\t%s", sample, r.Labels[i])
		for _, row := range r.Rows {
			fmt.Fprintf(tw, "\t%g", row.Values[i])
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush() // writes to a strings.Builder never fail
	return strings.TrimRight(b.String(), "\n")
}
