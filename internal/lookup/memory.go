package lookup

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/roach88/exprdash/internal/dataset"
)

// Memory is an in-memory Service over a dataset.
// Safe for concurrent use; the index is built once and never mutated.
type Memory struct {
	strategy Strategy
	index    map[string][]Row
	samples  []string
	labels   []string
}

// NewMemory indexes d by normalized symbol.
func NewMemory(d *dataset.Dataset, strategy Strategy) *Memory {
	probes := slices.Clone(d.Probes)
	slices.SortFunc(probes, compareProbes)

	index := make(map[string][]Row)
	for _, p := range probes {
		key := dataset.NormalizeSymbol(p.Symbol)
		index[key] = append(index[key], Row{ProbeID: p.ID, Ordinal: p.Ordinal, Values: p.Values})
	}

	return &Memory{
		strategy: strategy,
		index:    index,
		samples:  d.SampleIDs(),
		labels:   d.Labels(),
	}
}

// compareProbes is the canonical fan-out order: ordinal, then probe id
// compared bytewise.
func compareProbes(a, b dataset.Probe) int {
	if c := cmp.Compare(a.Ordinal, b.Ordinal); c != 0 {
		return c
	}
	return strings.Compare(a.ID, b.ID)
}

// Lookup implements Service.
func (m *Memory) Lookup(ctx context.Context, key string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	norm := dataset.NormalizeSymbol(key)
	rows, ok := m.index[norm]
	if !ok || norm == "" {
		return Result{}, &NotFoundError{Key: key}
	}
	return Result{
		Key:     norm,
		Rows:    m.strategy.apply(rows),
		Samples: m.samples,
		Labels:  m.labels,
	}, nil
}
