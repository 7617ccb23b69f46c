package lookup

import (
	"context"
	"fmt"

	"github.com/roach88/exprdash/internal/dataset"
	"github.com/roach88/exprdash/internal/store"
)

// SQLService is a Service backed by the SQLite store.
//
// The sample sheet is read once at construction; it only changes on
// import, and an import means a new service.
type SQLService struct {
	store    *store.Store
	strategy Strategy
	samples  []string
	labels   []string
}

// NewSQLService reads the sample sheet and returns a service over st.
// Returns store.ErrEmpty when nothing has been imported.
func NewSQLService(ctx context.Context, st *store.Store, strategy Strategy) (*SQLService, error) {
	samples, err := st.Samples(ctx)
	if err != nil {
		return nil, fmt.Errorf("lookup: %w", err)
	}
	if len(samples) == 0 {
		return nil, fmt.Errorf("lookup: %w", store.ErrEmpty)
	}
	d := dataset.Dataset{Samples: samples}
	return &SQLService{
		store:    st,
		strategy: strategy,
		samples:  d.SampleIDs(),
		labels:   d.Labels(),
	}, nil
}

// Lookup implements Service.
func (s *SQLService) Lookup(ctx context.Context, key string) (Result, error) {
	norm := dataset.NormalizeSymbol(key)
	if norm == "" {
		return Result{}, &NotFoundError{Key: key}
	}
	probes, err := s.store.ProbesBySymbol(ctx, norm)
	if err != nil {
		return Result{}, fmt.Errorf("lookup %q: %w", key, err)
	}
	if len(probes) == 0 {
		return Result{}, &NotFoundError{Key: key}
	}
	return Result{
		Key:     norm,
		Rows:    s.strategy.apply(rowsFromProbes(probes)),
		Samples: s.samples,
		Labels:  s.labels,
	}, nil
}
