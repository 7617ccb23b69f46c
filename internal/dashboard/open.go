package dashboard

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/exprdash/internal/config"
	"github.com/roach88/exprdash/internal/dataset"
	"github.com/roach88/exprdash/internal/lookup"
	"github.com/roach88/exprdash/internal/store"
)

// OpenService builds the lookup service a dataset block describes. The
// returned close function releases the backing store, if any, and is
// never nil.
func OpenService(ctx context.Context, ds config.Dataset, logger *slog.Logger) (lookup.Service, func() error, error) {
	noop := func() error { return nil }
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	strategy, err := ds.Strategy()
	if err != nil {
		return nil, noop, err
	}

	var (
		svc     lookup.Service
		closeFn = noop
	)
	switch ds.Source {
	case "", "demo":
		svc = lookup.NewMemory(dataset.Demo(), strategy)
	case "csv":
		d, err := dataset.LoadDir(ds.Path)
		if err != nil {
			return nil, noop, err
		}
		svc = lookup.NewMemory(d, strategy)
	case "sqlite":
		st, err := store.Open(ds.Path)
		if err != nil {
			return nil, noop, err
		}
		sqlSvc, err := lookup.NewSQLService(ctx, st, strategy)
		if err != nil {
			_ = st.Close()
			return nil, noop, err
		}
		svc, closeFn = sqlSvc, st.Close
	default:
		return nil, noop, fmt.Errorf("unknown dataset source %q", ds.Source)
	}

	logger.Debug("lookup service opened",
		"source", ds.Source, "path", ds.Path, "fanout", string(strategy), "latency", ds.Latency())
	return lookup.NewDelayed(svc, ds.Latency()), closeFn, nil
}
