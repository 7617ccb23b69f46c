package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/exprdash/internal/dataset"
)

// Info returns the header of the imported dataset, or ErrEmpty.
func (s *Store) Info(ctx context.Context) (Info, error) {
	var info Info
	err := s.db.QueryRowContext(ctx, `
		SELECT name, fingerprint, sample_count, probe_count, ir_version
		FROM datasets
		LIMIT 1
	`).Scan(&info.Name, &info.Fingerprint, &info.Samples, &info.Probes, &info.IRVersion)
	if errors.Is(err, sql.ErrNoRows) {
		return Info{}, ErrEmpty
	}
	if err != nil {
		return Info{}, fmt.Errorf("read dataset info: %w", err)
	}
	return info, nil
}

// Samples returns the sample sheet in column order.
func (s *Store) Samples(ctx context.Context) ([]dataset.Sample, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, label
		FROM samples
		ORDER BY ordinal ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query samples: %w", err)
	}
	defer rows.Close()

	var samples []dataset.Sample
	for rows.Next() {
		var smp dataset.Sample
		if err := rows.Scan(&smp.ID, &smp.Label); err != nil {
			return nil, fmt.Errorf("scan sample: %w", err)
		}
		samples = append(samples, smp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate samples: %w", err)
	}
	return samples, nil
}

// ProbesBySymbol joins the symbol mapping to the value matrix.
//
// The symbol is normalized before matching. Probes are returned in
// canonical order: ordinal, then probe id under binary collation. An
// unknown symbol returns an empty slice and no error; deciding what absence
// means is the caller's job.
func (s *Store) ProbesBySymbol(ctx context.Context, symbol string) ([]dataset.Probe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, m.symbol, p.ordinal, p.vals
		FROM symbol_map m
		JOIN probes p ON p.id = m.probe_id
		WHERE m.symbol_key = ?
		ORDER BY p.ordinal ASC, p.id COLLATE BINARY ASC
	`, dataset.NormalizeSymbol(symbol))
	if err != nil {
		return nil, fmt.Errorf("query probes for %q: %w", symbol, err)
	}
	return scanProbes(rows)
}

// Probes returns every probe in canonical order.
func (s *Store) Probes(ctx context.Context) ([]dataset.Probe, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT p.id, m.symbol, p.ordinal, p.vals
		FROM probes p
		JOIN symbol_map m ON m.probe_id = p.id
		ORDER BY p.ordinal ASC, p.id COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query probes: %w", err)
	}
	return scanProbes(rows)
}

func scanProbes(rows *sql.Rows) ([]dataset.Probe, error) {
	defer rows.Close()

	probes := []dataset.Probe{}
	for rows.Next() {
		var (
			p    dataset.Probe
			vals string
		)
		if err := rows.Scan(&p.ID, &p.Symbol, &p.Ordinal, &vals); err != nil {
			return nil, fmt.Errorf("scan probe: %w", err)
		}
		values, err := unmarshalValues(vals)
		if err != nil {
			return nil, fmt.Errorf("probe %q: %w", p.ID, err)
		}
		p.Values = values
		probes = append(probes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate probes: %w", err)
	}
	return probes, nil
}

// LoadDataset reads the whole imported dataset back into memory.
func (s *Store) LoadDataset(ctx context.Context) (*dataset.Dataset, error) {
	info, err := s.Info(ctx)
	if err != nil {
		return nil, err
	}
	samples, err := s.Samples(ctx)
	if err != nil {
		return nil, err
	}
	probes, err := s.Probes(ctx)
	if err != nil {
		return nil, err
	}
	d := &dataset.Dataset{Name: info.Name, Samples: samples, Probes: probes}
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("stored dataset: %w", err)
	}
	return d, nil
}
