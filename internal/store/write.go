package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/exprdash/internal/dataset"
	"github.com/roach88/exprdash/internal/ir"
)

// Info describes the imported dataset.
type Info struct {
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	Samples     int    `json:"samples"`
	Probes      int    `json:"probes"`
	IRVersion   string `json:"ir_version"`
}

// ImportDataset replaces the stored dataset with d in one transaction.
//
// The dataset is validated first; an invalid dataset leaves the store
// untouched. Symbols are stored both as written and in normalized lookup
// form (dataset.NormalizeSymbol).
func (s *Store) ImportDataset(ctx context.Context, d *dataset.Dataset) (Info, error) {
	if err := d.Validate(); err != nil {
		return Info{}, fmt.Errorf("import dataset: %w", err)
	}
	fp, err := d.Fingerprint()
	if err != nil {
		return Info{}, fmt.Errorf("import dataset: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Info{}, fmt.Errorf("import dataset: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after Commit

	for _, table := range []string{"symbol_map", "probes", "samples", "datasets"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return Info{}, fmt.Errorf("import dataset: clear %s: %w", table, err)
		}
	}

	if err := insertSamples(ctx, tx, d.Samples); err != nil {
		return Info{}, err
	}
	if err := insertProbes(ctx, tx, d.Probes); err != nil {
		return Info{}, err
	}

	info := Info{
		Name:        d.Name,
		Fingerprint: fp,
		Samples:     len(d.Samples),
		Probes:      len(d.Probes),
		IRVersion:   ir.ValueVersion,
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (name, fingerprint, sample_count, probe_count, ir_version)
		VALUES (?, ?, ?, ?, ?)
	`, info.Name, info.Fingerprint, info.Samples, info.Probes, info.IRVersion)
	if err != nil {
		return Info{}, fmt.Errorf("import dataset: write header: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return Info{}, fmt.Errorf("import dataset: commit: %w", err)
	}
	return info, nil
}

func insertSamples(ctx context.Context, tx *sql.Tx, samples []dataset.Sample) error {
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (ordinal, id, label) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("import dataset: prepare samples: %w", err)
	}
	defer stmt.Close()

	for i, smp := range samples {
		if _, err := stmt.ExecContext(ctx, i+1, smp.ID, smp.Label); err != nil {
			return fmt.Errorf("import dataset: sample %q: %w", smp.ID, err)
		}
	}
	return nil
}

func insertProbes(ctx context.Context, tx *sql.Tx, probes []dataset.Probe) error {
	probeStmt, err := tx.PrepareContext(ctx, `INSERT INTO probes (id, ordinal, vals) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("import dataset: prepare probes: %w", err)
	}
	defer probeStmt.Close()

	mapStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO symbol_map (symbol_key, symbol, probe_id) VALUES (?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("import dataset: prepare symbol map: %w", err)
	}
	defer mapStmt.Close()

	for _, p := range probes {
		vals, err := marshalValues(p.Values)
		if err != nil {
			return fmt.Errorf("import dataset: probe %q: %w", p.ID, err)
		}
		if _, err := probeStmt.ExecContext(ctx, p.ID, p.Ordinal, vals); err != nil {
			return fmt.Errorf("import dataset: probe %q: %w", p.ID, err)
		}
		if _, err := mapStmt.ExecContext(ctx, dataset.NormalizeSymbol(p.Symbol), p.Symbol, p.ID); err != nil {
			return fmt.Errorf("import dataset: map %q -> %q: %w", p.Symbol, p.ID, err)
		}
	}
	return nil
}
