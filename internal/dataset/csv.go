package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// File names read by LoadDir.
const (
	SamplesFile    = "samples.csv"
	ProbesFile     = "probes.csv"
	ExpressionFile = "expression.csv"
)

// LoadDir reads a dataset from a directory holding samples.csv,
// probes.csv, and expression.csv. The dataset is named after the directory.
func LoadDir(dir string) (*Dataset, error) {
	open := func(name string) (*os.File, error) {
		f, err := os.Open(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", name, err)
		}
		return f, nil
	}

	samples, err := open(SamplesFile)
	if err != nil {
		return nil, err
	}
	defer samples.Close()

	probes, err := open(ProbesFile)
	if err != nil {
		return nil, err
	}
	defer probes.Close()

	matrix, err := open(ExpressionFile)
	if err != nil {
		return nil, err
	}
	defer matrix.Close()

	return Load(filepath.Base(dir), samples, probes, matrix)
}

// Load parses the three CSV tables:
//
//	samples.csv     sample_id,label
//	probes.csv      probe_id,symbol        (row order is the probe ordinal)
//	expression.csv  probe_id,<sample ids>  (one row per probe)
//
// Every probe in the mapping must have a matrix row, and the matrix header
// must list the samples in sample-sheet order.
func Load(name string, samples, probes, matrix io.Reader) (*Dataset, error) {
	d := &Dataset{Name: name}

	sampleRows, err := readTable(samples, SamplesFile, "sample_id", "label")
	if err != nil {
		return nil, err
	}
	for _, row := range sampleRows {
		d.Samples = append(d.Samples, Sample{ID: row[0], Label: row[1]})
	}

	probeRows, err := readTable(probes, ProbesFile, "probe_id", "symbol")
	if err != nil {
		return nil, err
	}

	values, err := readMatrix(matrix, d.SampleIDs())
	if err != nil {
		return nil, err
	}

	for i, row := range probeRows {
		v, ok := values[row[0]]
		if !ok {
			return nil, fmt.Errorf("%s: probe %q has no row in %s", ProbesFile, row[0], ExpressionFile)
		}
		d.Probes = append(d.Probes, Probe{
			ID:      row[0],
			Symbol:  row[1],
			Ordinal: i + 1,
			Values:  v,
		})
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

// readTable reads a two-column CSV with the given header.
func readTable(r io.Reader, file string, header ...string) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(header)
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", file, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("read %s: empty file", file)
	}
	for i, h := range header {
		if got := strings.TrimSpace(records[0][i]); got != h {
			return nil, fmt.Errorf("read %s: column %d is %q, want %q", file, i+1, got, h)
		}
	}
	return records[1:], nil
}

// readMatrix reads expression.csv into probe id -> values.
func readMatrix(r io.Reader, sampleIDs []string) (map[string][]float64, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", ExpressionFile, err)
	}
	if len(header) != len(sampleIDs)+1 || header[0] != "probe_id" {
		return nil, fmt.Errorf("read %s: header must be probe_id followed by %d sample ids",
			ExpressionFile, len(sampleIDs))
	}
	for i, id := range sampleIDs {
		if header[i+1] != id {
			return nil, fmt.Errorf("read %s: column %d is %q, want sample %q",
				ExpressionFile, i+2, header[i+1], id)
		}
	}

	out := make(map[string][]float64)
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", ExpressionFile, err)
		}
		probe := record[0]
		if _, dup := out[probe]; dup {
			return nil, fmt.Errorf("read %s: duplicate probe %q", ExpressionFile, probe)
		}
		values := make([]float64, len(record)-1)
		for i, field := range record[1:] {
			f, err := strconv.ParseFloat(strings.TrimSpace(field), 64)
			if err != nil {
				return nil, fmt.Errorf("read %s: probe %q sample %q: %w",
					ExpressionFile, probe, sampleIDs[i], err)
			}
			values[i] = f
		}
		out[probe] = values
	}
	return out, nil
}

// WriteDir writes d as the three CSV tables LoadDir reads.
func WriteDir(dir string, d *Dataset) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}

	samples := [][]string{{"sample_id", "label"}}
	for _, s := range d.Samples {
		samples = append(samples, []string{s.ID, s.Label})
	}

	probes := [][]string{{"probe_id", "symbol"}}
	matrix := [][]string{append([]string{"probe_id"}, d.SampleIDs()...)}
	for _, p := range d.Probes {
		probes = append(probes, []string{p.ID, p.Symbol})
		row := []string{p.ID}
		for _, v := range p.Values {
			row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
		}
		matrix = append(matrix, row)
	}

	for name, records := range map[string][][]string{
		SamplesFile:    samples,
		ProbesFile:     probes,
		ExpressionFile: matrix,
	} {
		if err := writeCSV(filepath.Join(dir, name), records); err != nil {
			return err
		}
	}
	return nil
}

func writeCSV(path string, records [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(records); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
