// Package dataset holds the in-memory gene-expression dataset: a probe by
// sample value matrix, the symbol -> probe mapping, and the sample sheet.
//
// A Dataset is built once (from CSV, the store, or Demo) and handed to a
// lookup service explicitly. It is immutable after Validate succeeds.
package dataset

import (
	"fmt"
	"slices"
)

// Label values used for the ER status grouping.
const (
	LabelPositive = "positive"
	LabelNegative = "negative"
)

// Sample is one column of the value matrix.
type Sample struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// Probe is one row of the value matrix, mapped to a gene symbol.
//
// Ordinal is the probe's position in the mapping table. Lookups order
// fan-out results by (Ordinal, ID).
type Probe struct {
	ID      string    `json:"id"`
	Symbol  string    `json:"symbol"`
	Ordinal int       `json:"ordinal"`
	Values  []float64 `json:"values"`
}

// Dataset is a value matrix with its mapping table and sample sheet.
type Dataset struct {
	Name    string   `json:"name"`
	Samples []Sample `json:"samples"`
	Probes  []Probe  `json:"probes"`
}

// Validate checks the matrix shape and the uniqueness of sample ids,
// probe ids and probe ordinals.
func (d *Dataset) Validate() error {
	if len(d.Samples) == 0 {
		return fmt.Errorf("dataset %q: no samples", d.Name)
	}
	sampleIDs := make(map[string]bool, len(d.Samples))
	for i, s := range d.Samples {
		if s.ID == "" {
			return fmt.Errorf("dataset %q: sample %d has no id", d.Name, i)
		}
		if s.Label == "" {
			return fmt.Errorf("dataset %q: sample %q has no label", d.Name, s.ID)
		}
		if sampleIDs[s.ID] {
			return fmt.Errorf("dataset %q: duplicate sample %q", d.Name, s.ID)
		}
		sampleIDs[s.ID] = true
	}

	probeIDs := make(map[string]bool, len(d.Probes))
	ordinals := make(map[int]string, len(d.Probes))
	for _, p := range d.Probes {
		if p.ID == "" || p.Symbol == "" {
			return fmt.Errorf("dataset %q: probe %q needs an id and a symbol", d.Name, p.ID)
		}
		if probeIDs[p.ID] {
			return fmt.Errorf("dataset %q: duplicate probe %q", d.Name, p.ID)
		}
		probeIDs[p.ID] = true
		if other, ok := ordinals[p.Ordinal]; ok {
			return fmt.Errorf("dataset %q: probes %q and %q share ordinal %d", d.Name, other, p.ID, p.Ordinal)
		}
		ordinals[p.Ordinal] = p.ID
		if len(p.Values) != len(d.Samples) {
			return fmt.Errorf("dataset %q: probe %q has %d values, want %d",
				d.Name, p.ID, len(p.Values), len(d.Samples))
		}
	}
	return nil
}

// Labels returns the per-sample labels in column order.
func (d *Dataset) Labels() []string {
	labels := make([]string, len(d.Samples))
	for i, s := range d.Samples {
		labels[i] = s.Label
	}
	return labels
}

// SampleIDs returns the sample ids in column order.
func (d *Dataset) SampleIDs() []string {
	ids := make([]string, len(d.Samples))
	for i, s := range d.Samples {
		ids[i] = s.ID
	}
	return ids
}

// Groups returns the distinct labels in sorted order.
func (d *Dataset) Groups() []string {
	var groups []string
	for _, s := range d.Samples {
		if !slices.Contains(groups, s.Label) {
			groups = append(groups, s.Label)
		}
	}
	slices.Sort(groups)
	return groups
}

// Symbols returns the distinct gene symbols in sorted order.
func (d *Dataset) Symbols() []string {
	var symbols []string
	for _, p := range d.Probes {
		if !slices.Contains(symbols, p.Symbol) {
			symbols = append(symbols, p.Symbol)
		}
	}
	slices.Sort(symbols)
	return symbols
}
