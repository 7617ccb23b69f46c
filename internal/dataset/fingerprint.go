package dataset

import (
	"github.com/roach88/exprdash/internal/ir"
)

// Value converts d into an ir.Object so it can be canonically encoded.
func (d *Dataset) Value() ir.Object {
	samples := make(ir.Array, len(d.Samples))
	for i, s := range d.Samples {
		samples[i] = ir.NewObject(
			ir.O("id", ir.String(s.ID)),
			ir.O("label", ir.String(s.Label)),
		)
	}
	probes := make(ir.Array, len(d.Probes))
	for i, p := range d.Probes {
		probes[i] = ir.NewObject(
			ir.O("id", ir.String(p.ID)),
			ir.O("symbol", ir.String(p.Symbol)),
			ir.O("ordinal", ir.Int(p.Ordinal)),
			ir.O("values", ir.Floats(p.Values)),
		)
	}
	return ir.NewObject(
		ir.O("name", ir.String(d.Name)),
		ir.O("samples", samples),
		ir.O("probes", probes),
	)
}

// Fingerprint returns the content hash of d. Two datasets with the same
// name, samples, and probes in the same order share a fingerprint.
func (d *Dataset) Fingerprint() (string, error) {
	return ir.Fingerprint(d.Value())
}
