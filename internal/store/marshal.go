package store

import (
	"fmt"

	"github.com/roach88/exprdash/internal/ir"
)

// marshalValues converts a matrix row to canonical JSON TEXT for storage.
// Canonical encoding keeps fingerprints and stored rows byte-stable.
func marshalValues(values []float64) (string, error) {
	data, err := ir.MarshalCanonical(ir.Floats(values))
	if err != nil {
		return "", fmt.Errorf("marshal values: %w", err)
	}
	return string(data), nil
}

// unmarshalValues parses a stored matrix row.
// Integral values come back as ir.Int and are widened to float64.
func unmarshalValues(data string) ([]float64, error) {
	v, err := ir.UnmarshalValue([]byte(data))
	if err != nil {
		return nil, fmt.Errorf("unmarshal values: %w", err)
	}
	arr, ok := v.(ir.Array)
	if !ok {
		return nil, fmt.Errorf("unmarshal values: expected array, got %s", ir.TypeName(v))
	}
	out := make([]float64, len(arr))
	for i, elem := range arr {
		f, ok := ir.AsFloat(elem)
		if !ok {
			return nil, fmt.Errorf("unmarshal values: element %d is %s", i, ir.TypeName(elem))
		}
		out[i] = f
	}
	return out, nil
}
