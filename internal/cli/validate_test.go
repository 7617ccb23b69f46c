package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var validDefinition = filepath.Join("..", "config", "testdata", "valid.cue")

func writeDefinition(t *testing.T, src string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dash.cue")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))
	return path
}

func TestValidate_Valid(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), validDefinition)
	require.NoError(t, err)
	assert.Contains(t, out, "✓ tcga-er valid (4 cells, 5 nodes)")
}

func TestValidate_ValidJSON(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), validDefinition)
	require.NoError(t, err)

	resp := decodeResponse(t, out)
	assert.Equal(t, "ok", resp.Status)
	data := resp.Data.(map[string]any)
	assert.Equal(t, true, data["valid"])
	assert.Equal(t, []any{"alpha", "color", "gene", "title"}, data["cells"])
	assert.Len(t, data["nodes"], 5)
}

func TestValidate_Directory(t *testing.T) {
	// The split package is schema-valid but declares no color cell.
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}),
		filepath.Join("..", "config", "testdata", "multi"))
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, out, `dashboard "split": cell "color" is required`)
}

func TestValidate_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantOut string
	}{
		{
			name: "bad fanout",
			src: `dashboard: {
	name: "x"
	dataset: { source: "demo", fanout: "some" }
	cells: gene: { kind: "symbol", choices: ["ESR1"], default: "ESR1" }
}`,
			wantOut: "✗ Validation failed",
		},
		{
			name: "default outside choices",
			src: `dashboard: {
	name: "x"
	cells: {
		gene: { kind: "symbol", choices: ["ESR1"], default: "MYC" }
		color: { kind: "symbol", choices: ["red"], default: "red" }
		alpha: { kind: "number", default: 0.05 }
	}
}`,
			wantOut: "dashboard.cells.gene",
		},
		{
			name: "missing color cell",
			src: `dashboard: {
	name: "x"
	cells: {
		gene: { kind: "symbol", choices: ["ESR1"], default: "ESR1" }
		alpha: { kind: "number", default: 0.05 }
	}
}`,
			wantOut: `cell "color" is required`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), writeDefinition(t, tt.src))
			require.Error(t, err)
			assert.Equal(t, ExitFailure, GetExitCode(err))
			assert.Contains(t, out, "✗ Validation failed")
			assert.Contains(t, out, tt.wantOut)
		})
	}
}

func TestValidate_InvalidJSON(t *testing.T) {
	path := writeDefinition(t, `dashboard: { name: "x", cells: {} }`)

	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "json"}), path)
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))

	resp := decodeResponse(t, out)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeConfig, resp.Error.Code)
	details := resp.Error.Details.(map[string]any)
	assert.Equal(t, false, details["valid"])
	assert.Len(t, details["errors"], 1)
}

func TestValidate_NonExistentPath(t *testing.T) {
	out, _, err := execute(t, NewValidateCommand(&RootOptions{Format: "text"}), filepath.Join(t.TempDir(), "nope.cue"))
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "✗ Validation failed")
}
