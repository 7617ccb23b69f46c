package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/exprdash/internal/config"
	"github.com/roach88/exprdash/internal/ir"
	"github.com/roach88/exprdash/internal/lookup"
	"github.com/roach88/exprdash/internal/reactive"
	"github.com/roach88/exprdash/internal/store"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Success(map[string]string{"gene": "ESR1"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"gene": "ESR1"}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error(ErrCodeNotFound, "no probes for BRCA1", []string{"BRCA1"})
	require.NoError(t, err)

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, ErrCodeNotFound, resp.Error.Code)
	assert.Equal(t, "no probes for BRCA1", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

type stringer struct{}

func (stringer) String() string { return "rendered view" }

func TestOutputFormatter_TextSuccessUsesStringer(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(stringer{}))
	assert.Equal(t, "rendered view\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	tests := []struct {
		name        string
		verbose     bool
		wantDetails bool
	}{
		{"quiet", false, false},
		{"verbose", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := &bytes.Buffer{}
			formatter := &OutputFormatter{Format: "text", Writer: buf, Verbose: tt.verbose}

			require.NoError(t, formatter.Error(ErrCodeConfig, "bad definition", "dashboard.name"))
			assert.Contains(t, buf.String(), "Error [E002]: bad definition")
			if tt.wantDetails {
				assert.Contains(t, buf.String(), "Details: dashboard.name")
			} else {
				assert.NotContains(t, buf.String(), "Details:")
			}
		})
	}
}

func TestOutputFormatter_VerboseLogUsesErrWriter(t *testing.T) {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: errOut, Verbose: true}

	formatter.VerboseLog("opened %s", "expr.db")

	assert.Empty(t, out.String())
	assert.Equal(t, "opened expr.db\n", errOut.String())

	formatter.Verbose = false
	formatter.VerboseLog("dropped")
	assert.NotContains(t, errOut.String(), "dropped")
}

func TestOutputFormatter_Fail(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	cause := fmt.Errorf("lookup: %w", &lookup.NotFoundError{Key: "BRCA1"})
	err := formatter.Fail("evaluate expression", cause)

	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, lookup.ErrNotFound)
	assert.Contains(t, buf.String(), "Error [E004]: evaluate expression")
}

type brokenWriter struct{}

func (brokenWriter) Write([]byte) (int, error) { return 0, errors.New("stdout closed") }

func TestOutputFormatter_FailWithBrokenWriter(t *testing.T) {
	formatter := &OutputFormatter{Format: "json", Writer: brokenWriter{}}

	err := formatter.Fail("evaluate expression", &lookup.NotFoundError{Key: "BRCA1"})
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.ErrorIs(t, err, lookup.ErrNotFound)
}

func TestClassify(t *testing.T) {
	typeErr := reactive.NewTypeError("gene", reactive.Symbol("ESR1"), ir.String("X"), errors.New("not a choice"))

	tests := []struct {
		name     string
		err      error
		wantCode string
		wantExit int
	}{
		{"config", &config.Error{Field: "dashboard.name", Message: "is required"}, ErrCodeConfig, ExitCommandError},
		{"empty store", fmt.Errorf("open: %w", store.ErrEmpty), ErrCodeDataset, ExitCommandError},
		{"not found", &lookup.NotFoundError{Key: "BRCA1"}, ErrCodeNotFound, ExitFailure},
		{"unknown cell", fmt.Errorf("set: %w", reactive.ErrUnknownName), ErrCodeCellWrite, ExitCommandError},
		{"type mismatch", typeErr, ErrCodeCellWrite, ExitCommandError},
		{"evaluation", reactive.NewEvaluationError("groups", errors.New("boom")), ErrCodeEvaluation, ExitFailure},
		{"cycle", reactive.NewCycleError([]string{"a", "b", "a"}), ErrCodeEvaluation, ExitFailure},
		{"depth", reactive.NewDepthError("plot", 3, 2), ErrCodeEvaluation, ExitFailure},
		{"other", errors.New("disk on fire"), ErrCodeGeneric, ExitFailure},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, exit := classify(tt.err)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantExit, exit)
		})
	}
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitCommandError, GetExitCode(NewExitError(ExitCommandError, "bad flag")))
	assert.Equal(t, ExitFailure, GetExitCode(fmt.Errorf("wrapped: %w", WrapExitError(ExitFailure, "x", errors.New("y")))))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))

	err := WrapExitError(ExitCommandError, "open dataset", errors.New("no such file"))
	assert.Equal(t, "open dataset: no such file", err.Error())
	assert.Equal(t, "bad flag", NewExitError(ExitCommandError, "bad flag").Error())
}
