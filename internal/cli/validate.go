package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprdash/internal/config"
	"github.com/roach88/exprdash/internal/dashboard"
	"github.com/roach88/exprdash/internal/dataset"
	"github.com/roach88/exprdash/internal/lookup"
)

// ValidationResult holds validation results.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Name   string            `json:"name,omitempty"`
	Cells  []string          `json:"cells,omitempty"`
	Nodes  []string          `json:"nodes,omitempty"`
	Errors []ValidationIssue `json:"errors,omitempty"`
}

// ValidationIssue is one problem found in a definition.
type ValidationIssue struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <definition>",
		Short: "Validate a dashboard definition without opening its dataset",
		Long: `Validate a CUE dashboard definition (a .cue file or a directory
holding one CUE package).

Checks the schema, cell names and kinds, defaults against their declared
types, and that the cells the dashboard nodes read are present. The
dataset itself is not opened.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}

	return cmd
}

func runValidate(opts *RootOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	cfg, err := config.Load(path)
	if err != nil {
		exit := ExitFailure
		if !config.IsConfigError(err) {
			exit = ExitCommandError
		}
		return outputValidationError(formatter, err, exit)
	}
	def := cfg.Dashboard
	formatter.VerboseLog("loaded %s: %d cell(s), dataset %s", def.Name, len(def.Cells), def.Dataset.Source)

	// Build against an empty in-memory service to check cell wiring only.
	strategy, _ := def.Dataset.Strategy()
	dash, err := dashboard.New(def, lookup.NewMemory(&dataset.Dataset{}, strategy))
	if err != nil {
		return outputValidationError(formatter, err, ExitFailure)
	}

	result := ValidationResult{
		Valid: true,
		Name:  dash.Name(),
		Cells: def.CellNames(),
		Nodes: dash.Graph().NodeNames(),
	}
	if opts.Format == "json" {
		return formatter.Success(result)
	}
	return formatter.Success(fmt.Sprintf("✓ %s valid (%d cells, %d nodes)", result.Name, len(result.Cells), len(result.Nodes)))
}

// outputValidationError reports a definition problem and returns an
// ExitError with the given exit code.
func outputValidationError(formatter *OutputFormatter, err error, exit int) error {
	issue := ValidationIssue{Message: err.Error()}

	var ce *config.Error
	if errors.As(err, &ce) {
		issue.Field, issue.Message = ce.Field, ce.Message
		if ce.Pos.IsValid() {
			issue.File, issue.Line = ce.Pos.Filename(), ce.Pos.Line()
		}
	}

	if formatter.Format == "json" {
		_ = formatter.Error(ErrCodeConfig, issue.Message, ValidationResult{
			Valid:  false,
			Errors: []ValidationIssue{issue},
		})
		return NewExitError(exit, "validation failed")
	}

	fmt.Fprintln(formatter.Writer, "✗ Validation failed")
	if issue.Line > 0 {
		fmt.Fprintf(formatter.Writer, "  %s:%d\n", issue.File, issue.Line)
	}
	if issue.Field != "" {
		fmt.Fprintf(formatter.Writer, "  %s: %s\n", issue.Field, issue.Message)
	} else {
		fmt.Fprintf(formatter.Writer, "  %s\n", issue.Message)
	}
	return NewExitError(exit, "validation failed")
}
