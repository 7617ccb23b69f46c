package cli

import (
	"github.com/spf13/cobra"

	"github.com/roach88/exprdash/internal/dashboard"
)

// LookupOptions holds flags for the lookup command.
type LookupOptions struct {
	*RootOptions
	DefinitionFlags
}

// NewLookupCommand creates the lookup command.
func NewLookupCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &LookupOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "lookup <symbol>",
		Short: "Print the expression rows for a gene symbol",
		Long: `Print the expression values of every probe mapped to a gene symbol,
one line per sample with its ER status label.

Symbols are matched case-insensitively. Exit code 1 when no probe maps
to the symbol.

Example:
  exprdash lookup PTEN
  exprdash lookup pten --fanout first
  exprdash lookup ESR1 --db expr.db --format json`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLookup(opts, args[0], cmd)
		},
	}

	opts.DefinitionFlags.register(cmd)

	return cmd
}

func runLookup(opts *LookupOptions, symbol string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	logger := newLogger(opts.RootOptions, cmd.ErrOrStderr())

	def, err := opts.DefinitionFlags.Load()
	if err != nil {
		return formatter.Fail("failed to load definition", err)
	}

	svc, closeFn, err := dashboard.OpenService(cmd.Context(), def.Dataset, logger)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open dataset", err)
	}
	defer func() { _ = closeFn() }()

	res, err := svc.Lookup(cmd.Context(), symbol)
	if err != nil {
		return formatter.Fail("lookup failed", err)
	}
	formatter.VerboseLog("%s: %d probe(s) over %d samples", res.Key, len(res.Rows), len(res.Samples))
	return formatter.Success(res)
}
