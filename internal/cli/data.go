package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/exprdash/internal/dataset"
	"github.com/roach88/exprdash/internal/store"
)

// DataOptions holds flags for the import and export commands.
type DataOptions struct {
	*RootOptions
	Database string
}

// NewImportCommand creates the import command.
func NewImportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "import [csv-dir]",
		Short: "Load a dataset into a SQLite store",
		Long: `Load a dataset into a SQLite store, replacing what it held.

The directory holds samples.csv, probes.csv and expression.csv. Without
a directory the built-in demo dataset is imported.

Example:
  exprdash import --db expr.db ./tcga
  exprdash import --db demo.db`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := ""
			if len(args) == 1 {
				dir = args[0]
			}
			return runImport(opts, dir, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runImport(opts *DataOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	d := dataset.Demo()
	if dir != "" {
		loaded, err := dataset.LoadDir(dir)
		if err != nil {
			_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
			return WrapExitError(ExitCommandError, "failed to read dataset", err)
		}
		d = loaded
	}
	formatter.VerboseLog("read %s: %d samples, %d probes", d.Name, len(d.Samples), len(d.Probes))

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	info, err := st.ImportDataset(cmd.Context(), d)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitFailure, "import failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(info)
	}
	return formatter.Success(fmt.Sprintf("✓ imported %s into %s (%d samples, %d probes, fingerprint %s)",
		info.Name, opts.Database, info.Samples, info.Probes, info.Fingerprint))
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DataOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export <csv-dir>",
		Short: "Write a stored dataset back out as CSV",
		Long: `Write the dataset held by a SQLite store as the three CSV tables
import reads.

Example:
  exprdash export --db expr.db ./out`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runExport(opts *DataOptions, dir string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	d, err := st.LoadDataset(cmd.Context())
	if err != nil {
		return formatter.Fail("failed to read dataset", err)
	}
	if err := dataset.WriteDir(dir, d); err != nil {
		_ = formatter.Error(ErrCodeDataset, err.Error(), nil)
		return WrapExitError(ExitFailure, "export failed", err)
	}

	if opts.Format == "json" {
		return formatter.Success(map[string]any{
			"name":    d.Name,
			"dir":     dir,
			"samples": len(d.Samples),
			"probes":  len(d.Probes),
		})
	}
	return formatter.Success(fmt.Sprintf("✓ exported %s to %s (%d samples, %d probes)",
		d.Name, dir, len(d.Samples), len(d.Probes)))
}
