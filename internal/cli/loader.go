package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/exprdash/internal/config"
)

// DefinitionFlags select a dashboard definition and override its dataset.
// Shared by every command that opens a lookup service.
type DefinitionFlags struct {
	Config  string
	DB      string
	CSV     string
	Fanout  string
	Latency time.Duration
}

func (f *DefinitionFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.Config, "config", "c", "", "dashboard definition (.cue file or directory); built-in default when empty")
	cmd.Flags().StringVar(&f.DB, "db", "", "read expression values from this SQLite store")
	cmd.Flags().StringVar(&f.CSV, "csv", "", "read expression values from this CSV directory")
	cmd.Flags().StringVar(&f.Fanout, "fanout", "", "probe fan-out strategy (all|first)")
	cmd.Flags().DurationVar(&f.Latency, "latency", 0, "simulated lookup latency")
	cmd.MarkFlagsMutuallyExclusive("db", "csv")
}

// Load reads the definition and applies the dataset overrides.
func (f *DefinitionFlags) Load() (config.Dashboard, error) {
	cfg := config.Default()
	if f.Config != "" {
		loaded, err := config.Load(f.Config)
		if err != nil {
			return config.Dashboard{}, err
		}
		cfg = loaded
	}

	def := cfg.Dashboard
	switch {
	case f.DB != "":
		def.Dataset.Source, def.Dataset.Path = "sqlite", f.DB
	case f.CSV != "":
		def.Dataset.Source, def.Dataset.Path = "csv", f.CSV
	}
	if f.Fanout != "" {
		def.Dataset.Fanout = f.Fanout
		if _, err := def.Dataset.Strategy(); err != nil {
			return config.Dashboard{}, &config.Error{Field: "dashboard.dataset.fanout", Message: err.Error()}
		}
	}
	if f.Latency > 0 {
		def.Dataset.LatencyMS = int(f.Latency / time.Millisecond)
	}
	return def, nil
}
