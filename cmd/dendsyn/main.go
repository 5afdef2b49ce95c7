package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/nvandessel/dendsyn/internal/config"
	"github.com/nvandessel/dendsyn/internal/logging"
	"github.com/spf13/cobra"
)

// Set via ldflags at build time.
var (
	version = "0.1.0-dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dendsyn",
		Short: "Dendritic synapse density extraction",
		Long: `dendsyn extracts dendritic synapse density (#synapses/um) for each
neuron within a given circuit target.

For every cell it counts afferent local excitatory and inhibitory synapses
on basal and apical dendrites, afferent synapses of each projection, and
divides by the total dendrite length of the cell's morphology.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("json", false, "Output as JSON (for agent consumption)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: info, debug or trace (overrides config)")
	rootCmd.PersistentFlags().String("config", "", "Config file (default ~/.dendsyn/config.yaml)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newExtractCmd(),
		newSplitsCmd(),
		newSummaryCmd(),
		newRunsCmd(),
		newServeCmd(),
		newConfigCmd(),
	)
	return rootCmd
}

// loadConfig loads the effective configuration for a command, applying the
// --log-level flag on top of file and environment settings.
func loadConfig(cmd *cobra.Command) (*config.DendsynConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if level, _ := cmd.Flags().GetString("log-level"); level != "" {
		cfg.Logging.Level = level
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command, cfg *config.DendsynConfig) *slog.Logger {
	return logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
}
