package main

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"time"

	"github.com/nvandessel/dendsyn/internal/circuit"
	"github.com/nvandessel/dendsyn/internal/config"
	"github.com/nvandessel/dendsyn/internal/constants"
	"github.com/nvandessel/dendsyn/internal/density"
	"github.com/nvandessel/dendsyn/internal/logging"
	"github.com/nvandessel/dendsyn/internal/morphology"
	"github.com/nvandessel/dendsyn/internal/output"
	"github.com/nvandessel/dendsyn/internal/table"
	"github.com/spf13/cobra"
)

const extractUsage = `Extracts dendritic synapse density (#synapses/um) for each neuron within given circuit target
Usage: Provide path to circuit config file
  dendsyn extract PATH_TO_CONFIG <CIRCUIT_TARGET> <#PARALLEL_JOBS> <#DATA_SPLITS>
`

// extractArgs are the positional arguments of the extract command.
type extractArgs struct {
	circuitConfig string
	target        string
	jobs          int
	splits        int
}

func parseExtractArgs(args []string, cfg *config.DendsynConfig) (extractArgs, error) {
	ea := extractArgs{
		circuitConfig: args[0],
		target:        cfg.Extract.DefaultTarget,
		jobs:          cfg.Extract.Jobs,
	}
	if len(args) > 1 {
		ea.target = args[1]
	}
	if len(args) > 2 {
		n, err := strconv.Atoi(args[2])
		if err != nil {
			return ea, fmt.Errorf("invalid number of parallel jobs %q: %w", args[2], err)
		}
		ea.jobs = n
	}
	if len(args) > 3 {
		n, err := strconv.Atoi(args[3])
		if err != nil {
			return ea, fmt.Errorf("invalid number of data splits %q: %w", args[3], err)
		}
		ea.splits = n
	}
	return ea, nil
}

func newExtractCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "extract CIRCUIT_CONFIG [TARGET] [JOBS] [SPLITS]",
		Short: "Extract the dendritic synapse density cell table of a circuit target",
		Long: `Extract dendritic synapse counts and densities for every cell of a target.

TARGET defaults to extract.default_target ("All"). JOBS is the number of
parallel jobs (-1 for one per CPU) and SPLITS the number of data splits,
which defaults to JOBS and must not be lower than it.

The table is saved as cell_table__<circuit>__Target_<target>__<time>.<ext>
in the output directory. With --format sqlite the run is added to
cell_tables.db there instead, next to earlier runs.

Examples:
  dendsyn extract /circuits/O1/CircuitConfig.yaml
  dendsyn extract /circuits/O1/CircuitConfig.yaml mc2_Column 8 32
  dendsyn extract CircuitConfig.yaml Exc 1 10 --split-index 3 --format csv`,
		Args: cobra.MaximumNArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				fmt.Fprint(cmd.OutOrStdout(), extractUsage)
				return nil
			}
			jsonOut, _ := cmd.Flags().GetBool("json")
			outputDir, _ := cmd.Flags().GetString("output-dir")
			format, _ := cmd.Flags().GetString("format")
			splitIndex, _ := cmd.Flags().GetInt("split-index")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			if outputDir != "" {
				cfg.Output.Dir = outputDir
			}
			if format != "" {
				cfg.Output.Format = format
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			ext, err := output.Extension(cfg.Output.Format)
			if err != nil {
				return err
			}

			ea, err := parseExtractArgs(args, cfg)
			if err != nil {
				return err
			}

			logger := newLogger(cmd, cfg)
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			c, err := circuit.Open(ctx, ea.circuitConfig)
			if err != nil {
				return fmt.Errorf("failed to open circuit: %w", err)
			}
			maxBytes, err := cfg.MaxMorphologyBytes()
			if err != nil {
				return err
			}
			morphs := morphology.NewLoader(c.MorphologyDir(), maxBytes, cfg.Morphology.CacheSize)

			events := logging.NewEventLogger(cfg.Output.Dir, cfg.Logging.Level)
			defer events.Close()

			run := table.NewRun(ea.circuitConfig, ea.target, ea.jobs, ea.splits)
			run.SplitIndex = splitIndex
			events.RunStarted(run.ID, run.CircuitName, run.Target)

			runner := &density.Runner{Source: c, Morphologies: morphs, Logger: logger, Events: events}
			res, err := runner.Run(ctx, density.Options{
				Target:        ea.target,
				Jobs:          ea.jobs,
				Splits:        ea.splits,
				SplitIndex:    splitIndex,
				ProgressSteps: cfg.Extract.ProgressSteps,
			})
			if err != nil {
				events.RunFailed(run.ID, err)
				return err
			}
			run.Jobs, run.Splits = res.Jobs, res.Splits
			run.Finish(res.Table.Len())

			hits, misses := morphs.CacheStats()
			logger.Info(fmt.Sprintf("Total time elapsed (%d cells): %.1fs", run.NumCells, run.Elapsed().Seconds()))
			logger.Debug("Morphology cache", "hits", hits, "misses", misses)

			path := table.SavePath(cfg.Output.Dir, ea.circuitConfig, ea.target, run.SplitIndex, ext, time.Now())
			if cfg.Output.Format == config.FormatSQLite {
				path = filepath.Join(cfg.Output.Dir, constants.SQLiteTablesFile)
			}
			if err := output.Save(ctx, path, cfg.Output.Format, res.Table, run); err != nil {
				events.RunFailed(run.ID, err)
				return fmt.Errorf("failed to save cell table: %w", err)
			}
			logger.Info(fmt.Sprintf("Cell table saved to %q", path))
			events.RunFinished(run.ID, run.NumCells, run.Elapsed(), path)

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"path":   path,
					"format": cfg.Output.Format,
					"run":    run,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\n", path)
			return nil
		},
	}

	cmd.Flags().String("output-dir", "", "Directory to save the cell table in (overrides config)")
	cmd.Flags().String("format", "", "Table format: arrow, csv or sqlite (overrides config)")
	cmd.Flags().Int("split-index", -1, "Process only this data split (0-based); -1 processes all")

	return cmd
}
