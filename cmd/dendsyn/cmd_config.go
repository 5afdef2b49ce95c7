package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration",
		Long: `Show the configuration dendsyn runs with: defaults, overridden by the
config file (~/.dendsyn/config.yaml or --config), overridden by DENDSYN_*
environment variables.

Environment variables:
  DENDSYN_OUTPUT_DIR, DENDSYN_OUTPUT_FORMAT, DENDSYN_DEFAULT_TARGET,
  DENDSYN_JOBS, DENDSYN_MAX_MORPHOLOGY_SIZE, DENDSYN_MORPHOLOGY_CACHE_SIZE,
  DENDSYN_LOG_LEVEL`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(cfg)
			}
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to encode config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}
