package main

import (
	"fmt"
	"path/filepath"

	"github.com/nvandessel/dendsyn/internal/logging"
	"github.com/nvandessel/dendsyn/internal/mcp"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve --table FILE",
		Short: "Serve a cell table to MCP clients over stdio",
		Long: `Run an MCP (Model Context Protocol) server over stdio that answers
questions about one cell table.

Tools: density_info, density_cells, density_summary.
Resource: dendsyn://table/summary.

Example MCP client configuration:
  {"command": "dendsyn", "args": ["serve", "--table", "/data/cell_table.arrow"]}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tablePath, _ := cmd.Flags().GetString("table")
			runID, _ := cmd.Flags().GetString("run")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			// stdout carries the protocol; logs go to stderr only.
			logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
			events := logging.NewEventLogger(filepath.Dir(tablePath), cfg.Logging.Level)

			server, err := mcp.NewServer(cmd.Context(), &mcp.Config{
				Name:      "dendsyn",
				Version:   version,
				TablePath: tablePath,
				RunID:     runID,
				Logger:    logger,
				Events:    events,
			})
			if err != nil {
				events.Close()
				return fmt.Errorf("failed to create MCP server: %w", err)
			}
			defer server.Close()

			return server.Run(cmd.Context())
		},
	}

	cmd.Flags().String("table", "", "Cell table file (.arrow, .csv or .db)")
	cmd.Flags().String("run", "", "Run id for SQLite tables (default: latest run)")
	cmd.MarkFlagRequired("table")

	return cmd
}
