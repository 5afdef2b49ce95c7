package main

import (
	"encoding/json"
	"fmt"
	"slices"
	"text/tabwriter"

	"github.com/nvandessel/dendsyn/internal/output"
	"github.com/nvandessel/dendsyn/internal/table"
	"github.com/spf13/cobra"
)

func newSummaryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary TABLE",
		Short: "Show descriptive statistics of a cell table",
		Long: `Show count, mean, std, min, median and max of each cell table column.

TABLE is an .arrow, .csv or .db file written by 'dendsyn extract'. For
SQLite files --run selects the run (default: the latest).

Examples:
  dendsyn summary cell_table__O1__Target_All__2019-03-07_14-05-09.arrow
  dendsyn summary cell_tables.db --run 3f2c... --columns local_E_syn_density,VPM_density`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			runID, _ := cmd.Flags().GetString("run")
			columns, _ := cmd.Flags().GetStringSlice("columns")

			t, run, err := output.Load(cmd.Context(), args[0], runID)
			if err != nil {
				return fmt.Errorf("failed to load table: %w", err)
			}

			summaries := table.Summarize(t)
			if len(columns) > 0 {
				for _, c := range columns {
					if !slices.ContainsFunc(summaries, func(s table.ColumnSummary) bool { return s.Column == c }) {
						return fmt.Errorf("unknown or non-statistic column %q", c)
					}
				}
				summaries = slices.DeleteFunc(summaries, func(s table.ColumnSummary) bool {
					return !slices.Contains(columns, s.Column)
				})
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"run":     run,
					"cells":   t.Len(),
					"columns": summaries,
				})
			}

			out := cmd.OutOrStdout()
			if run != nil {
				fmt.Fprintf(out, "Run %s: circuit %s, target %s, %d cells\n\n", run.ID, run.CircuitName, run.Target, t.Len())
			} else {
				fmt.Fprintf(out, "%d cells\n\n", t.Len())
			}
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', tabwriter.AlignRight)
			fmt.Fprintln(w, "column\tcount\tmean\tstd\tmin\tmedian\tmax\t")
			for _, s := range summaries {
				fmt.Fprintf(w, "%s\t%d\t%.4g\t%.4g\t%.4g\t%.4g\t%.4g\t\n",
					s.Column, s.Count, s.Mean, s.Std, s.Min, s.Median, s.Max)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("run", "", "Run id for SQLite tables (default: latest run)")
	cmd.Flags().StringSlice("columns", nil, "Only summarize these columns")

	return cmd
}
