package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/nvandessel/dendsyn/internal/circuit"
	"github.com/nvandessel/dendsyn/internal/density"
	"github.com/spf13/cobra"
)

type splitInfo struct {
	Index    int   `json:"index"`
	Cells    int   `json:"cells"`
	FirstGID int64 `json:"first_gid,omitempty"`
	LastGID  int64 `json:"last_gid,omitempty"`
}

func newSplitsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "splits CIRCUIT_CONFIG [TARGET] [JOBS] [SPLITS]",
		Short: "Show how a target is divided into data splits",
		Long: `Show the data splits an extract run with the same arguments would process.

Useful for batch schedulers that run one process per split with
'dendsyn extract ... --split-index I'.`,
		Args: cobra.RangeArgs(1, 4),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			ea, err := parseExtractArgs(args, cfg)
			if err != nil {
				return err
			}
			nsplits, jobs, err := density.ResolvePlan(ea.jobs, ea.splits)
			if err != nil {
				return err
			}

			c, err := circuit.Open(cmd.Context(), ea.circuitConfig)
			if err != nil {
				return fmt.Errorf("failed to open circuit: %w", err)
			}
			gids, err := c.CellIDs(ea.target)
			if err != nil {
				return err
			}
			splits, err := density.CreateSplits(gids, nsplits)
			if err != nil {
				return err
			}

			infos := make([]splitInfo, len(splits))
			for i, s := range splits {
				infos[i] = splitInfo{Index: i, Cells: len(s)}
				if len(s) > 0 {
					infos[i].FirstGID = s[0]
					infos[i].LastGID = s[len(s)-1]
				}
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]any{
					"circuit": c.Name(),
					"target":  ea.target,
					"cells":   len(gids),
					"jobs":    jobs,
					"splits":  infos,
				})
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Target %s of %s: %d cells, %d jobs, %d splits\n\n",
				ea.target, c.Name(), len(gids), jobs, nsplits)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "SPLIT\tCELLS\tGIDS")
			for _, s := range infos {
				gidRange := "-"
				if s.Cells > 0 {
					gidRange = fmt.Sprintf("%d..%d", s.FirstGID, s.LastGID)
				}
				fmt.Fprintf(w, "%d\t%d\t%s\n", s.Index, s.Cells, gidRange)
			}
			return w.Flush()
		},
	}
}
