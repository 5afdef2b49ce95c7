package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/nvandessel/dendsyn/internal/store"
	"github.com/spf13/cobra"
)

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs DATABASE",
		Short: "List or delete the runs stored in a SQLite cell table database",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			deleteID, _ := cmd.Flags().GetString("delete")

			if _, err := os.Stat(args[0]); err != nil {
				return err
			}
			s, err := store.NewSQLiteTableStore(args[0])
			if err != nil {
				return err
			}
			defer s.Close()

			if deleteID != "" {
				if err := s.DeleteRun(cmd.Context(), deleteID); err != nil {
					return fmt.Errorf("failed to delete run: %w", err)
				}
				if jsonOut {
					return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]string{"deleted": deleteID})
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted run %s\n", deleteID)
				return nil
			}

			runs, err := s.ListRuns(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(runs)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No runs.")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tSTARTED\tCIRCUIT\tTARGET\tCELLS\tSPLIT")
			for _, r := range runs {
				split := "all"
				if r.SplitIndex >= 0 {
					split = fmt.Sprintf("%d/%d", r.SplitIndex, r.Splits)
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.CircuitName, r.Target, r.NumCells, split)
			}
			return w.Flush()
		},
	}

	cmd.Flags().String("delete", "", "Delete the run with this id")

	return cmd
}
