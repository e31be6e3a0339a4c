package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/internal/store"
)

var dispatchesCmd = &cobra.Command{
	Use:   "dispatches",
	Short: "List dispatch ledger entries",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st == nil {
			return eris.New("dispatch ledger disabled (set store.driver to sqlite or postgres)")
		}
		defer st.Close() //nolint:errcheck

		runID, _ := cmd.Flags().GetString("run")
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")

		recs, err := st.ListDispatches(ctx, store.DispatchFilter{
			RunID:  runID,
			Status: model.DispatchStatus(status),
			Limit:  limit,
		})
		if err != nil {
			return eris.Wrap(err, "dispatches")
		}
		if len(recs) == 0 {
			fmt.Fprintln(os.Stderr, "No dispatches found.")
			return nil
		}
		formatDispatches(os.Stdout, recs)
		return nil
	},
}

func formatDispatches(w io.Writer, recs []model.DispatchRecord) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tEMAIL\tTIER\tSCORE\tSTATUS\tREASON\tCREATED")
	for _, r := range recs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			shortID(r.RunID), r.Email, r.Tier, r.Score, r.Status, r.Reason,
			r.CreatedAt.Format("2006-01-02 15:04"),
		)
	}
	tw.Flush() //nolint:errcheck
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	dispatchesCmd.Flags().String("run", "", "filter by run ID")
	dispatchesCmd.Flags().String("status", "", "filter by status (sent, failed)")
	dispatchesCmd.Flags().Int("limit", 50, "max number of entries to display")
	rootCmd.AddCommand(dispatchesCmd)
}
