package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/coldreach/pkg/instantly"
)

var campaignsCmd = &cobra.Command{
	Use:   "campaigns",
	Short: "List Instantly campaigns",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Instantly.Key == "" {
			return eris.New("COLDREACH_INSTANTLY_KEY is required")
		}

		campaigns, err := newInstantlyClient().ListCampaigns(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "campaigns")
		}
		if len(campaigns) == 0 {
			fmt.Fprintln(os.Stderr, "No campaigns found.")
			return nil
		}
		formatCampaigns(os.Stdout, campaigns)
		return nil
	},
}

func formatCampaigns(w io.Writer, campaigns []instantly.Campaign) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTATUS")
	for _, c := range campaigns {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", c.ID, c.Name, c.Status)
	}
	tw.Flush() //nolint:errcheck
}

func init() {
	rootCmd.AddCommand(campaignsCmd)
}
