package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:          "coldreach",
	Short:        "Cold email lead enrichment and campaign routing",
	Long:         "Ingests prospect lists, writes a personalized icebreaker per lead, scores and routes each lead to an outbound campaign, and dispatches it to Instantly.",
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
