package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/cost"
	"github.com/sells-group/coldreach/internal/monitor"
	"github.com/sells-group/coldreach/internal/notify"
	"github.com/sells-group/coldreach/pkg/anthropic"
)

var (
	monitorCampaign string
	monitorHours    int
	monitorInterval time.Duration
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Report campaign performance and flag hot leads",
	Long:  "Pulls campaign stats and recent replies from Instantly, classifies reply sentiment, alerts Slack on positive replies, and writes a performance report.",
	RunE: func(cmd *cobra.Command, _ []string) error {
		if cfg.Instantly.Key == "" {
			return eris.New("COLDREACH_INSTANTLY_KEY is required")
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		hours := monitorHours
		if hours <= 0 {
			hours = cfg.Monitor.WindowHours
		}
		opts := monitor.Options{CampaignID: monitorCampaign, WindowHours: hours}

		usage := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
		mon := monitor.New(newInstantlyClient(), buildClassifier(usage), notify.NewNotifier(cfg.Notify))

		if monitorInterval > 0 {
			mon.Watch(ctx, monitorInterval, opts, emitPerformanceReport)
			logSpend("sentiment spend", usage.Summary())
			return nil
		}

		res, err := mon.Run(ctx, opts)
		if err != nil {
			return eris.Wrap(err, "monitor")
		}
		emitPerformanceReport(res)
		logSpend("sentiment spend", usage.Summary())
		return nil
	},
}

// buildClassifier uses Claude when a key is configured and marks every reply
// neutral otherwise.
func buildClassifier(usage *cost.Tracker) monitor.Classifier {
	if cfg.Anthropic.Key == "" {
		zap.L().Warn("monitor: no anthropic key, replies will be classified neutral")
		return monitor.NeutralClassifier{}
	}
	return monitor.NewClaudeClassifier(anthropic.NewClient(cfg.Anthropic.Key), cfg.Monitor.Model).WithUsage(usage)
}

func emitPerformanceReport(res *monitor.Result) {
	at := time.Now()
	fmt.Fprint(os.Stdout, monitor.Render(res, at))

	path, err := monitor.Write(cfg.Report.Dir, res, at)
	if err != nil {
		zap.L().Error("performance report write failed", zap.Error(err))
	} else {
		zap.L().Info("performance report saved", zap.String("path", path))
	}

	if n := len(res.Analysis.HotLeads); n > 0 {
		fmt.Fprintf(os.Stderr, "%d hot leads require immediate follow-up!\n", n)
	}
}

func init() {
	monitorCmd.Flags().StringVar(&monitorCampaign, "campaign", "", "limit stats to one Instantly campaign ID")
	monitorCmd.Flags().IntVar(&monitorHours, "hours", 0, "reply lookback window in hours (0 = monitor.window_hours)")
	monitorCmd.Flags().DurationVar(&monitorInterval, "interval", 0, "repeat every interval until interrupted (0 = run once)")
	rootCmd.AddCommand(monitorCmd)
}
