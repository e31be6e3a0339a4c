package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/config"
	"github.com/sells-group/coldreach/internal/cost"
	"github.com/sells-group/coldreach/internal/dispatch"
	"github.com/sells-group/coldreach/internal/icebreaker"
	"github.com/sells-group/coldreach/internal/notify"
	"github.com/sells-group/coldreach/internal/report"
	"github.com/sells-group/coldreach/internal/router"
	"github.com/sells-group/coldreach/pkg/instantly"
)

var (
	runSource      sourceFlags
	runLimit       int
	runDryRun      bool
	runOffline     bool
	runPregenerate bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Process a lead list end to end",
	Long:  "Normalizes a lead list, generates icebreakers, scores and routes each lead, dispatches to Instantly, and writes a report.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate(config.ValidateOptions{DryRun: runDryRun, Offline: runOffline}); err != nil {
			return err
		}

		stream, err := runSource.openLeads(ctx)
		if err != nil {
			return err
		}

		usage := cost.NewTracker(cost.NewCalculator(cost.DefaultRates()))
		gen, err := buildGenerator(ctx, runOffline, usage)
		if err != nil {
			return err
		}

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		if st != nil {
			defer st.Close() //nolint:errcheck
		}

		runID := uuid.New().String()
		settings := dispatch.SettingsFrom(cfg.Dispatch)
		settings.Limit = runLimit
		settings.RunID = runID

		opts := []dispatch.Option{dispatch.WithCampaigns(router.NewCampaigns(cfg.Instantly.Campaigns))}
		if st != nil {
			opts = append(opts, dispatch.WithLedger(st))
		}

		var (
			src       dispatch.LeadSource = stream
			generator dispatch.Generator  = gen
		)
		if runPregenerate {
			leads, err := dispatch.Drain(ctx, stream)
			if err != nil {
				return eris.Wrap(err, "pregenerate: read leads")
			}
			if runLimit > 0 && len(leads) > runLimit {
				leads = leads[:runLimit]
			}
			results := gen.GenerateBatch(ctx, leads, icebreaker.BatchOptions{
				Concurrency: cfg.Icebreaker.BatchConcurrency,
				RPS:         cfg.Icebreaker.BatchRPS,
			})
			generator = dispatch.NewPrecomputed(leads, results, gen)
			src = dispatch.NewSliceSource(leads)
		}

		zap.L().Info("run starting",
			zap.String("run_id", runID),
			zap.Bool("dry_run", runDryRun || runOffline),
			zap.Int("limit", runLimit),
		)

		b := dispatch.NewBatcher(generator, buildDispatcher(runDryRun || runOffline), settings, opts...)
		stats, procErr := b.Process(ctx, src)
		zap.L().Info("ingestion summary",
			zap.Int("rows", stream.Rows()),
			zap.Int("skipped", stream.Skipped()),
		)
		logSpend("icebreaker spend", usage.Summary())

		at := time.Now()
		fmt.Fprint(os.Stdout, report.Render(stats, at))
		path, err := report.Write(cfg.Report.Dir, stats, at)
		if err != nil {
			zap.L().Error("report write failed", zap.Error(err))
		} else {
			zap.L().Info("report saved", zap.String("path", path))
		}

		if !runOffline {
			n := notify.NewNotifier(cfg.Notify)
			summary := notify.RunSummary{RunID: runID, DryRun: runDryRun, Stats: stats, ReportPath: path}
			if err := n.NotifyRun(context.WithoutCancel(ctx), summary); err != nil {
				zap.L().Warn("run notification failed", zap.Error(err))
			}
		}

		return procErr
	},
}

// buildGenerator assembles the icebreaker chain. Offline runs use the template only.
// usage may be nil.
func buildGenerator(ctx context.Context, offline bool, usage *cost.Tracker) (*icebreaker.Generator, error) {
	var backends icebreaker.Backends
	if !offline {
		b, err := icebreaker.NewBackends(ctx, cfg)
		if err != nil {
			return nil, err
		}
		backends = b
	}
	if usage != nil {
		backends.Usage = usage
	}
	return icebreaker.Build(cfg, backends), nil
}

func logSpend(msg string, s cost.Summary) {
	if s.Calls == 0 {
		return
	}
	zap.L().Info(msg,
		zap.Int("calls", s.Calls),
		zap.Int64("input_tokens", s.InputTokens),
		zap.Int64("output_tokens", s.OutputTokens),
		zap.Float64("usd", s.USD),
	)
}

// buildDispatcher returns a no-op dispatcher for dry runs.
func buildDispatcher(dryRun bool) dispatch.Dispatcher {
	if dryRun {
		return dispatch.NoopDispatcher{}
	}
	return dispatch.NewInstantlyDispatcher(newInstantlyClient())
}

func newInstantlyClient() instantly.Client {
	return instantly.NewClient(cfg.Instantly.Key, instantly.WithBaseURL(cfg.Instantly.BaseURL))
}

func init() {
	runSource.register(runCmd.Flags())
	runCmd.Flags().IntVar(&runLimit, "limit", 0, "max leads to process (0 = all)")
	runCmd.Flags().BoolVar(&runDryRun, "dry-run", false, "generate, score and route without dispatching")
	runCmd.Flags().BoolVar(&runOffline, "offline", false, "dry run without any network calls (template icebreakers only)")
	runCmd.Flags().BoolVar(&runPregenerate, "pregenerate", false, "generate all icebreakers concurrently before dispatch")
	rootCmd.AddCommand(runCmd)
}
