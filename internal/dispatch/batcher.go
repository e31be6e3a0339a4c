package dispatch

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/config"
	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/internal/resilience"
	"github.com/sells-group/coldreach/internal/router"
	"github.com/sells-group/coldreach/internal/scorer"
	"github.com/sells-group/coldreach/pkg/instantly"
)

// LeadSource yields leads one at a time. *ingest.LeadStream satisfies it.
type LeadSource interface {
	Next(ctx context.Context) bool
	Lead() model.Lead
	Err() error
}

// Generator produces an icebreaker for a lead and never fails.
type Generator interface {
	Generate(ctx context.Context, lead model.Lead) model.IcebreakerResult
}

// Ledger records lead outcomes. store.Store satisfies it.
type Ledger interface {
	RecordDispatch(ctx context.Context, rec model.DispatchRecord) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the production Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Settings controls batching and pacing.
type Settings struct {
	BatchSize  int
	LeadDelay  time.Duration
	BatchPause time.Duration
	// Limit caps the number of leads taken from the source. Zero means no cap.
	Limit int
	// RunID tags ledger entries.
	RunID string
}

// SettingsFrom converts dispatch config into batcher settings.
func SettingsFrom(cfg config.DispatchConfig) Settings {
	return Settings{
		BatchSize:  cfg.BatchSize,
		LeadDelay:  time.Duration(cfg.LeadDelayMs) * time.Millisecond,
		BatchPause: time.Duration(cfg.BatchPauseMs) * time.Millisecond,
	}
}

// Option configures a Batcher.
type Option func(*Batcher)

// WithLedger records every outcome to l.
func WithLedger(l Ledger) Option {
	return func(b *Batcher) { b.ledger = l }
}

// WithSleeper replaces the pacing sleeper (for testing).
func WithSleeper(s Sleeper) Option {
	return func(b *Batcher) { b.sleep = s }
}

// WithCampaigns sets the tier to campaign-ID resolver.
func WithCampaigns(c *router.Campaigns) Option {
	return func(b *Batcher) { b.campaigns = c }
}

// WithOutcomeHook calls fn after each lead is processed.
func WithOutcomeHook(fn func(model.LeadOutcome)) Option {
	return func(b *Batcher) { b.onOutcome = fn }
}

// Batcher processes a lead stream strictly sequentially.
type Batcher struct {
	gen       Generator
	disp      Dispatcher
	settings  Settings
	campaigns *router.Campaigns
	ledger    Ledger
	sleep     Sleeper
	onOutcome func(model.LeadOutcome)
	now       func() time.Time
}

// NewBatcher creates a batcher. A non-positive batch size falls back to 50.
func NewBatcher(gen Generator, disp Dispatcher, settings Settings, opts ...Option) *Batcher {
	if settings.BatchSize <= 0 {
		settings.BatchSize = 50
	}
	b := &Batcher{
		gen:      gen,
		disp:     disp,
		settings: settings,
		sleep:    Sleep,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Process drains src. Per-lead failures are counted and never stop the run.
// On cancellation the statistics gathered so far are returned with the
// context error.
func (b *Batcher) Process(ctx context.Context, src LeadSource) (model.RunStatistics, error) {
	stats := model.NewRunStatistics()
	b.logCampaigns(ctx)

	batch, inBatch := 1, 0
	for b.settings.Limit <= 0 || stats.TotalProcessed < b.settings.Limit {
		if !src.Next(ctx) {
			break
		}
		lead := src.Lead()

		if inBatch == b.settings.BatchSize {
			zap.L().Info("pausing between batches", zap.Int("completed_batch", batch))
			if err := b.sleep(ctx, b.settings.BatchPause); err != nil {
				return stats, eris.Wrap(err, "dispatch: interrupted")
			}
			batch++
			inBatch = 0
		}
		if inBatch == 0 {
			zap.L().Info("processing batch",
				zap.Int("batch", batch),
				zap.Int("first_lead", stats.TotalProcessed+1),
			)
		}

		out := b.processLead(ctx, lead)
		stats.Record(out)
		b.record(ctx, out)
		inBatch++

		if err := b.sleep(ctx, b.settings.LeadDelay); err != nil {
			return stats, eris.Wrap(err, "dispatch: interrupted")
		}
	}

	if err := src.Err(); err != nil {
		return stats, eris.Wrap(err, "dispatch: lead source")
	}

	zap.L().Info("dispatch complete",
		zap.Int("total", stats.TotalProcessed),
		zap.Int("successful", stats.Successful),
		zap.Int("failed", stats.Failed),
	)
	return stats, nil
}

// processLead runs generate, score, route and dispatch for one lead.
func (b *Batcher) processLead(ctx context.Context, lead model.Lead) model.LeadOutcome {
	log := zap.L().With(zap.String("email", lead.Email), zap.String("company", lead.CompanyName))

	ice := b.gen.Generate(ctx, lead)
	score := scorer.Score(lead)
	tier := router.Route(score)
	out := model.LeadOutcome{
		Lead:       lead,
		Score:      score,
		Tier:       tier,
		CampaignID: b.campaigns.ID(tier),
		Icebreaker: ice,
	}
	log.Debug("lead scored",
		zap.Int("score", score),
		zap.String("tier", string(tier)),
		zap.Any("rules", scorer.Breakdown(lead)),
	)

	if strings.TrimSpace(ice.Text) == "" {
		out.Reason = model.FailureGenerate
		out.ErrorClass = string(resilience.ClassPermanent)
		out.Error = "empty icebreaker"
		log.Error("lead failed", zap.String("reason", string(out.Reason)))
		return out
	}

	err := b.disp.Dispatch(ctx, Submission{Lead: lead, Icebreaker: ice.Text, CampaignID: out.CampaignID})
	if err != nil {
		out.Reason = failureReason(err)
		out.ErrorClass = string(resilience.Classify(err))
		out.Error = err.Error()
		log.Error("lead failed",
			zap.String("reason", string(out.Reason)),
			zap.String("error_class", out.ErrorClass),
			zap.Error(err),
		)
		return out
	}

	out.Dispatched = true
	log.Info("lead dispatched",
		zap.String("campaign", out.CampaignID),
		zap.String("provider", ice.Provider),
		zap.Int("score", score),
	)
	return out
}

func failureReason(err error) model.FailureReason {
	var se *instantly.StatusError
	if errors.As(err, &se) {
		return model.FailureDispatchRejected
	}
	return model.FailureDispatchError
}

// record appends out to the ledger and the outcome hook. Ledger failures are
// logged only.
func (b *Batcher) record(ctx context.Context, out model.LeadOutcome) {
	if b.onOutcome != nil {
		b.onOutcome(out)
	}
	if b.ledger == nil {
		return
	}
	rec := model.NewDispatchRecord(b.settings.RunID, out, b.now().UTC())
	if err := b.ledger.RecordDispatch(context.WithoutCancel(ctx), rec); err != nil {
		zap.L().Warn("dispatch: ledger write failed", zap.String("email", out.Lead.Email), zap.Error(err))
	}
}

// logCampaigns fetches the campaign list once for the log. Failures are ignored.
func (b *Batcher) logCampaigns(ctx context.Context) {
	campaigns, err := b.disp.ListCampaigns(ctx)
	if err != nil {
		zap.L().Warn("dispatch: could not list campaigns", zap.Error(err))
		return
	}
	names := make([]string, 0, len(campaigns))
	for _, c := range campaigns {
		names = append(names, c.Name)
	}
	zap.L().Info("available campaigns", zap.Strings("campaigns", names))
}
