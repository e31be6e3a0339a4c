package monitor

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/pkg/instantly"
)

// HotLeadNotifier announces positive replies.
type HotLeadNotifier interface {
	NotifyHotLeads(ctx context.Context, leads []model.HotLead) error
}

// Options selects what one monitoring cycle looks at.
type Options struct {
	// CampaignID limits stats to one campaign. Empty means all.
	CampaignID  string
	WindowHours int
}

// Result is the outcome of one monitoring cycle.
type Result struct {
	Snapshot *Snapshot     `json:"snapshot"`
	Metrics  Metrics       `json:"metrics"`
	Analysis ReplyAnalysis `json:"reply_analysis"`
}

// Monitor runs monitoring cycles against the sending platform.
type Monitor struct {
	collector  *Collector
	classifier Classifier
	notifier   HotLeadNotifier
}

// New creates a monitor. A nil classifier marks every reply neutral and a nil
// notifier skips hot-lead alerts.
func New(c instantly.Client, cl Classifier, n HotLeadNotifier) *Monitor {
	if cl == nil {
		cl = NeutralClassifier{}
	}
	return &Monitor{collector: NewCollector(c), classifier: cl, notifier: n}
}

// Run performs one cycle: collect, classify replies, roll up metrics and
// alert on hot leads. Alert failures are logged, not returned.
func (m *Monitor) Run(ctx context.Context, opts Options) (*Result, error) {
	log := zap.L().With(zap.String("component", "monitor"))

	snap, err := m.collector.Collect(ctx, opts.CampaignID, opts.WindowHours)
	if err != nil {
		return nil, err
	}
	log.Info("monitor: collected",
		zap.Int("campaigns", len(snap.Campaigns)),
		zap.Int("replies", len(snap.Replies)),
		zap.Int("window_hours", snap.WindowHours),
	)

	analysis := AnalyzeReplies(ctx, m.classifier, snap.Replies)
	log.Info("monitor: replies analyzed",
		zap.Int("positive", analysis.Counts[model.SentimentPositive]),
		zap.Int("negative", analysis.Counts[model.SentimentNegative]),
		zap.Int("neutral", analysis.Counts[model.SentimentNeutral]),
	)

	res := &Result{Snapshot: snap, Metrics: Rollup(snap.Campaigns), Analysis: analysis}

	if m.notifier != nil && len(analysis.HotLeads) > 0 {
		if err := m.notifier.NotifyHotLeads(context.WithoutCancel(ctx), analysis.HotLeads); err != nil {
			log.Warn("monitor: hot lead alert failed", zap.Error(err))
		}
	}
	return res, nil
}

// Watch runs a cycle immediately and then every interval until ctx is
// cancelled. Failed cycles are logged and the loop continues.
func (m *Monitor) Watch(ctx context.Context, interval time.Duration, opts Options, onResult func(*Result)) {
	if interval <= 0 {
		interval = time.Hour
	}
	log := zap.L().With(zap.String("component", "monitor"))
	log.Info("monitor: watching", zap.Duration("interval", interval))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		res, err := m.Run(ctx, opts)
		switch {
		case err != nil:
			log.Error("monitor: cycle failed", zap.Error(err))
		case onResult != nil:
			onResult(res)
		}

		select {
		case <-ctx.Done():
			log.Info("monitor: stopped")
			return
		case <-ticker.C:
		}
	}
}
