package dispatch

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coldreach/internal/config"
	"github.com/sells-group/coldreach/internal/icebreaker"
	"github.com/sells-group/coldreach/internal/ingest"
	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/internal/resilience"
	"github.com/sells-group/coldreach/internal/router"
	"github.com/sells-group/coldreach/pkg/instantly"
	"github.com/sells-group/coldreach/pkg/relay"
)

// --- test doubles ---

type mockDispatcher struct{ mock.Mock }

func (m *mockDispatcher) Dispatch(ctx context.Context, s Submission) error {
	return m.Called(ctx, s).Error(0)
}

func (m *mockDispatcher) ListCampaigns(ctx context.Context) ([]instantly.Campaign, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]instantly.Campaign), args.Error(1)
}

type mockLedger struct{ mock.Mock }

func (m *mockLedger) RecordDispatch(ctx context.Context, rec model.DispatchRecord) error {
	return m.Called(ctx, rec).Error(0)
}

type staticGenerator struct{ text string }

func (g staticGenerator) Generate(context.Context, model.Lead) model.IcebreakerResult {
	return model.IcebreakerResult{Text: g.text, Status: model.IcebreakerSuccess, Provider: "relay"}
}

type sleepRecorder struct {
	calls  []time.Duration
	cancel context.CancelFunc
	after  int
}

func (s *sleepRecorder) sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	if s.cancel != nil && len(s.calls) == s.after {
		s.cancel()
	}
	return ctx.Err()
}

func leads(n int) []model.Lead {
	out := make([]model.Lead, n)
	for i := range out {
		out[i] = model.Lead{
			FirstName:   fmt.Sprintf("Lead%d", i),
			Email:       fmt.Sprintf("lead%d@example.com", i),
			CompanyName: "Example Consulting",
			Industry:    "Marketing",
		}
	}
	return out
}

func settings() Settings {
	return Settings{BatchSize: 50, LeadDelay: 500 * time.Millisecond, BatchPause: 2 * time.Second, RunID: "run-1"}
}

// --- tests ---

func TestProcess_FailureIsolation(t *testing.T) {
	ls := leads(5)
	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return([]instantly.Campaign{{ID: "c1", Name: "Nurture"}}, nil)
	d.On("Dispatch", mock.Anything, mock.MatchedBy(func(s Submission) bool {
		return s.Lead.Email == "lead2@example.com"
	})).Return(errors.New("connection reset by peer"))
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	sl := &sleepRecorder{}
	b := NewBatcher(staticGenerator{text: "hi"}, d, settings(), WithSleeper(sl.sleep))

	stats, err := b.Process(context.Background(), NewSliceSource(ls))
	require.NoError(t, err)
	assert.Equal(t, 5, stats.TotalProcessed)
	assert.Equal(t, 4, stats.Successful)
	assert.Equal(t, 1, stats.Failed)

	sum := 0
	for _, n := range stats.Distribution {
		sum += n
	}
	assert.Equal(t, stats.Successful, sum)
	d.AssertNumberOfCalls(t, "Dispatch", 5)
	d.AssertNumberOfCalls(t, "ListCampaigns", 1)
}

func TestProcess_EndToEndScenario(t *testing.T) {
	ctx := context.Background()
	headers := []string{"first_name", "email", "company", "industry", "title", "website", "linkedin"}
	rows := [][]string{
		{"J", "j@x.com", "Acme Agency", "Consulting", "CEO", "http://x.com", "li"},
		{"K", "k@y.com", "Y Corp", "Retail", "Clerk", "", ""},
		{"L", "bad-email", "Z Corp", "Retail", "Clerk", "", ""},
	}
	stream, err := ingest.NewNormalizer(ingest.IdentityMapping()).Normalize(ctx, ingest.RowsTable(ctx, headers, rows))
	require.NoError(t, err)

	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return(nil, errors.New("unauthorized"))
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	var outcomes []model.LeadOutcome
	gen := icebreaker.NewGenerator(config.DefaultFallbackTemplate)
	b := NewBatcher(gen, d, settings(),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
		WithCampaigns(router.NewCampaigns(map[string]string{"enterprise-direct-pitch": "camp-ent"})),
		WithOutcomeHook(func(o model.LeadOutcome) { outcomes = append(outcomes, o) }),
	)

	stats, err := b.Process(ctx, stream)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 2, stats.Successful)
	assert.Equal(t, 1, stats.Distribution[model.TierEnterprise])
	assert.Equal(t, 0, stats.Distribution[model.TierProfessional])
	assert.Equal(t, 1, stats.Distribution[model.TierEducational])
	assert.Equal(t, 1, stream.Skipped())

	require.Len(t, outcomes, 2)
	assert.Equal(t, 100, outcomes[0].Score)
	assert.Equal(t, model.TierEnterprise, outcomes[0].Tier)
	assert.Equal(t, "camp-ent", outcomes[0].CampaignID)
	assert.Equal(t, 0, outcomes[1].Score)
	assert.Equal(t, model.TierEducational, outcomes[1].Tier)
	assert.Equal(t, "educational-sequence", outcomes[1].CampaignID)

	d.AssertCalled(t, "Dispatch", mock.Anything, mock.MatchedBy(func(s Submission) bool {
		return s.Lead.Email == "j@x.com" && s.CampaignID == "camp-ent" &&
			s.Icebreaker == "Impressed by what you're building at Acme Agency, particularly your approach in the Consulting space."
	}))
}

type blankRelay struct{}

func (blankRelay) Generate(context.Context, relay.Request) (*relay.Response, error) {
	return &relay.Response{Icebreaker: "   ", Status: "success", Provider: "claude"}, nil
}

func TestProcess_BlankRelayReplyStillDispatches(t *testing.T) {
	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return(nil, nil)
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	var outcomes []model.LeadOutcome
	gen := icebreaker.NewGenerator(config.DefaultFallbackTemplate, icebreaker.NewRelayStrategy(blankRelay{}, "", nil))
	b := NewBatcher(gen, d, settings(),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
		WithOutcomeHook(func(o model.LeadOutcome) { outcomes = append(outcomes, o) }),
	)

	stats, err := b.Process(context.Background(), NewSliceSource(leads(1)))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Successful)
	assert.Equal(t, 0, stats.Failed)

	require.Len(t, outcomes, 1)
	assert.Equal(t, "template", outcomes[0].Icebreaker.Provider)
	assert.Equal(t, model.IcebreakerFallback, outcomes[0].Icebreaker.Status)
	d.AssertCalled(t, "Dispatch", mock.Anything, mock.MatchedBy(func(s Submission) bool {
		return strings.HasPrefix(s.Icebreaker, "Impressed by what you're building at Example Consulting")
	}))
}

func TestProcess_Pacing(t *testing.T) {
	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return(nil, nil)
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	s := settings()
	s.BatchSize = 2
	sl := &sleepRecorder{}
	b := NewBatcher(staticGenerator{text: "hi"}, d, s, WithSleeper(sl.sleep))

	stats, err := b.Process(context.Background(), NewSliceSource(leads(4)))
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Successful)

	lead, pause := 500*time.Millisecond, 2*time.Second
	// Two batches: one pause between them, none after the last.
	assert.Equal(t, []time.Duration{lead, lead, pause, lead, lead}, sl.calls)
}

func TestProcess_Limit(t *testing.T) {
	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return(nil, nil)
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	s := settings()
	s.Limit = 3
	b := NewBatcher(staticGenerator{text: "hi"}, d, s, WithSleeper(func(context.Context, time.Duration) error { return nil }))

	stats, err := b.Process(context.Background(), NewSliceSource(leads(10)))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalProcessed)
	d.AssertNumberOfCalls(t, "Dispatch", 3)
}

func TestProcess_CancelReturnsPartialStats(t *testing.T) {
	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return(nil, nil)
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sl := &sleepRecorder{cancel: cancel, after: 2}
	b := NewBatcher(staticGenerator{text: "hi"}, d, settings(), WithSleeper(sl.sleep))

	stats, err := b.Process(ctx, NewSliceSource(leads(5)))
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 2, stats.TotalProcessed)
	assert.Equal(t, 2, stats.Successful)
}

func TestProcess_FailureReasons(t *testing.T) {
	rejected := resilience.NewTransientError(&instantly.StatusError{Op: "instantly: add leads", Status: 429}, 429)
	tests := []struct {
		name      string
		err       error
		gen       Generator
		reason    model.FailureReason
		class     string
		dispatchN int
	}{
		{"rejected permanent", &instantly.StatusError{Op: "instantly: add leads", Status: 400}, staticGenerator{text: "hi"},
			model.FailureDispatchRejected, "permanent", 1},
		{"rejected transient", rejected, staticGenerator{text: "hi"}, model.FailureDispatchRejected, "transient", 1},
		{"transport", errors.New("i/o timeout"), staticGenerator{text: "hi"}, model.FailureDispatchError, "transient", 1},
		{"empty icebreaker", nil, staticGenerator{text: "  "}, model.FailureGenerate, "permanent", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDispatcher{}
			d.On("ListCampaigns", mock.Anything).Return(nil, nil)
			d.On("Dispatch", mock.Anything, mock.Anything).Return(tt.err)

			var got model.LeadOutcome
			b := NewBatcher(tt.gen, d, settings(),
				WithSleeper(func(context.Context, time.Duration) error { return nil }),
				WithOutcomeHook(func(o model.LeadOutcome) { got = o }),
			)
			stats, err := b.Process(context.Background(), NewSliceSource(leads(1)))
			require.NoError(t, err)
			assert.Equal(t, 1, stats.Failed)
			assert.Equal(t, tt.reason, got.Reason)
			assert.Equal(t, tt.class, got.ErrorClass)
			assert.NotEmpty(t, got.Error)
			d.AssertNumberOfCalls(t, "Dispatch", tt.dispatchN)
		})
	}
}

func TestProcess_LedgerFailureDoesNotAffectStats(t *testing.T) {
	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return(nil, nil)
	d.On("Dispatch", mock.Anything, mock.Anything).Return(nil)

	l := &mockLedger{}
	l.On("RecordDispatch", mock.Anything, mock.MatchedBy(func(r model.DispatchRecord) bool {
		return r.RunID == "run-1" && r.Status == model.DispatchStatusSent
	})).Return(errors.New("disk full"))

	b := NewBatcher(staticGenerator{text: "hi"}, d, settings(),
		WithSleeper(func(context.Context, time.Duration) error { return nil }),
		WithLedger(l),
	)
	stats, err := b.Process(context.Background(), NewSliceSource(leads(3)))
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Successful)
	l.AssertNumberOfCalls(t, "RecordDispatch", 3)
}

func TestProcess_SourceError(t *testing.T) {
	d := &mockDispatcher{}
	d.On("ListCampaigns", mock.Anything).Return(nil, nil)

	src := &failingSource{err: errors.New("read: unexpected EOF")}
	b := NewBatcher(staticGenerator{text: "hi"}, d, settings())
	_, err := b.Process(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected EOF")
}

type failingSource struct{ err error }

func (f *failingSource) Next(context.Context) bool { return false }
func (f *failingSource) Lead() model.Lead           { return model.Lead{} }
func (f *failingSource) Err() error                 { return f.err }

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), 0))
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}

func TestSettingsFrom(t *testing.T) {
	s := SettingsFrom(config.DispatchConfig{BatchSize: 50, LeadDelayMs: 500, BatchPauseMs: 2000})
	assert.Equal(t, 50, s.BatchSize)
	assert.Equal(t, 500*time.Millisecond, s.LeadDelay)
	assert.Equal(t, 2*time.Second, s.BatchPause)
}
