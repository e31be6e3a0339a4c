package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/coldreach/internal/config"
	"github.com/sells-group/coldreach/internal/model"
)

func stats(total, ok int) model.RunStatistics {
	s := model.NewRunStatistics()
	s.TotalProcessed = total
	s.Successful = ok
	s.Failed = total - ok
	s.Distribution[model.TierEnterprise] = ok
	return s
}

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage(RunSummary{RunID: "abc", DryRun: true, Stats: stats(10, 9), ReportPath: "r.txt"})

	assert.Equal(t, "Cold email run complete (dry run) `abc`", msg.Text)
	require.Len(t, msg.Attachments, 1)
	a := msg.Attachments[0]
	assert.Equal(t, colorGood, a.Color)
	require.Len(t, a.Fields, 6)
	assert.Equal(t, "90.0%", a.Fields[1].Value)
	assert.Contains(t, a.Fields[4].Value, "Enterprise Direct Pitch: 9")
	assert.Equal(t, "r.txt", a.Fields[5].Value)
}

func TestColorFor(t *testing.T) {
	assert.Equal(t, colorWarning, colorFor(stats(0, 0)))
	assert.Equal(t, colorGood, colorFor(stats(10, 10)))
	assert.Equal(t, colorWarning, colorFor(stats(10, 8)))
	assert.Equal(t, colorDanger, colorFor(stats(10, 5)))
}

func TestNotifyRun_Disabled(t *testing.T) {
	n := NewNotifier(config.NotifyConfig{})
	assert.False(t, n.Enabled())
	assert.NoError(t, n.NotifyRun(context.Background(), RunSummary{}))
}

func TestNotifyRun_Posts(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Contains(t, msg.Text, "run-7")
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(config.NotifyConfig{SlackWebhookURL: srv.URL})
	require.NoError(t, n.NotifyRun(context.Background(), RunSummary{RunID: "run-7", Stats: stats(3, 3)}))
	assert.Equal(t, int32(1), received.Load())
}

func TestNotifyRun_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := NewNotifier(config.NotifyConfig{SlackWebhookURL: srv.URL})
	err := n.NotifyRun(context.Background(), RunSummary{Stats: stats(1, 1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}

func hotLeads(n int) []model.HotLead {
	leads := make([]model.HotLead, n)
	for i := range leads {
		leads[i] = model.HotLead{
			Email:    "lead" + strconv.Itoa(i) + "@x.com",
			Campaign: "Direct",
			Reply:    "Let's talk next week",
		}
	}
	return leads
}

func TestBuildHotLeadMessage(t *testing.T) {
	msg := BuildHotLeadMessage(hotLeads(7))

	assert.Equal(t, "7 Hot Leads Detected!", msg.Text)
	require.Len(t, msg.Attachments, 5)
	a := msg.Attachments[0]
	assert.Equal(t, colorGood, a.Color)
	assert.Equal(t, []Field{
		{Title: "Email", Value: "lead0@x.com", Short: true},
		{Title: "Campaign", Value: "Direct", Short: true},
		{Title: "Reply", Value: "Let's talk next week"},
	}, a.Fields)
	assert.Equal(t, "lead4@x.com", msg.Attachments[4].Fields[0].Value)
}

func TestNotifyHotLeads(t *testing.T) {
	var received atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		received.Add(1)
		var msg Message
		require.NoError(t, json.NewDecoder(r.Body).Decode(&msg))
		assert.Equal(t, "2 Hot Leads Detected!", msg.Text)
		assert.Len(t, msg.Attachments, 2)
	}))
	defer srv.Close()

	n := NewNotifier(config.NotifyConfig{SlackWebhookURL: srv.URL})
	require.NoError(t, n.NotifyHotLeads(context.Background(), nil))
	assert.Equal(t, int32(0), received.Load())

	require.NoError(t, n.NotifyHotLeads(context.Background(), hotLeads(2)))
	assert.Equal(t, int32(1), received.Load())
}

func TestNotifyHotLeads_Disabled(t *testing.T) {
	n := NewNotifier(config.NotifyConfig{})
	assert.NoError(t, n.NotifyHotLeads(context.Background(), hotLeads(1)))
}

func TestNotifyHotLeads_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewNotifier(config.NotifyConfig{SlackWebhookURL: srv.URL})
	err := n.NotifyHotLeads(context.Background(), hotLeads(1))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}
