// Package notify posts run summaries and hot-lead alerts to a Slack incoming
// webhook.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/config"
	"github.com/sells-group/coldreach/internal/model"
)

// Attachment colors by failure rate.
const (
	colorGood    = "good"
	colorWarning = "warning"
	colorDanger  = "danger"
)

// Message is a Slack incoming-webhook payload.
type Message struct {
	Text        string       `json:"text"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// Attachment is a Slack message attachment.
type Attachment struct {
	Color  string  `json:"color"`
	Fields []Field `json:"fields"`
}

// Field is a short label/value pair in an attachment.
type Field struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// RunSummary is what gets announced after a run.
type RunSummary struct {
	RunID      string
	DryRun     bool
	Stats      model.RunStatistics
	ReportPath string
}

// Notifier sends run summaries.
type Notifier struct {
	webhookURL string
	client     *http.Client
}

// NewNotifier creates a notifier. With an empty webhook URL it is a no-op.
func NewNotifier(cfg config.NotifyConfig) *Notifier {
	return &Notifier{
		webhookURL: cfg.SlackWebhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether a webhook is configured.
func (n *Notifier) Enabled() bool {
	return n.webhookURL != ""
}

// BuildMessage formats s as a Slack message.
func BuildMessage(s RunSummary) Message {
	st := s.Stats
	title := "Cold email run complete"
	if s.DryRun {
		title += " (dry run)"
	}

	fields := []Field{
		{Title: "Processed", Value: fmt.Sprintf("%d", st.TotalProcessed), Short: true},
		{Title: "Success Rate", Value: fmt.Sprintf("%.1f%%", st.SuccessRate()), Short: true},
		{Title: "Added", Value: fmt.Sprintf("%d", st.Successful), Short: true},
		{Title: "Failed", Value: fmt.Sprintf("%d", st.Failed), Short: true},
	}
	var dist []string
	for _, t := range model.Tiers {
		dist = append(dist, fmt.Sprintf("%s: %d", t.Label(), st.Distribution[t]))
	}
	fields = append(fields, Field{Title: "Campaign Distribution", Value: strings.Join(dist, "\n")})
	if s.ReportPath != "" {
		fields = append(fields, Field{Title: "Report", Value: s.ReportPath})
	}

	text := title
	if s.RunID != "" {
		text = fmt.Sprintf("%s `%s`", title, s.RunID)
	}
	return Message{
		Text:        text,
		Attachments: []Attachment{{Color: colorFor(st), Fields: fields}},
	}
}

// colorFor picks danger above 25% failures and warning above 10%.
func colorFor(st model.RunStatistics) string {
	if st.TotalProcessed == 0 {
		return colorWarning
	}
	failRate := float64(st.Failed) / float64(st.TotalProcessed)
	switch {
	case failRate > 0.25:
		return colorDanger
	case failRate > 0.10:
		return colorWarning
	default:
		return colorGood
	}
}

// NotifyRun posts the summary. Failures are returned for the caller to log.
func (n *Notifier) NotifyRun(ctx context.Context, s RunSummary) error {
	if !n.Enabled() {
		return nil
	}
	if err := n.post(ctx, BuildMessage(s)); err != nil {
		return err
	}
	zap.L().Info("notify: run summary sent", zap.String("run_id", s.RunID))
	return nil
}

// maxHotLeadAttachments caps how many leads one alert lists.
const maxHotLeadAttachments = 5

// BuildHotLeadMessage formats a hot-lead alert listing the first five leads.
func BuildHotLeadMessage(leads []model.HotLead) Message {
	msg := Message{Text: fmt.Sprintf("%d Hot Leads Detected!", len(leads))}
	for i, l := range leads {
		if i == maxHotLeadAttachments {
			break
		}
		msg.Attachments = append(msg.Attachments, Attachment{
			Color: colorGood,
			Fields: []Field{
				{Title: "Email", Value: l.Email, Short: true},
				{Title: "Campaign", Value: l.Campaign, Short: true},
				{Title: "Reply", Value: l.Reply},
			},
		})
	}
	return msg
}

// NotifyHotLeads posts a hot-lead alert. It does nothing without leads.
func (n *Notifier) NotifyHotLeads(ctx context.Context, leads []model.HotLead) error {
	if !n.Enabled() || len(leads) == 0 {
		return nil
	}
	if err := n.post(ctx, BuildHotLeadMessage(leads)); err != nil {
		return err
	}
	zap.L().Info("notify: hot lead alert sent", zap.Int("hot_leads", len(leads)))
	return nil
}

func (n *Notifier) post(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return eris.Wrap(err, "notify: marshal message")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "notify: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "notify: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return eris.Errorf("notify: webhook returned status %d", resp.StatusCode)
	}
	return nil
}
