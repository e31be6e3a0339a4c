package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/sells-group/coldreach/internal/model"
)

// maxReportedHotLeads caps the hot-lead list in the report.
const maxReportedHotLeads = 10

// Recommendations returns the optimization hints the metrics call for.
func Recommendations(m Metrics, a ReplyAnalysis) []string {
	var recs []string
	if m.ReplyRate < targetReplyRate {
		recs = append(recs, "Reply rate below 1% - Consider improving subject lines and personalization")
	}
	if m.DeliveryRate < 95 {
		recs = append(recs, "Delivery rate low - Check domain reputation and email authentication")
	}
	if m.OpenRate < 20 {
		recs = append(recs, "Open rate low - Test new subject line variations")
	}
	if n := a.Counts[model.SentimentPositive]; n > 0 {
		recs = append(recs, fmt.Sprintf("%d positive replies - Follow up within 24 hours!", n))
	}
	return recs
}

// Render formats r as the plain-text performance report.
func Render(r *Result, at time.Time) string {
	m, a := r.Metrics, r.Analysis
	p := message.NewPrinter(language.English)

	var b strings.Builder
	b.WriteString("Cold Email Performance Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", at.Format("2006-01-02 15:04:05"))

	b.WriteString("OVERALL METRICS:\n")
	p.Fprintf(&b, "- Total Sent: %d\n", m.TotalSent)
	fmt.Fprintf(&b, "- Delivery Rate: %.1f%%\n", m.DeliveryRate)
	fmt.Fprintf(&b, "- Open Rate: %.1f%%\n", m.OpenRate)
	fmt.Fprintf(&b, "- Click Rate: %.1f%%\n", m.ClickRate)
	fmt.Fprintf(&b, "- Reply Rate: %.1f%%\n", m.ReplyRate)
	fmt.Fprintf(&b, "- Bounce Rate: %.1f%%\n\n", m.BounceRate)

	b.WriteString("BENCHMARKS:\n")
	b.WriteString("- Target Reply Rate: 1-2%\n")
	fmt.Fprintf(&b, "- Current Status: %s\n", m.Benchmark)
	fmt.Fprintf(&b, "- Estimated Meetings: %d (1 per %d delivered)\n\n", m.EstimatedMeetings, emailsPerMeeting)

	window := DefaultWindowHours
	if r.Snapshot != nil {
		window = r.Snapshot.WindowHours
	}
	fmt.Fprintf(&b, "REPLY ANALYSIS (Last %dh):\n", window)
	fmt.Fprintf(&b, "- Total Replies: %d\n", a.Total)
	fmt.Fprintf(&b, "- Positive Replies: %d\n", a.Counts[model.SentimentPositive])
	fmt.Fprintf(&b, "- Negative Replies: %d\n", a.Counts[model.SentimentNegative])
	fmt.Fprintf(&b, "- Neutral Replies: %d\n\n", a.Counts[model.SentimentNeutral])

	b.WriteString("CAMPAIGN BREAKDOWN:\n")
	if r.Snapshot != nil {
		for _, c := range r.Snapshot.Campaigns {
			if c.Sent <= 0 {
				continue
			}
			fmt.Fprintf(&b, "- %s:\n", c.Name)
			fmt.Fprintf(&b, "  Sent: %d | Delivered: %d\n", c.Sent, c.Delivered)
			fmt.Fprintf(&b, "  Opened: %d | Replied: %d\n", c.Opened, c.Replied)
			fmt.Fprintf(&b, "  Reply Rate: %.1f%%\n", ReplyRate(c))
		}
	}
	b.WriteString("\n")

	if len(a.HotLeads) > 0 {
		fmt.Fprintf(&b, "HOT LEADS (%d):\n", len(a.HotLeads))
		for i, l := range a.HotLeads {
			if i == maxReportedHotLeads {
				break
			}
			fmt.Fprintf(&b, "%d. %s - %s\n", i+1, l.Email, l.Campaign)
		}
		b.WriteString("\n")
	}

	b.WriteString("OPTIMIZATION RECOMMENDATIONS:\n")
	for _, rec := range Recommendations(m, a) {
		fmt.Fprintf(&b, "- %s\n", rec)
	}
	b.WriteString("\n")

	second := "Optimize underperforming campaigns"
	if m.ReplyRate >= targetReplyRate {
		second = "Scale successful campaigns"
	}
	b.WriteString("NEXT ACTIONS:\n")
	fmt.Fprintf(&b, "1. Follow up with %d hot leads immediately\n", len(a.HotLeads))
	fmt.Fprintf(&b, "2. %s\n", second)
	b.WriteString("3. Monitor deliverability metrics daily\n")
	b.WriteString("4. A/B test subject lines for campaigns below 1% reply rate\n")
	return b.String()
}

// FileName returns the performance report file name for at.
func FileName(at time.Time) string {
	return "email_performance_" + at.Format("20060102_150405") + ".txt"
}

// Write renders r into dir and returns the file path.
func Write(dir string, r *Result, at time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "monitor: create dir %s", dir)
	}
	path := filepath.Join(dir, FileName(at))
	if err := os.WriteFile(path, []byte(Render(r, at)), 0o644); err != nil {
		return "", eris.Wrapf(err, "monitor: write %s", path)
	}
	return path, nil
}
