// Package report renders the end-of-run summary.
package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/internal/model"
)

// Estimates are projected outcomes derived from the successful lead count.
type Estimates struct {
	RepliesLow   int
	RepliesHigh  int
	MeetingsLow  int
	MeetingsHigh int
}

// Estimate projects replies (1-2%) and meetings (0.7-1.3%), truncated.
func Estimate(successful int) Estimates {
	s := float64(successful)
	return Estimates{
		RepliesLow:   int(s * 0.01),
		RepliesHigh:  int(s * 0.02),
		MeetingsLow:  int(s * 0.007),
		MeetingsHigh: int(s * 0.013),
	}
}

const nextSteps = `Next Steps:
1. Monitor campaign performance in Instantly dashboard
2. Track replies and engagement over next 7 days
3. Optimize sequences based on initial results
4. Scale successful campaigns`

// Render formats stats as the plain-text report.
func Render(stats model.RunStatistics, at time.Time) string {
	est := Estimate(stats.Successful)

	var b strings.Builder
	b.WriteString("Cold Email Lead Processing Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", at.Format("2006-01-02 15:04:05"))

	b.WriteString("PROCESSING STATISTICS:\n")
	fmt.Fprintf(&b, "- Total Leads Processed: %d\n", stats.TotalProcessed)
	fmt.Fprintf(&b, "- Successfully Added: %d\n", stats.Successful)
	fmt.Fprintf(&b, "- Failed: %d\n", stats.Failed)
	fmt.Fprintf(&b, "- Success Rate: %.1f%%\n\n", stats.SuccessRate())

	b.WriteString("CAMPAIGN DISTRIBUTION:\n")
	for _, t := range model.Tiers {
		fmt.Fprintf(&b, "- %s: %d leads\n", t.Label(), stats.Distribution[t])
	}
	b.WriteString("\n")

	b.WriteString("EXPECTED PERFORMANCE:\n")
	b.WriteString("- Expected Reply Rate: 1-2%\n")
	fmt.Fprintf(&b, "- Expected Positive Replies: %d - %d\n", est.RepliesLow, est.RepliesHigh)
	fmt.Fprintf(&b, "- Expected Meetings: %d - %d\n\n", est.MeetingsLow, est.MeetingsHigh)

	b.WriteString(nextSteps)
	b.WriteString("\n")
	return b.String()
}

// FileName returns the report file name for at.
func FileName(at time.Time) string {
	return "cold_email_report_" + at.Format("20060102_150405") + ".txt"
}

// Write renders stats into dir and returns the file path.
func Write(dir string, stats model.RunStatistics, at time.Time) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "report: create dir %s", dir)
	}
	path := filepath.Join(dir, FileName(at))
	if err := os.WriteFile(path, []byte(Render(stats, at)), 0o644); err != nil {
		return "", eris.Wrapf(err, "report: write %s", path)
	}
	return path, nil
}
