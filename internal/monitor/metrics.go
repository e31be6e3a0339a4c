package monitor

import "github.com/sells-group/coldreach/pkg/instantly"

// Benchmark labels against the 1% reply-rate target.
const (
	BenchmarkGood      = "Good"
	BenchmarkNeedsWork = "Needs Improvement"
)

// targetReplyRate is the reply rate, in percent, a healthy campaign reaches.
const targetReplyRate = 1.0

// emailsPerMeeting is the delivered volume expected to yield one meeting.
const emailsPerMeeting = 150

// Metrics rolls counters up across campaigns. Rates are percentages.
type Metrics struct {
	TotalSent      int `json:"total_sent"`
	TotalDelivered int `json:"total_delivered"`
	TotalOpened    int `json:"total_opened"`
	TotalClicked   int `json:"total_clicked"`
	TotalReplied   int `json:"total_replied"`
	TotalBounced   int `json:"total_bounced"`

	DeliveryRate float64 `json:"delivery_rate"`
	OpenRate     float64 `json:"open_rate"`
	ClickRate    float64 `json:"click_rate"`
	ReplyRate    float64 `json:"reply_rate"`
	BounceRate   float64 `json:"bounce_rate"`

	Benchmark         string `json:"benchmark"`
	EstimatedMeetings int    `json:"estimated_meetings"`
}

// Rollup sums campaigns and derives rates. Delivery and bounce are relative
// to sent; open, click and reply are relative to delivered.
func Rollup(campaigns []instantly.CampaignStats) Metrics {
	var m Metrics
	for _, c := range campaigns {
		m.TotalSent += c.Sent
		m.TotalDelivered += c.Delivered
		m.TotalOpened += c.Opened
		m.TotalClicked += c.Clicked
		m.TotalReplied += c.Replied
		m.TotalBounced += c.Bounced
	}

	m.DeliveryRate = pct(m.TotalDelivered, m.TotalSent)
	m.OpenRate = pct(m.TotalOpened, m.TotalDelivered)
	m.ClickRate = pct(m.TotalClicked, m.TotalDelivered)
	m.ReplyRate = pct(m.TotalReplied, m.TotalDelivered)
	m.BounceRate = pct(m.TotalBounced, m.TotalSent)

	m.Benchmark = BenchmarkNeedsWork
	if m.ReplyRate >= targetReplyRate {
		m.Benchmark = BenchmarkGood
	}
	m.EstimatedMeetings = int(float64(m.TotalDelivered) / emailsPerMeeting * (m.ReplyRate / 100))
	return m
}

// ReplyRate returns a single campaign's replies per delivered email.
func ReplyRate(c instantly.CampaignStats) float64 {
	return pct(c.Replied, c.Delivered)
}

func pct(n, d int) float64 {
	if d <= 0 {
		return 0
	}
	return float64(n) / float64(d) * 100
}
