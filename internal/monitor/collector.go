// Package monitor reports on live campaign performance. It pulls delivery
// counters and recent replies from Instantly, classifies reply sentiment and
// flags hot leads.
package monitor

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/pkg/instantly"
)

// DefaultWindowHours is the reply lookback used when none is configured.
const DefaultWindowHours = 24

// Snapshot holds one point-in-time pull from the sending platform.
type Snapshot struct {
	Campaigns   []instantly.CampaignStats `json:"campaigns"`
	Replies     []instantly.Reply         `json:"replies"`
	WindowHours int                       `json:"window_hours"`
	CollectedAt time.Time                 `json:"collected_at"`
}

// Collector gathers campaign stats and replies from Instantly.
type Collector struct {
	client instantly.Client
	now    func() time.Time
}

// NewCollector creates a new collector.
func NewCollector(c instantly.Client) *Collector {
	return &Collector{client: c, now: time.Now}
}

// Collect fetches stats for campaignID (every campaign when empty) and the
// replies received within the last windowHours.
func (c *Collector) Collect(ctx context.Context, campaignID string, windowHours int) (*Snapshot, error) {
	if windowHours <= 0 {
		windowHours = DefaultWindowHours
	}
	now := c.now().UTC()
	snap := &Snapshot{WindowHours: windowHours, CollectedAt: now}

	campaigns, err := c.client.CampaignAnalytics(ctx, campaignID)
	if err != nil {
		return nil, eris.Wrap(err, "monitor: campaign stats")
	}
	for i := range campaigns {
		if campaigns[i].Name == "" {
			campaigns[i].Name = "Unknown"
		}
	}
	snap.Campaigns = campaigns

	since := now.Add(-time.Duration(windowHours) * time.Hour)
	replies, err := c.client.RecentReplies(ctx, since)
	if err != nil {
		return nil, eris.Wrap(err, "monitor: recent replies")
	}
	snap.Replies = replies

	return snap, nil
}
