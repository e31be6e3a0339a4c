package monitor

import (
	"context"
	"unicode/utf8"

	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/pkg/instantly"
)

// hotLeadReplyRunes caps the reply excerpt stored on a hot lead.
const hotLeadReplyRunes = 200

// ReplyAnalysis tallies reply sentiment over the lookback window.
type ReplyAnalysis struct {
	Total    int                     `json:"total_replies"`
	Counts   map[model.Sentiment]int `json:"sentiment_counts"`
	HotLeads []model.HotLead         `json:"hot_leads"`
}

// AnalyzeReplies classifies each reply in order. Positive replies become hot
// leads.
func AnalyzeReplies(ctx context.Context, cl Classifier, replies []instantly.Reply) ReplyAnalysis {
	a := ReplyAnalysis{
		Total:  len(replies),
		Counts: make(map[model.Sentiment]int, len(model.Sentiments)),
	}
	for _, s := range model.Sentiments {
		a.Counts[s] = 0
	}

	for _, r := range replies {
		s := cl.Classify(ctx, r.Content)
		a.Counts[s]++
		if s != model.SentimentPositive {
			continue
		}
		a.HotLeads = append(a.HotLeads, model.HotLead{
			Email:     r.Email,
			Campaign:  r.CampaignName,
			Reply:     excerpt(r.Content, hotLeadReplyRunes),
			Timestamp: r.Timestamp,
		})
	}
	return a
}

func excerpt(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
