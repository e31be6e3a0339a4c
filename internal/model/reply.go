package model

// Sentiment is the sales intent read from a reply.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNegative Sentiment = "negative"
	SentimentNeutral  Sentiment = "neutral"
)

// Sentiments lists every sentiment in report order.
var Sentiments = []Sentiment{SentimentPositive, SentimentNegative, SentimentNeutral}

// ParseSentiment maps a model answer onto a Sentiment. Anything unrecognized
// is neutral.
func ParseSentiment(s string) Sentiment {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNegative, SentimentNeutral:
		return Sentiment(s)
	default:
		return SentimentNeutral
	}
}

// HotLead is a prospect who replied with positive intent.
type HotLead struct {
	Email     string `json:"email"`
	Campaign  string `json:"campaign"`
	Reply     string `json:"reply"`
	Timestamp string `json:"timestamp,omitempty"`
}
