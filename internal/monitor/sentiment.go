package monitor

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/pkg/anthropic"
)

// Classifier reads the sales intent of a reply. It never fails; replies it
// cannot judge are neutral.
type Classifier interface {
	Classify(ctx context.Context, reply string) model.Sentiment
}

// NeutralClassifier marks every reply neutral. It stands in when no model
// key is configured.
type NeutralClassifier struct{}

// Classify implements Classifier.
func (NeutralClassifier) Classify(context.Context, string) model.Sentiment {
	return model.SentimentNeutral
}

// UsageRecorder receives the token usage of classification calls.
type UsageRecorder interface {
	Record(model string, input, output int64)
}

const sentimentSystem = "You are an expert at analyzing sales email replies for sentiment."

const sentimentPrompt = `Analyze this email reply and categorize it as positive, negative, or neutral for sales purposes:

Reply: "%s"

Positive = Interested, asking questions, wants to learn more, scheduling meetings
Negative = Not interested, unsubscribe requests, harsh rejections
Neutral = Out of office, general acknowledgment, unclear intent

Respond with only one word: positive, negative, or neutral`

// ClaudeClassifier asks Claude for a one-word sentiment.
type ClaudeClassifier struct {
	client anthropic.Client
	model  string
	usage  UsageRecorder
}

// NewClaudeClassifier creates a classifier backed by the Anthropic API.
func NewClaudeClassifier(c anthropic.Client, model string) *ClaudeClassifier {
	return &ClaudeClassifier{client: c, model: model}
}

// WithUsage reports token usage of every successful call to u.
func (c *ClaudeClassifier) WithUsage(u UsageRecorder) *ClaudeClassifier {
	c.usage = u
	return c
}

// Classify implements Classifier.
func (c *ClaudeClassifier) Classify(ctx context.Context, reply string) model.Sentiment {
	temp := 0.1
	resp, err := c.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       c.model,
		MaxTokens:   10,
		System:      sentimentSystem,
		Messages:    []anthropic.Message{{Role: "user", Content: fmt.Sprintf(sentimentPrompt, reply)}},
		Temperature: &temp,
	})
	if err != nil {
		zap.L().Warn("monitor: sentiment classification failed", zap.Error(err))
		return model.SentimentNeutral
	}
	resp.Usage.LogUsage(c.model, "sentiment")
	if c.usage != nil {
		c.usage.Record(c.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return model.ParseSentiment(strings.ToLower(strings.TrimSpace(resp.Text())))
}
