package icebreaker

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/pkg/anthropic"
	"github.com/sells-group/coldreach/pkg/gemini"
)

// UsageRecorder receives the token usage of direct model calls.
type UsageRecorder interface {
	Record(model string, input, output int64)
}

// AnthropicStrategy asks Claude for the icebreaker directly.
type AnthropicStrategy struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
	template    string
	usage       UsageRecorder
}

// NewAnthropicStrategy creates a direct strategy backed by the Anthropic API.
func NewAnthropicStrategy(c anthropic.Client, model string, maxTokens int64, temperature float64, template string) *AnthropicStrategy {
	return &AnthropicStrategy{
		client:      c,
		model:       model,
		maxTokens:   maxTokens,
		temperature: temperature,
		template:    template,
	}
}

// WithUsage reports token usage of every successful call to u.
func (a *AnthropicStrategy) WithUsage(u UsageRecorder) *AnthropicStrategy {
	a.usage = u
	return a
}

// Name implements Strategy.
func (*AnthropicStrategy) Name() string { return "anthropic" }

// Attempt implements Strategy.
func (a *AnthropicStrategy) Attempt(ctx context.Context, lead model.Lead) (string, error) {
	temp := a.temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		Messages:    []anthropic.Message{{Role: "user", Content: BuildPrompt(lead, a.template)}},
		Temperature: &temp,
	})
	if err != nil {
		return "", err
	}
	resp.Usage.LogUsage(a.model, "icebreaker")
	if a.usage != nil {
		a.usage.Record(a.model, resp.Usage.InputTokens, resp.Usage.OutputTokens)
	}
	return cleaned(resp.Text(), "anthropic", lead)
}

// GeminiStrategy asks Gemini for the icebreaker directly.
type GeminiStrategy struct {
	client    gemini.Client
	model     string
	maxTokens int32
	template  string
}

// NewGeminiStrategy creates a direct strategy backed by the Gemini API.
func NewGeminiStrategy(c gemini.Client, model string, maxTokens int32, template string) *GeminiStrategy {
	return &GeminiStrategy{client: c, model: model, maxTokens: maxTokens, template: template}
}

// Name implements Strategy.
func (*GeminiStrategy) Name() string { return "gemini" }

// Attempt implements Strategy.
func (g *GeminiStrategy) Attempt(ctx context.Context, lead model.Lead) (string, error) {
	text, err := g.client.GenerateText(ctx, gemini.TextRequest{
		Model:           g.model,
		Prompt:          BuildPrompt(lead, g.template),
		MaxOutputTokens: g.maxTokens,
	})
	if err != nil {
		return "", err
	}
	return cleaned(text, "gemini", lead)
}

func cleaned(raw, provider string, lead model.Lead) (string, error) {
	text := Clean(raw)
	if text == "" {
		return "", eris.Errorf("%s: empty icebreaker", provider)
	}
	zap.L().Debug("icebreaker: generated",
		zap.String("provider", provider),
		zap.String("company", lead.CompanyName),
	)
	return text, nil
}
