// Package gemini wraps the Google Gemini API for short text completions.
package gemini

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"

	"github.com/sells-group/coldreach/internal/resilience"
)

// Client generates text from a single prompt.
type Client interface {
	GenerateText(ctx context.Context, req TextRequest) (string, error)
}

// TextRequest is a single-turn generation request.
type TextRequest struct {
	Model           string
	Prompt          string
	MaxOutputTokens int32
	Temperature     *float32
}

// Config holds connection settings.
type Config struct {
	APIKey string
	// BaseURL overrides the Gemini API base URL. Useful for proxies/testing.
	BaseURL string
}

type sdkClient struct {
	client *genai.Client
}

// NewClient creates a Gemini API client.
func NewClient(ctx context.Context, cfg Config) (Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, eris.New("gemini: api key is required")
	}

	cc := &genai.ClientConfig{
		APIKey:  strings.TrimSpace(cfg.APIKey),
		Backend: genai.BackendGeminiAPI,
	}
	if strings.TrimSpace(cfg.BaseURL) != "" {
		cc.HTTPOptions.BaseURL = strings.TrimSpace(cfg.BaseURL)
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, eris.Wrap(err, "gemini: create client")
	}
	return &sdkClient{client: client}, nil
}

func (c *sdkClient) GenerateText(ctx context.Context, req TextRequest) (string, error) {
	gc := &genai.GenerateContentConfig{
		CandidateCount:  1,
		MaxOutputTokens: req.MaxOutputTokens,
		Temperature:     req.Temperature,
	}

	resp, err := c.client.Models.GenerateContent(ctx, req.Model, genai.Text(req.Prompt), gc)
	if err != nil {
		return "", classifyErr(eris.Wrap(err, "gemini: generate content"))
	}
	return resp.Text(), nil
}

// classifyErr marks rate-limit and server errors as transient.
func classifyErr(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) && (apiErr.Code == 429 || apiErr.Code/100 == 5) {
		return resilience.NewTransientError(err, apiErr.Code)
	}
	return err
}
