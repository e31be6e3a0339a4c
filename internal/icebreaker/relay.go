package icebreaker

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/internal/resilience"
	"github.com/sells-group/coldreach/pkg/relay"
)

const statusFallback = "fallback"

// RelayStrategy delegates generation to the external workflow relay.
type RelayStrategy struct {
	client   relay.Client
	template string
	breaker  *resilience.Breaker
}

// NewRelayStrategy creates a relay strategy. A nil breaker disables short-circuiting.
func NewRelayStrategy(c relay.Client, template string, breaker *resilience.Breaker) *RelayStrategy {
	return &RelayStrategy{client: c, template: template, breaker: breaker}
}

// Name implements Strategy.
func (*RelayStrategy) Name() string { return "relay" }

// Attempt implements Strategy.
func (r *RelayStrategy) Attempt(ctx context.Context, lead model.Lead) (string, error) {
	if r.breaker != nil {
		if err := r.breaker.Allow(); err != nil {
			return "", eris.Wrap(err, "relay: skipped")
		}
	}

	text, err := r.call(ctx, lead)
	if r.breaker != nil {
		r.breaker.Record(err)
	}
	return text, err
}

func (r *RelayStrategy) call(ctx context.Context, lead model.Lead) (string, error) {
	resp, err := r.client.Generate(ctx, relay.Request{
		CompanyName: lead.CompanyName,
		Industry:    lead.Industry,
		FirstName:   lead.FirstName,
		LastName:    lead.LastName,
		Title:       lead.Title,
		Website:     lead.Website,
		Template:    r.template,
	})
	if err != nil {
		return "", err
	}

	if resp.Status == statusFallback {
		msg := resp.Error
		if msg == "" {
			msg = "workflow returned fallback"
		}
		return "", eris.Errorf("relay: %s", msg)
	}
	text := strings.TrimSpace(resp.Icebreaker)
	if text == "" {
		return "", eris.New("relay: empty icebreaker in response")
	}
	return text, nil
}
