package icebreaker

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/config"
	"github.com/sells-group/coldreach/internal/resilience"
	"github.com/sells-group/coldreach/pkg/anthropic"
	"github.com/sells-group/coldreach/pkg/gemini"
	"github.com/sells-group/coldreach/pkg/relay"
)

// Backends holds the vendor clients a chain may use. Nil entries are skipped.
type Backends struct {
	Relay     relay.Client
	Anthropic anthropic.Client
	Gemini    gemini.Client

	// Usage, when set, receives token usage of direct Anthropic calls.
	Usage UsageRecorder
}

// NewBackends constructs the vendor clients that have credentials in cfg.
func NewBackends(ctx context.Context, cfg *config.Config) (Backends, error) {
	var b Backends
	if cfg.Icebreaker.RelayURL != "" {
		timeout := time.Duration(cfg.Icebreaker.RelayTimeoutSecs) * time.Second
		b.Relay = relay.NewClient(cfg.Icebreaker.RelayURL, relay.WithTimeout(timeout))
	}
	if cfg.Anthropic.Key != "" {
		b.Anthropic = anthropic.NewClient(cfg.Anthropic.Key)
	}
	if cfg.Gemini.Key != "" {
		gc, err := gemini.NewClient(ctx, gemini.Config{APIKey: cfg.Gemini.Key})
		if err != nil {
			return Backends{}, eris.Wrap(err, "icebreaker: gemini backend")
		}
		b.Gemini = gc
	}
	return b, nil
}

// Build assembles the generator for the configured provider. The provider is
// fixed for the lifetime of the returned generator.
func Build(cfg *config.Config, b Backends) *Generator {
	ic := cfg.Icebreaker
	var chain []Strategy

	if ic.Enabled {
		switch ic.Provider {
		case "relay":
			if b.Relay != nil {
				breaker := resilience.NewBreaker(resilience.NewBreakerConfig(ic.RelayBreakerThreshold, ic.RelayBreakerResetSecs))
				chain = append(chain, NewRelayStrategy(b.Relay, ic.Template, breaker))
			}
			if d := directStrategy(cfg, b); d != nil {
				chain = append(chain, d)
			}
		case "direct":
			if d := directStrategy(cfg, b); d != nil {
				chain = append(chain, d)
			}
		}
	}

	g := NewGenerator(ic.FallbackTemplate, chain...)
	zap.L().Info("icebreaker chain configured",
		zap.Bool("enabled", ic.Enabled),
		zap.String("provider", ic.Provider),
		zap.Strings("chain", g.Providers()),
	)
	return g
}

func directStrategy(cfg *config.Config, b Backends) Strategy {
	switch cfg.Icebreaker.DirectBackend {
	case "gemini":
		if b.Gemini == nil {
			return nil
		}
		return NewGeminiStrategy(b.Gemini, cfg.Gemini.Model, int32(cfg.Anthropic.MaxTokens), cfg.Icebreaker.Template)
	default:
		if b.Anthropic == nil {
			return nil
		}
		s := NewAnthropicStrategy(b.Anthropic, cfg.Anthropic.Model, cfg.Anthropic.MaxTokens,
			cfg.Anthropic.Temperature, cfg.Icebreaker.Template)
		if b.Usage != nil {
			s.WithUsage(b.Usage)
		}
		return s
	}
}
