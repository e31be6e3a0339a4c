package icebreaker

import (
	"context"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/coldreach/internal/model"
)

// BatchOptions bounds GenerateBatch fan-out.
type BatchOptions struct {
	// Concurrency caps in-flight generations. Defaults to 5.
	Concurrency int
	// RPS caps generation starts per second. Zero means unlimited.
	RPS float64
}

// GenerateBatch generates icebreakers for leads concurrently. Results are
// indexed by input position. Each lead degrades through the chain on its
// own; a cancelled context yields template results for leads not yet started.
func (g *Generator) GenerateBatch(ctx context.Context, leads []model.Lead, opts BatchOptions) []model.IcebreakerResult {
	concurrency := opts.Concurrency
	if concurrency <= 0 {
		concurrency = 5
	}

	var limiter *rate.Limiter
	if opts.RPS > 0 {
		burst := max(int(opts.RPS), 1)
		limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}

	zap.L().Info("generating icebreakers",
		zap.Int("leads", len(leads)),
		zap.Int("concurrency", concurrency),
	)

	results := make([]model.IcebreakerResult, len(leads))
	var eg errgroup.Group
	eg.SetLimit(concurrency)

	for i, lead := range leads {
		eg.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results[i] = g.fallbackResult(lead, err)
					return nil
				}
			}
			if err := ctx.Err(); err != nil {
				results[i] = g.fallbackResult(lead, err)
				return nil
			}
			results[i] = g.Generate(ctx, lead)
			return nil
		})
	}
	_ = eg.Wait()

	return results
}

func (g *Generator) fallbackResult(lead model.Lead, err error) model.IcebreakerResult {
	return model.IcebreakerResult{
		Text:     g.fallback.Format(lead),
		Provider: g.fallback.Name(),
		Status:   model.IcebreakerFallback,
		Error:    err.Error(),
	}
}
