package icebreaker

import (
	"context"

	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/model"
)

// Generator walks its strategies in order and falls back to the template.
type Generator struct {
	chain    []Strategy
	fallback TemplateStrategy
}

// NewGenerator creates a generator over chain. The template strategy is
// always appended as the terminal step.
func NewGenerator(fallbackTemplate string, chain ...Strategy) *Generator {
	return &Generator{chain: chain, fallback: TemplateStrategy{Template: fallbackTemplate}}
}

// Providers returns the configured strategy names, terminal template included.
func (g *Generator) Providers() []string {
	names := make([]string, 0, len(g.chain)+1)
	for _, s := range g.chain {
		names = append(names, s.Name())
	}
	return append(names, g.fallback.Name())
}

// Generate returns an icebreaker for lead. It never fails: status is success
// only when the first strategy produced the text, and Error carries the first
// failure seen along the chain.
func (g *Generator) Generate(ctx context.Context, lead model.Lead) model.IcebreakerResult {
	var firstErr error
	for i, s := range g.chain {
		text, err := s.Attempt(ctx, lead)
		if err == nil {
			res := model.IcebreakerResult{Text: text, Provider: s.Name(), Status: model.IcebreakerSuccess}
			if i > 0 {
				res.Status = model.IcebreakerFallback
				res.Error = firstErr.Error()
			}
			return res
		}

		zap.L().Warn("icebreaker: strategy failed",
			zap.String("provider", s.Name()),
			zap.String("company", lead.CompanyName),
			zap.Error(err),
		)
		if firstErr == nil {
			firstErr = err
		}
	}

	res := model.IcebreakerResult{
		Text:     g.fallback.Format(lead),
		Provider: g.fallback.Name(),
		Status:   model.IcebreakerFallback,
	}
	if firstErr != nil {
		res.Error = firstErr.Error()
	}
	return res
}
