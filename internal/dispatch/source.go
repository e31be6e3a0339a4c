package dispatch

import (
	"context"

	"github.com/sells-group/coldreach/internal/model"
)

// SliceSource is a LeadSource over an in-memory slice.
type SliceSource struct {
	leads []model.Lead
	pos   int
	err   error
}

// NewSliceSource returns a source yielding leads in order.
func NewSliceSource(leads []model.Lead) *SliceSource {
	return &SliceSource{leads: leads}
}

// Next implements LeadSource.
func (s *SliceSource) Next(ctx context.Context) bool {
	if err := ctx.Err(); err != nil {
		s.err = err
		return false
	}
	if s.pos >= len(s.leads) {
		return false
	}
	s.pos++
	return true
}

// Lead implements LeadSource.
func (s *SliceSource) Lead() model.Lead { return s.leads[s.pos-1] }

// Err implements LeadSource.
func (s *SliceSource) Err() error { return s.err }

// Drain reads every remaining lead from src.
func Drain(ctx context.Context, src LeadSource) ([]model.Lead, error) {
	var leads []model.Lead
	for src.Next(ctx) {
		leads = append(leads, src.Lead())
	}
	return leads, src.Err()
}

// Precomputed serves icebreakers generated ahead of the dispatch loop, keyed
// by email, and defers to next for leads it has not seen.
type Precomputed struct {
	byEmail map[string]model.IcebreakerResult
	next    Generator
}

// NewPrecomputed pairs leads with results by position.
func NewPrecomputed(leads []model.Lead, results []model.IcebreakerResult, next Generator) *Precomputed {
	m := make(map[string]model.IcebreakerResult, len(leads))
	for i, l := range leads {
		if i < len(results) {
			m[l.Email] = results[i]
		}
	}
	return &Precomputed{byEmail: m, next: next}
}

// Generate implements Generator.
func (p *Precomputed) Generate(ctx context.Context, lead model.Lead) model.IcebreakerResult {
	if r, ok := p.byEmail[lead.Email]; ok {
		return r
	}
	return p.next.Generate(ctx, lead)
}
