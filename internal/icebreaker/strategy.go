// Package icebreaker generates the personalization line for each lead by
// walking an ordered chain of strategies that ends in a static template.
package icebreaker

import (
	"context"
	"strings"

	"github.com/sells-group/coldreach/internal/model"
)

// Strategy produces icebreaker text for a lead or reports why it could not.
type Strategy interface {
	Name() string
	Attempt(ctx context.Context, lead model.Lead) (string, error)
}

// TemplateStrategy formats the fallback template. It never fails.
type TemplateStrategy struct {
	Template string
}

// Name implements Strategy.
func (TemplateStrategy) Name() string { return "template" }

// Attempt implements Strategy.
func (t TemplateStrategy) Attempt(_ context.Context, lead model.Lead) (string, error) {
	return t.Format(lead), nil
}

// Format substitutes {company_name}, {industry} and {first_name}. An empty
// industry renders as "business".
func (t TemplateStrategy) Format(lead model.Lead) string {
	industry := lead.Industry
	if industry == "" {
		industry = "business"
	}
	r := strings.NewReplacer(
		"{company_name}", lead.CompanyName,
		"{industry}", industry,
		"{first_name}", lead.FirstName,
	)
	return r.Replace(t.Template)
}
