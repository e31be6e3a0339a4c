package icebreaker

import (
	"fmt"
	"strings"

	"github.com/sells-group/coldreach/internal/model"
)

const promptFormat = `You're an expert at writing personalized cold email icebreakers that convert.

Write a 1-2 sentence icebreaker for this prospect:
- Company: %s
- Industry: %s
- Contact: %s
- Title: %s
- Website: %s

The icebreaker should:
1. Sound like I've been casually following their company
2. Mention something specific about their business (not generic)
3. Be conversational and genuine (not corporate or salesy)
4. Focus on their expertise or business approach
5. Be under 25 words total
6. Follow this format: "%s"

Generate ONLY the icebreaker text - no quotes, no explanations, just the personalized line.`

// BuildPrompt renders the direct-AI prompt for a lead.
func BuildPrompt(lead model.Lead, template string) string {
	return fmt.Sprintf(promptFormat,
		lead.CompanyName,
		lead.Industry,
		strings.TrimSpace(lead.FirstName+" "+lead.LastName),
		lead.Title,
		lead.Website,
		template,
	)
}

// Clean trims model output, strips wrapping quote characters and removes a
// single trailing period.
func Clean(text string) string {
	text = strings.TrimSpace(text)
	text = strings.Trim(text, `"'`)
	text = strings.TrimSpace(text)
	return strings.TrimSuffix(text, ".")
}
