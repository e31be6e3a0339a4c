// Package scorer computes a deterministic 0-100 fit score for a lead.
package scorer

import (
	"strings"

	"github.com/sells-group/coldreach/internal/model"
)

// MaxScore is the clamp ceiling.
const MaxScore = 100

// Match records one rule that contributed points.
type Match struct {
	Rule    string `json:"rule"`
	Points  int    `json:"points"`
	Keyword string `json:"keyword,omitempty"`
}

type rule struct {
	name     string
	points   int
	field    func(model.Lead) string
	keywords []string
	// match overrides keyword matching when set.
	match func(string) bool
}

var rules = []rule{
	{
		name:     "company_keyword",
		points:   25,
		field:    func(l model.Lead) string { return l.CompanyName },
		keywords: []string{"agency", "consulting", "services"},
	},
	{
		name:     "industry_keyword",
		points:   30,
		field:    func(l model.Lead) string { return l.Industry },
		keywords: []string{"marketing", "consulting", "agency", "services", "legal", "accounting"},
	},
	{
		name:     "decision_maker_title",
		points:   25,
		field:    func(l model.Lead) string { return l.Title },
		keywords: []string{"owner", "ceo", "president", "founder", "director", "vp"},
	},
	{
		name:   "website_present",
		points: 10,
		field:  func(l model.Lead) string { return l.Website },
		match:  func(s string) bool { return s != "" && strings.Contains(s, "http") },
	},
	{
		name:   "linkedin_present",
		points: 10,
		field:  func(l model.Lead) string { return l.LinkedIn },
		match:  func(s string) bool { return s != "" },
	},
}

// Score sums every matching rule and clamps the total to MaxScore.
func Score(l model.Lead) int {
	total := 0
	for _, m := range Breakdown(l) {
		total += m.Points
	}
	return min(total, MaxScore)
}

// Breakdown returns the rules that matched, in rule order. Points are not
// clamped.
func Breakdown(l model.Lead) []Match {
	var out []Match
	for _, r := range rules {
		value := strings.ToLower(r.field(l))
		if r.match != nil {
			if r.match(value) {
				out = append(out, Match{Rule: r.name, Points: r.points})
			}
			continue
		}
		if kw, ok := firstContained(value, r.keywords); ok {
			out = append(out, Match{Rule: r.name, Points: r.points, Keyword: kw})
		}
	}
	return out
}

// firstContained returns the first keyword found in s.
func firstContained(s string, keywords []string) (string, bool) {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return kw, true
		}
	}
	return "", false
}
