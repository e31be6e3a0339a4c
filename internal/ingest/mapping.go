package ingest

import (
	"strings"

	"github.com/rotisserie/eris"
	"golang.org/x/text/cases"

	"github.com/sells-group/coldreach/internal/config"
)

// ColumnMapping names the source column for each canonical lead field.
// An empty field means the column is unmapped.
type ColumnMapping struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
	Title       string `json:"title"`
	LinkedIn    string `json:"linkedin"`
}

type fieldSpec struct {
	name    string
	aliases []string
	col     func(*ColumnMapping) *string
}

// leadFields lists canonical fields with their header aliases, in priority order.
var leadFields = []fieldSpec{
	{"first_name", []string{"first_name", "first name", "firstname", "fname", "given_name"}, func(m *ColumnMapping) *string { return &m.FirstName }},
	{"last_name", []string{"last_name", "last name", "lastname", "lname", "family_name", "surname"}, func(m *ColumnMapping) *string { return &m.LastName }},
	{"email", []string{"email", "email_address", "email address", "e_mail", "mail"}, func(m *ColumnMapping) *string { return &m.Email }},
	{"company_name", []string{"company_name", "company name", "company", "organization", "org"}, func(m *ColumnMapping) *string { return &m.CompanyName }},
	{"industry", []string{"industry", "sector", "vertical", "business_type"}, func(m *ColumnMapping) *string { return &m.Industry }},
	{"website", []string{"website", "website_url", "web_site", "url", "domain", "company_url"}, func(m *ColumnMapping) *string { return &m.Website }},
	{"title", []string{"title", "job_title", "position", "role", "job title"}, func(m *ColumnMapping) *string { return &m.Title }},
	{"linkedin", []string{"linkedin", "linkedin_url", "linkedin profile", "li_profile"}, func(m *ColumnMapping) *string { return &m.LinkedIn }},
}

// headerKey folds a header for case-insensitive comparison.
func headerKey(h string) string {
	h = strings.TrimPrefix(h, "\ufeff")
	return cases.Fold().String(strings.TrimSpace(h))
}

// headerIndex maps folded header names to their first column position.
func headerIndex(headers []string) map[string]int {
	idx := make(map[string]int, len(headers))
	for i, h := range headers {
		k := headerKey(h)
		if _, ok := idx[k]; !ok {
			idx[k] = i
		}
	}
	return idx
}

// DetectMapping matches headers against each field's alias list. The first
// alias present in the header wins; fields with no match stay empty.
func DetectMapping(headers []string) ColumnMapping {
	idx := headerIndex(headers)
	var m ColumnMapping
	for _, f := range leadFields {
		for _, alias := range f.aliases {
			if i, ok := idx[headerKey(alias)]; ok {
				*f.col(&m) = headers[i]
				break
			}
		}
	}
	return m
}

// ResolveMapping merges detected over defaults field by field.
func ResolveMapping(detected, defaults ColumnMapping) ColumnMapping {
	out := detected
	for _, f := range leadFields {
		if *f.col(&out) == "" {
			*f.col(&out) = *f.col(&defaults)
		}
	}
	return out
}

// IdentityMapping maps every field to a column of the same name.
func IdentityMapping() ColumnMapping {
	var m ColumnMapping
	for _, f := range leadFields {
		*f.col(&m) = f.name
	}
	return m
}

// DefaultMapping returns the configured default mapping for a profile.
func DefaultMapping(cfg config.IngestConfig) (ColumnMapping, error) {
	switch cfg.Profile {
	case "", "default":
		return IdentityMapping(), nil
	case "apollo":
		p := cfg.Apollo
		return ResolveMapping(ColumnMapping{
			FirstName:   p.FirstName,
			LastName:    p.LastName,
			Email:       p.Email,
			CompanyName: p.CompanyName,
			Industry:    p.Industry,
			Website:     p.Website,
			Title:       p.Title,
			LinkedIn:    p.LinkedIn,
		}, IdentityMapping()), nil
	default:
		return ColumnMapping{}, eris.Errorf("ingest: unknown profile %q (want default or apollo)", cfg.Profile)
	}
}

// columns resolves each mapped field to a header position, -1 when the column
// is absent from the header.
type columns []int

func (m ColumnMapping) bind(headers []string) columns {
	idx := headerIndex(headers)
	c := make(columns, len(leadFields))
	for i, f := range leadFields {
		c[i] = -1
		if name := *f.col(&m); name != "" {
			if pos, ok := idx[headerKey(name)]; ok {
				c[i] = pos
			}
		}
	}
	return c
}

// Unmapped lists canonical fields whose column is absent from headers.
func (m ColumnMapping) Unmapped(headers []string) []string {
	var out []string
	for i, pos := range m.bind(headers) {
		if pos < 0 {
			out = append(out, leadFields[i].name)
		}
	}
	return out
}
