package model

// Lead is a validated prospect record. Leads are passed by value and are not
// modified after the normalizer yields them.
type Lead struct {
	FirstName   string `json:"first_name" validate:"required_without=LastName"`
	LastName    string `json:"last_name" validate:"required_without=FirstName"`
	Email       string `json:"email" validate:"required,contains=@"`
	CompanyName string `json:"company_name" validate:"trimmed_min=2"`
	Industry    string `json:"industry"`
	Website     string `json:"website"`
	Title       string `json:"title,omitempty"`
	LinkedIn    string `json:"linkedin,omitempty"`
}

// FullName joins first and last name with a single space.
func (l Lead) FullName() string {
	switch {
	case l.FirstName == "":
		return l.LastName
	case l.LastName == "":
		return l.FirstName
	default:
		return l.FirstName + " " + l.LastName
	}
}

// Tier is one of the three outbound campaign categories.
type Tier string

const (
	TierEnterprise   Tier = "enterprise-direct-pitch"
	TierProfessional Tier = "professional-nurture"
	TierEducational  Tier = "educational-sequence"
)

// Tiers lists every tier from highest to lowest score band.
var Tiers = []Tier{TierEnterprise, TierProfessional, TierEducational}

// Label returns a human-readable tier name for reports.
func (t Tier) Label() string {
	switch t {
	case TierEnterprise:
		return "Enterprise Direct Pitch"
	case TierProfessional:
		return "Professional Nurture"
	case TierEducational:
		return "Educational Sequence"
	default:
		return string(t)
	}
}

// IcebreakerStatus reports whether the first-choice provider produced the text.
type IcebreakerStatus string

const (
	IcebreakerSuccess  IcebreakerStatus = "success"
	IcebreakerFallback IcebreakerStatus = "fallback"
)

// IcebreakerResult is the generator output for a single lead.
type IcebreakerResult struct {
	Text     string           `json:"icebreaker"`
	Status   IcebreakerStatus `json:"status"`
	Provider string           `json:"provider"`
	Error    string           `json:"error,omitempty"`
}
