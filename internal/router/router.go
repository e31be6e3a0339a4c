// Package router assigns scored leads to campaign tiers.
package router

import "github.com/sells-group/coldreach/internal/model"

// Score thresholds. Fixed business policy.
const (
	EnterpriseThreshold   = 80
	ProfessionalThreshold = 60
)

// Route maps a score to its tier.
func Route(score int) model.Tier {
	switch {
	case score >= EnterpriseThreshold:
		return model.TierEnterprise
	case score >= ProfessionalThreshold:
		return model.TierProfessional
	default:
		return model.TierEducational
	}
}

// Campaigns resolves tiers to sending-platform campaign IDs.
type Campaigns struct {
	ids map[model.Tier]string
}

// NewCampaigns builds a resolver from a tier-name to campaign-ID map.
func NewCampaigns(byTier map[string]string) *Campaigns {
	ids := make(map[model.Tier]string, len(byTier))
	for k, v := range byTier {
		if v != "" {
			ids[model.Tier(k)] = v
		}
	}
	return &Campaigns{ids: ids}
}

// ID returns the campaign ID for tier, or the tier name when none is configured.
func (c *Campaigns) ID(tier model.Tier) string {
	if c != nil {
		if id, ok := c.ids[tier]; ok {
			return id
		}
	}
	return string(tier)
}
