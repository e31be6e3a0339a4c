package store

import (
	"github.com/sells-group/coldreach/internal/model"
)

const dispatchColumns = `id, run_id, email, company_name, tier, campaign_id, score, ` +
	`icebreaker_provider, icebreaker_status, status, reason, error_class, error, created_at`

type scannable interface {
	Scan(dest ...any) error
}

func scanDispatch(row scannable) (model.DispatchRecord, error) {
	var (
		r                    model.DispatchRecord
		tier, status, reason string
	)
	err := row.Scan(&r.ID, &r.RunID, &r.Email, &r.CompanyName, &tier, &r.CampaignID, &r.Score,
		&r.IcebreakerProvider, &r.IcebreakerStatus, &status, &reason, &r.ErrorClass, &r.Error, &r.CreatedAt)
	if err != nil {
		return model.DispatchRecord{}, err
	}
	r.Tier = model.Tier(tier)
	r.Status = model.DispatchStatus(status)
	r.Reason = model.FailureReason(reason)
	return r, nil
}
