package model

import "time"

// FailureReason tags why a lead was counted as failed.
type FailureReason string

const (
	FailureNone             FailureReason = ""
	FailureGenerate         FailureReason = "generate"
	FailureDispatchRejected FailureReason = "dispatch_rejected"
	FailureDispatchError    FailureReason = "dispatch_error"
)

// LeadOutcome is the result of running one lead through the pipeline.
type LeadOutcome struct {
	Lead       Lead             `json:"lead"`
	Score      int              `json:"score"`
	Tier       Tier             `json:"tier"`
	CampaignID string           `json:"campaign_id"`
	Icebreaker IcebreakerResult `json:"icebreaker"`
	Dispatched bool             `json:"dispatched"`
	Reason     FailureReason    `json:"reason,omitempty"`
	ErrorClass string           `json:"error_class,omitempty"`
	Error      string           `json:"error,omitempty"`
}

// Failed reports whether the outcome counts against the run.
func (o LeadOutcome) Failed() bool {
	return !o.Dispatched
}

// RunStatistics accumulates counters for a single processing run.
type RunStatistics struct {
	TotalProcessed int          `json:"total_processed"`
	Successful     int          `json:"successful"`
	Failed         int          `json:"failed"`
	Distribution   map[Tier]int `json:"campaign_distribution"`
}

// NewRunStatistics returns statistics with every tier present at zero.
func NewRunStatistics() RunStatistics {
	dist := make(map[Tier]int, len(Tiers))
	for _, t := range Tiers {
		dist[t] = 0
	}
	return RunStatistics{Distribution: dist}
}

// Record folds one outcome into the counters.
func (s *RunStatistics) Record(o LeadOutcome) {
	s.TotalProcessed++
	if o.Failed() {
		s.Failed++
		return
	}
	s.Successful++
	s.Distribution[o.Tier]++
}

// SuccessRate returns successful/total as a percentage, or 0 for an empty run.
func (s RunStatistics) SuccessRate() float64 {
	if s.TotalProcessed == 0 {
		return 0
	}
	return float64(s.Successful) / float64(s.TotalProcessed) * 100
}

// DispatchStatus is the persisted state of a ledger entry.
type DispatchStatus string

const (
	DispatchStatusSent   DispatchStatus = "sent"
	DispatchStatusFailed DispatchStatus = "failed"
)

// DispatchRecord is a ledger entry describing one lead outcome within a run.
type DispatchRecord struct {
	ID                 string         `json:"id"`
	RunID              string         `json:"run_id"`
	Email              string         `json:"email"`
	CompanyName        string         `json:"company_name"`
	Tier               Tier           `json:"tier"`
	CampaignID         string         `json:"campaign_id"`
	Score              int            `json:"score"`
	IcebreakerProvider string         `json:"icebreaker_provider"`
	IcebreakerStatus   string         `json:"icebreaker_status"`
	Status             DispatchStatus `json:"status"`
	Reason             FailureReason  `json:"reason,omitempty"`
	ErrorClass         string         `json:"error_class,omitempty"`
	Error              string         `json:"error,omitempty"`
	CreatedAt          time.Time      `json:"created_at"`
}

// NewDispatchRecord converts an outcome into a ledger entry.
func NewDispatchRecord(runID string, o LeadOutcome, at time.Time) DispatchRecord {
	status := DispatchStatusSent
	if o.Failed() {
		status = DispatchStatusFailed
	}
	return DispatchRecord{
		RunID:              runID,
		Email:              o.Lead.Email,
		CompanyName:        o.Lead.CompanyName,
		Tier:               o.Tier,
		CampaignID:         o.CampaignID,
		Score:              o.Score,
		IcebreakerProvider: o.Icebreaker.Provider,
		IcebreakerStatus:   string(o.Icebreaker.Status),
		Status:             status,
		Reason:             o.Reason,
		ErrorClass:         o.ErrorClass,
		Error:              o.Error,
		CreatedAt:          at,
	}
}
