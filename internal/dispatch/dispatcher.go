// Package dispatch runs leads through generation, scoring and routing and
// submits them to the sending platform in paced, sequential batches.
package dispatch

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/coldreach/internal/model"
	"github.com/sells-group/coldreach/pkg/instantly"
)

// Submission is one lead ready for the sending platform.
type Submission struct {
	Lead       model.Lead
	Icebreaker string
	CampaignID string
}

// Dispatcher submits leads to the sending platform.
type Dispatcher interface {
	Dispatch(ctx context.Context, s Submission) error
	ListCampaigns(ctx context.Context) ([]instantly.Campaign, error)
}

// InstantlyDispatcher submits leads through the Instantly API.
type InstantlyDispatcher struct {
	client instantly.Client
}

// NewInstantlyDispatcher wraps an Instantly client.
func NewInstantlyDispatcher(c instantly.Client) *InstantlyDispatcher {
	return &InstantlyDispatcher{client: c}
}

// Dispatch implements Dispatcher. Repeat submissions of the same email are
// skipped platform-side.
func (d *InstantlyDispatcher) Dispatch(ctx context.Context, s Submission) error {
	l := s.Lead
	err := d.client.AddLeads(ctx, instantly.AddLeadsRequest{
		CampaignID:        s.CampaignID,
		SkipIfInWorkspace: true,
		Leads: []instantly.Lead{{
			Email:           l.Email,
			FirstName:       l.FirstName,
			LastName:        l.LastName,
			CompanyName:     l.CompanyName,
			Personalization: s.Icebreaker,
			CustomVariables: instantly.CustomVariables{
				Industry:   l.Industry,
				Website:    l.Website,
				Title:      l.Title,
				Icebreaker: s.Icebreaker,
			},
		}},
	})
	if err != nil {
		return eris.Wrapf(err, "dispatch: add %s", l.Email)
	}
	return nil
}

// ListCampaigns implements Dispatcher.
func (d *InstantlyDispatcher) ListCampaigns(ctx context.Context) ([]instantly.Campaign, error) {
	return d.client.ListCampaigns(ctx)
}

// NoopDispatcher accepts every lead without network calls. Used for dry runs.
type NoopDispatcher struct{}

// Dispatch implements Dispatcher.
func (NoopDispatcher) Dispatch(_ context.Context, s Submission) error {
	zap.L().Debug("dry run: lead accepted",
		zap.String("email", s.Lead.Email),
		zap.String("campaign", s.CampaignID),
	)
	return nil
}

// ListCampaigns implements Dispatcher.
func (NoopDispatcher) ListCampaigns(context.Context) ([]instantly.Campaign, error) {
	return nil, nil
}
