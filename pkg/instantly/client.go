// Package instantly provides a client for the Instantly outbound email API.
package instantly

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/internal/resilience"
)

// Client defines the Instantly operations used for dispatch and monitoring.
type Client interface {
	// AddLeads submits leads to a campaign. A non-200 response is an error.
	AddLeads(ctx context.Context, req AddLeadsRequest) error
	// ListCampaigns returns the campaigns available to the account.
	ListCampaigns(ctx context.Context) ([]Campaign, error)
	// CampaignAnalytics returns delivery counters per campaign. An empty
	// campaignID returns every campaign.
	CampaignAnalytics(ctx context.Context, campaignID string) ([]CampaignStats, error)
	// RecentReplies returns lead replies received at or after since.
	RecentReplies(ctx context.Context, since time.Time) ([]Reply, error)
}

// Lead is one lead envelope in an add request.
type Lead struct {
	Email           string          `json:"email"`
	FirstName       string          `json:"first_name"`
	LastName        string          `json:"last_name"`
	CompanyName     string          `json:"company_name"`
	Personalization string          `json:"personalization"`
	CustomVariables CustomVariables `json:"custom_variables"`
}

// CustomVariables are merge fields available to campaign templates.
type CustomVariables struct {
	Industry   string `json:"industry"`
	Website    string `json:"website"`
	Title      string `json:"title"`
	Icebreaker string `json:"icebreaker"`
}

// AddLeadsRequest is the body of POST /lead/add.
type AddLeadsRequest struct {
	CampaignID string `json:"campaign_id"`
	Leads      []Lead `json:"leads"`
	// SkipIfInWorkspace makes repeated submissions of the same email a no-op.
	SkipIfInWorkspace bool `json:"skip_if_in_workspace"`
}

// Campaign is a sending-platform campaign.
type Campaign struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Status string `json:"status,omitempty"`
}

// CampaignStats holds one campaign's delivery counters.
type CampaignStats struct {
	CampaignID   string `json:"campaign_id,omitempty"`
	Name         string `json:"name"`
	Sent         int    `json:"sent"`
	Delivered    int    `json:"delivered"`
	Opened       int    `json:"opened"`
	Clicked      int    `json:"clicked"`
	Replied      int    `json:"replied"`
	Bounced      int    `json:"bounced"`
	Unsubscribed int    `json:"unsubscribed"`
}

// Reply is an inbound reply to a campaign email.
type Reply struct {
	Email        string `json:"email"`
	CampaignName string `json:"campaign_name"`
	Content      string `json:"content"`
	Timestamp    string `json:"timestamp"`
}

// Option configures the Instantly client.
type Option func(*httpClient)

// WithBaseURL sets a custom base URL (for testing).
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// DefaultBaseURL is the production API root.
const DefaultBaseURL = "https://api.instantly.ai/api/v1"

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a new Instantly client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: DefaultBaseURL,
		http: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	return c
}

func (c *httpClient) AddLeads(ctx context.Context, body AddLeadsRequest) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "instantly: marshal add request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/lead/add", bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "instantly: create add request")
	}
	req.Header.Set("Content-Type", "application/json")

	respBody, status, err := c.do(req)
	if err != nil {
		return eris.Wrap(err, "instantly: add leads")
	}
	if status != http.StatusOK {
		return statusError("instantly: add leads", status, respBody)
	}
	return nil
}

// campaignList tolerates both a bare array and a {"data": [...]} envelope.
type campaignList struct {
	Data []Campaign `json:"data"`
}

func (c *httpClient) ListCampaigns(ctx context.Context) ([]Campaign, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/campaign/list", nil)
	if err != nil {
		return nil, eris.Wrap(err, "instantly: create list request")
	}

	body, status, err := c.do(req)
	if err != nil {
		return nil, eris.Wrap(err, "instantly: list campaigns")
	}
	if status != http.StatusOK {
		return nil, statusError("instantly: list campaigns", status, body)
	}

	var campaigns []Campaign
	if err := json.Unmarshal(body, &campaigns); err == nil {
		return campaigns, nil
	}
	var wrapped campaignList
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, eris.Wrap(err, "instantly: unmarshal campaigns")
	}
	return wrapped.Data, nil
}

type analyticsResponse struct {
	Campaigns []CampaignStats `json:"campaigns"`
}

func (c *httpClient) CampaignAnalytics(ctx context.Context, campaignID string) ([]CampaignStats, error) {
	q := url.Values{}
	if campaignID != "" {
		q.Set("campaign_id", campaignID)
	}

	var out analyticsResponse
	if err := c.getJSON(ctx, "campaign analytics", "/analytics/campaign", q, &out); err != nil {
		return nil, err
	}
	return out.Campaigns, nil
}

type repliesResponse struct {
	Replies []Reply `json:"replies"`
}

func (c *httpClient) RecentReplies(ctx context.Context, since time.Time) ([]Reply, error) {
	q := url.Values{}
	q.Set("since", strconv.FormatInt(since.Unix(), 10))

	var out repliesResponse
	if err := c.getJSON(ctx, "recent replies", "/lead/replies", q, &out); err != nil {
		return nil, err
	}
	return out.Replies, nil
}

// getJSON issues a GET against path and decodes a 200 body into dst.
func (c *httpClient) getJSON(ctx context.Context, op, path string, q url.Values, dst any) error {
	u := c.baseURL + path
	if len(q) > 0 {
		u += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return eris.Wrapf(err, "instantly: create %s request", op)
	}

	body, status, err := c.do(req)
	if err != nil {
		return eris.Wrapf(err, "instantly: %s", op)
	}
	if status != http.StatusOK {
		return statusError("instantly: "+op, status, body)
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return eris.Wrapf(err, "instantly: unmarshal %s", op)
	}
	return nil
}

func (c *httpClient) do(req *http.Request) ([]byte, int, error) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, eris.Wrap(err, "read response body")
	}
	return body, resp.StatusCode, nil
}

// StatusError is returned when the platform answers with a non-200 status.
type StatusError struct {
	Op     string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Op, e.Status, truncate(e.Body, 200))
}

// statusError tags retry-worthy statuses as transient.
func statusError(op string, status int, body []byte) error {
	err := &StatusError{Op: op, Status: status, Body: string(body)}
	if resilience.IsTransientHTTPStatus(status) {
		return resilience.NewTransientError(err, status)
	}
	return err
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}
