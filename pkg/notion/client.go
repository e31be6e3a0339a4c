// Package notion loads prospect pages from a Notion lead database.
package notion

import (
	"context"
	"net/http"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// DefaultRPS is Notion's request limit per integration.
const DefaultRPS = 3

// DefaultStatusProperty is the select property lead queries filter on.
const DefaultStatusProperty = "Status"

// maxPageSize is the largest page Notion returns per query.
const maxPageSize = 100

// Client runs database queries. Lead loading only needs this one call.
type Client interface {
	QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error)
}

// LeadQuery selects pages from a lead database.
type LeadQuery struct {
	// Status keeps pages whose status select equals it. Empty keeps all.
	Status string
	// StatusProperty names the status select. Defaults to "Status".
	StatusProperty string
	// PageSize is the page size per request, capped at 100. Zero lets
	// Notion choose.
	PageSize int
}

// Request builds the database query for q. The cursor is left for QueryAll.
func (q LeadQuery) Request() *notionapi.DatabaseQueryRequest {
	req := &notionapi.DatabaseQueryRequest{PageSize: min(max(q.PageSize, 0), maxPageSize)}
	if q.Status != "" {
		prop := q.StatusProperty
		if prop == "" {
			prop = DefaultStatusProperty
		}
		req.Filter = notionapi.PropertyFilter{
			Property: prop,
			Select:   &notionapi.SelectFilterCondition{Equals: q.Status},
		}
	}
	return req
}

// Option configures the API client.
type Option func(*apiClient)

// WithRateLimit overrides DefaultRPS. A non-positive rps disables throttling.
func WithRateLimit(rps float64) Option {
	return func(c *apiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		} else {
			c.limiter = nil
		}
	}
}

// WithHTTPClient sends API calls through hc.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *apiClient) {
		c.apiOpts = append(c.apiOpts, notionapi.WithHTTPClient(hc))
	}
}

// WithRetry sets how many times a 429 response is retried by the SDK.
func WithRetry(n int) Option {
	return func(c *apiClient) {
		c.apiOpts = append(c.apiOpts, notionapi.WithRetry(n))
	}
}

type apiClient struct {
	api     *notionapi.Client
	limiter *rate.Limiter
	apiOpts []notionapi.ClientOption
}

// NewClient creates a client for the integration token, throttled to
// DefaultRPS.
func NewClient(token string, opts ...Option) Client {
	c := &apiClient{limiter: rate.NewLimiter(DefaultRPS, 1)}
	for _, opt := range opts {
		opt(c)
	}
	c.api = notionapi.NewClient(notionapi.Token(token), c.apiOpts...)
	return c
}

func (c *apiClient) QueryDatabase(ctx context.Context, dbID string, req *notionapi.DatabaseQueryRequest) (*notionapi.DatabaseQueryResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "notion: rate limit")
		}
	}
	resp, err := c.api.Database.Query(ctx, notionapi.DatabaseID(dbID), req)
	if err != nil {
		return nil, eris.Wrapf(err, "notion: query lead database %s", dbID)
	}
	return resp, nil
}
