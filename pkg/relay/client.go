// Package relay calls an external workflow endpoint that proxies icebreaker
// generation.
package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/coldreach/internal/resilience"
)

// Client generates icebreakers through the relay.
type Client interface {
	Generate(ctx context.Context, req Request) (*Response, error)
}

// Request is the JSON body posted to the relay.
type Request struct {
	CompanyName string `json:"company_name"`
	Industry    string `json:"industry"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Title       string `json:"title"`
	Website     string `json:"website"`
	Template    string `json:"template,omitempty"`
}

// Response is the relay's JSON reply.
type Response struct {
	Icebreaker  string `json:"icebreaker"`
	Status      string `json:"status"`
	Provider    string `json:"provider"`
	Error       string `json:"error,omitempty"`
	GeneratedAt string `json:"generated_at,omitempty"`
}

// Option configures the relay client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *httpClient) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

type httpClient struct {
	url  string
	http *http.Client
}

// NewClient creates a relay client posting to url.
func NewClient(url string, opts ...Option) Client {
	c := &httpClient{
		url:  url,
		http: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Generate posts req and returns the parsed reply. Non-200 statuses, transport
// failures and unparseable bodies are all errors.
func (c *httpClient) Generate(ctx context.Context, r Request) (*Response, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, eris.Wrap(err, "relay: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "relay: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "relay: request failed")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "relay: read response body")
	}

	if resp.StatusCode != http.StatusOK {
		statusErr := eris.Errorf("relay: unexpected status %d", resp.StatusCode)
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(statusErr, resp.StatusCode)
		}
		return nil, statusErr
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, eris.Wrap(err, "relay: unmarshal response")
	}
	return &out, nil
}
