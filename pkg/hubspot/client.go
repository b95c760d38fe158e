// Package hubspot provides read-only REST access to the HubSpot CRM API.
package hubspot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/dealbot/internal/resilience"
)

// Default base URL for the HubSpot API.
const defaultBaseURL = "https://api.hubapi.com"

// TokenSource supplies a bearer token for each request. The credential
// cache implements this; tests use StaticTokenSource.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
}

// StaticTokenSource is a TokenSource returning a fixed token.
type StaticTokenSource string

// Token implements TokenSource.
func (s StaticTokenSource) Token(context.Context) (string, error) {
	return string(s), nil
}

// Client defines the HubSpot CRM operations used by the orchestrator.
type Client interface {
	SearchDeals(ctx context.Context, req SearchRequest) ([]Object, error)
	Associations(ctx context.Context, fromType, objectID, toType string) ([]string, error)
	BatchRead(ctx context.Context, objectType string, ids []string, properties []string) ([]Object, error)
	Owner(ctx context.Context, ownerID string) (*Owner, error)
}

// APIError is returned when HubSpot responds with a non-2xx status.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("hubspot: HTTP %d: %s", e.StatusCode, e.Body)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for API calls.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// WithRetry overrides the retry configuration for read calls.
func WithRetry(cfg resilience.RetryConfig) Option {
	return func(c *httpClient) {
		c.retry = cfg
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	tokens  TokenSource
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	retry   resilience.RetryConfig
}

// NewClient creates a new HubSpot client. All reads are retried on
// transient upstream failures and throttled by the rate limiter.
func NewClient(tokens TokenSource, opts ...Option) Client {
	c := &httpClient{
		tokens:  tokens,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		retry: resilience.DefaultRetryConfig(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.retry.OnRetry == nil {
		c.retry.OnRetry = resilience.RetryLogger("hubspot", "request")
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) post(ctx context.Context, path string, body any, out any) error {
	buf, err := json.Marshal(body)
	if err != nil {
		return eris.Wrap(err, "marshal request")
	}

	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
		if reqErr != nil {
			return eris.Wrap(reqErr, "create request")
		}
		req.Header.Set("Content-Type", "application/json")
		return c.do(ctx, req, out)
	})
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	return resilience.Do(ctx, c.retry, func(ctx context.Context) error {
		req, reqErr := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
		if reqErr != nil {
			return eris.Wrap(reqErr, "create request")
		}
		return c.do(ctx, req, out)
	})
}

func (c *httpClient) do(ctx context.Context, req *http.Request, out any) error {
	if err := c.wait(ctx); err != nil {
		return eris.Wrap(err, "rate limit")
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return eris.Wrap(err, "resolve token")
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: string(data)}
		if resilience.RetryableStatus(resp.StatusCode) {
			return resilience.NewUpstreamError(apiErr, resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return eris.Wrap(err, "decode response")
		}
	}

	return nil
}
