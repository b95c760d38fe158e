package hubspot

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rotisserie/eris"
)

// OAuthClient performs refresh-token exchanges against the HubSpot token
// endpoint. It is deliberately separate from Client: token calls carry no
// bearer auth and are never retried (a rejected refresh is surfaced, not
// replayed).
type OAuthClient interface {
	RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error)
}

// OAuthConfig identifies the app to the token endpoint.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // defaults to the public API host
}

// oauthClient implements OAuthClient using net/http.
type oauthClient struct {
	cfg  OAuthConfig
	http *http.Client
}

// NewOAuthClient creates an OAuthClient.
func NewOAuthClient(cfg OAuthConfig) OAuthClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	return &oauthClient{
		cfg:  cfg,
		http: &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *oauthClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenResponse, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
		"refresh_token": {refreshToken},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL+"/oauth/v1/token", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: create token request")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: token exchange")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "hubspot: read token response")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	var token TokenResponse
	if err := json.Unmarshal(data, &token); err != nil {
		return nil, eris.Wrap(err, "hubspot: decode token response")
	}

	return &token, nil
}
