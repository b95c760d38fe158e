package auth

import (
	"context"
	"errors"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/sells-group/dealbot/internal/kvstore"
	"github.com/sells-group/dealbot/pkg/hubspot"
)

// ErrNotConnected means no refresh credential has ever been stored for the
// service. Operator action (the connect command) is required; the call is
// not retried.
var ErrNotConnected = eris.New("auth: service not connected")

// ErrRefreshFailed means the upstream rejected the refresh exchange. It is
// surfaced after a single attempt, never auto-retried.
var ErrRefreshFailed = eris.New("auth: token refresh failed")

// Manager is the credential cache: it returns a valid access token,
// refreshing ahead of expiry. Concurrent callers observing an expired
// credential share one refresh via a single-flight group; waiters re-check
// validity before trusting the published result.
//
// Manager implements hubspot.TokenSource.
type Manager struct {
	store  *CredentialStore
	oauth  hubspot.OAuthClient
	buffer time.Duration

	// fallback is an env-provided static token used only when the KV store
	// is unreachable.
	fallback string

	flight singleflight.Group

	// now is swappable so tests can control expiry.
	now func() time.Time
}

// NewManager creates a credential Manager. buffer is the safety margin
// before actual expiry at which a refresh is triggered.
func NewManager(store *CredentialStore, oauth hubspot.OAuthClient, buffer time.Duration, fallback string) *Manager {
	return &Manager{
		store:    store,
		oauth:    oauth,
		buffer:   buffer,
		fallback: fallback,
		now:      time.Now,
	}
}

// Token returns a usable access token, refreshing if the cached one expires
// within the buffer. Fails with ErrNotConnected if no credential was ever
// stored and ErrRefreshFailed if the upstream rejects the refresh.
func (m *Manager) Token(ctx context.Context) (string, error) {
	cred, err := m.store.Load(ctx)
	if err != nil {
		if errors.Is(err, kvstore.ErrUnavailable) && m.fallback != "" {
			zap.L().Warn("auth: credential store unavailable, using static token")
			return m.fallback, nil
		}
		return "", err
	}

	if m.usable(cred) {
		return cred.AccessToken, nil
	}

	return m.refresh(ctx)
}

// usable reports whether the credential's access token is still valid,
// respecting the refresh buffer.
func (m *Manager) usable(cred *Credential) bool {
	if cred.AccessToken == "" {
		return false
	}
	return m.now().UnixMilli() < cred.ExpiresAtMs-m.buffer.Milliseconds()
}

// refresh performs the refresh exchange under a single-flight guard keyed
// by the service, so concurrent expired observers issue one upstream call.
func (m *Manager) refresh(ctx context.Context) (string, error) {
	token, err, _ := m.flight.Do(m.store.service, func() (any, error) {
		// Re-check after winning the flight: a previous flight may have
		// refreshed while this caller was queued.
		cred, err := m.store.Load(ctx)
		if err != nil {
			return nil, err
		}
		if m.usable(cred) {
			return cred.AccessToken, nil
		}

		resp, err := m.oauth.RefreshToken(ctx, cred.RefreshToken)
		if err != nil {
			return nil, eris.Wrap(ErrRefreshFailed, err.Error())
		}

		next := &Credential{
			AccessToken:  resp.AccessToken,
			RefreshToken: cred.RefreshToken,
			ExpiresAtMs:  m.now().UnixMilli() + resp.ExpiresIn*1000,
		}
		if resp.RefreshToken != "" {
			next.RefreshToken = resp.RefreshToken
		}

		if err := m.store.Save(ctx, next); err != nil {
			return nil, eris.Wrap(err, "auth: persist refreshed credential")
		}

		zap.L().Info("auth: credential refreshed",
			zap.String("service", m.store.service),
			zap.Int64("expires_at_ms", next.ExpiresAtMs),
		)
		return next.AccessToken, nil
	})
	if err != nil {
		return "", err
	}
	return token.(string), nil
}

// Connect stores an initial credential from an authorization exchange. The
// access token may be empty; the first Token call will refresh.
func (m *Manager) Connect(ctx context.Context, cred *Credential) error {
	if cred.RefreshToken == "" {
		return eris.New("auth: refresh token required")
	}
	return m.store.Save(ctx, cred)
}
