// Package auth maintains a valid HubSpot access credential across the
// refresh lifecycle.
package auth

import (
	"context"
	"errors"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/dealbot/internal/kvstore"
)

// Credential is the persisted OAuth state for one external service.
type Credential struct {
	AccessToken  string
	RefreshToken string
	ExpiresAtMs  int64
}

// CredentialStore persists a credential as three keys in the KV store,
// namespaced by service ("hubspot:access_token" etc.).
type CredentialStore struct {
	kv      kvstore.Store
	service string
}

// NewCredentialStore creates a CredentialStore for the given service prefix.
func NewCredentialStore(kv kvstore.Store, service string) *CredentialStore {
	return &CredentialStore{kv: kv, service: service}
}

func (s *CredentialStore) key(suffix string) string {
	return s.service + ":" + suffix
}

// Load reads the persisted credential. A missing refresh token yields
// ErrNotConnected; a missing access token or expiry is treated as an
// expired credential so the caller refreshes.
func (s *CredentialStore) Load(ctx context.Context) (*Credential, error) {
	refresh, err := s.kv.Get(ctx, s.key("refresh_token"))
	if err != nil {
		if errors.Is(err, kvstore.ErrNotFound) {
			return nil, ErrNotConnected
		}
		return nil, err
	}

	cred := &Credential{RefreshToken: refresh}

	access, err := s.kv.Get(ctx, s.key("access_token"))
	if err == nil {
		cred.AccessToken = access
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return nil, err
	}

	expires, err := s.kv.Get(ctx, s.key("expires_at_ms"))
	if err == nil {
		ms, parseErr := strconv.ParseInt(expires, 10, 64)
		if parseErr != nil {
			return nil, eris.Wrap(parseErr, "auth: parse expires_at_ms")
		}
		cred.ExpiresAtMs = ms
	} else if !errors.Is(err, kvstore.ErrNotFound) {
		return nil, err
	}

	return cred, nil
}

// Save overwrites the persisted credential. Credentials never expire from
// the store; they are only superseded by the next refresh.
func (s *CredentialStore) Save(ctx context.Context, cred *Credential) error {
	if err := s.kv.Set(ctx, s.key("access_token"), cred.AccessToken, 0); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key("refresh_token"), cred.RefreshToken, 0); err != nil {
		return err
	}
	if err := s.kv.Set(ctx, s.key("expires_at_ms"), strconv.FormatInt(cred.ExpiresAtMs, 10), 0); err != nil {
		return err
	}
	return nil
}
