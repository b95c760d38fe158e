package hubspot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/v1/token", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		require.NoError(t, r.ParseForm())
		assert.Equal(t, "refresh_token", r.PostForm.Get("grant_type"))
		assert.Equal(t, "client-1", r.PostForm.Get("client_id"))
		assert.Equal(t, "secret-1", r.PostForm.Get("client_secret"))
		assert.Equal(t, "rt-old", r.PostForm.Get("refresh_token"))

		json.NewEncoder(w).Encode(TokenResponse{
			AccessToken:  "at-new",
			RefreshToken: "rt-new",
			ExpiresIn:    1800,
		})
	}))
	t.Cleanup(srv.Close)

	c := NewOAuthClient(OAuthConfig{ClientID: "client-1", ClientSecret: "secret-1", BaseURL: srv.URL})

	token, err := c.RefreshToken(context.Background(), "rt-old")
	require.NoError(t, err)
	assert.Equal(t, "at-new", token.AccessToken)
	assert.Equal(t, "rt-new", token.RefreshToken)
	assert.Equal(t, int64(1800), token.ExpiresIn)
}

func TestRefreshTokenRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":"BAD_REFRESH_TOKEN"}`))
	}))
	t.Cleanup(srv.Close)

	c := NewOAuthClient(OAuthConfig{ClientID: "c", ClientSecret: "s", BaseURL: srv.URL})

	_, err := c.RefreshToken(context.Background(), "rt-bad")
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.StatusCode)
}
