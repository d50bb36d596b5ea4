package token

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/connection"
)

func oauthTestConn() *connection.Connection {
	return &connection.Connection{
		ID:           "conn-1",
		TenantID:     "tenant-1",
		ClientID:     "client-1",
		ClientSecret: "secret",
		Scope:        "https://analysis.windows.net/powerbi/api/.default",
	}
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.Form.Get("grant_type"))
		assert.Equal(t, "client-1", r.Form.Get("client_id"))
		assert.Equal(t, "secret", r.Form.Get("client_secret"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-123",
			"expires_in":   3600,
		})
	}))
	defer srv.Close()

	p := NewOAuthProvider(OAuthConfig{EndpointTemplate: srv.URL + "/%s/token"})
	tok, err := p.Fetch(context.Background(), oauthTestConn())
	require.NoError(t, err)
	assert.Equal(t, "tok-123", tok.AccessToken)
	assert.WithinDuration(t, time.Now().Add(time.Hour), tok.ExpiresAt, 5*time.Second)
}

func TestFetch_ErrorStatusCarriesCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"invalid_client"}`, http.StatusUnauthorized)
	}))
	defer srv.Close()

	p := NewOAuthProvider(OAuthConfig{EndpointTemplate: srv.URL + "/%s/token"})
	_, err := p.Fetch(context.Background(), oauthTestConn())
	require.Error(t, err)

	c := classify.Classify(err)
	assert.False(t, c.ShouldRetry, "401 from the IdP is fatal")
}

func TestFetch_EmptyAccessToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"expires_in": 3600})
	}))
	defer srv.Close()

	p := NewOAuthProvider(OAuthConfig{EndpointTemplate: srv.URL + "/%s/token"})
	_, err := p.Fetch(context.Background(), oauthTestConn())
	assert.Error(t, err)
}

// unsignedJWT builds an unsigned JWT with the given exp claim, enough for
// ParseUnverified.
func unsignedJWT(t *testing.T, exp time.Time) string {
	t.Helper()
	header := base64.RawURLEncoding.EncodeToString([]byte(`{"alg":"none","typ":"JWT"}`))
	payload, err := json.Marshal(map[string]any{"exp": exp.Unix()})
	require.NoError(t, err)
	return fmt.Sprintf("%s.%s.", header, base64.RawURLEncoding.EncodeToString(payload))
}

func TestFetch_JWTExpiryFallback(t *testing.T) {
	exp := time.Now().Add(45 * time.Minute).Truncate(time.Second)
	raw := unsignedJWT(t, exp)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": raw})
	}))
	defer srv.Close()

	p := NewOAuthProvider(OAuthConfig{EndpointTemplate: srv.URL + "/%s/token"})
	tok, err := p.Fetch(context.Background(), oauthTestConn())
	require.NoError(t, err)
	assert.WithinDuration(t, exp, tok.ExpiresAt, time.Second)
}

func TestFetch_OpaqueTokenWithoutExpiry(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "opaque-token"})
	}))
	defer srv.Close()

	p := NewOAuthProvider(OAuthConfig{EndpointTemplate: srv.URL + "/%s/token"})
	tok, err := p.Fetch(context.Background(), oauthTestConn())
	require.NoError(t, err)
	assert.True(t, tok.ExpiresAt.IsZero(), "opaque token leaves expiry to the cache TTL")
}
