package token

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/AlexandrePreito/meudashboard-sub003/pkg/classify"
	"github.com/AlexandrePreito/meudashboard-sub003/pkg/connection"
)

const (
	// defaultEndpointTemplate is the client-credentials token endpoint, with
	// the tenant ID as the single format argument.
	defaultEndpointTemplate = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"

	// fetchTimeout bounds a single token fetch.
	fetchTimeout = 15 * time.Second
)

// OAuthProvider implements Provider using the OAuth 2.0 client-credentials
// grant against the connection's identity tenant.
type OAuthProvider struct {
	client   *http.Client
	endpoint string
}

// OAuthConfig configures the OAuth provider.
type OAuthConfig struct {
	// EndpointTemplate overrides the token endpoint. Must contain one %s for
	// the tenant ID.
	EndpointTemplate string

	// HTTPClient overrides the HTTP client used for token requests.
	HTTPClient *http.Client
}

// NewOAuthProvider creates an OAuth client-credentials token provider.
func NewOAuthProvider(cfg OAuthConfig) *OAuthProvider {
	endpoint := cfg.EndpointTemplate
	if endpoint == "" {
		endpoint = defaultEndpointTemplate
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: fetchTimeout}
	}
	return &OAuthProvider{client: client, endpoint: endpoint}
}

// tokenResponse is the identity provider's token endpoint response.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Fetch requests a fresh bearer token for the connection.
func (p *OAuthProvider) Fetch(ctx context.Context, conn *connection.Connection) (*Token, error) {
	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {conn.ClientID},
		"client_secret": {conn.ClientSecret},
		"scope":         {conn.Scope},
	}

	endpoint := fmt.Sprintf(p.endpoint, conn.TenantID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("requesting token: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &classify.StatusError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, truncate(string(body), 200)),
		}
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return nil, fmt.Errorf("parsing token response: %w", err)
	}
	if tr.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned empty access token")
	}

	return &Token{
		AccessToken: tr.AccessToken,
		ExpiresAt:   expiryFor(tr),
	}, nil
}

// expiryFor determines the token's absolute expiry from expires_in, falling
// back to the JWT exp claim when the provider omits it.
func expiryFor(tr tokenResponse) time.Time {
	if tr.ExpiresIn > 0 {
		return time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	if exp := jwtExpiry(tr.AccessToken); !exp.IsZero() {
		return exp
	}
	return time.Time{}
}

// jwtExpiry reads the exp claim from an unverified JWT. The token came over
// TLS from the identity provider; signature verification is the backend's
// concern, not ours.
func jwtExpiry(raw string) time.Time {
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	if err != nil {
		return time.Time{}
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Verify interface compliance.
var _ Provider = (*OAuthProvider)(nil)
