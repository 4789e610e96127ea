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
)

// ClientCredentialsOptions configures a ClientCredentialsSource.
type ClientCredentialsOptions struct {
	Scope      string
	HTTPClient *http.Client
}

// ClientCredentialsSource obtains bearer tokens from an OAuth2 token endpoint
// using the client-credentials grant, the flow the retrieval gateway expects.
type ClientCredentialsSource struct {
	endpoint     string
	clientID     string
	clientSecret string
	scope        string
	client       *http.Client
}

// NewClientCredentialsSource creates a source for the given token endpoint.
func NewClientCredentialsSource(endpoint, clientID, clientSecret string, optFns ...func(o *ClientCredentialsOptions)) *ClientCredentialsSource {
	opts := ClientCredentialsOptions{
		HTTPClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &ClientCredentialsSource{
		endpoint:     endpoint,
		clientID:     clientID,
		clientSecret: clientSecret,
		scope:        opts.Scope,
		client:       opts.HTTPClient,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token implements Source. The expiry comes from expires_in when the issuer
// provides it, falling back to the JWT exp claim of the access token itself.
func (s *ClientCredentialsSource) Token(ctx context.Context) (Token, error) {
	form := url.Values{"grant_type": {"client_credentials"}}
	if s.scope != "" {
		form.Set("scope", s.scope)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return Token{}, fmt.Errorf("build token request: %w", err)
	}
	req.SetBasicAuth(s.clientID, s.clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return Token{}, fmt.Errorf("token endpoint: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Token{}, fmt.Errorf("read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Token{}, fmt.Errorf("token endpoint returned %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return Token{}, fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return Token{}, fmt.Errorf("token endpoint returned empty access_token")
	}

	expiresAt := time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	if tr.ExpiresIn == 0 {
		if exp, ok := jwtExpiry(tr.AccessToken); ok {
			expiresAt = exp
		} else {
			// No expiry information at all: assume a short lifetime so the
			// cache refreshes rather than holding a dead token.
			expiresAt = time.Now().Add(5 * time.Minute)
		}
	}

	return Token{Value: tr.AccessToken, ExpiresAt: expiresAt}, nil
}

// jwtExpiry extracts the exp claim without verifying the signature; the
// issuer is trusted here and the claim is only used for cache staleness.
func jwtExpiry(raw string) (time.Time, bool) {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// StaticSource returns a fixed token; useful for tests and local setups
// where the gateway accepts a pre-issued credential.
type StaticSource struct {
	Value     string
	ExpiresAt time.Time
}

// Token implements Source.
func (s StaticSource) Token(context.Context) (Token, error) {
	exp := s.ExpiresAt
	if exp.IsZero() {
		exp = time.Now().Add(time.Hour)
	}
	return Token{Value: s.Value, ExpiresAt: exp}, nil
}
