package tdx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/bikenearby/backend-go/pkg/http/client"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// expirySkew renews a token this long before it actually expires.
const expirySkew = time.Minute

// TokenSource exchanges client credentials for a bearer token and caches it
// until shortly before it expires.
type TokenSource struct {
	httpClient   client.Interface
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewTokenSource(httpClient client.Interface, tokenURL, clientID, clientSecret string) *TokenSource {
	return &TokenSource{
		httpClient:   httpClient,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
	}
}

// AccessToken returns a cached token or fetches a new one.
func (s *TokenSource) AccessToken(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.token != "" && s.now().Before(s.expiry) {
		return s.token, nil
	}

	if s.clientID == "" || s.clientSecret == "" {
		return "", fmt.Errorf("TDX client credentials are not configured")
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {s.clientID},
		"client_secret": {s.clientSecret},
	}
	resp, err := s.httpClient.PostForm(ctx, s.tokenURL, form, nil)
	if err != nil {
		return "", fmt.Errorf("requesting token: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", newStatusError("token", resp.StatusCode, resp.Body)
	}

	var tr tokenResponse
	if err := json.Unmarshal(resp.Body, &tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	s.token = tr.AccessToken
	s.expiry = s.expiryFor(tr).Add(-expirySkew)
	log.Debug().Time("expires_at", s.expiry).Msg("Obtained TDX access token")
	return s.token, nil
}

// Invalidate drops the cached token so the next call fetches a fresh one.
func (s *TokenSource) Invalidate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = ""
	s.expiry = time.Time{}
}

// expiryFor prefers the exp claim of a JWT access token. The signature is
// not checked; TDX is the party that verifies it.
func (s *TokenSource) expiryFor(tr tokenResponse) time.Time {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tr.AccessToken, claims); err == nil {
		if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
			return exp.Time
		}
	}
	if tr.ExpiresIn > 0 {
		return s.now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	}
	// Unknown lifetime: use once, fetch again next time.
	return s.now()
}
