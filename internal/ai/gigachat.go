package ai

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// GigaChat API endpoints. The OAuth gateway and the inference API live
// on different hosts.
const (
	gigaChatOAuthURL = "https://ngw.devices.sberbank.ru/api/v2/oauth"
	gigaChatAPIURL   = "https://gigachat.devices.sberbank.ru/api/v1/chat/completions"
	gigaChatModel    = "GigaChat"
	gigaChatScope    = "scope=GIGACHAT_API_PERS"
)

// GigaChat is the Sber GigaChat adapter. Authentication is a
// client-credential exchange: the long-lived authorization key buys a
// short-lived access token, cached in memory until just before expiry.
type GigaChat struct {
	// authKey is the base64 authorization key sent as Basic auth.
	authKey string

	// client is shared by the token exchange and inference calls.
	// The Sber endpoints use a Russian CA that is rarely in system
	// trust stores, so verification is skipped as the vendor documents.
	client *http.Client

	logger *slog.Logger

	// token cache. A benign race issuing two token requests at once is
	// acceptable; the mutex only protects the cache fields themselves.
	mu          sync.Mutex
	token       string
	tokenExpiry time.Time

	oauthURL string
	apiURL   string
}

// GigaChatOption configures a GigaChat adapter.
type GigaChatOption func(*GigaChat)

// WithGigaChatEndpoints overrides both endpoints. Used by tests.
func WithGigaChatEndpoints(oauthURL, apiURL string) GigaChatOption {
	return func(g *GigaChat) {
		g.oauthURL = oauthURL
		g.apiURL = apiURL
	}
}

// WithGigaChatHTTPClient replaces the HTTP client.
func WithGigaChatHTTPClient(client *http.Client) GigaChatOption {
	return func(g *GigaChat) {
		g.client = client
	}
}

// WithGigaChatLogger sets the logger.
func WithGigaChatLogger(logger *slog.Logger) GigaChatOption {
	return func(g *GigaChat) {
		g.logger = logger
	}
}

// NewGigaChat creates a GigaChat adapter. An empty authKey yields an
// unconfigured adapter that soft-fails every call.
func NewGigaChat(authKey string, opts ...GigaChatOption) *GigaChat {
	g := &GigaChat{
		authKey:  authKey,
		oauthURL: gigaChatOAuthURL,
		apiURL:   gigaChatAPIURL,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.client == nil {
		g.client = &http.Client{
			Transport: &http.Transport{
				TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
			},
		}
	}
	return g
}

// Name implements Provider.
func (g *GigaChat) Name() string { return "GigaChat" }

// Configured implements Provider.
func (g *GigaChat) Configured() bool { return g.authKey != "" }

// accessToken returns a valid access token, exchanging the
// authorization key when the cached token is absent or expired.
func (g *GigaChat) accessToken(ctx context.Context) (string, error) {
	g.mu.Lock()
	if g.token != "" && time.Now().Before(g.tokenExpiry) {
		token := g.token
		g.mu.Unlock()
		return token, nil
	}
	g.mu.Unlock()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.oauthURL,
		strings.NewReader(gigaChatScope))
	if err != nil {
		return "", fmt.Errorf("gigachat: create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+g.authKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("gigachat: token exchange: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("gigachat: read token response: %w", err)
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil || tokenResp.AccessToken == "" {
		return "", fmt.Errorf("gigachat: token exchange failed with status %d", resp.StatusCode)
	}

	// expires_at is a millisecond epoch; refresh one minute early.
	// An absent value falls back to the documented 30 minute lifetime.
	expiry := time.Now().Add(30 * time.Minute)
	if tokenResp.ExpiresAt > 0 {
		expiry = time.UnixMilli(tokenResp.ExpiresAt).Add(-time.Minute)
	}

	g.mu.Lock()
	g.token = tokenResp.AccessToken
	g.tokenExpiry = expiry
	g.mu.Unlock()

	g.logger.Debug("gigachat token refreshed", "expires", expiry)
	return tokenResp.AccessToken, nil
}

// Analyze implements Provider.
func (g *GigaChat) Analyze(ctx context.Context, system, user string) (*Result, error) {
	if !g.Configured() {
		return nil, nil
	}

	token, err := g.accessToken(ctx)
	if err != nil {
		return nil, err
	}

	payload := map[string]any{
		"model": gigaChatModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.7,
		"max_tokens":  2000,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("gigachat: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gigachat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("gigachat: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("gigachat: read response: %w", err)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &completion); err != nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("gigachat: unexpected response with status %d", resp.StatusCode)
	}

	return decodeLenient(completion.Choices[0].Message.Content), nil
}
