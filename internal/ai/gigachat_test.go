package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

// TestGigaChatUnconfigured tests that a keyless adapter soft-fails.
func TestGigaChatUnconfigured(t *testing.T) {
	t.Parallel()

	g := NewGigaChat("")
	if g.Configured() {
		t.Error("expected Configured() to be false without a key")
	}

	result, err := g.Analyze(context.Background(), "system", "user")
	if result != nil || err != nil {
		t.Errorf("Analyze() = (%v, %v), expected soft failure", result, err)
	}
}

// TestGigaChatTokenExchange tests the OAuth exchange and the inference
// call against a scripted server.
func TestGigaChatTokenExchange(t *testing.T) {
	t.Parallel()

	var tokenRequests atomic.Int32

	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenRequests.Add(1)

		if r.Header.Get("Authorization") != "Basic dGVzdC1rZXk=" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}
		if r.Header.Get("RqUID") == "" {
			t.Error("token request must carry an RqUID")
		}
		if r.Header.Get("Content-Type") != "application/x-www-form-urlencoded" {
			t.Errorf("Content-Type = %q", r.Header.Get("Content-Type"))
		}

		expiresAt := time.Now().Add(30 * time.Minute).UnixMilli()
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "short-lived-token",
			"expires_at":   expiresAt,
		})
	}))
	defer oauth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer short-lived-token" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		var payload struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Model != "GigaChat" {
			t.Errorf("model = %q", payload.Model)
		}
		if len(payload.Messages) != 2 || payload.Messages[0].Role != "system" {
			t.Errorf("messages = %+v", payload.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"summary":"Анализ GigaChat"}`}},
			},
		})
	}))
	defer api.Close()

	g := NewGigaChat("dGVzdC1rZXk=",
		WithGigaChatEndpoints(oauth.URL, api.URL),
		WithGigaChatHTTPClient(oauth.Client()),
	)

	result, err := g.Analyze(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Summary != "Анализ GigaChat" {
		t.Errorf("Summary = %q", result.Summary)
	}

	// A second call reuses the cached token.
	if _, err := g.Analyze(context.Background(), "system", "user"); err != nil {
		t.Fatalf("second Analyze() error = %v", err)
	}
	if got := tokenRequests.Load(); got != 1 {
		t.Errorf("token requests = %d, expected the cache to serve the second call", got)
	}
}

// TestGigaChatTokenExchangeFailure tests that a rejected exchange
// surfaces as an error rather than a silent empty token.
func TestGigaChatTokenExchangeFailure(t *testing.T) {
	t.Parallel()

	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer oauth.Close()

	g := NewGigaChat("bad-key",
		WithGigaChatEndpoints(oauth.URL, oauth.URL),
		WithGigaChatHTTPClient(oauth.Client()),
	)

	if _, err := g.Analyze(context.Background(), "system", "user"); err == nil {
		t.Error("expected an error from a failed token exchange")
	}
}
