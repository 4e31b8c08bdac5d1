package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// TestOpenAIAnalyze tests the request shape and response decoding.
func TestOpenAIAnalyze(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("Authorization = %q", r.Header.Get("Authorization"))
		}

		var payload struct {
			Model          string `json:"model"`
			ResponseFormat struct {
				Type string `json:"type"`
			} `json:"response_format"`
			MaxTokens int `json:"max_tokens"`
			Messages  []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload.Model != "gpt-4o-mini" {
			t.Errorf("model = %q", payload.Model)
		}
		if payload.ResponseFormat.Type != "json_object" {
			t.Errorf("response_format = %q", payload.ResponseFormat.Type)
		}
		if payload.MaxTokens != 2000 {
			t.Errorf("max_tokens = %d", payload.MaxTokens)
		}
		if len(payload.Messages) != 2 || payload.Messages[1].Content != "user prompt" {
			t.Errorf("messages = %+v", payload.Messages)
		}

		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{
					"content": `{"summary":"Анализ OpenAI","recommendations":["Добавьте CSP"]}`,
				}},
			},
		})
	}))
	defer server.Close()

	o := NewOpenAI("sk-test", WithOpenAIEndpoint(server.URL))

	result, err := o.Analyze(context.Background(), "system prompt", "user prompt")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Summary != "Анализ OpenAI" {
		t.Errorf("Summary = %q", result.Summary)
	}
	if len(result.Recommendations) != 1 || result.Recommendations[0] != "Добавьте CSP" {
		t.Errorf("Recommendations = %v", result.Recommendations)
	}
}

// TestOpenAIUnexpectedResponse tests that a non-JSON upstream error
// becomes an error with the HTTP status.
func TestOpenAIUnexpectedResponse(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	o := NewOpenAI("sk-test", WithOpenAIEndpoint(server.URL))

	if _, err := o.Analyze(context.Background(), "s", "u"); err == nil {
		t.Error("expected an error for a non-JSON upstream response")
	}
}

// TestOpenAIUnconfigured tests the soft failure without a key.
func TestOpenAIUnconfigured(t *testing.T) {
	t.Parallel()

	o := NewOpenAI("")
	result, err := o.Analyze(context.Background(), "s", "u")
	if result != nil || err != nil {
		t.Errorf("Analyze() = (%v, %v), expected soft failure", result, err)
	}
}
