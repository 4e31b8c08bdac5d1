package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

const (
	openAIAPIURL = "https://api.openai.com/v1/chat/completions"
	openAIModel  = "gpt-4o-mini"
)

// OpenAI is the OpenAI chat-completions adapter. It requests JSON
// output mode, so responses usually parse strictly; the lenient decoder
// covers the rest.
type OpenAI struct {
	apiKey string
	client *http.Client
	logger *slog.Logger
	apiURL string
}

// OpenAIOption configures an OpenAI adapter.
type OpenAIOption func(*OpenAI)

// WithOpenAIEndpoint overrides the API endpoint. Used by tests.
func WithOpenAIEndpoint(apiURL string) OpenAIOption {
	return func(o *OpenAI) {
		o.apiURL = apiURL
	}
}

// WithOpenAIHTTPClient replaces the HTTP client.
func WithOpenAIHTTPClient(client *http.Client) OpenAIOption {
	return func(o *OpenAI) {
		o.client = client
	}
}

// WithOpenAILogger sets the logger.
func WithOpenAILogger(logger *slog.Logger) OpenAIOption {
	return func(o *OpenAI) {
		o.logger = logger
	}
}

// NewOpenAI creates an OpenAI adapter. An empty apiKey yields an
// unconfigured adapter that soft-fails every call.
func NewOpenAI(apiKey string, opts ...OpenAIOption) *OpenAI {
	o := &OpenAI{
		apiKey: apiKey,
		apiURL: openAIAPIURL,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.client == nil {
		o.client = &http.Client{}
	}
	return o
}

// Name implements Provider.
func (o *OpenAI) Name() string { return "OpenAI" }

// Configured implements Provider.
func (o *OpenAI) Configured() bool { return o.apiKey != "" }

// Analyze implements Provider.
func (o *OpenAI) Analyze(ctx context.Context, system, user string) (*Result, error) {
	if !o.Configured() {
		return nil, nil
	}

	payload := map[string]any{
		"model": openAIModel,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
		"max_tokens":      2000,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("openai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("openai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openai: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("openai: read response: %w", err)
	}

	var completion struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(respBody, &completion); err != nil || len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai: unexpected response with status %d", resp.StatusCode)
	}

	return decodeLenient(completion.Choices[0].Message.Content), nil
}
