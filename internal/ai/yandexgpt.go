package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
)

const (
	yandexGPTDefaultEndpoint = "https://llm.api.cloud.yandex.net/foundationModels/v1/completion"
	yandexGPTDefaultModelURI = "gpt://b1g0000000000000000/yandexgpt-lite"
)

// YandexGPT is the Yandex Foundation Models adapter. Authentication is
// a caller-supplied IAM token; the folder id is derived from the model
// URI (gpt://<folder-id>/<model>).
type YandexGPT struct {
	iamToken string
	endpoint string
	modelURI string
	client   *http.Client
	logger   *slog.Logger
}

// YandexGPTOption configures a YandexGPT adapter.
type YandexGPTOption func(*YandexGPT)

// WithYandexEndpoint overrides the completion endpoint.
func WithYandexEndpoint(endpoint string) YandexGPTOption {
	return func(y *YandexGPT) {
		if endpoint != "" {
			y.endpoint = endpoint
		}
	}
}

// WithYandexModelURI overrides the model URI.
func WithYandexModelURI(modelURI string) YandexGPTOption {
	return func(y *YandexGPT) {
		if modelURI != "" {
			y.modelURI = modelURI
		}
	}
}

// WithYandexHTTPClient replaces the HTTP client.
func WithYandexHTTPClient(client *http.Client) YandexGPTOption {
	return func(y *YandexGPT) {
		y.client = client
	}
}

// WithYandexLogger sets the logger.
func WithYandexLogger(logger *slog.Logger) YandexGPTOption {
	return func(y *YandexGPT) {
		y.logger = logger
	}
}

// NewYandexGPT creates a YandexGPT adapter. An empty iamToken yields an
// unconfigured adapter that soft-fails every call.
func NewYandexGPT(iamToken string, opts ...YandexGPTOption) *YandexGPT {
	y := &YandexGPT{
		iamToken: iamToken,
		endpoint: yandexGPTDefaultEndpoint,
		modelURI: yandexGPTDefaultModelURI,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(y)
	}
	if y.client == nil {
		y.client = &http.Client{}
	}
	return y
}

// Name implements Provider.
func (y *YandexGPT) Name() string { return "YandexGPT" }

// Configured implements Provider.
func (y *YandexGPT) Configured() bool { return y.iamToken != "" }

// folderID extracts the folder segment from the model URI.
func (y *YandexGPT) folderID() string {
	parts := strings.Split(y.modelURI, "/")
	if len(parts) > 2 {
		return parts[2]
	}
	return ""
}

// Analyze implements Provider.
func (y *YandexGPT) Analyze(ctx context.Context, system, user string) (*Result, error) {
	if !y.Configured() {
		return nil, nil
	}

	payload := map[string]any{
		"modelUri": y.modelURI,
		"completionOptions": map[string]any{
			"stream":      false,
			"temperature": 0.6,
			"maxTokens":   2000,
		},
		// YandexGPT messages carry "text", not "content".
		"messages": []map[string]string{
			{"role": "system", "text": system},
			{"role": "user", "text": user},
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("yandexgpt: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, y.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("yandexgpt: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+y.iamToken)
	req.Header.Set("x-folder-id", y.folderID())

	resp, err := y.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandexgpt: request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("yandexgpt: read response: %w", err)
	}

	var completion struct {
		Result struct {
			Alternatives []struct {
				Message struct {
					Text string `json:"text"`
				} `json:"message"`
			} `json:"alternatives"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &completion); err != nil || len(completion.Result.Alternatives) == 0 {
		return nil, fmt.Errorf("yandexgpt: unexpected response with status %d", resp.StatusCode)
	}

	return decodeLenient(completion.Result.Alternatives[0].Message.Text), nil
}
