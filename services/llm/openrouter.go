package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vnkhanh/e-flashcard-backend/logger"
)

const (
	ProviderOpenRouter = "openrouter"

	defaultOpenRouterBaseURL = "https://openrouter.ai/api/v1"
)

type OpenRouterConfig struct {
	APIKey   string
	BaseURL  string
	Referer  string
	AppTitle string
	Timeout  time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// OpenRouterClient talks to an OpenAI-compatible chat completions endpoint.
type OpenRouterClient struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	referer    string
	appTitle   string
	httpClient *http.Client
}

func NewOpenRouterClient(cfg OpenRouterConfig, log *logger.Logger) (*OpenRouterClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigurationError{Provider: ProviderOpenRouter, Reason: "OPENROUTER_API_KEY is not set"}
	}
	if log == nil {
		log = logger.NewNop()
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultOpenRouterBaseURL
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 120 * time.Second
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	return &OpenRouterClient{
		log:        log,
		baseURL:    baseURL,
		apiKey:     cfg.APIKey,
		referer:    cfg.Referer,
		appTitle:   cfg.AppTitle,
		httpClient: httpClient,
	}, nil
}

func (c *OpenRouterClient) Provider() string { return ProviderOpenRouter }

type chatCompletionRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
	Temperature    *float64        `json:"temperature,omitempty"`
	MaxTokens      *int            `json:"max_tokens,omitempty"`
}

type responseFormat struct {
	Type       string     `json:"type"`
	JSONSchema jsonSchema `json:"json_schema"`
}

type jsonSchema struct {
	Name   string         `json:"name"`
	Strict bool           `json:"strict"`
	Schema map[string]any `json:"schema"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content *string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *OpenRouterClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	payload := chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	if req.ResponseFormat != nil {
		payload.ResponseFormat = &responseFormat{
			Type: "json_schema",
			JSONSchema: jsonSchema{
				Name:   req.ResponseFormat.Name,
				Strict: true,
				Schema: req.ResponseFormat.Schema,
			},
		}
	}

	raw, err := c.doOnce(ctx, "/chat/completions", payload)
	if err != nil {
		return "", err
	}

	var out chatCompletionResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", &MalformedResponseError{Provider: ProviderOpenRouter, Reason: "response body is not JSON"}
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == nil {
		return "", &MalformedResponseError{Provider: ProviderOpenRouter, Reason: "missing choices[0].message.content"}
	}
	content := *out.Choices[0].Message.Content
	c.log.Debug("openrouter completion received", "model", req.Model, "content_length", len(content))
	return content, nil
}

func (c *OpenRouterClient) doOnce(ctx context.Context, path string, body any) ([]byte, error) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, &buf)
	if err != nil {
		return nil, &TransportError{Provider: ProviderOpenRouter, Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		req.Header.Set("HTTP-Referer", c.referer)
	}
	if c.appTitle != "" {
		req.Header.Set("X-Title", c.appTitle)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &TransportError{Provider: ProviderOpenRouter, Err: err}
	}
	raw, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	if readErr != nil {
		return nil, &TransportError{Provider: ProviderOpenRouter, Err: readErr}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Warn("openrouter returned an error status", "status", resp.StatusCode)
		return nil, &UpstreamError{Provider: ProviderOpenRouter, StatusCode: resp.StatusCode, Body: decodeErrorBody(raw)}
	}
	return raw, nil
}

func decodeErrorBody(raw []byte) any {
	var v any
	if err := json.Unmarshal(raw, &v); err == nil && v != nil {
		return v
	}
	return string(raw)
}
