// Package client calls the flashcards HTTP API on behalf of a signed-in user.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

// APIError is a non-2xx reply in the API's {error, code, message} shape.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Summary    string `json:"error"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Summary
	}
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.StatusCode, e.Code, msg)
	}
	return fmt.Sprintf("api %d: %s", e.StatusCode, msg)
}

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// New returns a client for baseURL authenticating with the given access token.
func New(baseURL, token string, httpClient *http.Client) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("API base URL is not set")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 3 * time.Minute}
	}
	return &Client{baseURL: baseURL, token: token, httpClient: httpClient}, nil
}

// ExtractSourceText uploads a .pdf, .docx or .txt document and returns its cleaned text.
func (c *Client) ExtractSourceText(ctx context.Context, filename string, r io.Reader) (*models.ExtractedSourceText, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	fw, err := writer.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(fw, r); err != nil {
		return nil, fmt.Errorf("failed to copy file content: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close form: %w", err)
	}

	var out models.ExtractedSourceText
	if _, err := c.do(ctx, http.MethodPost, "/api/source-text/extract", writer.FormDataContentType(), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Generate(ctx context.Context, sourceText string) (*models.GeneratedFlashcards, error) {
	var out models.GeneratedFlashcards
	if _, err := c.doJSON(ctx, http.MethodPost, "/api/flashcards/generate", models.GenerateFlashcardsCommand{SourceText: sourceText}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SaveFlashcards sends one bulk save. When nothing was persisted the itemized result is
// returned together with the *APIError.
func (c *Client) SaveFlashcards(ctx context.Context, items []models.CreateFlashcardInput) (*models.CreateFlashcardsResult, error) {
	var out models.CreateFlashcardsResult
	status, err := c.doJSON(ctx, http.MethodPost, "/api/flashcards", models.CreateFlashcardsCommand{Flashcards: items}, &out)
	if err != nil {
		if status == http.StatusUnprocessableEntity && (out.Data != nil || out.Failed != nil) {
			return &out, err
		}
		return nil, err
	}
	return &out, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out any) (int, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return 0, fmt.Errorf("failed to encode request: %w", err)
	}
	return c.do(ctx, method, path, "application/json", bytes.NewReader(payload), out)
}

// do decodes the body into out for both success and error replies, so itemized
// 422 results stay available to the caller.
func (c *Client) do(ctx context.Context, method, path, contentType string, body io.Reader, out any) (int, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if json.Unmarshal(raw, apiErr) != nil || (apiErr.Summary == "" && apiErr.Message == "") {
			apiErr.Summary = strings.TrimSpace(string(raw))
			if apiErr.Summary == "" {
				apiErr.Summary = http.StatusText(resp.StatusCode)
			}
		}
		if out != nil {
			_ = json.Unmarshal(raw, out)
		}
		return resp.StatusCode, apiErr
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return resp.StatusCode, fmt.Errorf("failed to unmarshal response: %w", err)
		}
	}
	return resp.StatusCode, nil
}
