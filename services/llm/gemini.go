package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/vnkhanh/e-flashcard-backend/logger"
)

const ProviderGemini = "gemini"

type GeminiConfig struct {
	APIKey string
	// Endpoint overrides the API host, e.g. for a regional proxy.
	Endpoint string
}

// GeminiClient completes chats with Google Gemini. Schema requests are sent as
// application/json responses; the schema itself is enforced by Repair.
type GeminiClient struct {
	log    *logger.Logger
	client *genai.Client
}

func NewGeminiClient(ctx context.Context, cfg GeminiConfig, log *logger.Logger) (*GeminiClient, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, &ConfigurationError{Provider: ProviderGemini, Reason: "GEMINI_API_KEY is not set"}
	}
	if log == nil {
		log = logger.NewNop()
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &GeminiClient{log: log, client: client}, nil
}

func (c *GeminiClient) Provider() string { return ProviderGemini }

func (c *GeminiClient) Close() error { return c.client.Close() }

func (c *GeminiClient) Complete(ctx context.Context, req ChatRequest) (string, error) {
	system, history, last, err := splitConversation(req.Messages)
	if err != nil {
		return "", err
	}

	model := c.client.GenerativeModel(req.Model)
	if len(system) > 0 {
		model.SystemInstruction = genai.NewUserContent(genai.Text(strings.Join(system, "\n\n")))
	}
	if req.Temperature != nil {
		model.SetTemperature(float32(*req.Temperature))
	}
	if req.MaxTokens != nil {
		model.SetMaxOutputTokens(int32(*req.MaxTokens))
	}
	if req.ResponseFormat != nil {
		model.ResponseMIMEType = "application/json"
	}

	cs := model.StartChat()
	cs.History = history
	resp, err := cs.SendMessage(ctx, genai.Text(last))
	if err != nil {
		return "", mapGeminiError(err)
	}
	content := responseText(resp)
	if content == "" {
		return "", &MalformedResponseError{Provider: ProviderGemini, Reason: "no text in first candidate"}
	}
	c.log.Debug("gemini completion received", "model", req.Model, "content_length", len(content))
	return content, nil
}

// splitConversation separates system text from the chat turns. The last message must
// come from the user; earlier turns become history.
func splitConversation(messages []Message) (system []string, history []*genai.Content, last string, err error) {
	var turns []Message
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = append(system, m.Content)
			continue
		}
		turns = append(turns, m)
	}
	if len(turns) == 0 || turns[len(turns)-1].Role != RoleUser {
		return nil, nil, "", errors.New("gemini: conversation must end with a user message")
	}
	for _, m := range turns[:len(turns)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return system, history, turns[len(turns)-1].Content, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}
	return b.String()
}

func mapGeminiError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		var body any = gerr.Message
		if gerr.Body != "" {
			body = decodeErrorBody([]byte(gerr.Body))
		}
		return &UpstreamError{Provider: ProviderGemini, StatusCode: gerr.Code, Body: body}
	}
	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return &MalformedResponseError{Provider: ProviderGemini, Reason: blocked.Error()}
	}
	return &TransportError{Provider: ProviderGemini, Err: err}
}
