package llm

import (
	"context"
	"errors"
	"strings"
)

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat asks the provider for output matching a JSON schema.
type ResponseFormat struct {
	Name   string
	Schema map[string]any
}

type ChatRequest struct {
	Model          string
	Messages       []Message
	ResponseFormat *ResponseFormat
	Temperature    *float64
	MaxTokens      *int
}

// Completer sends one chat completion and returns the raw assistant content.
// Implementations hold no per-call state and may be shared between goroutines.
type Completer interface {
	Complete(ctx context.Context, req ChatRequest) (string, error)
	Provider() string
}

const jsonOnlyInstruction = "Return only raw JSON that matches the requested schema. Do not wrap it in markdown code fences or add any other text."

// CompleteStructured requests a schema-constrained completion and repairs the answer into T.
// Client errors are returned unchanged; repair failures come back as
// *ResponseParseError or *SchemaValidationError.
func CompleteStructured[T any](ctx context.Context, c Completer, req ChatRequest, schema Schema[T]) (T, error) {
	var zero T
	if strings.TrimSpace(schema.Name) == "" {
		return zero, errors.New("llm: schema name is required")
	}
	req.ResponseFormat = &ResponseFormat{Name: schema.Name, Schema: schema.JSON}
	req.Messages = WithJSONInstruction(req.Messages)

	content, err := c.Complete(ctx, req)
	if err != nil {
		return zero, err
	}
	return Repair(content, schema).Unwrap()
}

// WithJSONInstruction adds the raw-JSON system instruction after the leading system
// messages unless some message already carries it. The input slice is not modified.
func WithJSONInstruction(messages []Message) []Message {
	for _, m := range messages {
		if strings.Contains(m.Content, jsonOnlyInstruction) {
			return messages
		}
	}
	at := 0
	for at < len(messages) && messages[at].Role == RoleSystem {
		at++
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, messages[:at]...)
	out = append(out, Message{Role: RoleSystem, Content: jsonOnlyInstruction})
	out = append(out, messages[at:]...)
	return out
}

func Float64(v float64) *float64 { return &v }

func Int(v int) *int { return &v }
