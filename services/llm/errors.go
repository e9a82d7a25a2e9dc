package llm

import (
	"errors"
	"fmt"
	"net"
	"strings"
)

// ConfigurationError is returned when a client is built without credentials.
type ConfigurationError struct {
	Provider string
	Reason   string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: configuration: %s", e.Provider, e.Reason)
}

// TransportError means the request never produced an HTTP response.
type TransportError struct {
	Provider string
	Err      error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: transport: %v", e.Provider, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Timeout() bool {
	var ne net.Error
	return errors.As(e.Err, &ne) && ne.Timeout()
}

// UpstreamError carries a non-2xx answer. Body is the decoded JSON error when the
// provider sent one, otherwise the raw text.
type UpstreamError struct {
	Provider   string
	StatusCode int
	Body       any
}

func (e *UpstreamError) Error() string {
	var body string
	switch b := e.Body.(type) {
	case nil:
	case string:
		body = b
	default:
		body = fmt.Sprintf("%v", b)
	}
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, strings.TrimSpace(body))
}

// Retryable reports whether trying again later may succeed.
func (e *UpstreamError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// MalformedResponseError is a 2xx answer without usable completion content.
type MalformedResponseError struct {
	Provider string
	Reason   string
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response: %s", e.Provider, e.Reason)
}

// ResponseParseError means no parse strategy produced JSON from the completion.
type ResponseParseError struct {
	Content string
	Err     error
}

func (e *ResponseParseError) Error() string {
	return fmt.Sprintf("completion is not valid JSON: %v", e.Err)
}

func (e *ResponseParseError) Unwrap() error { return e.Err }

// SchemaValidationError means the completion parsed but does not match the schema.
type SchemaValidationError struct {
	Schema      string
	Diagnostics []string
	Parsed      any
}

func (e *SchemaValidationError) Error() string {
	return fmt.Sprintf("completion does not match schema %q: %s", e.Schema, strings.Join(e.Diagnostics, "; "))
}
