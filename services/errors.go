package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/vnkhanh/e-flashcard-backend/services/llm"
)

const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeAIService    = "AI_SERVICE_ERROR"
	CodeDatabase     = "DATABASE_ERROR"
	CodeUnknown      = "UNKNOWN_ERROR"
	CodeEmptyResults = "EMPTY_RESULTS"
)

var (
	// ErrEmptyResult means the model answered with a well-formed but empty list.
	ErrEmptyResult       = errors.New("no flashcards were generated from the source text")
	ErrUnauthorized      = errors.New("a signed-in user is required")
	ErrFlashcardNotFound = errors.New("flashcard not found")
	ErrNothingToExport   = errors.New("there are no flashcards to export")
)

// GenerationFailedError wraps any completion or repair failure of a generation.
type GenerationFailedError struct {
	Cause error
}

func (e *GenerationFailedError) Error() string {
	return fmt.Sprintf("flashcard generation failed: %v", e.Cause)
}

func (e *GenerationFailedError) Unwrap() error { return e.Cause }

type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// ValidationError carries per-field messages for input the service rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for k, v := range e.Fields {
		parts = append(parts, k+": "+v)
	}
	sort.Strings(parts)
	return "validation failed: " + strings.Join(parts, "; ")
}

func newValidationError(field, msg string) *ValidationError {
	return &ValidationError{Fields: map[string]string{field: msg}}
}

// ErrorCode classifies err into the codes reported to clients and written to error logs.
func ErrorCode(err error) string {
	var (
		genErr     *GenerationFailedError
		persistErr *PersistenceError
		valErr     *ValidationError
		fieldErrs  validator.ValidationErrors
		cfgErr     *llm.ConfigurationError
		transport  *llm.TransportError
		upstream   *llm.UpstreamError
		malformed  *llm.MalformedResponseError
		parseErr   *llm.ResponseParseError
		schemaErr  *llm.SchemaValidationError
	)
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrEmptyResult):
		return CodeEmptyResults
	case errors.Is(err, ErrUnauthorized):
		return CodeUnauthorized
	case errors.As(err, &valErr), errors.As(err, &fieldErrs):
		return CodeValidation
	case errors.As(err, &genErr), errors.As(err, &cfgErr), errors.As(err, &transport),
		errors.As(err, &upstream), errors.As(err, &malformed), errors.As(err, &parseErr),
		errors.As(err, &schemaErr):
		return CodeAIService
	case errors.As(err, &persistErr):
		return CodeDatabase
	}
	return CodeUnknown
}

// UserMessage is the actionable text shown for a failed generation.
func UserMessage(err error) string {
	var (
		transport *llm.TransportError
		upstream  *llm.UpstreamError
	)
	switch {
	case errors.Is(err, ErrEmptyResult):
		return "No flashcards could be generated from this text. Try different content."
	case errors.As(err, &transport):
		return "The AI service could not be reached. Please try again."
	case errors.As(err, &upstream) && upstream.Retryable():
		return "The AI service is busy right now. Please try again in a moment."
	case errors.As(err, &upstream):
		return "The AI service rejected the request. Please try again later."
	case ErrorCode(err) == CodeAIService:
		return "The AI service returned an unusable answer. Please try again."
	case ErrorCode(err) == CodeDatabase:
		return "Your data could not be saved. Please try again."
	}
	return "Something went wrong. Please try again."
}
