package llm

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Schema describes the value a structured completion must decode into.
// JSON is sent to the provider. Locally the parsed value must decode into T and pass
// the optional Validate hook; unknown fields are ignored.
type Schema[T any] struct {
	Name     string
	JSON     map[string]any
	Nullable bool
	Validate func(T) error
}

type RepairKind int

const (
	RepairOK RepairKind = iota
	RepairParseError
	RepairSchemaError
)

func (k RepairKind) String() string {
	switch k {
	case RepairOK:
		return "ok"
	case RepairParseError:
		return "parse_error"
	case RepairSchemaError:
		return "schema_error"
	}
	return "unknown"
}

// Repaired is the outcome of Repair. Err is nil only when Kind is RepairOK.
type Repaired[T any] struct {
	Kind  RepairKind
	Value T
	Err   error
}

func (r Repaired[T]) Unwrap() (T, error) {
	if r.Kind == RepairOK {
		return r.Value, nil
	}
	var zero T
	return zero, r.Err
}

var (
	fencedWhole  = regexp.MustCompile("(?s)^```[A-Za-z0-9_+-]*[ \t]*\r?\n?(.*?)\r?\n?[ \t]*```$")
	fencedInside = regexp.MustCompile("(?s)```[A-Za-z0-9_+-]*[ \t]*\r?\n(.*?)\r?\n[ \t]*```")
)

// Repair turns a model completion into T. Strategies run in order and the first
// successful parse wins: fenced block content, then the trimmed text. A parsed string
// that itself looks like JSON is decoded once more. Repair has no side effects and
// Repair(x) always yields the same result.
func Repair[T any](content string, schema Schema[T]) Repaired[T] {
	parsed, err := parseCompletion(content)
	if err != nil {
		return Repaired[T]{Kind: RepairParseError, Err: &ResponseParseError{Content: content, Err: err}}
	}

	if s, ok := parsed.(string); ok {
		trimmed := strings.TrimSpace(s)
		if strings.HasPrefix(trimmed, "[") || strings.HasPrefix(trimmed, "{") {
			var inner any
			if json.Unmarshal([]byte(trimmed), &inner) == nil {
				parsed = inner
			}
		}
	}

	return validateParsed(parsed, schema)
}

func parseCompletion(content string) (any, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, errors.New("empty completion")
	}

	for _, re := range []*regexp.Regexp{fencedWhole, fencedInside} {
		m := re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		var v any
		if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), &v); err == nil {
			return v, nil
		}
	}

	var v any
	if err := json.Unmarshal([]byte(trimmed), &v); err != nil {
		return nil, err
	}
	return v, nil
}

func validateParsed[T any](parsed any, schema Schema[T]) Repaired[T] {
	var value T
	if parsed == nil {
		if schema.Nullable {
			return Repaired[T]{Kind: RepairOK, Value: value}
		}
		return schemaFailure[T](schema, parsed, []string{"value is null"})
	}

	raw, err := json.Marshal(parsed)
	if err != nil {
		return schemaFailure[T](schema, parsed, []string{err.Error()})
	}
	if err := json.NewDecoder(bytes.NewReader(raw)).Decode(&value); err != nil {
		return schemaFailure[T](schema, parsed, []string{err.Error()})
	}

	if schema.Validate != nil {
		if err := schema.Validate(value); err != nil {
			return schemaFailure[T](schema, parsed, Diagnostics(err))
		}
	}
	return Repaired[T]{Kind: RepairOK, Value: value}
}

func schemaFailure[T any](schema Schema[T], parsed any, diagnostics []string) Repaired[T] {
	return Repaired[T]{
		Kind: RepairSchemaError,
		Err:  &SchemaValidationError{Schema: schema.Name, Diagnostics: diagnostics, Parsed: parsed},
	}
}

// Diagnostics flattens validator errors into "namespace: rule" lines.
func Diagnostics(err error) []string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return []string{err.Error()}
	}
	out := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		line := fmt.Sprintf("%s: failed %q", fe.Namespace(), fe.Tag())
		if fe.Param() != "" {
			line = fmt.Sprintf("%s: failed %q (%s)", fe.Namespace(), fe.Tag(), fe.Param())
		}
		out = append(out, line)
	}
	return out
}
