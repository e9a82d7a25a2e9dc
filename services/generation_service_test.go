package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/services/llm"
)

func newGenerationService(fc *fakeCompleter) *GenerationService {
	return NewGenerationService(fc, GenerationConfig{Model: "google/gemma-3-27b-it:free", Temperature: 0.5, CardCount: 10}, nil)
}

func TestGenerate_ReturnsTaggedSuggestions(t *testing.T) {
	fc := &fakeCompleter{content: cardsJSON(10)}
	svc := newGenerationService(fc)

	got, err := svc.Generate(context.Background(), sourceText(1500))

	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, got.GenerationID)
	assert.Equal(t, "google/gemma-3-27b-it:free", got.Model)
	assert.Equal(t, 10, got.GeneratedCount)
	require.Len(t, got.Suggestions, 10)
	for _, s := range got.Suggestions {
		assert.Equal(t, models.SourceAIFull, s.Source)
	}
	assert.Equal(t, "Question 1?", got.Suggestions[0].Front)
}

func TestGenerate_BuildsStructuredRequest(t *testing.T) {
	fc := &fakeCompleter{content: cardsJSON(1)}
	svc := NewGenerationService(fc, GenerationConfig{Model: "m", Temperature: 0.5, MaxTokens: 2000, CardCount: 7}, nil)

	_, err := svc.Generate(context.Background(), sourceText(1200))
	require.NoError(t, err)

	req := fc.last
	require.NotNil(t, req.ResponseFormat)
	assert.Equal(t, FlashcardSchemaName, req.ResponseFormat.Name)
	require.NotNil(t, req.Temperature)
	assert.InDelta(t, 0.5, *req.Temperature, 1e-9)
	require.NotNil(t, req.MaxTokens)
	assert.Equal(t, 2000, *req.MaxTokens)
	assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
	assert.Contains(t, req.Messages[0].Content, "exactly 7 flashcards")
	assert.Equal(t, sourceText(1200), req.Messages[len(req.Messages)-1].Content)
}

func TestGenerate_FencedOutputIsAccepted(t *testing.T) {
	fc := &fakeCompleter{content: "```json\n" + cardsJSON(3) + "\n```"}

	got, err := newGenerationService(fc).Generate(context.Background(), sourceText(1500))

	require.NoError(t, err)
	assert.Equal(t, 3, got.GeneratedCount)
}

func TestGenerate_EmptyResult(t *testing.T) {
	for _, content := range []string{"[]", "null"} {
		fc := &fakeCompleter{content: content}

		_, err := newGenerationService(fc).Generate(context.Background(), sourceText(1500))

		assert.ErrorIs(t, err, ErrEmptyResult, content)
		assert.Equal(t, CodeEmptyResults, ErrorCode(err))
		var genErr *GenerationFailedError
		assert.False(t, errors.As(err, &genErr))
	}
}

func TestGenerate_WrapsUpstreamFailure(t *testing.T) {
	upstream := &llm.UpstreamError{Provider: "fake", StatusCode: 503, Body: map[string]any{"error": "unavailable"}}
	fc := &fakeCompleter{err: upstream}

	_, err := newGenerationService(fc).Generate(context.Background(), sourceText(1500))

	var genErr *GenerationFailedError
	require.ErrorAs(t, err, &genErr)
	var got *llm.UpstreamError
	require.ErrorAs(t, err, &got)
	assert.Equal(t, 503, got.StatusCode)
	assert.Equal(t, CodeAIService, ErrorCode(err))
}

func TestGenerate_WrapsRepairFailures(t *testing.T) {
	cases := map[string]string{
		"prose":          "Sure! Here are some flashcards about the topic.",
		"missing fields": `[{"front":"only a front"}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := newGenerationService(&fakeCompleter{content: content}).Generate(context.Background(), sourceText(1500))

			var genErr *GenerationFailedError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, CodeAIService, ErrorCode(err))
		})
	}
}

func TestGenerate_RejectsBlankFields(t *testing.T) {
	cases := map[string]string{
		"blank front": `[{"front":"   ","back":"A"}]`,
		"blank back":  `[{"front":"Q","back":"\n\t"}]`,
		"one of many": `[{"front":"Q1","back":"A1"},{"front":"","back":"A2"}]`,
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			got, err := newGenerationService(&fakeCompleter{content: content}).Generate(context.Background(), sourceText(1500))

			assert.Nil(t, got)
			var schemaErr *llm.SchemaValidationError
			require.ErrorAs(t, err, &schemaErr)
			assert.Equal(t, CodeAIService, ErrorCode(err))
		})
	}
}

func TestGenerate_KeepsOverlongDraftsForCuration(t *testing.T) {
	long := strings.Repeat("x", models.FrontMaxLength+100)
	fc := &fakeCompleter{content: `[{"front":"` + long + `","back":"B"}]`}

	got, err := newGenerationService(fc).Generate(context.Background(), sourceText(1500))

	require.NoError(t, err)
	assert.Equal(t, long, got.Suggestions[0].Front)
}
