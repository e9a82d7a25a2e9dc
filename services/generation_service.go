package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/services/llm"
)

const FlashcardSchemaName = "flashcard_list_generator"

// FlashcardDraft is one card as the model returns it.
type FlashcardDraft struct {
	Front string `json:"front" validate:"notblank"`
	Back  string `json:"back" validate:"notblank"`
}

type GenerationConfig struct {
	Model       string
	Temperature float64
	// MaxTokens of 0 leaves the provider default.
	MaxTokens int
	CardCount int
}

// GenerationService turns source text into flashcard suggestions. It writes nothing;
// recording the outcome is the caller's job.
type GenerationService struct {
	completer llm.Completer
	cfg       GenerationConfig
	schema    llm.Schema[[]FlashcardDraft]
	log       *logger.Logger
}

func NewGenerationService(completer llm.Completer, cfg GenerationConfig, log *logger.Logger) *GenerationService {
	if cfg.CardCount <= 0 {
		cfg.CardCount = 10
	}
	if log == nil {
		log = logger.NewNop()
	}
	v := newValidator()
	return &GenerationService{
		completer: completer,
		cfg:       cfg,
		log:       log,
		schema: llm.Schema[[]FlashcardDraft]{
			Name:     FlashcardSchemaName,
			JSON:     flashcardListJSONSchema(),
			Nullable: true,
			Validate: func(drafts []FlashcardDraft) error { return v.Var(drafts, "dive") },
		},
	}
}

func (s *GenerationService) Model() string { return s.cfg.Model }

// Generate expects sourceText to be within the accepted length range already.
func (s *GenerationService) Generate(ctx context.Context, sourceText string) (*models.GeneratedFlashcards, error) {
	req := llm.ChatRequest{
		Model: s.cfg.Model,
		Messages: []llm.Message{
			{Role: llm.RoleSystem, Content: s.systemPrompt()},
			{Role: llm.RoleUser, Content: sourceText},
		},
		Temperature: llm.Float64(s.cfg.Temperature),
	}
	if s.cfg.MaxTokens > 0 {
		req.MaxTokens = llm.Int(s.cfg.MaxTokens)
	}

	drafts, err := llm.CompleteStructured(ctx, s.completer, req, s.schema)
	if err != nil {
		s.log.Warn("flashcard generation failed", "model", s.cfg.Model, "provider", s.completer.Provider(), "error", err)
		return nil, &GenerationFailedError{Cause: err}
	}
	if len(drafts) == 0 {
		return nil, ErrEmptyResult
	}

	suggestions := make([]models.FlashcardSuggestion, 0, len(drafts))
	for _, d := range drafts {
		suggestions = append(suggestions, models.FlashcardSuggestion{
			Front:  strings.TrimSpace(d.Front),
			Back:   strings.TrimSpace(d.Back),
			Source: models.SourceAIFull,
		})
	}
	return &models.GeneratedFlashcards{
		GenerationID:   uuid.New(),
		Model:          s.cfg.Model,
		Suggestions:    suggestions,
		GeneratedCount: len(suggestions),
	}, nil
}

func (s *GenerationService) systemPrompt() string {
	return fmt.Sprintf(`You are an experienced teacher who writes study flashcards.
From the text provided by the user, create exactly %d flashcards that cover its most important facts and ideas.
Each flashcard has a "front" with a question or concept (at most %d characters) and a "back" with a concise answer or explanation (at most %d characters).
Write the flashcards in the language of the source text.
Respond with a JSON array of objects with the string fields "front" and "back". Do not include any text outside the JSON array.`,
		s.cfg.CardCount, models.FrontMaxLength, models.BackMaxLength)
}

func flashcardListJSONSchema() map[string]any {
	return map[string]any{
		"type": []string{"array", "null"},
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"front": map[string]any{"type": "string"},
				"back":  map[string]any{"type": "string"},
			},
			"required":             []string{"front", "back"},
			"additionalProperties": false,
		},
	}
}
