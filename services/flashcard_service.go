package services

import (
	"context"
	"errors"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/metrics"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/repositories"
)

// AcceptanceRecorder bumps a generation's accepted counters after cards are saved.
type AcceptanceRecorder interface {
	IncrementAccepted(ctx context.Context, ownerID, generationID uuid.UUID, edited, unedited int) error
}

type FlashcardService struct {
	cards       repositories.FlashcardRepository
	generations repositories.GenerationRepository
	acceptance  AcceptanceRecorder
	validate    *validator.Validate
	log         *logger.Logger
}

func NewFlashcardService(cards repositories.FlashcardRepository, generations repositories.GenerationRepository, acceptance AcceptanceRecorder, log *logger.Logger) *FlashcardService {
	if log == nil {
		log = logger.NewNop()
	}
	return &FlashcardService{
		cards:       cards,
		generations: generations,
		acceptance:  acceptance,
		validate:    newValidator(),
		log:         log,
	}
}

type indexedCard struct {
	index int
	card  models.Flashcard
}

// CreateFlashcards validates every item on its own and saves the valid ones in a single
// batch. Failures are reported by their index in items; a partial failure is not an error.
func (s *FlashcardService) CreateFlashcards(ctx context.Context, ownerID uuid.UUID, items []models.CreateFlashcardInput) (*models.CreateFlashcardsResult, error) {
	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	result := &models.CreateFlashcardsResult{Data: []models.Flashcard{}, Failed: []models.FailedFlashcard{}}

	owned, lookupErr := s.ownedGenerations(ctx, ownerID, items)

	var valid []indexedCard
	for i, item := range items {
		item.Front = strings.TrimSpace(item.Front)
		item.Back = strings.TrimSpace(item.Back)
		if msg := s.checkItem(item, owned, lookupErr); msg != "" {
			result.Failed = append(result.Failed, models.FailedFlashcard{Index: i, Error: msg})
			continue
		}
		valid = append(valid, indexedCard{index: i, card: models.Flashcard{
			ID:           uuid.New(),
			OwnerID:      ownerID,
			Front:        item.Front,
			Back:         item.Back,
			Source:       item.Source,
			GenerationID: item.GenerationID,
		}})
	}

	if len(valid) > 0 {
		batch := make([]models.Flashcard, len(valid))
		for i, v := range valid {
			batch[i] = v.card
		}
		if err := s.cards.CreateBatch(ctx, batch); err != nil {
			s.log.Error("bulk flashcard insert failed", "owner_id", ownerID, "count", len(batch), "error", err)
			for _, v := range valid {
				result.Failed = append(result.Failed, models.FailedFlashcard{Index: v.index, Error: "could not save flashcard, please try again"})
			}
		} else {
			result.Data = batch
			s.recordAcceptance(ctx, ownerID, batch)
		}
	}

	sort.Slice(result.Failed, func(i, j int) bool { return result.Failed[i].Index < result.Failed[j].Index })
	return result, nil
}

func (s *FlashcardService) ownedGenerations(ctx context.Context, ownerID uuid.UUID, items []models.CreateFlashcardInput) (map[uuid.UUID]bool, error) {
	seen := map[uuid.UUID]bool{}
	var ids []uuid.UUID
	for _, item := range items {
		if item.Source.IsAI() && item.GenerationID != nil && !seen[*item.GenerationID] {
			seen[*item.GenerationID] = true
			ids = append(ids, *item.GenerationID)
		}
	}
	if len(ids) == 0 {
		return map[uuid.UUID]bool{}, nil
	}
	owned, err := s.generations.OwnedIDs(ctx, ownerID, ids)
	if err != nil {
		s.log.Error("generation ownership lookup failed", "owner_id", ownerID, "error", err)
		return nil, err
	}
	return owned, nil
}

// checkItem returns an empty string for a valid item.
func (s *FlashcardService) checkItem(item models.CreateFlashcardInput, owned map[uuid.UUID]bool, lookupErr error) string {
	if err := s.validate.Struct(item); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fieldMessage(verrs[0])
		}
		return err.Error()
	}
	switch {
	case item.Source == models.SourceManual && item.GenerationID != nil:
		return "generation_id must be null for manual flashcards"
	case item.Source.IsAI() && item.GenerationID == nil:
		return "generation_id is required for AI flashcards"
	case item.Source.IsAI() && lookupErr != nil:
		return "could not verify generation, please try again"
	case item.Source.IsAI() && !owned[*item.GenerationID]:
		return "generation not found"
	}
	return ""
}

func (s *FlashcardService) recordAcceptance(ctx context.Context, ownerID uuid.UUID, saved []models.Flashcard) {
	type tally struct{ edited, unedited int }
	perGeneration := map[uuid.UUID]*tally{}
	bySource := map[models.FlashcardSource]int{}
	for _, c := range saved {
		bySource[c.Source]++
		if c.GenerationID == nil {
			continue
		}
		t, ok := perGeneration[*c.GenerationID]
		if !ok {
			t = &tally{}
			perGeneration[*c.GenerationID] = t
		}
		switch c.Source {
		case models.SourceAIEdited:
			t.edited++
		case models.SourceAIFull:
			t.unedited++
		}
	}
	for source, n := range bySource {
		metrics.AddPersisted(string(source), n)
	}
	for genID, t := range perGeneration {
		if err := s.acceptance.IncrementAccepted(ctx, ownerID, genID, t.edited, t.unedited); err != nil {
			s.log.Warn("failed to update generation acceptance counters", "owner_id", ownerID, "generation_id", genID, "error", err)
		}
	}
}

func (s *FlashcardService) GetFlashcard(ctx context.Context, ownerID, id uuid.UUID) (*models.Flashcard, error) {
	card, err := s.cards.GetByID(ctx, ownerID, id)
	if err != nil {
		return nil, &PersistenceError{Op: "get flashcard", Err: err}
	}
	if card == nil {
		return nil, ErrFlashcardNotFound
	}
	return card, nil
}

func (s *FlashcardService) ListFlashcards(ctx context.Context, ownerID uuid.UUID, q models.PaginationQuery) (*models.PaginatedResponse[models.Flashcard], error) {
	page := q.Normalize("created_at", repositories.FlashcardSortColumns...)
	rows, total, err := s.cards.List(ctx, ownerID, page)
	if err != nil {
		return nil, &PersistenceError{Op: "list flashcards", Err: err}
	}
	if rows == nil {
		rows = []models.Flashcard{}
	}
	return &models.PaginatedResponse[models.Flashcard]{Data: rows, Pagination: page.Pagination(total)}, nil
}

// UpdateFlashcard keeps the manual/AI distinction: a card with a generation can only
// become ai-edited and a card without one stays manual.
func (s *FlashcardService) UpdateFlashcard(ctx context.Context, ownerID, id uuid.UUID, cmd models.UpdateFlashcardCommand) (*models.Flashcard, error) {
	card, err := s.GetFlashcard(ctx, ownerID, id)
	if err != nil {
		return nil, err
	}
	switch {
	case cmd.Source == models.SourceManual && card.GenerationID != nil:
		return nil, newValidationError("source", "AI flashcards cannot be marked manual")
	case cmd.Source == models.SourceAIEdited && card.GenerationID == nil:
		return nil, newValidationError("source", "manual flashcards cannot be marked ai-edited")
	}

	card.Front = strings.TrimSpace(cmd.Front)
	card.Back = strings.TrimSpace(cmd.Back)
	card.Source = cmd.Source
	if card.Front == "" {
		return nil, newValidationError("front", "front must not be empty")
	}
	if card.Back == "" {
		return nil, newValidationError("back", "back must not be empty")
	}
	if err := s.cards.Update(ctx, card); err != nil {
		return nil, &PersistenceError{Op: "update flashcard", Err: err}
	}
	return s.GetFlashcard(ctx, ownerID, id)
}

func (s *FlashcardService) DeleteFlashcard(ctx context.Context, ownerID, id uuid.UUID) error {
	deleted, err := s.cards.Delete(ctx, ownerID, id)
	if err != nil {
		return &PersistenceError{Op: "delete flashcard", Err: err}
	}
	if !deleted {
		return ErrFlashcardNotFound
	}
	return nil
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return field + " must not be empty"
	case "max":
		return field + " must be at most " + fe.Param() + " characters"
	case "oneof":
		return field + " must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	}
	return field + " is invalid"
}
