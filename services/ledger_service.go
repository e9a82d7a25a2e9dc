package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"time"

	"github.com/google/uuid"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/repositories"
)

const maxErrorMessageLength = 1000

// LedgerService keeps the audit trail of generations and failed generation attempts.
type LedgerService struct {
	generations repositories.GenerationRepository
	errorLogs   repositories.GenerationErrorLogRepository
	log         *logger.Logger
}

func NewLedgerService(generations repositories.GenerationRepository, errorLogs repositories.GenerationErrorLogRepository, log *logger.Logger) *LedgerService {
	if log == nil {
		log = logger.NewNop()
	}
	return &LedgerService{generations: generations, errorLogs: errorLogs, log: log}
}

// HashSourceText returns the hex md5 digest stored instead of the text itself.
func HashSourceText(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// RecordGeneration stores the generation under result.GenerationID so saved cards can refer to it.
func (s *LedgerService) RecordGeneration(ctx context.Context, ownerID uuid.UUID, sourceText string, result *models.GeneratedFlashcards, duration time.Duration) (*models.Generation, error) {
	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	g := &models.Generation{
		ID:                 result.GenerationID,
		OwnerID:            ownerID,
		Model:              result.Model,
		GeneratedCount:     result.GeneratedCount,
		SourceTextHash:     HashSourceText(sourceText),
		SourceTextLength:   models.SourceTextLength(sourceText),
		GenerationDuration: duration.Round(time.Millisecond).Milliseconds(),
	}
	if err := s.generations.Create(ctx, g); err != nil {
		return nil, &PersistenceError{Op: "record generation", Err: err}
	}
	return g, nil
}

// RecordError writes a generation error log. It never fails the caller.
func (s *LedgerService) RecordError(ctx context.Context, ownerID uuid.UUID, sourceText, model, code, message string) {
	if ownerID == uuid.Nil {
		s.log.Warn("skipping generation error log without owner", "error_code", code)
		return
	}
	if runes := []rune(message); len(runes) > maxErrorMessageLength {
		message = string(runes[:maxErrorMessageLength])
	}
	entry := &models.GenerationErrorLog{
		OwnerID:          ownerID,
		Model:            model,
		SourceTextHash:   HashSourceText(sourceText),
		SourceTextLength: models.SourceTextLength(sourceText),
		ErrorCode:        code,
		ErrorMessage:     message,
	}
	if err := s.errorLogs.Create(ctx, entry); err != nil {
		s.log.Error("failed to write generation error log", "owner_id", ownerID, "error_code", code, "error", err)
	}
}

func (s *LedgerService) IncrementAccepted(ctx context.Context, ownerID, generationID uuid.UUID, edited, unedited int) error {
	if err := s.generations.IncrementAccepted(ctx, ownerID, generationID, edited, unedited); err != nil {
		return &PersistenceError{Op: "increment accepted counters", Err: err}
	}
	return nil
}

func (s *LedgerService) ListGenerations(ctx context.Context, ownerID uuid.UUID, q models.PaginationQuery) (*models.PaginatedResponse[models.GenerationSession], error) {
	page := q.Normalize("created_at", repositories.GenerationSortColumns...)
	rows, total, err := s.generations.List(ctx, ownerID, page)
	if err != nil {
		return nil, &PersistenceError{Op: "list generations", Err: err}
	}
	data := make([]models.GenerationSession, 0, len(rows))
	for _, g := range rows {
		data = append(data, g.Session())
	}
	return &models.PaginatedResponse[models.GenerationSession]{Data: data, Pagination: page.Pagination(total)}, nil
}

func (s *LedgerService) ListErrorLogs(ctx context.Context, ownerID uuid.UUID, q models.PaginationQuery) (*models.PaginatedResponse[models.GenerationErrorLog], error) {
	page := q.Normalize("created_at", repositories.ErrorLogSortColumns...)
	rows, total, err := s.errorLogs.List(ctx, ownerID, page)
	if err != nil {
		return nil, &PersistenceError{Op: "list generation error logs", Err: err}
	}
	if rows == nil {
		rows = []models.GenerationErrorLog{}
	}
	return &models.PaginatedResponse[models.GenerationErrorLog]{Data: rows, Pagination: page.Pagination(total)}, nil
}
