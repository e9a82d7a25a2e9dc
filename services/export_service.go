package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gosimple/slug"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/repositories"
)

const defaultDeckTitle = "flashcards"

// ObjectStore uploads a file and returns its public URL.
type ObjectStore interface {
	Upload(ctx context.Context, path string, data []byte, contentType string) (string, error)
}

// ExportService writes a JSON snapshot of a user's deck to object storage.
type ExportService struct {
	cards repositories.FlashcardRepository
	store ObjectStore
	log   *logger.Logger
	now   func() time.Time
}

func NewExportService(cards repositories.FlashcardRepository, store ObjectStore, log *logger.Logger) *ExportService {
	if log == nil {
		log = logger.NewNop()
	}
	return &ExportService{cards: cards, store: store, log: log, now: time.Now}
}

type deckSnapshot struct {
	Title      string         `json:"title"`
	ExportedAt time.Time      `json:"exported_at"`
	Count      int            `json:"count"`
	Flashcards []exportedCard `json:"flashcards"`
}

type exportedCard struct {
	Front  string                 `json:"front"`
	Back   string                 `json:"back"`
	Source models.FlashcardSource `json:"source"`
}

func (s *ExportService) ExportDeck(ctx context.Context, ownerID uuid.UUID, title string) (*models.DeckExport, error) {
	if ownerID == uuid.Nil {
		return nil, ErrUnauthorized
	}
	cards, err := s.cards.ListAll(ctx, ownerID)
	if err != nil {
		return nil, &PersistenceError{Op: "load deck", Err: err}
	}
	if len(cards) == 0 {
		return nil, ErrNothingToExport
	}

	title = strings.TrimSpace(title)
	if title == "" {
		title = defaultDeckTitle
	}
	now := s.now().UTC()
	snapshot := deckSnapshot{Title: title, ExportedAt: now, Count: len(cards), Flashcards: make([]exportedCard, 0, len(cards))}
	for _, c := range cards {
		snapshot.Flashcards = append(snapshot.Flashcards, exportedCard{Front: c.Front, Back: c.Back, Source: c.Source})
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return nil, err
	}

	name := slug.Make(title)
	if name == "" {
		name = defaultDeckTitle
	}
	path := fmt.Sprintf("decks/%s/%s-%s.json", ownerID, name, now.Format("20060102T150405Z"))
	url, err := s.store.Upload(ctx, path, data, "application/json")
	if err != nil {
		s.log.Error("deck upload failed", "owner_id", ownerID, "path", path, "error", err)
		return nil, fmt.Errorf("upload deck: %w", err)
	}
	return &models.DeckExport{URL: url, Path: path, Count: len(cards)}, nil
}
