package models

import (
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SourceTextMinLength = 1000
	SourceTextMaxLength = 10000
)

// Generation is the ledger row written after a successful generation call.
// Only the hash and length of the source text are kept.
type Generation struct {
	ID                    uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID               uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Model                 string    `gorm:"size:255;not null" json:"model"`
	GeneratedCount        int       `gorm:"not null;default:0" json:"generated_count"`
	SourceTextHash        string    `gorm:"size:64;not null;index" json:"source_text_hash"`
	SourceTextLength      int       `gorm:"not null" json:"source_text_length"`
	GenerationDuration    int64     `gorm:"not null" json:"generation_duration"` // ms
	AcceptedEditedCount   int       `gorm:"not null;default:0" json:"accepted_edited_count"`
	AcceptedUneditedCount int       `gorm:"not null;default:0" json:"accepted_unedited_count"`
	CreatedAt             time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt             time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (g *Generation) BeforeCreate(*gorm.DB) error {
	if g.ID == uuid.Nil {
		g.ID = uuid.New()
	}
	return nil
}

// GenerationErrorLog is append-only.
type GenerationErrorLog struct {
	ID               uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID          uuid.UUID `gorm:"type:uuid;not null;index" json:"-"`
	Model            string    `gorm:"size:255;not null" json:"model"`
	SourceTextHash   string    `gorm:"size:64;not null" json:"source_text_hash"`
	SourceTextLength int       `gorm:"not null" json:"source_text_length"`
	ErrorCode        string    `gorm:"size:50;not null" json:"error_code"`
	ErrorMessage     string    `gorm:"type:text;not null" json:"error_message"`
	CreatedAt        time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (l *GenerationErrorLog) BeforeCreate(*gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}

type FlashcardSuggestion struct {
	Front  string          `json:"front"`
	Back   string          `json:"back"`
	Source FlashcardSource `json:"source"`
}

type GeneratedFlashcards struct {
	GenerationID   uuid.UUID             `json:"generation_id"`
	Model          string                `json:"model"`
	Suggestions    []FlashcardSuggestion `json:"suggestions"`
	GeneratedCount int                   `json:"generated_count"`
}

type GenerateFlashcardsCommand struct {
	SourceText string `json:"source_text" binding:"required,min=1000,max=10000"`
}

// GenerationSession is the list view of a generation.
type GenerationSession struct {
	ID                    uuid.UUID `json:"id"`
	Model                 string    `json:"model"`
	GeneratedCount        int       `json:"generated_count"`
	AcceptedUneditedCount int       `json:"accepted_unedited_count"`
	AcceptedEditedCount   int       `json:"accepted_edited_count"`
	CreatedAt             time.Time `json:"created_at"`
}

func (g Generation) Session() GenerationSession {
	return GenerationSession{
		ID:                    g.ID,
		Model:                 g.Model,
		GeneratedCount:        g.GeneratedCount,
		AcceptedUneditedCount: g.AcceptedUneditedCount,
		AcceptedEditedCount:   g.AcceptedEditedCount,
		CreatedAt:             g.CreatedAt,
	}
}

// SourceTextLength counts characters as Unicode code points.
func SourceTextLength(text string) int {
	return utf8.RuneCountInString(text)
}

// CheckSourceText enforces the accepted source length range.
func CheckSourceText(text string) error {
	n := SourceTextLength(text)
	switch {
	case n < SourceTextMinLength:
		return fmt.Errorf("source text must be at least %d characters, got %d", SourceTextMinLength, n)
	case n > SourceTextMaxLength:
		return fmt.Errorf("source text must be at most %d characters, got %d", SourceTextMaxLength, n)
	}
	return nil
}

type ExtractedSourceText struct {
	SourceText   string `json:"source_text"`
	Length       int    `json:"length"`
	WithinLimits bool   `json:"within_limits"`
}
