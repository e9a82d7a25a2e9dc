package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FlashcardSource string

const (
	SourceManual   FlashcardSource = "manual"
	SourceAIFull   FlashcardSource = "ai-full"   // AI output saved unchanged
	SourceAIEdited FlashcardSource = "ai-edited" // AI output modified before saving
)

const (
	FrontMaxLength = 200
	BackMaxLength  = 500
)

func (s FlashcardSource) Valid() bool {
	switch s {
	case SourceManual, SourceAIFull, SourceAIEdited:
		return true
	}
	return false
}

// IsAI reports whether cards with this source must reference a generation.
func (s FlashcardSource) IsAI() bool {
	return s == SourceAIFull || s == SourceAIEdited
}

// Flashcard is owned by exactly one user. OwnerID is never serialized.
type Flashcard struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	OwnerID      uuid.UUID       `gorm:"type:uuid;not null;index" json:"-"`
	Front        string          `gorm:"size:200;not null" json:"front"`
	Back         string          `gorm:"size:500;not null" json:"back"`
	Source       FlashcardSource `gorm:"type:varchar(20);not null" json:"source"`
	GenerationID *uuid.UUID      `gorm:"type:uuid;index" json:"generation_id"`
	Generation   *Generation     `gorm:"foreignKey:GenerationID;constraint:OnDelete:RESTRICT;" json:"-"`
	CreatedAt    time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

func (f *Flashcard) BeforeCreate(*gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}

// CreateFlashcardInput is one item of a bulk save request. Field rules are checked per item
// by the flashcard service so that one bad item does not reject the whole batch.
type CreateFlashcardInput struct {
	Front        string          `json:"front" validate:"min=1,max=200"`
	Back         string          `json:"back" validate:"min=1,max=500"`
	Source       FlashcardSource `json:"source" validate:"oneof=manual ai-full ai-edited"`
	GenerationID *uuid.UUID      `json:"generation_id"`
}

type CreateFlashcardsCommand struct {
	Flashcards []CreateFlashcardInput `json:"flashcards" binding:"required,min=1"`
}

type UpdateFlashcardCommand struct {
	Front  string          `json:"front" binding:"required,min=1,max=200"`
	Back   string          `json:"back" binding:"required,min=1,max=500"`
	Source FlashcardSource `json:"source" binding:"required,oneof=manual ai-edited"`
}

type FailedFlashcard struct {
	Index int    `json:"index"`
	Error string `json:"error"`
}

// CreateFlashcardsResult itemizes a bulk save: persisted cards and failures by request index.
type CreateFlashcardsResult struct {
	Data   []Flashcard       `json:"data"`
	Failed []FailedFlashcard `json:"failed"`
}

type ExportDeckCommand struct {
	Title string `json:"title" binding:"omitempty,max=120"`
}

type DeckExport struct {
	URL   string `json:"url"`
	Path  string `json:"path"`
	Count int    `json:"count"`
}
