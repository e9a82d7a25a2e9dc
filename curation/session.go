// Package curation holds the client-side review state for a set of generated suggestions.
package curation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/vnkhanh/e-flashcard-backend/models"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusEdited   Status = "edited"
	StatusRejected Status = "rejected"
)

var (
	ErrInvalidTransition = errors.New("invalid curation transition")
	ErrNoSuchSuggestion  = errors.New("no such suggestion")
	ErrNotEditing        = errors.New("no suggestion is being edited")
)

// Draft is the shared edit buffer.
type Draft struct {
	Front string
	Back  string
}

// Session tracks one generation's suggestions through review. It is not safe for
// concurrent use; a single UI loop owns it.
type Session struct {
	generationID uuid.UUID
	original     []models.FlashcardSuggestion
	current      []models.FlashcardSuggestion
	status       []Status

	editing int
	buffer  Draft
}

func NewSession(gen *models.GeneratedFlashcards) *Session {
	s := &Session{}
	s.Reset(gen)
	return s
}

// Reset replaces the suggestion set and puts every item back to pending.
func (s *Session) Reset(gen *models.GeneratedFlashcards) {
	s.editing = -1
	s.buffer = Draft{}
	s.generationID = uuid.Nil
	s.original, s.current, s.status = nil, nil, nil
	if gen == nil {
		return
	}
	s.generationID = gen.GenerationID
	s.original = append([]models.FlashcardSuggestion(nil), gen.Suggestions...)
	s.current = append([]models.FlashcardSuggestion(nil), gen.Suggestions...)
	s.status = make([]Status, len(gen.Suggestions))
	for i := range s.status {
		s.status[i] = StatusPending
	}
}

func (s *Session) GenerationID() uuid.UUID { return s.generationID }

func (s *Session) Len() int { return len(s.current) }

func (s *Session) Status(i int) (Status, error) {
	if err := s.check(i); err != nil {
		return "", err
	}
	return s.status[i], nil
}

// Suggestion returns the current, possibly edited, front and back.
func (s *Session) Suggestion(i int) (models.FlashcardSuggestion, error) {
	if err := s.check(i); err != nil {
		return models.FlashcardSuggestion{}, err
	}
	return s.current[i], nil
}

// Editing reports the index held by the edit buffer.
func (s *Session) Editing() (int, bool) {
	return s.editing, s.editing >= 0
}

func (s *Session) Buffer() Draft { return s.buffer }

func (s *Session) Approve(i int) error {
	return s.fromPending(i, StatusApproved, "approve")
}

func (s *Session) Reject(i int) error {
	return s.fromPending(i, StatusRejected, "reject")
}

// StartEdit loads suggestion i into the edit buffer.
func (s *Session) StartEdit(i int) (Draft, error) {
	if err := s.check(i); err != nil {
		return Draft{}, err
	}
	if s.editing >= 0 {
		return Draft{}, fmt.Errorf("%w: suggestion %d is already being edited", ErrInvalidTransition, s.editing)
	}
	if s.status[i] != StatusPending {
		return Draft{}, fmt.Errorf("%w: cannot edit a %s suggestion", ErrInvalidTransition, s.status[i])
	}
	s.editing = i
	s.buffer = Draft{Front: s.current[i].Front, Back: s.current[i].Back}
	return s.buffer, nil
}

func (s *Session) UpdateBuffer(front, back string) error {
	if s.editing < 0 {
		return ErrNotEditing
	}
	s.buffer = Draft{Front: front, Back: back}
	return nil
}

// SaveEdit writes the buffer over the suggestion and marks it edited. The buffer must
// satisfy the flashcard length limits so the item stays eligible for saving.
func (s *Session) SaveEdit() error {
	if s.editing < 0 {
		return ErrNotEditing
	}
	front := strings.TrimSpace(s.buffer.Front)
	back := strings.TrimSpace(s.buffer.Back)
	if err := checkDraft(front, back); err != nil {
		return err
	}
	i := s.editing
	s.current[i].Front = front
	s.current[i].Back = back
	s.current[i].Source = models.SourceAIEdited
	s.status[i] = StatusEdited
	s.editing = -1
	s.buffer = Draft{}
	return nil
}

// CancelEdit discards the buffer. The suggestion is left untouched.
func (s *Session) CancelEdit() error {
	if s.editing < 0 {
		return ErrNotEditing
	}
	s.editing = -1
	s.buffer = Draft{}
	return nil
}

// UndoEdit restores the generated front and back of an edited suggestion.
func (s *Session) UndoEdit(i int) error {
	if err := s.check(i); err != nil {
		return err
	}
	if s.status[i] != StatusEdited {
		return fmt.Errorf("%w: cannot undo a %s suggestion", ErrInvalidTransition, s.status[i])
	}
	s.current[i] = s.original[i]
	s.status[i] = StatusPending
	return nil
}

// Eligible returns the approved and edited suggestions as bulk save items, in order.
func (s *Session) Eligible() []models.CreateFlashcardInput {
	var out []models.CreateFlashcardInput
	for i, st := range s.status {
		var source models.FlashcardSource
		switch st {
		case StatusApproved:
			source = models.SourceAIFull
		case StatusEdited:
			source = models.SourceAIEdited
		default:
			continue
		}
		id := s.generationID
		out = append(out, models.CreateFlashcardInput{
			Front:        s.current[i].Front,
			Back:         s.current[i].Back,
			Source:       source,
			GenerationID: &id,
		})
	}
	return out
}

func (s *Session) CanSave() bool {
	for _, st := range s.status {
		if st == StatusApproved || st == StatusEdited {
			return true
		}
	}
	return false
}

// Counts tallies suggestions per status.
func (s *Session) Counts() map[Status]int {
	out := map[Status]int{StatusPending: 0, StatusApproved: 0, StatusEdited: 0, StatusRejected: 0}
	for _, st := range s.status {
		out[st]++
	}
	return out
}

func (s *Session) fromPending(i int, to Status, action string) error {
	if err := s.check(i); err != nil {
		return err
	}
	if s.editing == i {
		return fmt.Errorf("%w: finish editing before you %s", ErrInvalidTransition, action)
	}
	if s.status[i] != StatusPending {
		return fmt.Errorf("%w: cannot %s a %s suggestion", ErrInvalidTransition, action, s.status[i])
	}
	s.status[i] = to
	return nil
}

func (s *Session) check(i int) error {
	if i < 0 || i >= len(s.status) {
		return fmt.Errorf("%w: %d", ErrNoSuchSuggestion, i)
	}
	return nil
}

func checkDraft(front, back string) error {
	switch {
	case front == "":
		return fmt.Errorf("front must not be empty")
	case back == "":
		return fmt.Errorf("back must not be empty")
	case len([]rune(front)) > models.FrontMaxLength:
		return fmt.Errorf("front must be at most %d characters", models.FrontMaxLength)
	case len([]rune(back)) > models.BackMaxLength:
		return fmt.Errorf("back must be at most %d characters", models.BackMaxLength)
	}
	return nil
}
