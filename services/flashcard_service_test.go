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
	"github.com/vnkhanh/e-flashcard-backend/repositories"
)

type flashcardFixture struct {
	svc   *FlashcardService
	gens  repositories.GenerationRepository
	cards repositories.FlashcardRepository
	owner uuid.UUID
	gen   *models.Generation
}

func newFlashcardFixture(t *testing.T) *flashcardFixture {
	db := newTestDB(t)
	gens := repositories.NewGenerationRepository(db)
	cards := repositories.NewFlashcardRepository(db)
	ledger := NewLedgerService(gens, repositories.NewGenerationErrorLogRepository(db), nil)
	owner := uuid.New()
	return &flashcardFixture{
		svc:   NewFlashcardService(cards, gens, ledger, nil),
		gens:  gens,
		cards: cards,
		owner: owner,
		gen:   seedGeneration(t, gens, owner),
	}
}

func TestCreateFlashcards_PartialSuccessKeepsRequestIndices(t *testing.T) {
	f := newFlashcardFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateFlashcards(ctx, f.owner, []models.CreateFlashcardInput{
		{Front: "Q1", Back: "A1", Source: models.SourceAIFull, GenerationID: &f.gen.ID},
		{Front: "Q2", Back: "A2", Source: models.SourceManual, GenerationID: &f.gen.ID},
	})

	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	assert.Equal(t, "Q1", res.Data[0].Front)
	require.Len(t, res.Failed, 1)
	assert.Equal(t, 1, res.Failed[0].Index)
	assert.Contains(t, res.Failed[0].Error, "generation_id")

	g, err := f.gens.GetByID(ctx, f.owner, f.gen.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, g.AcceptedUneditedCount)
	assert.Equal(t, 0, g.AcceptedEditedCount)
}

func TestCreateFlashcards_IncrementsCountersPerSource(t *testing.T) {
	f := newFlashcardFixture(t)
	ctx := context.Background()

	res, err := f.svc.CreateFlashcards(ctx, f.owner, []models.CreateFlashcardInput{
		{Front: "Q1", Back: "A1", Source: models.SourceAIEdited, GenerationID: &f.gen.ID},
		{Front: "Q2", Back: "A2", Source: models.SourceAIEdited, GenerationID: &f.gen.ID},
		{Front: "Q3", Back: "A3", Source: models.SourceAIFull, GenerationID: &f.gen.ID},
		{Front: "Q4", Back: "A4", Source: models.SourceManual},
	})

	require.NoError(t, err)
	assert.Len(t, res.Data, 4)
	assert.Empty(t, res.Failed)

	g, err := f.gens.GetByID(ctx, f.owner, f.gen.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, g.AcceptedEditedCount)
	assert.Equal(t, 1, g.AcceptedUneditedCount)
}

func TestCreateFlashcards_PerItemRules(t *testing.T) {
	f := newFlashcardFixture(t)
	foreign := seedGeneration(t, f.gens, uuid.New())

	res, err := f.svc.CreateFlashcards(context.Background(), f.owner, []models.CreateFlashcardInput{
		{Front: strings.Repeat("q", 201), Back: "A", Source: models.SourceManual},
		{Front: "Q", Back: "   ", Source: models.SourceManual},
		{Front: "Q", Back: "A", Source: "imported"},
		{Front: "Q", Back: "A", Source: models.SourceAIFull},
		{Front: "Q", Back: "A", Source: models.SourceAIFull, GenerationID: &foreign.ID},
		{Front: strings.Repeat("q", 200), Back: strings.Repeat("a", 500), Source: models.SourceManual},
	})

	require.NoError(t, err)
	require.Len(t, res.Data, 1)
	require.Len(t, res.Failed, 5)
	for i, failed := range res.Failed {
		assert.Equal(t, i, failed.Index)
		assert.NotEmpty(t, failed.Error)
	}
	assert.Contains(t, res.Failed[0].Error, "front must be at most 200")
	assert.Contains(t, res.Failed[1].Error, "back")
	assert.Contains(t, res.Failed[2].Error, "source")
	assert.Contains(t, res.Failed[3].Error, "required")
	assert.Equal(t, "generation not found", res.Failed[4].Error)
}

func TestCreateFlashcards_BatchFailureFailsEveryValidItem(t *testing.T) {
	f := newFlashcardFixture(t)
	svc := NewFlashcardService(failingFlashcardRepository{err: errors.New("disk full")}, f.gens, nil, nil)

	res, err := svc.CreateFlashcards(context.Background(), f.owner, []models.CreateFlashcardInput{
		{Front: "Q1", Back: "A1", Source: models.SourceManual},
		{Front: "", Back: "A2", Source: models.SourceManual},
		{Front: "Q3", Back: "A3", Source: models.SourceManual},
	})

	require.NoError(t, err)
	assert.Empty(t, res.Data)
	require.Len(t, res.Failed, 3)
	assert.Equal(t, []int{0, 1, 2}, []int{res.Failed[0].Index, res.Failed[1].Index, res.Failed[2].Index})
	assert.Equal(t, res.Failed[0].Error, res.Failed[2].Error)
	assert.NotContains(t, res.Failed[0].Error, "disk full")
}

func TestCreateFlashcards_RequiresOwner(t *testing.T) {
	f := newFlashcardFixture(t)

	_, err := f.svc.CreateFlashcards(context.Background(), uuid.Nil, []models.CreateFlashcardInput{{Front: "Q", Back: "A", Source: models.SourceManual}})

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestFlashcardCRUD_IsOwnerScoped(t *testing.T) {
	f := newFlashcardFixture(t)
	ctx := context.Background()
	res, err := f.svc.CreateFlashcards(ctx, f.owner, []models.CreateFlashcardInput{
		{Front: "Q1", Back: "A1", Source: models.SourceAIFull, GenerationID: &f.gen.ID},
		{Front: "Q2", Back: "A2", Source: models.SourceManual},
	})
	require.NoError(t, err)
	aiCard, manualCard := res.Data[0], res.Data[1]
	stranger := uuid.New()

	_, err = f.svc.GetFlashcard(ctx, stranger, aiCard.ID)
	assert.ErrorIs(t, err, ErrFlashcardNotFound)
	assert.ErrorIs(t, f.svc.DeleteFlashcard(ctx, stranger, aiCard.ID), ErrFlashcardNotFound)

	updated, err := f.svc.UpdateFlashcard(ctx, f.owner, aiCard.ID, models.UpdateFlashcardCommand{Front: "Q1*", Back: "A1*", Source: models.SourceAIEdited})
	require.NoError(t, err)
	assert.Equal(t, "Q1*", updated.Front)
	assert.Equal(t, models.SourceAIEdited, updated.Source)

	_, err = f.svc.UpdateFlashcard(ctx, f.owner, aiCard.ID, models.UpdateFlashcardCommand{Front: "x", Back: "y", Source: models.SourceManual})
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = f.svc.UpdateFlashcard(ctx, f.owner, manualCard.ID, models.UpdateFlashcardCommand{Front: "x", Back: "y", Source: models.SourceAIEdited})
	assert.ErrorAs(t, err, &verr)

	page, err := f.svc.ListFlashcards(ctx, f.owner, models.PaginationQuery{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Pagination.Total)

	require.NoError(t, f.svc.DeleteFlashcard(ctx, f.owner, manualCard.ID))
	_, err = f.svc.GetFlashcard(ctx, f.owner, manualCard.ID)
	assert.ErrorIs(t, err, ErrFlashcardNotFound)
}
