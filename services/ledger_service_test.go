package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/repositories"
)

func newLedger(t *testing.T) (*LedgerService, repositories.GenerationRepository, repositories.GenerationErrorLogRepository) {
	db := newTestDB(t)
	gens := repositories.NewGenerationRepository(db)
	logs := repositories.NewGenerationErrorLogRepository(db)
	return NewLedgerService(gens, logs, nil), gens, logs
}

func TestHashSourceText_MD5Hex(t *testing.T) {
	assert.Equal(t, "5d41402abc4b2a76b9719d911017c592", HashSourceText("hello"))
}

func TestRecordGeneration_StoresAuditFields(t *testing.T) {
	ledger, gens, _ := newLedger(t)
	ctx := context.Background()
	owner := uuid.New()
	text := sourceText(1500)
	result := &models.GeneratedFlashcards{GenerationID: uuid.New(), Model: "gemma", GeneratedCount: 10}

	_, err := ledger.RecordGeneration(ctx, owner, text, result, 1234567*time.Microsecond)
	require.NoError(t, err)

	got, err := gens.GetByID(ctx, owner, result.GenerationID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, HashSourceText(text), got.SourceTextHash)
	assert.Equal(t, 1500, got.SourceTextLength)
	assert.EqualValues(t, 1235, got.GenerationDuration)
	assert.Equal(t, 10, got.GeneratedCount)
	assert.Zero(t, got.AcceptedEditedCount)
	assert.Zero(t, got.AcceptedUneditedCount)
}

func TestRecordGeneration_RequiresOwner(t *testing.T) {
	ledger, _, _ := newLedger(t)

	_, err := ledger.RecordGeneration(context.Background(), uuid.Nil, sourceText(1500), &models.GeneratedFlashcards{GenerationID: uuid.New()}, time.Second)

	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestRecordError_WritesLogAndSkipsAnonymous(t *testing.T) {
	ledger, _, logs := newLedger(t)
	ctx := context.Background()
	owner := uuid.New()

	ledger.RecordError(ctx, uuid.Nil, sourceText(1500), "gemma", CodeAIService, "status 503")
	ledger.RecordError(ctx, owner, sourceText(1500), "gemma", CodeAIService, "status 503")

	rows, total, err := logs.List(ctx, owner, models.PageRequest{Page: 1, Limit: 10, SortBy: "created_at", Desc: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Equal(t, CodeAIService, rows[0].ErrorCode)
	assert.Equal(t, HashSourceText(sourceText(1500)), rows[0].SourceTextHash)

	_, total, err = logs.List(ctx, uuid.Nil, models.PageRequest{Page: 1, Limit: 10, SortBy: "created_at"})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestRecordError_SwallowsStorageFailure(t *testing.T) {
	ledger := NewLedgerService(nil, failingErrorLogRepository{}, nil)

	assert.NotPanics(t, func() {
		ledger.RecordError(context.Background(), uuid.New(), "text", "gemma", CodeUnknown, "boom")
	})
}

func TestListGenerations_Sessions(t *testing.T) {
	ledger, gens, _ := newLedger(t)
	ctx := context.Background()
	owner := uuid.New()
	for i := 0; i < 3; i++ {
		seedGeneration(t, gens, owner)
	}

	page, err := ledger.ListGenerations(ctx, owner, models.PaginationQuery{Limit: 2})

	require.NoError(t, err)
	assert.Len(t, page.Data, 2)
	assert.Equal(t, models.Pagination{Page: 1, Limit: 2, Total: 3}, page.Pagination)
}
