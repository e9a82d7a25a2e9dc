package services

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/vnkhanh/e-flashcard-backend/config"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/repositories"
	"github.com/vnkhanh/e-flashcard-backend/services/llm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := config.InitDB(config.DBConfig{Driver: config.DriverSQLite, Path: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

type fakeCompleter struct {
	content string
	err     error
	calls   int
	last    llm.ChatRequest
}

func (f *fakeCompleter) Complete(_ context.Context, req llm.ChatRequest) (string, error) {
	f.calls++
	f.last = req
	return f.content, f.err
}

func (f *fakeCompleter) Provider() string { return "fake" }

func cardsJSON(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf(`{"front":"Question %d?","back":"Answer %d"}`, i+1, i+1)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

func sourceText(n int) string {
	return strings.Repeat("x", n)
}

func seedGeneration(t *testing.T, repo repositories.GenerationRepository, owner uuid.UUID) *models.Generation {
	t.Helper()
	g := &models.Generation{OwnerID: owner, Model: "gemma", GeneratedCount: 10, SourceTextHash: "h", SourceTextLength: 1500}
	require.NoError(t, repo.Create(context.Background(), g))
	return g
}

// failingFlashcardRepository fails every batch insert and delegates the rest.
type failingFlashcardRepository struct {
	repositories.FlashcardRepository
	err error
}

func (r failingFlashcardRepository) CreateBatch(context.Context, []models.Flashcard) error {
	return r.err
}

type failingErrorLogRepository struct {
	repositories.GenerationErrorLogRepository
}

func (failingErrorLogRepository) Create(context.Context, *models.GenerationErrorLog) error {
	return fmt.Errorf("database is read-only")
}
