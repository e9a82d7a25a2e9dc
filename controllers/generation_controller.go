package controllers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/metrics"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/services"
	"github.com/vnkhanh/e-flashcard-backend/ws"
)

type Generator interface {
	Generate(ctx context.Context, sourceText string) (*models.GeneratedFlashcards, error)
	Model() string
}

type GenerationNotifier interface {
	NotifyGeneration(userID uuid.UUID, ev ws.GenerationEvent)
}

type GenerationController struct {
	generator Generator
	ledger    *services.LedgerService
	notifier  GenerationNotifier
	log       *logger.Logger
}

func NewGenerationController(generator Generator, ledger *services.LedgerService, notifier GenerationNotifier, log *logger.Logger) *GenerationController {
	if log == nil {
		log = logger.NewNop()
	}
	return &GenerationController{generator: generator, ledger: ledger, notifier: notifier, log: log}
}

// POST /api/flashcards/generate
func (gc *GenerationController) Generate(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var cmd models.GenerateFlashcardsCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondValidation(c, http.StatusUnprocessableEntity, "Invalid input", err)
		return
	}
	if err := models.CheckSourceText(cmd.SourceText); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Invalid input", "code": services.CodeValidation, "details": gin.H{"source_text": err.Error()}})
		return
	}

	gc.notify(user.ID, ws.GenerationEvent{Status: ws.StatusInFlight})

	start := time.Now()
	result, err := gc.generator.Generate(c.Request.Context(), cmd.SourceText)
	elapsed := time.Since(start)
	// ledger writes outlive a client that hung up
	ledgerCtx := context.WithoutCancel(c.Request.Context())

	if err != nil {
		code := services.ErrorCode(err)
		metrics.RecordGeneration(code)
		gc.ledger.RecordError(ledgerCtx, user.ID, cmd.SourceText, gc.generator.Model(), code, err.Error())
		gc.notify(user.ID, ws.GenerationEvent{Status: ws.StatusFailed, Code: code, Message: services.UserMessage(err)})

		if errors.Is(err, services.ErrEmptyResult) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":   "No flashcards generated",
				"code":    code,
				"message": services.UserMessage(err),
			})
			return
		}
		gc.log.Error("flashcard generation failed", "user_id", user.ID.String(), "code", code, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to generate flashcards",
			"code":    code,
			"message": services.UserMessage(err),
		})
		return
	}

	if _, err := gc.ledger.RecordGeneration(ledgerCtx, user.ID, cmd.SourceText, result, elapsed); err != nil {
		gc.log.Error("failed to record generation", "user_id", user.ID.String(), "generation_id", result.GenerationID.String(), "error", err)
	}
	metrics.RecordGeneration("ok")
	gc.notify(user.ID, ws.GenerationEvent{Status: ws.StatusSucceeded, GenerationID: &result.GenerationID, GeneratedCount: result.GeneratedCount})

	c.JSON(http.StatusCreated, result)
}

// GET /api/generations
func (gc *GenerationController) ListGenerations(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var q models.PaginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidation(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	page, err := gc.ledger.ListGenerations(c.Request.Context(), user.ID, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/generation-error-logs
func (gc *GenerationController) ListErrorLogs(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var q models.PaginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidation(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	page, err := gc.ledger.ListErrorLogs(c.Request.Context(), user.ID, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (gc *GenerationController) notify(userID uuid.UUID, ev ws.GenerationEvent) {
	if gc.notifier != nil {
		gc.notifier.NotifyGeneration(userID, ev)
	}
}
