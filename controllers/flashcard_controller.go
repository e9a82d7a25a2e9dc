package controllers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/services"
)

type FlashcardController struct {
	svc      *services.FlashcardService
	exporter *services.ExportService
	log      *logger.Logger
}

// NewFlashcardController accepts a nil exporter when storage is not configured.
func NewFlashcardController(svc *services.FlashcardService, exporter *services.ExportService, log *logger.Logger) *FlashcardController {
	if log == nil {
		log = logger.NewNop()
	}
	return &FlashcardController{svc: svc, exporter: exporter, log: log}
}

// POST /api/flashcards
func (fc *FlashcardController) CreateFlashcards(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var cmd models.CreateFlashcardsCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondValidation(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	res, err := fc.svc.CreateFlashcards(c.Request.Context(), user.ID, cmd.Flashcards)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if len(res.Data) == 0 {
		c.JSON(http.StatusUnprocessableEntity, res)
		return
	}
	fc.log.Info("flashcards saved", "user_id", user.ID.String(), "saved", len(res.Data), "failed", len(res.Failed))
	c.JSON(http.StatusCreated, res)
}

// GET /api/flashcards
func (fc *FlashcardController) ListFlashcards(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	var q models.PaginationQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondValidation(c, http.StatusBadRequest, "Invalid query parameters", err)
		return
	}
	page, err := fc.svc.ListFlashcards(c.Request.Context(), user.ID, q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

// GET /api/flashcards/:id
func (fc *FlashcardController) GetFlashcard(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	card, err := fc.svc.GetFlashcard(c.Request.Context(), user.ID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// PUT /api/flashcards/:id
func (fc *FlashcardController) UpdateFlashcard(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var cmd models.UpdateFlashcardCommand
	if err := c.ShouldBindJSON(&cmd); err != nil {
		respondValidation(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	card, err := fc.svc.UpdateFlashcard(c.Request.Context(), user.ID, id, cmd)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, card)
}

// DELETE /api/flashcards/:id
func (fc *FlashcardController) DeleteFlashcard(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := fc.svc.DeleteFlashcard(c.Request.Context(), user.ID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/flashcards/export
func (fc *FlashcardController) ExportDeck(c *gin.Context) {
	user, ok := requireUser(c)
	if !ok {
		return
	}
	if fc.exporter == nil {
		respondError(c, http.StatusServiceUnavailable, "EXPORT_DISABLED", "Deck export is not configured")
		return
	}
	var cmd models.ExportDeckCommand
	if err := c.ShouldBindJSON(&cmd); err != nil && !errors.Is(err, io.EOF) {
		respondValidation(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	out, err := fc.exporter.ExportDeck(c.Request.Context(), user.ID, cmd.Title)
	switch {
	case errors.Is(err, services.ErrNothingToExport):
		respondError(c, http.StatusUnprocessableEntity, services.CodeValidation, "There are no flashcards to export")
		return
	case err != nil:
		fc.log.Error("deck export failed", "user_id", user.ID.String(), "error", err)
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}
