package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/services"
)

type SourceTextController struct {
	log *logger.Logger
}

func NewSourceTextController(log *logger.Logger) *SourceTextController {
	if log == nil {
		log = logger.NewNop()
	}
	return &SourceTextController{log: log}
}

// POST /api/source-text/extract
func (sc *SourceTextController) Extract(c *gin.Context) {
	if _, ok := requireUser(c); !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, services.CodeValidation, "A file field is required")
		return
	}
	if file.Size > services.MaxUploadSize {
		respondError(c, http.StatusRequestEntityTooLarge, services.CodeValidation, "File is larger than 10 MB")
		return
	}

	out, err := services.ExtractSourceText(file)
	switch {
	case errors.Is(err, services.ErrUnsupportedInput):
		respondError(c, http.StatusUnsupportedMediaType, services.CodeValidation, err.Error())
		return
	case err != nil:
		sc.log.Warn("source text extraction failed", "file", file.Filename, "error", err)
		respondError(c, http.StatusUnprocessableEntity, services.CodeValidation, "The file could not be read")
		return
	}
	c.JSON(http.StatusOK, out)
}
