package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/vnkhanh/e-flashcard-backend/middleware"
	"github.com/vnkhanh/e-flashcard-backend/models"
	"github.com/vnkhanh/e-flashcard-backend/services"
)

func respondError(c *gin.Context, status int, code, msg string) {
	c.JSON(status, gin.H{"error": msg, "code": code})
}

func respondValidation(c *gin.Context, status int, msg string, err error) {
	c.JSON(status, gin.H{"error": msg, "code": services.CodeValidation, "details": validationDetails(err)})
}

// validationDetails maps binding errors to field -> rule. Non-validator errors (bad JSON,
// bad uuid) are reported under "body".
func validationDetails(err error) map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return map[string]string{"body": err.Error()}
	}
	out := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		rule := fe.Tag()
		if fe.Param() != "" {
			rule += "=" + fe.Param()
		}
		out[fe.Field()] = rule
	}
	return out
}

// requireUser returns the signed-in user or writes a 401.
func requireUser(c *gin.Context) (models.User, bool) {
	user, ok := middleware.CurrentUser(c)
	if !ok || user.ID == uuid.Nil {
		respondError(c, http.StatusUnauthorized, services.CodeUnauthorized, "Authentication required")
		return models.User{}, false
	}
	return user, true
}

func parseIDParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, http.StatusBadRequest, services.CodeValidation, "Invalid id")
		return uuid.Nil, false
	}
	return id, true
}

// respondServiceError covers the errors every service can return.
func respondServiceError(c *gin.Context, err error) {
	var verr *services.ValidationError
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		respondError(c, http.StatusUnauthorized, services.CodeUnauthorized, "Authentication required")
	case errors.Is(err, services.ErrFlashcardNotFound):
		respondError(c, http.StatusNotFound, "NOT_FOUND", "Flashcard not found")
	case errors.As(err, &verr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Validation failed", "code": services.CodeValidation, "details": verr.Fields})
	default:
		_ = c.Error(err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Internal server error",
			"code":    services.ErrorCode(err),
			"message": services.UserMessage(err),
		})
	}
}
