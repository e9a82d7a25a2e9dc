package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vnkhanh/e-flashcard-backend/controllers"
	"github.com/vnkhanh/e-flashcard-backend/middleware"
	"github.com/vnkhanh/e-flashcard-backend/services"
	"github.com/vnkhanh/e-flashcard-backend/ws"
)

// Deps holds everything the router mounts.
type Deps struct {
	Verifier   middleware.TokenVerifier
	Health     *controllers.HealthController
	Generation *controllers.GenerationController
	Flashcard  *controllers.FlashcardController
	SourceText *controllers.SourceTextController
	WS         *ws.Handler
}

func SetupRouter(r *gin.Engine, deps Deps) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(services.JSONTagName)
	}

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	if deps.Health != nil {
		r.GET("/health", deps.Health.HealthCheck)
	}
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(deps.Verifier))

	flashcards := api.Group("/flashcards")
	{
		flashcards.POST("/generate", deps.Generation.Generate)
		flashcards.POST("/export", deps.Flashcard.ExportDeck)
		flashcards.POST("", deps.Flashcard.CreateFlashcards)
		flashcards.GET("", deps.Flashcard.ListFlashcards)
		flashcards.GET("/:id", deps.Flashcard.GetFlashcard)
		flashcards.PUT("/:id", deps.Flashcard.UpdateFlashcard)
		flashcards.DELETE("/:id", deps.Flashcard.DeleteFlashcard)
	}

	api.GET("/generations", deps.Generation.ListGenerations)
	api.GET("/generation-error-logs", deps.Generation.ListErrorLogs)
	api.POST("/source-text/extract", deps.SourceText.Extract)

	if deps.WS != nil {
		r.GET("/ws/generations", deps.WS.HandleGenerations)
	}

	return r
}
