package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/vnkhanh/e-flashcard-backend/config"
	"github.com/vnkhanh/e-flashcard-backend/controllers"
	"github.com/vnkhanh/e-flashcard-backend/logger"
	"github.com/vnkhanh/e-flashcard-backend/metrics"
	"github.com/vnkhanh/e-flashcard-backend/middleware"
	"github.com/vnkhanh/e-flashcard-backend/repositories"
	"github.com/vnkhanh/e-flashcard-backend/routes"
	"github.com/vnkhanh/e-flashcard-backend/services"
	"github.com/vnkhanh/e-flashcard-backend/services/llm"
	"github.com/vnkhanh/e-flashcard-backend/utils"
	"github.com/vnkhanh/e-flashcard-backend/ws"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logg, err := logger.New(logger.Options{
		Mode:     cfg.Log.Mode,
		Level:    cfg.Log.Level,
		Redact:   cfg.Log.Redact,
		HashSalt: cfg.Log.HashSalt,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer logg.Sync()

	db, err := config.InitDB(cfg.DB)
	if err != nil {
		logg.Fatal("database init failed", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	completer, closeCompleter, err := newCompleter(ctx, cfg.AI, logg)
	if err != nil {
		logg.Fatal("completion client init failed", "provider", cfg.AI.Provider, "error", err)
	}
	defer closeCompleter()

	generations := repositories.NewGenerationRepository(db)
	errorLogs := repositories.NewGenerationErrorLogRepository(db)
	cards := repositories.NewFlashcardRepository(db)

	ledger := services.NewLedgerService(generations, errorLogs, logg)
	generator := services.NewGenerationService(metrics.InstrumentCompleter(completer), services.GenerationConfig{
		Model:       cfg.AI.Model,
		Temperature: cfg.AI.Temperature,
		MaxTokens:   cfg.AI.MaxTokens,
		CardCount:   cfg.AI.CardCount,
	}, logg)
	flashcards := services.NewFlashcardService(cards, generations, ledger, logg)

	var exporter *services.ExportService
	if cfg.Supabase.URL != "" && cfg.Supabase.Key != "" {
		storage, err := utils.NewSupabaseStorage(cfg.Supabase.URL, cfg.Supabase.Key, cfg.Supabase.ExportBucket)
		if err != nil {
			logg.Fatal("supabase storage init failed", "error", err)
		}
		exporter = services.NewExportService(cards, storage, logg)
	} else {
		logg.Warn("SUPABASE_URL or SUPABASE_KEY not set, deck export disabled")
	}

	verifier, err := utils.NewTokenVerifier(cfg.Supabase.JWTSecret)
	if err != nil {
		logg.Fatal("token verifier init failed", "error", err)
	}

	hub := ws.NewHub(logg)

	if cfg.Log.Mode == "prod" || cfg.Log.Mode == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(logg))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Auth-Token"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	routes.SetupRouter(r, routes.Deps{
		Verifier:   verifier,
		Health:     controllers.NewHealthController(db, hub),
		Generation: controllers.NewGenerationController(generator, ledger, hub, logg),
		Flashcard:  controllers.NewFlashcardController(flashcards, exporter, logg),
		SourceText: controllers.NewSourceTextController(logg),
		WS:         ws.NewHandler(hub, verifier, cfg.CORSOrigins),
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
		// Generation waits on the completion endpoint.
		WriteTimeout: cfg.AI.Timeout + 30*time.Second,
	}

	go func() {
		logg.Info("server listening", "port", cfg.Port, "provider", completer.Provider(), "model", cfg.AI.Model)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Fatal("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logg.Error("graceful shutdown failed", "error", err)
	}
}

// newCompleter builds the configured provider. A missing key is a ConfigurationError.
func newCompleter(ctx context.Context, cfg config.AIConfig, logg *logger.Logger) (llm.Completer, func(), error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		c, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{APIKey: cfg.APIKey, Endpoint: cfg.BaseURL}, logg)
		if err != nil {
			return nil, nil, err
		}
		return c, func() { _ = c.Close() }, nil
	default:
		c, err := llm.NewOpenRouterClient(llm.OpenRouterConfig{
			APIKey:   cfg.APIKey,
			BaseURL:  cfg.BaseURL,
			Referer:  cfg.Referer,
			AppTitle: cfg.AppTitle,
			Timeout:  cfg.Timeout,
		}, logg)
		if err != nil {
			return nil, nil, err
		}
		return c, func() {}, nil
	}
}
