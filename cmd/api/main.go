package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dvloznov/fintalk/internal/api/handlers"
	"github.com/dvloznov/fintalk/internal/category"
	"github.com/dvloznov/fintalk/internal/config"
	"github.com/dvloznov/fintalk/internal/conversation"
	"github.com/dvloznov/fintalk/internal/extract"
	"github.com/dvloznov/fintalk/internal/logger"
	"github.com/dvloznov/fintalk/internal/store"
	storeBQ "github.com/dvloznov/fintalk/internal/store/bigquery"
	"github.com/dvloznov/fintalk/internal/store/inmemory"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	log := logger.New()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	ctx := context.Background()
	ctx = logger.WithContext(ctx, log)

	// Select the store backend.
	var st store.Store
	switch config.Backend(cfg.StoreBackend) {
	case config.BackendBigQuery:
		bqStore, err := storeBQ.New(ctx, cfg.BigQueryProject, cfg.BigQueryDataset, log)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create BigQuery store")
		}
		defer bqStore.Close()
		st = bqStore
	default:
		log.Warn().Msg("Using in-memory store - data is lost on restart")
		st = inmemory.New()
	}

	model, err := extract.NewGeminiModel(ctx, cfg.GeminiModel)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create Gemini model")
	}

	extractor := extract.NewClient(model, cfg.ExtractTimeoutDuration(), log)
	registry := category.NewRegistry(st, cfg.SimilarityFloor)
	engine := conversation.NewEngine(extractor, registry, st, conversation.Config{
		Currency:   cfg.Currency,
		SessionTTL: cfg.SessionTTLDuration(),
	}, log)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handlers.NewRouter(engine, log),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("model", cfg.GeminiModel).
			Str("store", cfg.StoreBackend).
			Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
