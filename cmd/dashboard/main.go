package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"meal-planner-dashboard/internal/assistant"
	"meal-planner-dashboard/internal/clipper"
	"meal-planner-dashboard/internal/config"
	"meal-planner-dashboard/internal/document"
	"meal-planner-dashboard/internal/httpapi"
	"meal-planner-dashboard/internal/inventory"
	"meal-planner-dashboard/internal/llm"
	"meal-planner-dashboard/internal/mealplan"
	"meal-planner-dashboard/internal/metrics"
	"meal-planner-dashboard/internal/preferences"
	"meal-planner-dashboard/internal/shopping"
	"meal-planner-dashboard/internal/status"
	"meal-planner-dashboard/internal/telegram"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
)

const expiryRescanInterval = 6 * time.Hour

func main() {
	_ = godotenv.Load()

	log := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("failed to create data directory")
	}
	store, err := document.New(cfg.DataDir)
	if err != nil {
		log.Fatal().Err(err).Str("data_dir", cfg.DataDir).Msg("document store unavailable")
	}

	refresher := status.NewRefresher(store, cfg.ExpiryAmberDays)
	inventorySvc := inventory.NewService(store, refresher)
	mealplanSvc := mealplan.NewService(store, refresher)
	prefsSvc := preferences.NewService(store)
	shoppingSvc := shopping.NewService(store, prefsSvc)

	if err := refresher.Refresh(); err != nil {
		log.Warn().Err(err).Msg("initial status refresh failed")
	}

	var (
		assistantSvc  *assistant.Service
		recipeClipper *clipper.Clipper
	)
	if cfg.AssistantEnabled() {
		gemini, err := llm.NewGeminiClient(ctx, cfg.GeminiAPIKey)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize Gemini client")
		}
		defer gemini.Close()

		metricsStore, err := metrics.NewStore(cfg.MetricsDBPath)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize metrics store")
		}
		defer metricsStore.Close()

		executor := assistant.NewExecutor(inventorySvc, mealplanSvc, shoppingSvc, prefsSvc, refresher)
		assistantSvc = assistant.NewService(gemini, executor, metricsStore, log)
		recipeClipper = clipper.NewClipper(mealplanSvc, gemini)

		go assistantSvc.RunCleanup(ctx)

		if cfg.TelegramEnabled() {
			bot, err := telegram.NewBot(cfg.TelegramBotToken, cfg.TelegramAllowUserID, assistantSvc, recipeClipper, refresher, log)
			if err != nil {
				log.Fatal().Err(err).Msg("failed to initialize telegram bot")
			}
			go bot.Run(ctx)
		}
	} else {
		log.Info().Msg("no GEMINI_API_KEY set, assistant endpoints disabled")
	}

	go runExpiryRescan(ctx, refresher, log)

	api := httpapi.NewServer(inventorySvc, mealplanSvc, shoppingSvc, prefsSvc, refresher, assistantSvc, recipeClipper, cfg.APIAuthSecret, log)
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: api.Router(),
	}

	go func() {
		log.Info().Int("port", cfg.Port).Str("data_dir", cfg.DataDir).Msg("meal planner dashboard listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown failed")
	}
}

// runExpiryRescan keeps the derived status fresh even when nothing is
// written, so day rollovers surface new red items.
func runExpiryRescan(ctx context.Context, refresher *status.Refresher, log zerolog.Logger) {
	ticker := time.NewTicker(expiryRescanInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := refresher.Refresh(); err != nil {
				log.Error().Err(err).Msg("scheduled status refresh failed")
			}
		}
	}
}
