package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"snaplens/internal/api"
	"snaplens/internal/api/handlers"
	"snaplens/internal/repository"
	"snaplens/internal/service"
	"snaplens/pkg/config"
	"snaplens/pkg/logger"

	"go.uber.org/zap"
)

// @title SnapLens API
// @version 1.0
// @description Screenshot intent classifier: upload a screenshot, get a category, title, summary and suggested action, save it as an item.

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8000
// @BasePath /

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting SnapLens service", zap.String("db_driver", cfg.Database.Driver))

	ctx := context.Background()

	// Initialize item store
	store, closeStore, err := repository.Open(ctx, &cfg.Database, logger.Named("repository"))
	if err != nil {
		appLogger.Fatal("Failed to open item store", zap.Error(err))
	}
	defer closeStore()

	// Initialize services
	visionService := service.NewVisionService(&cfg.GigaChat, logger.Named("vision"))
	if cfg.GigaChat.VisionEnabled {
		probeGigaChat(ctx, &cfg.GigaChat, appLogger)
	} else {
		appLogger.Warn("GigaChat vision disabled, screenshots will be classified with OCR and rules only")
	}

	ocrService := service.NewOCRService(&cfg.OCR, logger.Named("ocr"))
	fallback := service.NewFallbackAnalyzer(ocrService, service.NewRuleClassifier(), logger.Named("fallback"))
	intentService := service.NewIntentService(visionService, fallback, service.IntentConfig{
		VisionEnabled: cfg.GigaChat.VisionEnabled,
		VisionTimeout: cfg.GigaChat.Timeout,
	}, logger.Named("intent"))

	intakeService := service.NewIntakeService(&cfg.Upload, logger.Named("intake"))
	itemService := service.NewItemService(store, logger.Named("items"))

	// Initialize handlers
	analysisHandler := handlers.NewAnalysisHandler(intakeService, intentService, appLogger)
	itemHandler := handlers.NewItemHandler(itemService, appLogger)

	// Setup router
	app := api.SetupRouter(analysisHandler, itemHandler, api.RouterConfig{
		MaxUploadBytes: cfg.Upload.MaxBytes,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
	}, logger.Named("http"))

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}

// probeGigaChat logs whether the configured credentials work. A failure is not fatal,
// uploads still fall back to OCR.
func probeGigaChat(ctx context.Context, cfg *config.GigaChatConfig, appLogger *zap.Logger) {
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	llmService, err := service.NewLLMService(ctx, cfg, logger.Named("llm"))
	if err != nil {
		appLogger.Warn("GigaChat client unavailable, vision requests will likely fall back", zap.Error(err))
		return
	}
	defer llmService.Close()

	if _, err := llmService.Ping(ctx); err != nil {
		appLogger.Warn("GigaChat connectivity check failed", zap.Error(err))
	}
}
