package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"snaplens/internal/service"
	"snaplens/pkg/config"
	"snaplens/pkg/logger"

	"go.uber.org/zap"
)

// check-ai verifies GigaChat credentials with a one-line prompt.
func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		return 1
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		log.Printf("Failed to initialize logger: %v", err)
		return 1
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx, cancel := context.WithTimeout(context.Background(), cfg.GigaChat.Timeout)
	defer cancel()

	llmService, err := service.NewLLMService(ctx, &cfg.GigaChat, appLogger)
	if err != nil {
		appLogger.Error("Failed to initialize GigaChat client", zap.Error(err))
		return 1
	}
	defer llmService.Close()

	reply, err := llmService.Ping(ctx)
	if err != nil {
		appLogger.Error("GigaChat request failed", zap.Error(err))
		return 1
	}

	fmt.Printf("GigaChat (%s) replied: %s\n", cfg.GigaChat.Model, reply)
	if !cfg.GigaChat.VisionEnabled {
		fmt.Println("Note: VISION_ENABLED=false, uploads will use OCR only")
	}
	return 0
}
