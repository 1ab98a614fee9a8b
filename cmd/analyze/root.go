package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"snaplens/internal/models"
	"snaplens/internal/repository"
	"snaplens/internal/service"
	"snaplens/pkg/config"
	"snaplens/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type options struct {
	jsonOutput bool
	save       bool
	force      bool
	cacheFile  string
}

// result is one analyzed file as printed by the command.
type result struct {
	Path          string                `json:"path"`
	FileName      string                `json:"filename,omitempty"`
	Category      models.Category       `json:"category"`
	Title         string                `json:"title"`
	Summary       string                `json:"summary"`
	KeyDetail     *string               `json:"key_detail"`
	Action        string                `json:"suggested_action"`
	ExtractedText string                `json:"extracted_text"`
	Source        models.AnalysisSource `json:"source"`
	ItemID        int64                 `json:"item_id,omitempty"`
	Skipped       bool                  `json:"skipped,omitempty"`
	Error         string                `json:"error,omitempty"`
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "analyze <image>...",
		Short:         "Classify local screenshots the same way POST /upload does",
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print results as JSON instead of a table")
	cmd.Flags().BoolVar(&opts.save, "save", false, "Save each result as an item in the configured store")
	cmd.Flags().BoolVar(&opts.force, "force", false, "With --save, re-save files already recorded in the cache")
	cmd.Flags().StringVar(&opts.cacheFile, "cache", filepath.Join("data", ".analyze_cache.json"), "Cache of files already saved")

	return cmd
}

func run(cmd *cobra.Command, opts *options, paths []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logger.Level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()
	appLogger := logger.Get()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	intake := service.NewIntakeService(&cfg.Upload, logger.Named("intake"))
	fallback := service.NewFallbackAnalyzer(
		service.NewOCRService(&cfg.OCR, logger.Named("ocr")),
		service.NewRuleClassifier(),
		logger.Named("fallback"),
	)
	intents := service.NewIntentService(
		service.NewVisionService(&cfg.GigaChat, logger.Named("vision")),
		fallback,
		service.IntentConfig{VisionEnabled: cfg.GigaChat.VisionEnabled, VisionTimeout: cfg.GigaChat.Timeout},
		logger.Named("intent"),
	)

	var (
		items *service.ItemService
		cache *cacheData
	)
	if opts.save {
		store, closeStore, err := repository.Open(ctx, &cfg.Database, logger.Named("repository"))
		if err != nil {
			return err
		}
		defer closeStore()
		items = service.NewItemService(store, logger.Named("items"))

		cache, err = loadCache(opts.cacheFile)
		if err != nil {
			appLogger.Warn("Failed to load cache, every file will be saved", zap.Error(err))
			cache = newCacheData()
		}
	}

	results := make([]result, 0, len(paths))
	failed := 0
	for _, path := range paths {
		res := processFile(ctx, intake, intents, items, cache, opts.force, path, appLogger)
		if res.Error != "" {
			failed++
		}
		results = append(results, res)
	}

	if cache != nil {
		if err := saveCache(opts.cacheFile, cache); err != nil {
			appLogger.Warn("Failed to write cache", zap.Error(err))
		}
	}

	if opts.jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), renderResults(results))
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files could not be analyzed", failed, len(paths))
	}
	return nil
}

// processFile skips files already saved with the same contents before they reach intake.
func processFile(ctx context.Context, intake *service.IntakeService, intents *service.IntentService, items *service.ItemService, cache *cacheData, force bool, path string, appLogger *zap.Logger) result {
	var hash string
	if cache != nil {
		var err error
		if hash, err = calculateFileHash(path); err != nil {
			appLogger.Warn("Failed to hash file, it will not be cached", zap.String("path", path), zap.Error(err))
		}
		if cached, ok := cache.lookup(path, hash); ok && !force {
			return cached
		}
	}

	res := analyzeFile(ctx, intake, intents, path)
	if res.Error == "" && items != nil {
		saveResult(ctx, items, cache, hash, &res)
	}
	return res
}

func analyzeFile(ctx context.Context, intake *service.IntakeService, intents *service.IntentService, path string) result {
	res := result{Path: path}

	info, err := os.Stat(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if info.IsDir() {
		res.Error = "is a directory"
		return res
	}

	file, err := os.Open(path)
	if err != nil {
		res.Error = err.Error()
		return res
	}
	defer file.Close()

	upload, err := intake.Accept(ctx, file, filepath.Base(path), "", info.Size())
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUnsupportedMediaType):
			res.Error = "unsupported file type"
		case errors.Is(err, service.ErrPayloadTooLarge):
			res.Error = "file too large, limit is " + strconv.FormatInt(intake.MaxBytes(), 10) + " bytes"
		default:
			res.Error = err.Error()
		}
		return res
	}

	analysis := intents.Analyze(ctx, upload)

	res.FileName = upload.FileName
	res.Category = analysis.Intent.Category
	res.Title = analysis.Intent.Title
	res.Summary = analysis.Intent.Summary
	res.KeyDetail = analysis.Intent.KeyDetail
	res.Action = analysis.Intent.SuggestedAction
	res.ExtractedText = analysis.ExtractedText
	res.Source = analysis.Source
	return res
}

func saveResult(ctx context.Context, items *service.ItemService, cache *cacheData, hash string, res *result) {
	item, err := items.Create(ctx, models.ItemFields{
		Category:        res.Category,
		Title:           res.Title,
		Summary:         &res.Summary,
		KeyDetail:       res.KeyDetail,
		ExtractedText:   &res.ExtractedText,
		SuggestedAction: &res.Action,
	})
	if err != nil {
		res.Error = err.Error()
		return
	}

	res.ItemID = item.ID
	if hash != "" {
		cache.record(res.Path, hash, *res)
	}
}
