package service

import (
	"context"
	"errors"
	"time"

	"snaplens/internal/models"

	"go.uber.org/zap"
)

// IntentAnalyzer turns a stored screenshot into an Analysis.
type IntentAnalyzer interface {
	AnalyzeImage(ctx context.Context, upload *models.Upload) (*models.Analysis, error)
}

// FallbackAnalyzer runs local OCR and the keyword rules. It never returns an error:
// unreadable images classify as an empty-text note.
type FallbackAnalyzer struct {
	ocr        TextExtractor
	classifier *RuleClassifier
	logger     *zap.Logger
}

func NewFallbackAnalyzer(ocr TextExtractor, classifier *RuleClassifier, logger *zap.Logger) *FallbackAnalyzer {
	return &FallbackAnalyzer{
		ocr:        ocr,
		classifier: classifier,
		logger:     logger,
	}
}

func (a *FallbackAnalyzer) AnalyzeImage(ctx context.Context, upload *models.Upload) (*models.Analysis, error) {
	text, err := a.ocr.ExtractText(ctx, upload.Path)
	if err != nil {
		a.logger.Warn("OCR failed, classifying empty text",
			zap.String("file", upload.FileName),
			zap.Error(err),
		)
		text = ""
	}

	return &models.Analysis{
		Intent:        a.classifier.Classify(text),
		ExtractedText: text,
		Source:        models.SourceFallback,
	}, nil
}

type IntentConfig struct {
	VisionEnabled bool
	VisionTimeout time.Duration
}

// IntentService resolves an upload to exactly one intent: vision first, then the fallback.
type IntentService struct {
	vision   IntentAnalyzer
	fallback IntentAnalyzer
	config   IntentConfig
	logger   *zap.Logger
}

func NewIntentService(vision IntentAnalyzer, fallback IntentAnalyzer, cfg IntentConfig, logger *zap.Logger) *IntentService {
	return &IntentService{
		vision:   vision,
		fallback: fallback,
		config:   cfg,
		logger:   logger,
	}
}

// Analyze never fails. A vision error, timeout or malformed reply drops to the fallback.
func (s *IntentService) Analyze(ctx context.Context, upload *models.Upload) *models.Analysis {
	if s.config.VisionEnabled && s.vision != nil {
		analysis, err := s.analyzeWithVision(ctx, upload)
		if err == nil {
			return analysis
		}

		s.logger.Warn("Vision analysis failed, falling back to OCR",
			zap.String("file", upload.FileName),
			zap.Bool("timeout", errors.Is(err, context.DeadlineExceeded)),
			zap.Error(err),
		)
	}

	analysis, err := s.fallback.AnalyzeImage(ctx, upload)
	if err != nil || analysis == nil {
		s.logger.Error("Fallback analysis failed", zap.String("file", upload.FileName), zap.Error(err))
		return &models.Analysis{
			Intent:        NewRuleClassifier().Classify(""),
			ExtractedText: "",
			Source:        models.SourceFallback,
		}
	}

	analysis.Intent.Category = models.CoerceCategory(string(analysis.Intent.Category))
	return analysis
}

func (s *IntentService) analyzeWithVision(ctx context.Context, upload *models.Upload) (*models.Analysis, error) {
	if s.config.VisionTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.VisionTimeout)
		defer cancel()
	}

	analysis, err := s.vision.AnalyzeImage(ctx, upload)
	if err != nil {
		return nil, err
	}
	if analysis == nil {
		return nil, ErrAnalyzerUnavailable
	}

	analysis.Intent.Category = models.CoerceCategory(string(analysis.Intent.Category))
	analysis.ExtractedText = ""
	analysis.Source = models.SourceVision
	return analysis, nil
}
