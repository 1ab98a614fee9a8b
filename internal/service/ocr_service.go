package service

import (
	"context"
	"fmt"
	"os"
	"strings"

	"snaplens/pkg/config"

	"github.com/gen2brain/go-fitz"
	"github.com/otiai10/gosseract/v2"
	"go.uber.org/zap"
)

// TextExtractor reads machine-readable text out of an image on disk.
type TextExtractor interface {
	ExtractText(ctx context.Context, imagePath string) (string, error)
}

type ocrEngine interface {
	Recognize(image []byte) (string, error)
}

type tesseractEngine struct {
	language string
}

func (e *tesseractEngine) Recognize(image []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(e.language); err != nil {
		return "", fmt.Errorf("failed to set OCR language %q: %w", e.language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("failed to load image: %w", err)
	}

	return client.Text()
}

// rasterizePNG renders the first page of any MuPDF-readable image as PNG.
func rasterizePNG(data []byte, dpi float64) ([]byte, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer doc.Close()

	if doc.NumPage() == 0 {
		return nil, fmt.Errorf("image has no pages")
	}

	return doc.ImagePNG(0, dpi)
}

// OCRService is the local fallback text extractor: go-fitz normalizes the image and Tesseract reads it.
type OCRService struct {
	engine    ocrEngine
	rasterize func(data []byte, dpi float64) ([]byte, error)
	dpi       float64
	logger    *zap.Logger
}

func NewOCRService(cfg *config.OCRConfig, logger *zap.Logger) *OCRService {
	return &OCRService{
		engine:    &tesseractEngine{language: cfg.Language},
		rasterize: rasterizePNG,
		dpi:       cfg.DPI,
		logger:    logger,
	}
}

// ExtractText returns the trimmed text found in the image, possibly empty.
// Unreadable or corrupt files fail with ErrExtraction.
func (s *OCRService) ExtractText(ctx context.Context, imagePath string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	data, err := os.ReadFile(imagePath)
	if err != nil {
		return "", fmt.Errorf("%w: failed to read image: %v", ErrExtraction, err)
	}
	if len(data) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrExtraction)
	}

	image := data
	method := "tesseract"
	if png, err := s.rasterize(data, s.dpi); err != nil {
		s.logger.Debug("Rasterizing failed, passing original bytes to OCR",
			zap.String("file", imagePath),
			zap.Error(err),
		)
	} else {
		image = png
		method = "go-fitz+tesseract"
	}

	text, err := s.engine.Recognize(image)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrExtraction, err)
	}

	text = strings.TrimSpace(sanitizeUTF8(text))

	s.logger.Info("OCR extraction completed",
		zap.String("file", imagePath),
		zap.String("method", method),
		zap.Int("text_length", len(text)),
	)

	return text, nil
}
