package service

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snaplens/internal/models"
	"snaplens/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

var extensionByType = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/bmp":  ".bmp",
}

// IntakeService validates uploaded screenshots and writes them to the upload directory.
type IntakeService struct {
	uploadDir    string
	maxBytes     int64
	allowedTypes map[string]bool
	logger       *zap.Logger
	now          func() time.Time
}

func NewIntakeService(cfg *config.UploadConfig, logger *zap.Logger) *IntakeService {
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		logger.Warn("Failed to create upload directory", zap.String("dir", cfg.Dir), zap.Error(err))
	}

	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(t)] = true
	}

	return &IntakeService{
		uploadDir:    cfg.Dir,
		maxBytes:     cfg.MaxBytes,
		allowedTypes: allowed,
		logger:       logger,
		now:          time.Now,
	}
}

// MaxBytes is the largest accepted upload.
func (s *IntakeService) MaxBytes() int64 {
	return s.maxBytes
}

// Accept stores one uploaded image. size is the declared size, negative when unknown.
func (s *IntakeService) Accept(ctx context.Context, file io.Reader, fileName, contentType string, size int64) (*models.Upload, error) {
	mediaType := s.resolveMediaType(fileName, contentType)
	if !s.allowedTypes[mediaType] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMediaType, mediaType)
	}

	if size > s.maxBytes {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d", ErrPayloadTooLarge, size, s.maxBytes)
	}

	newFileName := s.generateFileName(mediaType)
	filePath := filepath.Join(s.uploadDir, newFileName)

	dst, err := os.Create(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	// one byte past the limit is enough to tell an oversized stream
	written, err := io.Copy(dst, io.LimitReader(file, s.maxBytes+1))
	if err != nil {
		os.Remove(filePath)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if written > s.maxBytes {
		os.Remove(filePath)
		return nil, fmt.Errorf("%w: stream exceeds limit of %d bytes", ErrPayloadTooLarge, s.maxBytes)
	}

	s.logger.Info("Upload stored",
		zap.String("file", newFileName),
		zap.String("original_name", fileName),
		zap.String("content_type", mediaType),
		zap.Int64("size", written),
	)

	return &models.Upload{
		FileName:     newFileName,
		OriginalName: fileName,
		Path:         filePath,
		ContentType:  mediaType,
		Size:         written,
	}, nil
}

// resolveMediaType trusts the declared type unless it is missing or generic, then falls back to the extension.
func (s *IntakeService) resolveMediaType(fileName, contentType string) string {
	mediaType := ""
	if contentType != "" {
		if parsed, _, err := mime.ParseMediaType(contentType); err == nil {
			mediaType = strings.ToLower(parsed)
		}
	}

	if mediaType == "" || mediaType == "application/octet-stream" {
		ext := strings.ToLower(filepath.Ext(fileName))
		switch ext {
		case ".jpg", ".jpeg":
			mediaType = "image/jpeg"
		case ".png":
			mediaType = "image/png"
		case ".webp":
			mediaType = "image/webp"
		case ".bmp":
			mediaType = "image/bmp"
		default:
			if byExt := mime.TypeByExtension(ext); byExt != "" {
				mediaType, _, _ = mime.ParseMediaType(byExt)
			}
		}
	}

	if mediaType == "image/jpg" {
		mediaType = "image/jpeg"
	}

	return mediaType
}

// generateFileName returns YYYYmmdd_HHMMSS_<8 hex><ext>.
func (s *IntakeService) generateFileName(mediaType string) string {
	ext, ok := extensionByType[mediaType]
	if !ok {
		ext = ".img"
	}
	suffix := strings.ReplaceAll(uuid.New().String(), "-", "")[:8]
	return fmt.Sprintf("%s_%s%s", s.now().Format("20060102_150405"), suffix, ext)
}
