package service

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"
	"time"

	"snaplens/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestIntake(t *testing.T, maxBytes int64) *IntakeService {
	t.Helper()
	return NewIntakeService(&config.UploadConfig{
		Dir:          t.TempDir(),
		MaxBytes:     maxBytes,
		AllowedTypes: []string{"image/png", "image/jpeg", "image/webp"},
	}, zap.NewNop())
}

func TestIntakeServiceAccept(t *testing.T) {
	intake := newTestIntake(t, 64)
	intake.now = func() time.Time { return time.Date(2025, 3, 1, 14, 5, 9, 0, time.UTC) }

	content := []byte("\x89PNG fake screenshot bytes")
	upload, err := intake.Accept(context.Background(), bytes.NewReader(content), "shot.png", "image/png", int64(len(content)))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^20250301_140509_[0-9a-f]{8}\.png$`), upload.FileName)
	assert.Equal(t, "shot.png", upload.OriginalName)
	assert.Equal(t, "image/png", upload.ContentType)
	assert.Equal(t, int64(len(content)), upload.Size)

	stored, err := os.ReadFile(upload.Path)
	require.NoError(t, err)
	assert.Equal(t, content, stored)
}

func TestIntakeServiceUniqueNames(t *testing.T) {
	intake := newTestIntake(t, 64)

	first, err := intake.Accept(context.Background(), bytes.NewReader([]byte("a")), "a.png", "image/png", 1)
	require.NoError(t, err)
	second, err := intake.Accept(context.Background(), bytes.NewReader([]byte("a")), "a.png", "image/png", 1)
	require.NoError(t, err)

	assert.NotEqual(t, first.FileName, second.FileName)
}

func TestIntakeServiceMediaTypes(t *testing.T) {
	tests := []struct {
		name        string
		fileName    string
		contentType string
		wantType    string
		wantErr     error
	}{
		{name: "declared png", fileName: "x.bin", contentType: "image/png", wantType: "image/png"},
		{name: "jpg alias", fileName: "x", contentType: "image/jpg", wantType: "image/jpeg"},
		{name: "octet stream falls back to extension", fileName: "x.JPEG", contentType: "application/octet-stream", wantType: "image/jpeg"},
		{name: "missing type falls back to extension", fileName: "x.webp", contentType: "", wantType: "image/webp"},
		{name: "text rejected", fileName: "x.txt", contentType: "text/plain", wantErr: ErrUnsupportedMediaType},
		{name: "pdf rejected", fileName: "x.pdf", contentType: "application/pdf", wantErr: ErrUnsupportedMediaType},
		{name: "unknown extension rejected", fileName: "x.exe", contentType: "", wantErr: ErrUnsupportedMediaType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intake := newTestIntake(t, 64)

			upload, err := intake.Accept(context.Background(), bytes.NewReader([]byte("img")), tt.fileName, tt.contentType, 3)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, upload.ContentType)
		})
	}
}

func TestIntakeServiceSizeBoundary(t *testing.T) {
	const limit = 32

	t.Run("exactly at limit", func(t *testing.T) {
		intake := newTestIntake(t, limit)
		upload, err := intake.Accept(context.Background(), bytes.NewReader(make([]byte, limit)), "a.png", "image/png", limit)
		require.NoError(t, err)
		assert.Equal(t, int64(limit), upload.Size)
	})

	t.Run("declared one byte over", func(t *testing.T) {
		intake := newTestIntake(t, limit)
		_, err := intake.Accept(context.Background(), bytes.NewReader(make([]byte, limit+1)), "a.png", "image/png", limit+1)
		require.ErrorIs(t, err, ErrPayloadTooLarge)
	})

	t.Run("undeclared stream one byte over", func(t *testing.T) {
		intake := newTestIntake(t, limit)
		_, err := intake.Accept(context.Background(), bytes.NewReader(make([]byte, limit+1)), "a.png", "image/png", -1)
		require.ErrorIs(t, err, ErrPayloadTooLarge)

		entries, err := os.ReadDir(intake.uploadDir)
		require.NoError(t, err)
		assert.Empty(t, entries, "partial upload must be removed")
	})
}

func TestIntakeServiceCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	NewIntakeService(&config.UploadConfig{Dir: dir, MaxBytes: 1}, zap.NewNop())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}
