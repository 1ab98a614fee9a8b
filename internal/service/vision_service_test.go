package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"snaplens/internal/models"
	"snaplens/pkg/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeGigaChat struct {
	server      *httptest.Server
	oauthCalls  atomic.Int32
	chatStatus  int
	reply       string
	delay       time.Duration
	gotPurpose  string
	gotAttached []string
	gotModel    string
}

func newFakeGigaChat(t *testing.T, reply string) *fakeGigaChat {
	t.Helper()
	f := &fakeGigaChat{reply: reply, chatStatus: http.StatusOK}

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth", func(w http.ResponseWriter, r *http.Request) {
		f.oauthCalls.Add(1)
		assert.Equal(t, "Basic test-key", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("RqUID"))
		if !assert.NoError(t, r.ParseForm()) {
			return
		}
		assert.Equal(t, "GIGACHAT_API_PERS", r.PostForm.Get("scope"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": fmt.Sprintf("token-%d", f.oauthCalls.Load()),
			"expires_at":   time.Now().Add(30 * time.Minute).UnixMilli(),
		})
	})
	mux.HandleFunc("/api/v1/files", func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.Header.Get("Authorization"), "Bearer token-")
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			return
		}
		f.gotPurpose = r.FormValue("purpose")
		file, header, err := r.FormFile("file")
		if !assert.NoError(t, err) {
			return
		}
		defer file.Close()
		assert.Equal(t, "image/png", header.Header.Get("Content-Type"))
		_ = json.NewEncoder(w).Encode(map[string]string{"id": "file-123"})
	})
	mux.HandleFunc("/api/v1/chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if f.delay > 0 {
			select {
			case <-time.After(f.delay):
			case <-r.Context().Done():
				return
			}
		}
		var req chatRequest
		if !assert.NoError(t, json.NewDecoder(r.Body).Decode(&req)) {
			return
		}
		f.gotModel = req.Model
		if len(req.Messages) > 0 {
			f.gotAttached = req.Messages[0].Attachments
		}
		if f.chatStatus != http.StatusOK {
			w.WriteHeader(f.chatStatus)
			_, _ = w.Write([]byte(`{"message":"nope"}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": f.reply}},
			},
		})
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeGigaChat) service() *VisionService {
	cfg := &config.GigaChatConfig{
		APIKey:        "test-key",
		Scope:         "GIGACHAT_API_PERS",
		BaseURL:       f.server.URL + "/api/v1",
		OAuthURL:      f.server.URL + "/oauth",
		Model:         "GigaChat-Pro",
		VisionEnabled: true,
	}
	return NewVisionService(cfg, zap.NewNop())
}

func testUpload(t *testing.T) *models.Upload {
	t.Helper()
	path := filepath.Join(t.TempDir(), "20250301_101500_abcd1234.png")
	require.NoError(t, os.WriteFile(path, []byte("\x89PNG fake"), 0644))
	return &models.Upload{
		FileName:    filepath.Base(path),
		Path:        path,
		ContentType: "image/png",
		Size:        10,
	}
}

const expenseReply = "```json\n" + `{
  "category": "Expense",
  "title": "Coffee shop receipt",
  "summary": "Card payment at a coffee shop.",
  "key_detail": "$42.50",
  "suggested_action": "Log expense of $42.50"
}` + "\n```"

func TestVisionServiceAnalyzeImage(t *testing.T) {
	fake := newFakeGigaChat(t, expenseReply)
	svc := fake.service()

	analysis, err := svc.AnalyzeImage(context.Background(), testUpload(t))
	require.NoError(t, err)

	assert.Equal(t, models.SourceVision, analysis.Source)
	assert.Empty(t, analysis.ExtractedText)
	assert.Equal(t, models.CategoryExpense, analysis.Intent.Category)
	assert.Equal(t, "Coffee shop receipt", analysis.Intent.Title)
	require.NotNil(t, analysis.Intent.KeyDetail)
	assert.Equal(t, "$42.50", *analysis.Intent.KeyDetail)

	assert.Equal(t, "general", fake.gotPurpose)
	assert.Equal(t, []string{"file-123"}, fake.gotAttached)
	assert.Equal(t, "GigaChat-Pro", fake.gotModel)
}

func TestVisionServiceCachesToken(t *testing.T) {
	fake := newFakeGigaChat(t, expenseReply)
	svc := fake.service()

	for i := 0; i < 3; i++ {
		_, err := svc.AnalyzeImage(context.Background(), testUpload(t))
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), fake.oauthCalls.Load())
}

func TestVisionServiceRefreshesExpiredToken(t *testing.T) {
	fake := newFakeGigaChat(t, expenseReply)
	svc := fake.service()

	_, err := svc.AnalyzeImage(context.Background(), testUpload(t))
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Now().Add(time.Hour) }
	_, err = svc.AnalyzeImage(context.Background(), testUpload(t))
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.oauthCalls.Load())
}

func TestVisionServiceUnauthorizedDropsToken(t *testing.T) {
	fake := newFakeGigaChat(t, expenseReply)
	fake.chatStatus = http.StatusUnauthorized
	svc := fake.service()

	_, err := svc.AnalyzeImage(context.Background(), testUpload(t))
	require.ErrorIs(t, err, ErrAnalyzerUnavailable)

	fake.chatStatus = http.StatusOK
	_, err = svc.AnalyzeImage(context.Background(), testUpload(t))
	require.NoError(t, err)
	assert.Equal(t, int32(2), fake.oauthCalls.Load())
}

func TestVisionServiceFailures(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		svc := NewVisionService(&config.GigaChatConfig{}, zap.NewNop())
		assert.False(t, svc.Configured())
		_, err := svc.AnalyzeImage(context.Background(), testUpload(t))
		require.ErrorIs(t, err, ErrAnalyzerUnavailable)
	})

	t.Run("rate limited", func(t *testing.T) {
		fake := newFakeGigaChat(t, expenseReply)
		fake.chatStatus = http.StatusTooManyRequests
		_, err := fake.service().AnalyzeImage(context.Background(), testUpload(t))
		require.ErrorIs(t, err, ErrAnalyzerUnavailable)
	})

	t.Run("timeout", func(t *testing.T) {
		fake := newFakeGigaChat(t, expenseReply)
		fake.delay = 2 * time.Second
		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := fake.service().AnalyzeImage(ctx, testUpload(t))
		require.ErrorIs(t, err, ErrAnalyzerUnavailable)
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	})

	replies := map[string]string{
		"refusal":        "I cannot help with this request, please provide another image.",
		"not json":       "This looks like a receipt.",
		"broken json":    `{"category": "expense", "title": `,
		"missing fields": `{"category": "note", "title": "Something"}`,
	}
	for name, reply := range replies {
		t.Run(name, func(t *testing.T) {
			fake := newFakeGigaChat(t, reply)
			_, err := fake.service().AnalyzeImage(context.Background(), testUpload(t))
			require.ErrorIs(t, err, ErrAnalyzerUnavailable)
		})
	}
}

func TestParseVisionReply(t *testing.T) {
	t.Run("unknown category becomes note", func(t *testing.T) {
		intent, err := parseVisionReply(`{"category":"shopping","title":"Cart","summary":"Items in cart.","key_detail":null,"suggested_action":"Review"}`)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryNote, intent.Category)
		assert.Nil(t, intent.KeyDetail)
	})

	t.Run("surrounding prose", func(t *testing.T) {
		intent, err := parseVisionReply(`Here you go: {"category":"link","title":"Docs","summary":"Go docs.","key_detail":"https://go.dev","suggested_action":"Save link"} hope this helps`)
		require.NoError(t, err)
		assert.Equal(t, models.CategoryLink, intent.Category)
		require.NotNil(t, intent.KeyDetail)
		assert.Equal(t, "https://go.dev", *intent.KeyDetail)
	})

	for _, detail := range []string{`null`, `""`, `"null"`, `"  "`} {
		t.Run("empty key detail "+detail, func(t *testing.T) {
			intent, err := parseVisionReply(`{"category":"note","title":"T","summary":"S","key_detail":` + detail + `,"suggested_action":"A"}`)
			require.NoError(t, err)
			assert.Nil(t, intent.KeyDetail)
		})
	}

	t.Run("numeric key detail", func(t *testing.T) {
		intent, err := parseVisionReply(`{"category":"expense","title":"T","summary":"S","key_detail":42.5,"suggested_action":"A"}`)
		require.NoError(t, err)
		require.NotNil(t, intent.KeyDetail)
		assert.Equal(t, "42.5", *intent.KeyDetail)
	})

	t.Run("long title is capped", func(t *testing.T) {
		intent, err := parseVisionReply(`{"category":"note","title":"An extremely long title that keeps going well past fifty characters","summary":"S","suggested_action":"A"}`)
		require.NoError(t, err)
		assert.LessOrEqual(t, len([]rune(intent.Title)), 50)
	})
}
