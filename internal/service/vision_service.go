package service

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"strings"
	"sync"
	"time"

	"snaplens/internal/models"
	"snaplens/pkg/config"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	visionTemperature = 0.1
	// GigaChat tokens live 30 minutes; refresh a little early.
	tokenExpirySkew   = time.Minute
	defaultTokenTTL   = 25 * time.Minute
	maxErrorBodyBytes = 512
)

const visionPrompt = `Analyze the attached screenshot and decide what the user wanted to keep from it.
Read the meaningful content only. Skip status bars, navigation, buttons and other app chrome.

Pick exactly one category:
- "task": to-dos, assignments, deadlines, action items
- "reminder": dates, events, meetings, appointments
- "expense": payments, receipts, bills, prices, transactions
- "link": URLs and references to websites or resources
- "note": anything else worth keeping

Reply with a single JSON object and nothing else:
{
  "category": "task|reminder|expense|link|note",
  "title": "short descriptive title, at most 50 characters",
  "summary": "one or two sentences about what matters here",
  "key_detail": "the single most important date, amount or URL, or null",
  "suggested_action": "a concrete next step for the user"
}

For expenses copy the exact amount. For tasks copy the deadline. For links copy the URL.
If the screenshot has no meaningful text, say so in the summary and use "note".`

var refusalPhrases = []string{
	"cannot help",
	"can't help",
	"cannot process",
	"unable to analyze",
	"please provide",
	"не могу помочь",
	"не могу обработать",
	"предоставьте",
}

// VisionService asks GigaChat to classify a screenshot directly from pixels.
// One attempt per call; the caller decides what to do when it fails.
type VisionService struct {
	config     *config.GigaChatConfig
	httpClient *http.Client
	logger     *zap.Logger
	now        func() time.Time

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

func NewVisionService(cfg *config.GigaChatConfig, logger *zap.Logger) *VisionService {
	httpClient := &http.Client{}
	if cfg.InsecureSkipVerify {
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
		logger.Warn("GigaChat TLS certificate verification is disabled")
	}

	return &VisionService{
		config:     cfg,
		httpClient: httpClient,
		logger:     logger,
		now:        time.Now,
	}
}

func (s *VisionService) Configured() bool {
	return s.config.APIKey != ""
}

// AnalyzeImage uploads the screenshot and returns the model's intent.
// Every failure is wrapped in ErrAnalyzerUnavailable.
func (s *VisionService) AnalyzeImage(ctx context.Context, upload *models.Upload) (*models.Analysis, error) {
	if !s.Configured() {
		return nil, fmt.Errorf("%w: GigaChat API key is not set", ErrAnalyzerUnavailable)
	}

	intent, err := s.analyze(ctx, upload)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAnalyzerUnavailable, err)
	}

	s.logger.Info("Screenshot classified via GigaChat vision",
		zap.String("file", upload.FileName),
		zap.String("category", string(intent.Category)),
	)

	return &models.Analysis{
		Intent:        *intent,
		ExtractedText: "",
		Source:        models.SourceVision,
	}, nil
}

func (s *VisionService) analyze(ctx context.Context, upload *models.Upload) (*models.Intent, error) {
	token, err := s.token(ctx)
	if err != nil {
		return nil, err
	}

	fileID, err := s.uploadFile(ctx, token, upload)
	if err != nil {
		return nil, err
	}

	content, err := s.complete(ctx, token, fileID)
	if err != nil {
		return nil, err
	}

	return parseVisionReply(content)
}

// token returns the cached access token, requesting a new one once it expires.
func (s *VisionService) token(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && s.now().Before(s.expiresAt) {
		return s.accessToken, nil
	}

	rqUID := uuid.New().String()
	form := url.Values{}
	form.Set("scope", s.config.Scope)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.OAuthURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("failed to create OAuth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", rqUID)
	// the key is issued already Base64-encoded
	req.Header.Set("Authorization", "Basic "+s.config.APIKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to get access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := readErrorBody(resp.Body)
		s.logger.Error("OAuth request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("response", body),
			zap.String("rq_uid", rqUID),
		)
		return "", fmt.Errorf("OAuth failed with status %d: %s", resp.StatusCode, body)
	}

	var oauthResp struct {
		AccessToken string `json:"access_token"`
		ExpiresAt   int64  `json:"expires_at"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&oauthResp); err != nil {
		return "", fmt.Errorf("failed to decode OAuth response: %w", err)
	}
	if oauthResp.AccessToken == "" {
		return "", fmt.Errorf("empty access token in OAuth response")
	}

	now := s.now()
	expiresAt := now.Add(defaultTokenTTL)
	switch {
	case oauthResp.ExpiresAt > 0:
		// milliseconds since epoch
		expiresAt = time.UnixMilli(oauthResp.ExpiresAt)
	case oauthResp.ExpiresIn > 0:
		expiresAt = now.Add(time.Duration(oauthResp.ExpiresIn) * time.Second)
	}

	s.accessToken = oauthResp.AccessToken
	s.expiresAt = expiresAt.Add(-tokenExpirySkew)

	s.logger.Debug("Access token obtained", zap.Time("expires_at", expiresAt))
	return s.accessToken, nil
}

func (s *VisionService) dropToken() {
	s.mu.Lock()
	s.accessToken = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

func (s *VisionService) do(req *http.Request) (*http.Response, error) {
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		s.dropToken()
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body := readErrorBody(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s %s failed with status %d: %s", req.Method, req.URL.Path, resp.StatusCode, body)
	}

	return resp, nil
}

// uploadFile stores the screenshot with purpose=general so it can be attached to a chat message.
func (s *VisionService) uploadFile(ctx context.Context, token string, upload *models.Upload) (string, error) {
	file, err := os.Open(upload.Path)
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	if err := writer.WriteField("purpose", "general"); err != nil {
		return "", fmt.Errorf("failed to write purpose field: %w", err)
	}

	part, err := writer.CreatePart(map[string][]string{
		"Content-Type":        {upload.ContentType},
		"Content-Disposition": {fmt.Sprintf(`form-data; name="file"; filename="%s"`, upload.FileName)},
	})
	if err != nil {
		return "", fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to copy file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/files", &body)
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}
	defer resp.Body.Close()

	var uploadResp struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&uploadResp); err != nil {
		return "", fmt.Errorf("failed to decode upload response: %w", err)
	}
	if uploadResp.ID == "" {
		return "", fmt.Errorf("empty file id in upload response")
	}

	s.logger.Debug("File uploaded to GigaChat", zap.String("file_id", uploadResp.ID))
	return uploadResp.ID, nil
}

type chatMessage struct {
	Role        string   `json:"role"`
	Content     string   `json:"content"`
	Attachments []string `json:"attachments,omitempty"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (s *VisionService) complete(ctx context.Context, token, fileID string) (string, error) {
	payload, err := json.Marshal(chatRequest{
		Model: s.config.Model,
		Messages: []chatMessage{
			{Role: "user", Content: visionPrompt, Attachments: []string{fileID}},
		},
		Temperature: visionTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := s.do(req)
	if err != nil {
		return "", fmt.Errorf("vision request failed: %w", err)
	}
	defer resp.Body.Close()

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no response from vision model")
	}

	return chatResp.Choices[0].Message.Content, nil
}

type visionReply struct {
	Category        string          `json:"category"`
	Title           string          `json:"title"`
	Summary         string          `json:"summary"`
	KeyDetail       json.RawMessage `json:"key_detail"`
	SuggestedAction string          `json:"suggested_action"`
}

// parseVisionReply decodes the model answer into an Intent.
// Unknown categories become note, empty key details become nil.
func parseVisionReply(content string) (*models.Intent, error) {
	content = strings.TrimSpace(sanitizeUTF8(content))
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")
	content = strings.TrimSpace(content)

	start := strings.Index(content, "{")
	end := strings.LastIndex(content, "}")
	if start == -1 || end <= start {
		if isRefusal(content) {
			return nil, fmt.Errorf("model refused: %s", truncateRunes(content, 200))
		}
		return nil, fmt.Errorf("no JSON object in reply: %s", truncateRunes(content, 200))
	}

	var reply visionReply
	if err := json.Unmarshal([]byte(content[start:end+1]), &reply); err != nil {
		return nil, fmt.Errorf("failed to parse JSON reply: %w", err)
	}

	category := strings.TrimSpace(reply.Category)
	title := collapseWhitespace(reply.Title)
	summary := strings.TrimSpace(reply.Summary)
	action := strings.TrimSpace(reply.SuggestedAction)
	if category == "" || title == "" || summary == "" || action == "" {
		return nil, fmt.Errorf("reply is missing required fields")
	}
	if isRefusal(summary) && isRefusal(action) {
		return nil, fmt.Errorf("model refused: %s", summary)
	}

	intent := &models.Intent{
		Category:        models.CoerceCategory(category),
		Title:           truncateRunes(title, maxTitleRunes),
		Summary:         summary,
		SuggestedAction: action,
	}
	if detail := keyDetailValue(reply.KeyDetail); detail != "" {
		intent.KeyDetail = strPtr(detail)
	}

	return intent, nil
}

// keyDetailValue accepts a string or any scalar the model put in key_detail.
func keyDetailValue(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		value = string(raw)
	}

	value = strings.TrimSpace(value)
	switch strings.ToLower(value) {
	case "null", "none", "n/a":
		return ""
	}
	return value
}

func isRefusal(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range refusalPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func readErrorBody(r io.Reader) string {
	body, _ := io.ReadAll(io.LimitReader(r, maxErrorBodyBytes))
	return strings.TrimSpace(string(body))
}
