package service

import (
	"context"
	"fmt"
	"strings"

	"snaplens/pkg/config"

	"github.com/Role1776/gigago"
	"go.uber.org/zap"
)

const pingPrompt = `Reply with the single word "ok".`

// LLMService is a thin gigago client used to verify GigaChat credentials
// before the vision analyzer is trusted with real uploads.
type LLMService struct {
	client *gigago.Client
	model  *gigago.GenerativeModel
	logger *zap.Logger
}

func NewLLMService(ctx context.Context, cfg *config.GigaChatConfig, logger *zap.Logger) (*LLMService, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: GigaChat API key is not set", ErrAnalyzerUnavailable)
	}

	opts := []gigago.Option{
		gigago.WithCustomScope(cfg.Scope),
	}
	if cfg.InsecureSkipVerify {
		opts = append(opts, gigago.WithCustomInsecureSkipVerify(true))
	}

	client, err := gigago.NewClient(ctx, cfg.APIKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GigaChat client: %w", err)
	}

	model := client.GenerativeModel(cfg.Model)
	model.SystemInstruction = "You are a health check. Answer as briefly as possible."
	model.Temperature = 0

	return &LLMService{
		client: client,
		model:  model,
		logger: logger,
	}, nil
}

// Ping sends a one-line prompt and returns the model reply.
func (s *LLMService) Ping(ctx context.Context) (string, error) {
	messages := []gigago.Message{
		{Role: gigago.RoleUser, Content: pingPrompt},
	}

	resp, err := s.model.Generate(ctx, messages)
	if err != nil {
		return "", fmt.Errorf("%w: failed to generate response: %w", ErrAnalyzerUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no response from LLM", ErrAnalyzerUnavailable)
	}

	reply := strings.TrimSpace(resp.Choices[0].Message.Content)
	s.logger.Info("GigaChat connectivity check passed", zap.String("reply", truncateRunes(reply, 50)))

	return reply, nil
}

func (s *LLMService) Close() error {
	if s.client != nil {
		s.client.Close()
	}
	return nil
}
