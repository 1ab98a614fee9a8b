package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"snaplens/internal/models"

	"go.uber.org/zap"
)

// ItemRepository is implemented by the PostgreSQL and SQLite stores.
type ItemRepository interface {
	Create(ctx context.Context, item *models.Item) error
	List(ctx context.Context, category *models.Category) ([]*models.Item, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

type ItemService struct {
	repo   ItemRepository
	logger *zap.Logger
	now    func() time.Time
}

func NewItemService(repo ItemRepository, logger *zap.Logger) *ItemService {
	return &ItemService{
		repo:   repo,
		logger: logger,
		now:    time.Now,
	}
}

// Create validates fields and persists a new item. id and created_at are assigned here.
// Category and title are stored exactly as given.
func (s *ItemService) Create(ctx context.Context, fields models.ItemFields) (*models.Item, error) {
	if !fields.Category.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, fields.Category)
	}

	title := sanitizeUTF8(fields.Title)
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrMissingFields)
	}

	item := &models.Item{
		Category:        fields.Category,
		Title:           title,
		Summary:         optionalText(fields.Summary),
		KeyDetail:       optionalText(fields.KeyDetail),
		ExtractedText:   optionalText(fields.ExtractedText),
		SuggestedAction: optionalText(fields.SuggestedAction),
		CreatedAt:       s.now().UTC(),
	}

	if err := s.repo.Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to create item: %w", err)
	}

	s.logger.Info("Item saved",
		zap.Int64("item_id", item.ID),
		zap.String("category", string(item.Category)),
	)

	return item, nil
}

// List returns items newest first. An empty filter returns every category.
func (s *ItemService) List(ctx context.Context, filter string) ([]*models.Item, error) {
	var category *models.Category
	if strings.TrimSpace(filter) != "" {
		c, ok := models.ParseCategory(filter)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidCategory, filter)
		}
		category = &c
	}

	items, err := s.repo.List(ctx, category)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}

	return items, nil
}

// Delete reports whether an item with id existed.
func (s *ItemService) Delete(ctx context.Context, id int64) (bool, error) {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete item: %w", err)
	}

	if deleted {
		s.logger.Info("Item deleted", zap.Int64("item_id", id))
	}

	return deleted, nil
}

// optionalText maps blank strings to nil so the store keeps them as NULL.
func optionalText(s *string) *string {
	if s == nil {
		return nil
	}
	v := sanitizeUTF8(*s)
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return &v
}
