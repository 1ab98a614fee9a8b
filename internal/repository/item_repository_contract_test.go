package repository

import (
	"context"
	"testing"
	"time"

	"snaplens/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type itemStore interface {
	Create(ctx context.Context, item *models.Item) error
	List(ctx context.Context, category *models.Category) ([]*models.Item, error)
	Delete(ctx context.Context, id int64) (bool, error)
}

func strPtr(s string) *string { return &s }

// runItemStoreContract exercises behaviour every item backend must share.
func runItemStoreContract(t *testing.T, newStore func(t *testing.T) itemStore) {
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 9, 30, 0, 123456000, time.UTC)

	t.Run("CreateAssignsIncreasingIDs", func(t *testing.T) {
		store := newStore(t)

		first := &models.Item{Category: models.CategoryTask, Title: "Pay rent", CreatedAt: base}
		second := &models.Item{Category: models.CategoryNote, Title: "Recipe", CreatedAt: base.Add(time.Second)}
		require.NoError(t, store.Create(ctx, first))
		require.NoError(t, store.Create(ctx, second))

		assert.Positive(t, first.ID)
		assert.Greater(t, second.ID, first.ID)
	})

	t.Run("RoundTripKeepsFields", func(t *testing.T) {
		store := newStore(t)

		item := &models.Item{
			Category:        models.CategoryExpense,
			Title:           "Coffee",
			Summary:         strPtr("Paid for coffee."),
			KeyDetail:       strPtr("$4.20"),
			ExtractedText:   strPtr("Total paid: $4.20"),
			SuggestedAction: strPtr("Log expense of $4.20"),
			CreatedAt:       base,
		}
		require.NoError(t, store.Create(ctx, item))

		items, err := store.List(ctx, nil)
		require.NoError(t, err)
		require.Len(t, items, 1)

		got := items[0]
		assert.Equal(t, item.ID, got.ID)
		assert.Equal(t, item.Category, got.Category)
		assert.Equal(t, item.Title, got.Title)
		assert.Equal(t, item.Summary, got.Summary)
		assert.Equal(t, item.KeyDetail, got.KeyDetail)
		assert.Equal(t, item.ExtractedText, got.ExtractedText)
		assert.Equal(t, item.SuggestedAction, got.SuggestedAction)
		assert.True(t, item.CreatedAt.Equal(got.CreatedAt), "created_at %s != %s", got.CreatedAt, item.CreatedAt)
	})

	t.Run("NullableFieldsStayNil", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Create(ctx, &models.Item{Category: models.CategoryLink, Title: "Docs", CreatedAt: base}))

		items, err := store.List(ctx, nil)
		require.NoError(t, err)
		require.Len(t, items, 1)
		assert.Nil(t, items[0].Summary)
		assert.Nil(t, items[0].KeyDetail)
		assert.Nil(t, items[0].ExtractedText)
		assert.Nil(t, items[0].SuggestedAction)
	})

	t.Run("ListNewestFirstAndFiltered", func(t *testing.T) {
		store := newStore(t)

		seed := []*models.Item{
			{Category: models.CategoryTask, Title: "a", CreatedAt: base},
			{Category: models.CategoryNote, Title: "b", CreatedAt: base.Add(time.Minute)},
			{Category: models.CategoryTask, Title: "c", CreatedAt: base.Add(2 * time.Minute)},
			// same timestamp as "c", the higher id wins
			{Category: models.CategoryTask, Title: "d", CreatedAt: base.Add(2 * time.Minute)},
		}
		for _, item := range seed {
			require.NoError(t, store.Create(ctx, item))
		}

		all, err := store.List(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c", "b", "a"}, titles(all))

		task := models.CategoryTask
		tasks, err := store.List(ctx, &task)
		require.NoError(t, err)
		assert.Equal(t, []string{"d", "c", "a"}, titles(tasks))

		reminder := models.CategoryReminder
		none, err := store.List(ctx, &reminder)
		require.NoError(t, err)
		assert.NotNil(t, none)
		assert.Empty(t, none)
	})

	t.Run("ListIsIdempotent", func(t *testing.T) {
		store := newStore(t)

		require.NoError(t, store.Create(ctx, &models.Item{Category: models.CategoryNote, Title: "x", CreatedAt: base}))
		require.NoError(t, store.Create(ctx, &models.Item{Category: models.CategoryNote, Title: "y", CreatedAt: base}))

		first, err := store.List(ctx, nil)
		require.NoError(t, err)
		second, err := store.List(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("DeleteReportsRemoval", func(t *testing.T) {
		store := newStore(t)

		item := &models.Item{Category: models.CategoryReminder, Title: "Dentist", CreatedAt: base}
		require.NoError(t, store.Create(ctx, item))

		removed, err := store.Delete(ctx, item.ID)
		require.NoError(t, err)
		assert.True(t, removed)

		removed, err = store.Delete(ctx, item.ID)
		require.NoError(t, err)
		assert.False(t, removed)

		items, err := store.List(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, items)
	})

	t.Run("RejectsUnknownCategory", func(t *testing.T) {
		store := newStore(t)

		err := store.Create(ctx, &models.Item{Category: models.Category("shopping"), Title: "x", CreatedAt: base})
		assert.Error(t, err)
	})
}

func titles(items []*models.Item) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		out = append(out, item.Title)
	}
	return out
}
