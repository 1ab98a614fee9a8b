package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"snaplens/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCacheRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cacheFile := filepath.Join(dir, "nested", "cache.json")

	cache, err := loadCache(cacheFile)
	require.NoError(t, err)
	assert.Empty(t, cache.Files)

	cache.record("shots/a.png", "abc", result{ItemID: 7, Category: models.CategoryTask, Title: "Submit report"})
	require.NoError(t, saveCache(cacheFile, cache))

	loaded, err := loadCache(cacheFile)
	require.NoError(t, err)
	require.Contains(t, loaded.Files, "shots/a.png")
	assert.Equal(t, int64(7), loaded.Files["shots/a.png"].ItemID)
	assert.Equal(t, "abc", loaded.Files["shots/a.png"].FileHash)
	assert.Equal(t, models.CategoryTask, loaded.Files["shots/a.png"].Category)
}

func TestCacheLookup(t *testing.T) {
	cache := newCacheData()
	cache.record("shots/a.png", "abc", result{ItemID: 7, Category: models.CategoryExpense, Title: "Coffee"})

	res, ok := cache.lookup("shots/a.png", "abc")
	require.True(t, ok)
	assert.True(t, res.Skipped)
	assert.Equal(t, int64(7), res.ItemID)
	assert.Equal(t, models.CategoryExpense, res.Category)
	assert.Equal(t, "Coffee", res.Title)
	assert.Equal(t, "shots/a.png", res.Path)

	_, ok = cache.lookup("shots/a.png", "changed")
	assert.False(t, ok)
	_, ok = cache.lookup("shots/a.png", "")
	assert.False(t, ok)
	_, ok = cache.lookup("shots/b.png", "abc")
	assert.False(t, ok)
}

func TestProcessFileSkipsCachedBeforeIntake(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "shot.png")
	require.NoError(t, os.WriteFile(path, []byte("png bytes"), 0644))

	hash, err := calculateFileHash(path)
	require.NoError(t, err)

	cache := newCacheData()
	cache.record(path, hash, result{ItemID: 3, Category: models.CategoryNote, Title: "Grocery list"})

	// intake and analysis are nil, so any call into them would panic
	res := processFile(context.Background(), nil, nil, nil, cache, false, path, zap.NewNop())
	assert.True(t, res.Skipped)
	assert.Empty(t, res.Error)
	assert.Equal(t, int64(3), res.ItemID)
	assert.Equal(t, "3 (cached)", renderItemCell(res))
}
