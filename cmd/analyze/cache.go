package main

import (
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"snaplens/internal/models"
)

// savedFile is a file already stored as an item.
type savedFile struct {
	FileHash string          `json:"file_hash"`
	ItemID   int64           `json:"item_id"`
	Category models.Category `json:"category,omitempty"`
	Title    string          `json:"title,omitempty"`
	SavedAt  time.Time       `json:"saved_at"`
}

// cacheData maps file paths to the item they were saved as.
type cacheData struct {
	Files map[string]savedFile `json:"files"`
}

func newCacheData() *cacheData {
	return &cacheData{Files: make(map[string]savedFile)}
}

func (c *cacheData) record(path, hash string, res result) {
	c.Files[path] = savedFile{
		FileHash: hash,
		ItemID:   res.ItemID,
		Category: res.Category,
		Title:    res.Title,
		SavedAt:  time.Now().UTC(),
	}
}

// lookup returns the saved result for path when its contents are unchanged.
func (c *cacheData) lookup(path, hash string) (result, bool) {
	cached, ok := c.Files[path]
	if !ok || hash == "" || cached.FileHash != hash {
		return result{}, false
	}
	return result{
		Path:     path,
		Category: cached.Category,
		Title:    cached.Title,
		ItemID:   cached.ItemID,
		Skipped:  true,
	}, true
}

func loadCache(cacheFile string) (*cacheData, error) {
	cache := newCacheData()

	data, err := os.ReadFile(cacheFile)
	if os.IsNotExist(err) {
		return cache, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache file: %w", err)
	}
	if len(data) == 0 {
		return cache, nil
	}

	if err := json.Unmarshal(data, cache); err != nil {
		return nil, fmt.Errorf("failed to parse cache file: %w", err)
	}
	if cache.Files == nil {
		cache.Files = make(map[string]savedFile)
	}

	return cache, nil
}

func saveCache(cacheFile string, cache *cacheData) error {
	data, err := json.MarshalIndent(cache, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(cacheFile), 0755); err != nil {
		return fmt.Errorf("failed to create cache directory: %w", err)
	}
	if err := os.WriteFile(cacheFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write cache file: %w", err)
	}

	return nil
}

// calculateFileHash returns the MD5 of the file contents.
func calculateFileHash(filePath string) (string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", fmt.Errorf("failed to calculate hash: %w", err)
	}

	return fmt.Sprintf("%x", hash.Sum(nil)), nil
}
