package ai

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const categoryCacheTTL = 10 * time.Minute

// CategorySource enumerates the category labels available in a workspace
// database. Implemented by the notion client.
type CategorySource interface {
	ListCategories(ctx context.Context, databaseID string) ([]string, error)
}

// CategoryCache caches workspace category lists per database so repeated
// categorization calls do not hammer the Notion API.
type CategoryCache struct {
	logger *slog.Logger

	mu      sync.Mutex
	entries map[string]categoryEntry
	now     func() time.Time
}

type categoryEntry struct {
	categories []string
	expires    time.Time
}

// NewCategoryCache builds an empty cache.
func NewCategoryCache(logger *slog.Logger) *CategoryCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &CategoryCache{
		logger:  logger,
		entries: make(map[string]categoryEntry),
		now:     time.Now,
	}
}

// Fetch returns the category list for a database, consulting the cache
// first. Source failures propagate so the caller can fall back to defaults.
func (c *CategoryCache) Fetch(ctx context.Context, source CategorySource, databaseID string) ([]string, error) {
	c.mu.Lock()
	if entry, ok := c.entries[databaseID]; ok {
		if c.now().Before(entry.expires) {
			c.mu.Unlock()
			return entry.categories, nil
		}
		delete(c.entries, databaseID)
	}
	c.mu.Unlock()

	categories, err := source.ListCategories(ctx, databaseID)
	if err != nil {
		return nil, err
	}
	if len(categories) == 0 {
		categories = []string{"General"}
	}

	c.mu.Lock()
	c.entries[databaseID] = categoryEntry{categories: categories, expires: c.now().Add(categoryCacheTTL)}
	c.mu.Unlock()

	c.logger.Debug("cached workspace categories", "database", databaseID, "count", len(categories))
	return categories, nil
}

// Warm pre-loads the cache for a database.
func (c *CategoryCache) Warm(ctx context.Context, source CategorySource, databaseID string) error {
	c.Clear(databaseID)
	_, err := c.Fetch(ctx, source, databaseID)
	return err
}

// Clear drops the cached list for one database, or all of them if
// databaseID is empty.
func (c *CategoryCache) Clear(databaseID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if databaseID == "" {
		c.entries = make(map[string]categoryEntry)
		return
	}
	delete(c.entries, databaseID)
}
