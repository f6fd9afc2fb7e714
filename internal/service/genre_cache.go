package service

import (
	"context"
	"sync"

	"github.com/emretalan/muse-db/internal/models"
)

// GenreCache is the process-wide cache of the static genre lookup. Genres
// never change at runtime outside an admin sync, so it loads lazily on first
// read and refreshes only through an explicit Invalidate.
type GenreCache struct {
	mu     sync.RWMutex
	genres []models.Genre
	loaded bool
}

// Get returns the cached genre list, loading it from the store on first use.
func (c *GenreCache) Get(ctx context.Context, store CatalogStore) ([]models.Genre, error) {
	c.mu.RLock()
	if c.loaded {
		genres := c.genres
		c.mu.RUnlock()
		return genres, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return c.genres, nil
	}

	genres, err := store.ListGenres(ctx)
	if err != nil {
		return nil, err
	}
	c.genres = genres
	c.loaded = true
	return genres, nil
}

// Invalidate drops the cached list so the next read reloads it. Called after
// an admin sync and from tests needing isolation.
func (c *GenreCache) Invalidate() {
	c.mu.Lock()
	c.genres = nil
	c.loaded = false
	c.mu.Unlock()
}
