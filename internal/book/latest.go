package book

import (
	"sync"

	"github.com/Hugo-SEQUIER/nbbo-backend/internal/domain"
)

// LatestCell is the single-writer, multi-reader holder of the most recent
// consolidated book. The scheduler swaps in a complete book once per cycle;
// readers always observe a consistent value, never a partially-updated one.
type LatestCell struct {
	mu     sync.RWMutex
	latest *domain.ConsolidatedBook
}

// NewLatestCell returns an empty cell. Load reports ok=false until the first
// Store.
func NewLatestCell() *LatestCell {
	return &LatestCell{}
}

// Store replaces the current book. The caller must not mutate cb afterwards.
func (c *LatestCell) Store(cb *domain.ConsolidatedBook) {
	c.mu.Lock()
	c.latest = cb
	c.mu.Unlock()
}

// Load returns the most recently stored book without waiting for the next
// cycle.
func (c *LatestCell) Load() (*domain.ConsolidatedBook, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.latest == nil {
		return nil, false
	}
	return c.latest, true
}
