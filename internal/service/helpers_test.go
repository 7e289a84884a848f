package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/ColourfulRhythm/subxadmin/backend/internal/domain"
	"github.com/ColourfulRhythm/subxadmin/backend/internal/store"
)

func newTestReconciler(cache PortfolioCache) (*Reconciler, *store.MemoryClient) {
	client := store.NewMemoryClient()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewReconciler(client, cache, logger), client
}

// stubCache records cache traffic for assertions.
type stubCache struct {
	mu           sync.Mutex
	entries      map[string]domain.Portfolio
	invalidated  []string
	sets         int
	hits, misses int
}

func newStubCache() *stubCache {
	return &stubCache{entries: make(map[string]domain.Portfolio)}
}

func (c *stubCache) Get(_ context.Context, userID string) (domain.Portfolio, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[userID]
	if ok {
		c.hits++
	} else {
		c.misses++
	}
	return p, ok
}

func (c *stubCache) Set(_ context.Context, userID string, p domain.Portfolio) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = p
	c.sets++
}

func (c *stubCache) Invalidate(_ context.Context, userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
	c.invalidated = append(c.invalidated, userID)
}
