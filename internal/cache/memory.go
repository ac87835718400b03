package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"shortlink-backend/internal/domain"
)

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is the in-process fallback cache used when Redis is disabled.
// Entries hold the same JSON snapshots Redis would, so decode semantics stay
// identical. Expired entries are dropped lazily on read.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	log     *zap.Logger
	now     func() time.Time
}

func NewMemory(log *zap.Logger) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		log:     log,
		now:     time.Now,
	}
}

func (c *MemoryCache) Get(_ context.Context, code string) (*domain.Link, error) {
	c.mu.RLock()
	entry, ok := c.entries[code]
	c.mu.RUnlock()

	if !ok {
		return nil, ErrMiss
	}
	if c.now().After(entry.expiresAt) {
		c.mu.Lock()
		delete(c.entries, code)
		c.mu.Unlock()
		return nil, ErrMiss
	}

	var link domain.Link
	if err := json.Unmarshal(entry.data, &link); err != nil {
		c.log.Warn("dropping undecodable cache entry", zap.String("code", code), zap.Error(err))
		c.mu.Lock()
		delete(c.entries, code)
		c.mu.Unlock()
		return nil, ErrMiss
	}
	return &link, nil
}

func (c *MemoryCache) Set(_ context.Context, code string, link *domain.Link, ttl time.Duration) error {
	data, err := json.Marshal(link)
	if err != nil {
		return fmt.Errorf("failed to serialize link: %w", err)
	}

	c.mu.Lock()
	c.entries[code] = memoryEntry{data: data, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return nil
}

var _ Cache = (*MemoryCache)(nil)
