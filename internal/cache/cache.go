// Package cache is the best-effort front for resolved links. Values are
// opaque JSON snapshots of a link; a cache miss never implies the link does
// not exist, only that the store must be consulted.
package cache

import (
	"context"
	"errors"
	"time"

	"shortlink-backend/internal/domain"
)

// ErrMiss signals that a code is not cached, its entry expired, or the entry
// could not be decoded. Callers fall back to the store.
var ErrMiss = errors.New("cache miss")

type Cache interface {
	// Get returns the cached link snapshot for a code, or ErrMiss.
	Get(ctx context.Context, code string) (*domain.Link, error)

	// Set stores a link snapshot under its code for ttl.
	Set(ctx context.Context, code string, link *domain.Link, ttl time.Duration) error
}
