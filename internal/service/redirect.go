package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"shortlink-backend/internal/analytics"
	"shortlink-backend/internal/cache"
	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
)

// DefaultCacheTTL bounds how stale a cached resolution can get.
const DefaultCacheTTL = time.Hour

// RedirectService resolves short codes on the hot path: cache first, store
// on miss, and a fire-and-forget access event after every successful
// resolution.
type RedirectService struct {
	store    repository.LinkStore
	cache    cache.Cache
	pipeline *analytics.Pipeline
	cacheTTL time.Duration
	log      *zap.Logger
}

func NewRedirect(store repository.LinkStore, c cache.Cache, pipeline *analytics.Pipeline, cacheTTL time.Duration, log *zap.Logger) *RedirectService {
	if cacheTTL <= 0 {
		cacheTTL = DefaultCacheTTL
	}
	return &RedirectService{
		store:    store,
		cache:    c,
		pipeline: pipeline,
		cacheTTL: cacheTTL,
		log:      log,
	}
}

// Resolve returns the link for code. Cache hits skip the store entirely;
// misses fall through to the store and populate the cache. Analytics are
// best-effort: a rejected event is logged and swallowed, never surfaced.
func (s *RedirectService) Resolve(ctx context.Context, code, clientIP, userAgent string) (*domain.Link, error) {
	link, err := s.cache.Get(ctx, code)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			s.log.Warn("cache read failed, falling back to store", zap.String("code", code), zap.Error(err))
		}

		link, err = s.store.FindByCode(ctx, code)
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		if err != nil {
			return nil, fmt.Errorf("failed to resolve code: %w", err)
		}

		if err := s.cache.Set(ctx, code, link, s.cacheTTL); err != nil {
			s.log.Warn("cache write failed", zap.String("code", code), zap.Error(err))
		}
	}

	s.recordAccess(link, clientIP, userAgent)
	return link, nil
}

// recordAccess submits an access event without blocking the redirect.
func (s *RedirectService) recordAccess(link *domain.Link, clientIP, userAgent string) {
	event := &analytics.Event{
		LinkID:      link.ID,
		Destination: link.Destination,
		ClientIP:    clientIP,
		UserAgent:   userAgent,
		ObservedAt:  time.Now(),
	}

	if err := s.pipeline.Submit(event); err != nil {
		s.log.Warn("access event dropped",
			zap.String("code", link.Code),
			zap.Error(err),
		)
	}
}
