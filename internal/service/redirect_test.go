package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shortlink-backend/internal/analytics"
	"shortlink-backend/internal/cache"
	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
	"shortlink-backend/internal/repository/memory"
)

func newTestPipeline(t *testing.T, store repository.StatsStore) *analytics.Pipeline {
	t.Helper()
	cfg := analytics.DefaultConfig()
	cfg.ShutdownTimeout = 5 * time.Second
	p := analytics.New(store, zap.NewNop(), cfg)
	require.NoError(t, p.Start())
	return p
}

func TestResolve_UnknownCode(t *testing.T) {
	store := memory.New()
	pipeline := newTestPipeline(t, store)
	defer func() { _ = pipeline.Stop() }()

	svc := NewRedirect(store, cache.NewMemory(zap.NewNop()), pipeline, time.Hour, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "missing", "203.0.113.7", "test-agent")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}

func TestResolve_CacheAside(t *testing.T) {
	stats := memory.New()
	pipeline := newTestPipeline(t, stats)
	defer func() { _ = pipeline.Stop() }()

	link := domain.NewLink("https://example.com/a", "Ab12Cd3e")

	store := &MockLinkStore{}
	// exactly one store round trip: the second resolve is served from cache
	store.On("FindByCode", mock.Anything, "Ab12Cd3e").Return(link, nil).Once()

	svc := NewRedirect(store, cache.NewMemory(zap.NewNop()), pipeline, time.Hour, zap.NewNop())

	first, err := svc.Resolve(context.Background(), "Ab12Cd3e", "203.0.113.7", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", first.Destination)

	second, err := svc.Resolve(context.Background(), "Ab12Cd3e", "203.0.113.7", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	store.AssertExpectations(t)
}

func TestResolve_CacheExpiryFallsBackToStore(t *testing.T) {
	stats := memory.New()
	pipeline := newTestPipeline(t, stats)
	defer func() { _ = pipeline.Stop() }()

	link := domain.NewLink("https://example.com/a", "Ab12Cd3e")

	store := &MockLinkStore{}
	store.On("FindByCode", mock.Anything, "Ab12Cd3e").Return(link, nil).Twice()

	// zero-ish TTL: every entry is expired by the next read
	svc := NewRedirect(store, cache.NewMemory(zap.NewNop()), pipeline, time.Nanosecond, zap.NewNop())

	_, err := svc.Resolve(context.Background(), "Ab12Cd3e", "203.0.113.7", "test-agent")
	require.NoError(t, err)

	time.Sleep(time.Millisecond)

	_, err = svc.Resolve(context.Background(), "Ab12Cd3e", "203.0.113.7", "test-agent")
	require.NoError(t, err)

	store.AssertExpectations(t)
}

func TestResolve_RecordsAccessEvents(t *testing.T) {
	store := memory.New()
	pipeline := newTestPipeline(t, store)

	link, err := store.UpsertOnCodeConflict(context.Background(), domain.NewLink("https://example.com/a", "Ab12Cd3e"))
	require.NoError(t, err)

	svc := NewRedirect(store, cache.NewMemory(zap.NewNop()), pipeline, time.Hour, zap.NewNop())

	const k = 3
	for i := 0; i < k; i++ {
		_, err := svc.Resolve(context.Background(), "Ab12Cd3e", "203.0.113.7", "test-agent")
		require.NoError(t, err)
	}

	require.NoError(t, pipeline.Stop())

	count, err := store.GetCounter(context.Background(), link.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(k), count)

	report, err := store.GetReport(context.Background(), link.ID, 100)
	require.NoError(t, err)
	assert.Len(t, report.Recent, k)
}

func TestResolve_SucceedsWhenPipelineStopped(t *testing.T) {
	store := memory.New()
	pipeline := newTestPipeline(t, store)
	require.NoError(t, pipeline.Stop())

	_, err := store.UpsertOnCodeConflict(context.Background(), domain.NewLink("https://example.com/a", "Ab12Cd3e"))
	require.NoError(t, err)

	svc := NewRedirect(store, cache.NewMemory(zap.NewNop()), pipeline, time.Hour, zap.NewNop())

	// analytics loss never fails the redirect
	link, err := svc.Resolve(context.Background(), "Ab12Cd3e", "203.0.113.7", "test-agent")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", link.Destination)
}

func TestStatsReport(t *testing.T) {
	store := memory.New()
	pipeline := newTestPipeline(t, store)

	link, err := store.UpsertOnCodeConflict(context.Background(), domain.NewLink("https://example.com/a", "Ab12Cd3e"))
	require.NoError(t, err)

	redirect := NewRedirect(store, cache.NewMemory(zap.NewNop()), pipeline, time.Hour, zap.NewNop())
	_, err = redirect.Resolve(context.Background(), "Ab12Cd3e", "203.0.113.7", "test-agent")
	require.NoError(t, err)
	require.NoError(t, pipeline.Stop())

	stats := NewStats(store, store, zap.NewNop())

	report, err := stats.Report(context.Background(), "Ab12Cd3e")
	require.NoError(t, err)
	assert.Equal(t, link.ID, report.LinkID)
	assert.Equal(t, int64(1), report.AccessCount)
	require.Len(t, report.Recent, 1)
	assert.Equal(t, "203.0.113.7", report.Recent[0].IPAddress)

	_, err = stats.Report(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrLinkNotFound)
}
