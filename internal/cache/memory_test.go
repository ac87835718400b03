package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"shortlink-backend/internal/domain"
)

func TestMemoryCache_SetGet(t *testing.T) {
	c := NewMemory(zap.NewNop())
	link := domain.NewLink("https://example.com/a", "Ab12Cd3e")

	require.NoError(t, c.Set(context.Background(), link.Code, link, time.Hour))

	got, err := c.Get(context.Background(), link.Code)
	require.NoError(t, err)
	assert.Equal(t, link.ID, got.ID)
	assert.Equal(t, link.Destination, got.Destination)
	assert.Equal(t, link.Code, got.Code)
}

func TestMemoryCache_MissOnUnknownCode(t *testing.T) {
	c := NewMemory(zap.NewNop())

	_, err := c.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_ExpiryForcesMiss(t *testing.T) {
	now := time.Now()
	c := NewMemory(zap.NewNop())
	c.now = func() time.Time { return now }

	link := domain.NewLink("https://example.com/a", "Ab12Cd3e")
	require.NoError(t, c.Set(context.Background(), link.Code, link, time.Hour))

	// still cached just before the deadline
	now = now.Add(time.Hour - time.Second)
	_, err := c.Get(context.Background(), link.Code)
	require.NoError(t, err)

	// gone after the TTL elapses
	now = now.Add(2 * time.Second)
	_, err = c.Get(context.Background(), link.Code)
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryCache_UndecodableEntryIsAMiss(t *testing.T) {
	c := NewMemory(zap.NewNop())
	c.entries["bad"] = memoryEntry{
		data:      []byte("{not json"),
		expiresAt: time.Now().Add(time.Hour),
	}

	_, err := c.Get(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrMiss)

	// the corrupt entry is evicted, not retried
	_, ok := c.entries["bad"]
	assert.False(t, ok)
}
