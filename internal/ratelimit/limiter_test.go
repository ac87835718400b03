package ratelimit

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAllow_UpToLimit(t *testing.T) {
	r := NewRegistry()

	for i := 0; i < 5; i++ {
		assert.True(t, r.Allow("client-1", 5, time.Minute), "call %d within the limit must pass", i+1)
	}
	assert.False(t, r.Allow("client-1", 5, time.Minute), "call limit+1 must be rejected")
}

func TestAllow_WindowSlides(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	r.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		assert.True(t, r.Allow("client-1", 3, time.Minute))
	}
	assert.False(t, r.Allow("client-1", 3, time.Minute))

	// past the window the old timestamps are pruned
	now = now.Add(time.Minute + time.Second)
	assert.True(t, r.Allow("client-1", 3, time.Minute))
}

func TestAllow_KeysAreIndependent(t *testing.T) {
	r := NewRegistry()

	assert.True(t, r.Allow("client-1", 1, time.Minute))
	assert.False(t, r.Allow("client-1", 1, time.Minute))
	assert.True(t, r.Allow("client-2", 1, time.Minute))
}

func TestAllow_RejectionDoesNotConsumeBudget(t *testing.T) {
	now := time.Now()
	r := NewRegistry()
	r.now = func() time.Time { return now }

	assert.True(t, r.Allow("client-1", 1, time.Minute))
	for i := 0; i < 10; i++ {
		assert.False(t, r.Allow("client-1", 1, time.Minute))
	}

	// only the admitted request counts against the window
	now = now.Add(time.Minute + time.Second)
	assert.True(t, r.Allow("client-1", 1, time.Minute))
}

func TestAllow_Concurrent(t *testing.T) {
	r := NewRegistry()
	const workers = 20

	var wg sync.WaitGroup
	admitted := make(chan bool, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			admitted <- r.Allow("shared", 10, time.Minute)
		}()
	}
	wg.Wait()
	close(admitted)

	count := 0
	for ok := range admitted {
		if ok {
			count++
		}
	}
	assert.Equal(t, 10, count)
}
