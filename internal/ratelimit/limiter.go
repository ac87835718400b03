// Package ratelimit implements per-client admission control with a sliding
// log of request timestamps.
package ratelimit

import (
	"sync"
	"time"
)

// Registry owns the per-client sliding logs. It is passed by reference into
// request handlers rather than held as a process-wide singleton; one lock
// guards the map and the critical section is bounded by the configured
// limit. State is process-local only and resets on restart.
type Registry struct {
	mu      sync.Mutex
	clients map[string][]time.Time
	now     func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{
		clients: make(map[string][]time.Time),
		now:     time.Now,
	}
}

// Allow prunes timestamps older than window from the client's log, then
// admits the request if fewer than limit remain, recording its timestamp.
// Old entries are garbage-collected implicitly by the pruning.
func (r *Registry) Allow(clientKey string, limit int, window time.Duration) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	cutoff := now.Add(-window)

	timestamps := r.clients[clientKey]
	valid := make([]time.Time, 0, len(timestamps)+1)
	for _, ts := range timestamps {
		if ts.After(cutoff) {
			valid = append(valid, ts)
		}
	}

	if len(valid) >= limit {
		r.clients[clientKey] = valid
		return false
	}

	r.clients[clientKey] = append(valid, now)
	return true
}
