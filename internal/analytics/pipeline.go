// Package analytics turns raw access events into durable counter increments
// and log rows, off the redirect hot path.
package analytics

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
	"shortlink-backend/pkg/useragent"
)

// Event is one observed access to a resolved link.
type Event struct {
	LinkID      uuid.UUID
	Destination string
	ClientIP    string
	UserAgent   string
	ObservedAt  time.Time
}

// Config holds configuration for the access event pipeline.
type Config struct {
	QueueCapacity   int           // Bounded queue size
	ShutdownTimeout time.Duration // Time to wait for graceful drain
	WriteTimeout    time.Duration // Per-event store deadline
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		QueueCapacity:   100,
		ShutdownTimeout: 30 * time.Second,
		WriteTimeout:    30 * time.Second,
	}
}

var (
	// ErrQueueFull is returned when the bounded queue rejects an event.
	ErrQueueFull = errors.New("access event queue is full")

	// ErrNotRunning is returned when the pipeline is not accepting events.
	ErrNotRunning = errors.New("pipeline is not running")
)

// Pipeline is a bounded multiple-producer/single-consumer queue in front of
// the stats store. Producers never wait: Submit either accepts immediately
// or rejects. Exactly one worker drains the queue, which serializes counter
// writes per process and removes the need for per-link locking. Delivery is
// at-most-once: a failed store write drops the event.
type Pipeline struct {
	config  Config
	stats   repository.StatsStore
	log     *zap.Logger
	queue   chan *Event
	wg      sync.WaitGroup
	mu      sync.RWMutex
	started bool
	closed  bool
}

// New creates a pipeline; Start must be called before events are accepted.
func New(stats repository.StatsStore, log *zap.Logger, config Config) *Pipeline {
	return &Pipeline{
		config: config,
		stats:  stats,
		log:    log,
		queue:  make(chan *Event, config.QueueCapacity),
	}
}

// Start launches the single worker goroutine.
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.started {
		return errors.New("pipeline already started")
	}

	p.log.Info("starting access event pipeline",
		zap.Int("queue_capacity", p.config.QueueCapacity),
		zap.Duration("shutdown_timeout", p.config.ShutdownTimeout),
	)

	p.wg.Add(1)
	go p.worker()

	p.started = true
	return nil
}

// Submit enqueues an event without blocking. A full queue rejects the event
// with ErrQueueFull; analytics loss never delays the caller.
func (p *Pipeline) Submit(event *Event) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if !p.started || p.closed {
		return ErrNotRunning
	}

	select {
	case p.queue <- event:
		return nil
	default:
		p.log.Warn("access event queue is full, dropping event",
			zap.String("link_id", event.LinkID.String()),
			zap.Int("queue_capacity", p.config.QueueCapacity),
		)
		return ErrQueueFull
	}
}

// Stop closes the producer side and drains the remaining queued events
// before the worker exits. No new events are accepted afterward.
func (p *Pipeline) Stop() error {
	p.mu.Lock()
	if !p.started || p.closed {
		p.mu.Unlock()
		return ErrNotRunning
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	p.log.Info("stopping access event pipeline", zap.Int("queued", len(p.queue)))

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.log.Info("access event pipeline stopped gracefully")
		return nil
	case <-time.After(p.config.ShutdownTimeout):
		p.log.Warn("access event pipeline shutdown timeout reached")
		return errors.New("shutdown timeout reached")
	}
}

// worker drains the queue sequentially until the channel is closed and
// empty.
func (p *Pipeline) worker() {
	defer p.wg.Done()

	p.log.Info("access event worker started")
	for event := range p.queue {
		p.process(event)
	}
	p.log.Info("access event worker stopped")
}

// process persists one event: read the current count, increment, and write
// counter plus log row as one atomic store call. Any failure discards the
// event; it is never re-enqueued.
func (p *Pipeline) process(event *Event) {
	ctx, cancel := context.WithTimeout(context.Background(), p.config.WriteTimeout)
	defer cancel()

	count, err := p.stats.GetCounter(ctx, event.LinkID)
	if err != nil {
		p.log.Warn("dropping access event, counter read failed",
			zap.String("link_id", event.LinkID.String()),
			zap.Error(err),
		)
		return
	}

	entry := &domain.AccessLogEntry{
		IPAddress:  event.ClientIP,
		UserAgent:  event.UserAgent,
		DeviceType: useragent.DetectDeviceType(event.UserAgent),
		AccessedAt: event.ObservedAt,
	}

	if err := p.stats.UpsertCounterAndAppendLog(ctx, event.LinkID, count+1, entry); err != nil {
		p.log.Warn("dropping access event, stats write failed",
			zap.String("link_id", event.LinkID.String()),
			zap.Error(err),
		)
		return
	}

	p.log.Debug("access event recorded",
		zap.String("link_id", event.LinkID.String()),
		zap.Int64("access_count", count+1),
		zap.String("device_type", entry.DeviceType),
	)
}
