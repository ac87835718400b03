package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
)

// MemStorage is an in-memory implementation of repository.LinkStore and
// repository.StatsStore. It backs local runs without Postgres and doubles as
// the fake in service tests.
type MemStorage struct {
	mu       sync.RWMutex
	byCode   map[string]*domain.Link
	byDest   map[string]string // destination -> code
	counters map[uuid.UUID]*domain.AccessCounter
	logs     map[uuid.UUID][]domain.AccessLogEntry // counter id -> entries
}

func New() *MemStorage {
	return &MemStorage{
		byCode:   make(map[string]*domain.Link),
		byDest:   make(map[string]string),
		counters: make(map[uuid.UUID]*domain.AccessCounter),
		logs:     make(map[uuid.UUID][]domain.AccessLogEntry),
	}
}

// --- LinkStore ---

func (s *MemStorage) FindByDestination(_ context.Context, destination string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	code, ok := s.byDest[destination]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return copyLink(s.byCode[code]), nil
}

func (s *MemStorage) FindByCode(_ context.Context, code string) (*domain.Link, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	link, ok := s.byCode[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}
	return copyLink(link), nil
}

func (s *MemStorage) ExistsByCode(_ context.Context, code string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.byCode[code]
	return ok, nil
}

func (s *MemStorage) UpsertOnCodeConflict(_ context.Context, link *domain.Link) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byCode[link.Code]; ok {
		if existing.Destination == link.Destination {
			return copyLink(existing), nil
		}
		return nil, repository.ErrCodeExists
	}

	now := time.Now()
	stored := copyLink(link)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.byCode[stored.Code] = stored
	s.byDest[stored.Destination] = stored.Code
	return copyLink(stored), nil
}

func (s *MemStorage) UpdateDestination(_ context.Context, code string, destination string) (*domain.Link, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byCode[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}

	delete(s.byDest, link.Destination)
	link.Destination = destination
	link.UpdatedAt = time.Now()
	s.byDest[destination] = code
	return copyLink(link), nil
}

func (s *MemStorage) DeleteByCode(_ context.Context, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	link, ok := s.byCode[code]
	if !ok {
		return repository.ErrLinkNotFound
	}
	delete(s.byDest, link.Destination)
	delete(s.byCode, code)
	return nil
}

// --- StatsStore ---

func (s *MemStorage) GetCounter(_ context.Context, linkID uuid.UUID) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	counter, ok := s.counters[linkID]
	if !ok {
		return 0, nil
	}
	return counter.AccessCount, nil
}

func (s *MemStorage) UpsertCounterAndAppendLog(_ context.Context, linkID uuid.UUID, newCount int64, entry *domain.AccessLogEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	counter, ok := s.counters[linkID]
	if !ok {
		counter = &domain.AccessCounter{
			ID:        uuid.New(),
			LinkID:    linkID,
			CreatedAt: now,
		}
		s.counters[linkID] = counter
	}
	counter.AccessCount = newCount
	counter.UpdatedAt = now

	stored := *entry
	if stored.ID == uuid.Nil {
		stored.ID = uuid.New()
	}
	stored.CounterID = counter.ID
	if stored.AccessedAt.IsZero() {
		stored.AccessedAt = now
	}
	s.logs[counter.ID] = append(s.logs[counter.ID], stored)
	return nil
}

func (s *MemStorage) GetReport(_ context.Context, linkID uuid.UUID, recentLimit int) (*domain.StatsReport, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report := &domain.StatsReport{LinkID: linkID}
	counter, ok := s.counters[linkID]
	if !ok {
		return report, nil
	}
	report.AccessCount = counter.AccessCount

	entries := s.logs[counter.ID]
	// most recent first
	for i := len(entries) - 1; i >= 0 && len(report.Recent) < recentLimit; i-- {
		report.Recent = append(report.Recent, entries[i])
	}
	return report, nil
}

func copyLink(link *domain.Link) *domain.Link {
	c := *link
	return &c
}
