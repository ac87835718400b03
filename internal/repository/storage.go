package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"shortlink-backend/internal/domain"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	ErrCodeExists   = errors.New("short code already exists")
)

// LinkStore is the durable store contract for links. Any transactional
// engine satisfying these operations is conformant.
type LinkStore interface {
	// FindByDestination returns the link registered for a destination URL,
	// or ErrLinkNotFound.
	FindByDestination(ctx context.Context, destination string) (*domain.Link, error)

	// FindByCode returns the link owning a short code, or ErrLinkNotFound.
	FindByCode(ctx context.Context, code string) (*domain.Link, error)

	// ExistsByCode reports whether a short code is already taken.
	ExistsByCode(ctx context.Context, code string) (bool, error)

	// UpsertOnCodeConflict inserts the link unless its code is held by a
	// different destination. The store's unique constraint is the
	// tie-breaker between concurrent writers: the first committed insert
	// wins and the loser gets ErrCodeExists. Inserting a code already held
	// by the same destination returns the existing row unchanged.
	UpsertOnCodeConflict(ctx context.Context, link *domain.Link) (*domain.Link, error)

	// UpdateDestination changes the destination of an existing link and
	// bumps its updated_at.
	UpdateDestination(ctx context.Context, code string, destination string) (*domain.Link, error)

	// DeleteByCode removes a link. Its stats rows survive.
	DeleteByCode(ctx context.Context, code string) error
}

// StatsStore is the durable store contract for access analytics. The
// pipeline worker is the only caller of the write path.
type StatsStore interface {
	// GetCounter returns the current access count for a link, 0 if no
	// counter row exists yet.
	GetCounter(ctx context.Context, linkID uuid.UUID) (int64, error)

	// UpsertCounterAndAppendLog writes the new counter value and appends the
	// log entry as one atomic unit. On failure nothing is persisted.
	UpsertCounterAndAppendLog(ctx context.Context, linkID uuid.UUID, newCount int64, entry *domain.AccessLogEntry) error

	// GetReport returns the counter value and up to recentLimit most recent
	// log entries for a link.
	GetReport(ctx context.Context, linkID uuid.UUID, recentLimit int) (*domain.StatsReport, error)
}
