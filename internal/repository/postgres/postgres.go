package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
)

// PostgresStorage implements repository.LinkStore and repository.StatsStore
// on top of GORM.
type PostgresStorage struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(db *gorm.DB, log *zap.Logger) *PostgresStorage {
	return &PostgresStorage{
		db:  db,
		log: log,
	}
}

// --- LinkStore ---

func (s *PostgresStorage) FindByDestination(ctx context.Context, destination string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("destination = ?", destination).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to find link by destination", zap.Error(err))
		return nil, fmt.Errorf("failed to find link by destination: %w", err)
	}
	return &link, nil
}

func (s *PostgresStorage) FindByCode(ctx context.Context, code string) (*domain.Link, error) {
	var link domain.Link

	err := s.db.WithContext(ctx).Where("short_code = ?", code).First(&link).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, repository.ErrLinkNotFound
	}
	if err != nil {
		s.log.Error("failed to find link by code", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to find link by code: %w", err)
	}
	return &link, nil
}

func (s *PostgresStorage) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64

	err := s.db.WithContext(ctx).Model(&domain.Link{}).Where("short_code = ?", code).Count(&count).Error
	if err != nil {
		s.log.Error("failed to check code existence", zap.String("code", code), zap.Error(err))
		return false, fmt.Errorf("failed to check code existence: %w", err)
	}
	return count > 0, nil
}

// UpsertOnCodeConflict relies on the unique index on short_code as the
// tie-breaker between concurrent writers: ON CONFLICT DO NOTHING inserts
// zero rows for the loser, which is reported as ErrCodeExists unless the
// winning row carries the same destination.
func (s *PostgresStorage) UpsertOnCodeConflict(ctx context.Context, link *domain.Link) (*domain.Link, error) {
	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "short_code"}}, DoNothing: true}).
		Create(link)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			// The destination unique index fired: a concurrent writer
			// registered the same destination under another code.
			existing, ferr := s.FindByDestination(ctx, link.Destination)
			if ferr == nil {
				return existing, nil
			}
		}
		s.log.Error("failed to save link", zap.String("code", link.Code), zap.Error(res.Error))
		return nil, fmt.Errorf("failed to save link: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		existing, err := s.FindByCode(ctx, link.Code)
		if err != nil {
			return nil, fmt.Errorf("failed to load conflicting link: %w", err)
		}
		if existing.Destination == link.Destination {
			return existing, nil
		}
		return nil, repository.ErrCodeExists
	}

	s.log.Info("saved new link", zap.String("code", link.Code))
	return link, nil
}

func (s *PostgresStorage) UpdateDestination(ctx context.Context, code string, destination string) (*domain.Link, error) {
	link, err := s.FindByCode(ctx, code)
	if err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Model(link).
		Updates(map[string]interface{}{"destination": destination, "updated_at": time.Now()}).Error
	if err != nil {
		s.log.Error("failed to update link destination", zap.String("code", code), zap.Error(err))
		return nil, fmt.Errorf("failed to update link destination: %w", err)
	}
	return link, nil
}

func (s *PostgresStorage) DeleteByCode(ctx context.Context, code string) error {
	res := s.db.WithContext(ctx).Where("short_code = ?", code).Delete(&domain.Link{})
	if res.Error != nil {
		s.log.Error("failed to delete link", zap.String("code", code), zap.Error(res.Error))
		return fmt.Errorf("failed to delete link: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return repository.ErrLinkNotFound
	}

	s.log.Info("deleted link", zap.String("code", code))
	return nil
}

// --- StatsStore ---

func (s *PostgresStorage) GetCounter(ctx context.Context, linkID uuid.UUID) (int64, error) {
	var counter domain.AccessCounter

	err := s.db.WithContext(ctx).Where("link_id = ?", linkID).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		s.log.Error("failed to read access counter", zap.String("link_id", linkID.String()), zap.Error(err))
		return 0, fmt.Errorf("failed to read access counter: %w", err)
	}
	return counter.AccessCount, nil
}

// UpsertCounterAndAppendLog runs the counter upsert and the log append in a
// single transaction so a failed event leaves no partial rows behind.
func (s *PostgresStorage) UpsertCounterAndAppendLog(ctx context.Context, linkID uuid.UUID, newCount int64, entry *domain.AccessLogEntry) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		counter := domain.AccessCounter{
			ID:          uuid.New(),
			LinkID:      linkID,
			AccessCount: newCount,
		}
		err := tx.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "link_id"}},
			DoUpdates: clause.Assignments(map[string]interface{}{"access_count": newCount, "updated_at": time.Now()}),
		}).Create(&counter).Error
		if err != nil {
			return fmt.Errorf("failed to upsert access counter: %w", err)
		}

		// Re-read the row: on conflict the stored counter keeps its
		// original id, which the log entry must reference.
		var stored domain.AccessCounter
		if err := tx.Where("link_id = ?", linkID).First(&stored).Error; err != nil {
			return fmt.Errorf("failed to load access counter: %w", err)
		}

		if entry.ID == uuid.Nil {
			entry.ID = uuid.New()
		}
		entry.CounterID = stored.ID
		if entry.AccessedAt.IsZero() {
			entry.AccessedAt = time.Now()
		}
		if err := tx.Create(entry).Error; err != nil {
			return fmt.Errorf("failed to append access log: %w", err)
		}
		return nil
	})
	if err != nil {
		s.log.Error("failed to record access", zap.String("link_id", linkID.String()), zap.Error(err))
		return err
	}
	return nil
}

func (s *PostgresStorage) GetReport(ctx context.Context, linkID uuid.UUID, recentLimit int) (*domain.StatsReport, error) {
	report := &domain.StatsReport{LinkID: linkID}

	var counter domain.AccessCounter
	err := s.db.WithContext(ctx).Where("link_id = ?", linkID).First(&counter).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return report, nil
	}
	if err != nil {
		s.log.Error("failed to read access counter", zap.String("link_id", linkID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to read access counter: %w", err)
	}
	report.AccessCount = counter.AccessCount

	err = s.db.WithContext(ctx).
		Where("counter_id = ?", counter.ID).
		Order("accessed_at DESC").
		Limit(recentLimit).
		Find(&report.Recent).Error
	if err != nil {
		s.log.Error("failed to read access logs", zap.String("link_id", linkID.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to read access logs: %w", err)
	}
	return report, nil
}
