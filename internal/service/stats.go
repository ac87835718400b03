package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
)

// defaultRecentLimit caps the log entries returned per report.
const defaultRecentLimit = 50

// StatsService exposes the analytics read model: counter value plus recent
// access log entries per link.
type StatsService struct {
	links repository.LinkStore
	stats repository.StatsStore
	log   *zap.Logger
}

func NewStats(links repository.LinkStore, stats repository.StatsStore, log *zap.Logger) *StatsService {
	return &StatsService{
		links: links,
		stats: stats,
		log:   log,
	}
}

// Report returns the access stats for a short code.
func (s *StatsService) Report(ctx context.Context, code string) (*domain.StatsReport, error) {
	link, err := s.links.FindByCode(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve code: %w", err)
	}

	report, err := s.stats.GetReport(ctx, link.ID, defaultRecentLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load stats report: %w", err)
	}
	return report, nil
}
