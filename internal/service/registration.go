package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"shortlink-backend/internal/domain"
	"shortlink-backend/internal/repository"
	"shortlink-backend/internal/shortcode"
	"shortlink-backend/internal/validate"
)

// maxAllocAttempts bounds the random candidate loop; exceeding it signals
// allocation-space exhaustion or a pathological collision rate.
const maxAllocAttempts = 5

var (
	// ErrInvalidDestination marks a destination rejected by URL validation.
	ErrInvalidDestination = errors.New("invalid destination url")

	// ErrShortcodeConflict marks a taken custom code or an exhausted
	// allocation budget. Never retried by this service.
	ErrShortcodeConflict = errors.New("short code conflict")

	// ErrLinkNotFound marks an unknown short code.
	ErrLinkNotFound = errors.New("link not found")
)

// RegistrationService creates and maintains links. Creation is idempotent
// per destination: registering the same URL twice returns the same link.
type RegistrationService struct {
	store repository.LinkStore
	log   *zap.Logger
}

func NewRegistration(store repository.LinkStore, log *zap.Logger) *RegistrationService {
	return &RegistrationService{
		store: store,
		log:   log,
	}
}

// Register returns the link for destination, creating one if needed. A
// non-empty customCode is used as-is and never silently regenerated; without
// one, random candidates are drawn until the store accepts an insert, at
// most maxAllocAttempts times.
func (s *RegistrationService) Register(ctx context.Context, destination, customCode string) (*domain.Link, error) {
	if err := validate.Destination(destination); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDestination, err)
	}

	existing, err := s.store.FindByDestination(ctx, destination)
	if err == nil {
		s.log.Debug("destination already registered", zap.String("code", existing.Code))
		return existing, nil
	}
	if !errors.Is(err, repository.ErrLinkNotFound) {
		return nil, fmt.Errorf("failed to look up destination: %w", err)
	}

	if customCode != "" {
		return s.registerCustom(ctx, destination, customCode)
	}
	return s.registerGenerated(ctx, destination)
}

func (s *RegistrationService) registerCustom(ctx context.Context, destination, customCode string) (*domain.Link, error) {
	if err := shortcode.Validate(customCode); err != nil {
		return nil, err
	}

	taken, err := s.store.ExistsByCode(ctx, customCode)
	if err != nil {
		return nil, fmt.Errorf("failed to check code existence: %w", err)
	}
	if taken {
		return nil, ErrShortcodeConflict
	}

	link, err := s.store.UpsertOnCodeConflict(ctx, domain.NewLink(destination, customCode))
	if errors.Is(err, repository.ErrCodeExists) {
		// Lost the insert race; custom codes fail rather than regenerate.
		return nil, ErrShortcodeConflict
	}
	if err != nil {
		return nil, fmt.Errorf("failed to save link: %w", err)
	}

	s.log.Info("registered link with custom code", zap.String("code", link.Code))
	return link, nil
}

func (s *RegistrationService) registerGenerated(ctx context.Context, destination string) (*domain.Link, error) {
	for attempt := 1; attempt <= maxAllocAttempts; attempt++ {
		candidate, err := shortcode.Generate()
		if err != nil {
			return nil, fmt.Errorf("failed to generate candidate: %w", err)
		}

		taken, err := s.store.ExistsByCode(ctx, candidate)
		if err != nil {
			return nil, fmt.Errorf("failed to check code existence: %w", err)
		}
		if taken {
			s.log.Debug("candidate code collision",
				zap.String("candidate", candidate),
				zap.Int("attempt", attempt),
			)
			continue
		}

		link, err := s.store.UpsertOnCodeConflict(ctx, domain.NewLink(destination, candidate))
		if errors.Is(err, repository.ErrCodeExists) {
			// A concurrent writer claimed the candidate between the probe
			// and the insert; retry with a fresh one.
			s.log.Debug("lost insert race for candidate",
				zap.String("candidate", candidate),
				zap.Int("attempt", attempt),
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to save link: %w", err)
		}

		s.log.Info("registered link", zap.String("code", link.Code), zap.Int("attempts", attempt))
		return link, nil
	}

	s.log.Warn("short code allocation budget exhausted", zap.Int("attempts", maxAllocAttempts))
	return nil, ErrShortcodeConflict
}

// UpdateDestination repoints an existing link at a new destination. Cached
// resolutions are not invalidated; staleness is bounded by the cache TTL.
func (s *RegistrationService) UpdateDestination(ctx context.Context, code, destination string) (*domain.Link, error) {
	if err := validate.Destination(destination); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidDestination, err)
	}

	link, err := s.store.UpdateDestination(ctx, code, destination)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return nil, ErrLinkNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update link: %w", err)
	}

	s.log.Info("updated link destination", zap.String("code", code))
	return link, nil
}

// Delete removes a link by code. Stats rows for the link are kept.
func (s *RegistrationService) Delete(ctx context.Context, code string) error {
	err := s.store.DeleteByCode(ctx, code)
	if errors.Is(err, repository.ErrLinkNotFound) {
		return ErrLinkNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to delete link: %w", err)
	}
	return nil
}
