package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"gitlab.com/arvora/api/storefront-service/internal/adapters/config"
	"gitlab.com/arvora/api/storefront-service/internal/domain"
	"gitlab.com/arvora/api/storefront-service/pkg/cachekeys"
)

const maxPromocodeLength = 64

// PromocodeService serves the shared active promocode list through a single
// cache entry and applies admin mutations with write-then-invalidate ordering.
// Unlike the user-scoped resources the cache key here is global, so one admin
// write invalidates the list every authenticated reader sees.
type PromocodeService struct {
	logger domain.Logger
	config config.Provider
	repo   domain.PromocodeRepository
	cache  domain.CacheStore
	events domain.EventPublisher
	now    func() time.Time
}

// NewPromocodeService creates a PromocodeService.
func NewPromocodeService(
	logger domain.Logger,
	cfg config.Provider,
	repo domain.PromocodeRepository,
	cache domain.CacheStore,
	events domain.EventPublisher,
) *PromocodeService {
	return &PromocodeService{
		logger: logger,
		config: cfg,
		repo:   repo,
		cache:  cache,
		events: events,
		now:    time.Now,
	}
}

func (s *PromocodeService) ttl() time.Duration {
	seconds := s.config.Get().Cache.PromocodesTTLSeconds
	if seconds <= 0 {
		seconds = 60 // short, shared entries go stale for every user at once
	}
	return time.Duration(seconds) * time.Second
}

// Read returns all currently applicable promocodes through the cache.
func (s *PromocodeService) Read(ctx context.Context) ([]domain.Promocode, error) {
	return readThrough(ctx, s.cache, cachekeys.PromocodesKey, s.ttl(), func(ctx context.Context) ([]domain.Promocode, error) {
		return s.repo.ListActive(ctx)
	})
}

// Mutate applies one admin promocode change. Disabling an unknown or already
// disabled code succeeds without effect.
func (s *PromocodeService) Mutate(ctx context.Context, actor uuid.UUID, change domain.PromocodeChange) error {
	if err := s.applyChange(ctx, change); err != nil {
		return err
	}
	s.invalidatePromocodes(ctx)
	emitEvent(ctx, s.events, domain.EventPromocodeChanged, actor, change.Code)
	return nil
}

// BatchMutate applies all changes and invalidates the shared list once.
func (s *PromocodeService) BatchMutate(ctx context.Context, actor uuid.UUID, changes []domain.PromocodeChange) error {
	if len(changes) == 0 {
		return fmt.Errorf("no changes given: %w", domain.ErrInvalidArgument)
	}
	for _, change := range changes {
		if err := s.applyChange(ctx, change); err != nil {
			s.invalidatePromocodes(ctx)
			return err
		}
	}
	s.invalidatePromocodes(ctx)
	emitEvent(ctx, s.events, domain.EventPromocodeChanged, actor, "batch")
	return nil
}

// Status reports, for each given code, whether it is currently applicable.
func (s *PromocodeService) Status(ctx context.Context, codes []string) (map[string]bool, error) {
	if len(codes) == 0 {
		return map[string]bool{}, nil
	}
	normalized := make([]string, 0, len(codes))
	for _, code := range codes {
		normalized = append(normalized, normalizeCode(code))
	}
	found, err := s.repo.GetByCodes(ctx, normalized)
	if err != nil {
		return nil, err
	}
	now := s.now()
	result := make(map[string]bool, len(normalized))
	for _, code := range normalized {
		promo, ok := found[code]
		result[code] = ok && promo.Valid(now)
	}
	return result, nil
}

func (s *PromocodeService) applyChange(ctx context.Context, change domain.PromocodeChange) error {
	code := normalizeCode(change.Code)
	if code == "" || len(code) > maxPromocodeLength {
		return fmt.Errorf("code must be 1..%d characters: %w", maxPromocodeLength, domain.ErrInvalidArgument)
	}
	switch change.Kind {
	case domain.PromocodeCreate:
		if change.Percent <= 0 || change.Percent > 100 {
			return fmt.Errorf("percent must be in 1..100: %w", domain.ErrInvalidArgument)
		}
		if !change.ExpiresAt.After(s.now()) {
			return fmt.Errorf("expiry must be in the future: %w", domain.ErrInvalidArgument)
		}
		return s.repo.Create(ctx, domain.Promocode{
			Code:      code,
			Percent:   change.Percent,
			Enabled:   true,
			ExpiresAt: change.ExpiresAt,
			CreatedAt: s.now(),
		})
	case domain.PromocodeDisable:
		_, err := s.repo.Disable(ctx, code)
		return err
	default:
		return fmt.Errorf("unknown promocode change kind %q: %w", change.Kind, domain.ErrInvalidArgument)
	}
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (s *PromocodeService) invalidatePromocodes(ctx context.Context) {
	invalidatePrefix(ctx, s.logger, s.cache, "promocodes", cachekeys.PromocodesPrefix)
}
