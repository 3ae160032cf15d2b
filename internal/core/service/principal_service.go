package service

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/quotebook/estimate-system/internal/core/ports"
	"github.com/quotebook/estimate-system/internal/pkg/metrics"
)

// PrincipalService resolves request principals through a read-through cache.
// A nil cache disables caching; cache failures fall back to the repository.
type PrincipalService struct {
	users  ports.UserRepository
	cache  ports.PrincipalCache
	ttl    time.Duration
	logger zerolog.Logger
}

func NewPrincipalService(users ports.UserRepository, cache ports.PrincipalCache, ttl time.Duration, logger zerolog.Logger) *PrincipalService {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &PrincipalService{users: users, cache: cache, ttl: ttl, logger: logger}
}

func (s *PrincipalService) Resolve(ctx context.Context, userID string) (*ports.Principal, error) {
	if s.cache != nil {
		p, ok, err := s.cache.Get(ctx, userID)
		switch {
		case err != nil:
			metrics.PrincipalCacheTotal.WithLabelValues("error").Inc()
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("principal cache read failed")
		case ok:
			metrics.PrincipalCacheTotal.WithLabelValues("hit").Inc()
			return p, nil
		default:
			metrics.PrincipalCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	p := ports.PrincipalOf(user)
	if s.cache != nil {
		if err := s.cache.Set(ctx, p, s.ttl); err != nil {
			s.logger.Warn().Err(err).Str("user_id", userID).Msg("principal cache write failed")
		}
	}
	return p, nil
}

func (s *PrincipalService) Invalidate(ctx context.Context, userID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("principal cache invalidation failed")
	}
}
