// internal/service/precompute/service.go
package precompute

import (
	"context"
	"errors"
	"fmt"
	"time"

	xerrors "ecommerce-analytics/internal/pkg/errors"
	"ecommerce-analytics/internal/repository/postgres"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// latestKeyPrefix namespaces the cached copy of each snapshot's newest
// payload, kept for cheap dashboard reads.
const latestKeyPrefix = "feature:latest:"

type Service struct {
	precomputedRepo *postgres.PrecomputedRepository
	cache           *redis.Client // nil disables caching
	logger          *zap.Logger
}

func NewService(precomputedRepo *postgres.PrecomputedRepository, cache *redis.Client, logger *zap.Logger) *Service {
	return &Service{
		precomputedRepo: precomputedRepo,
		cache:           cache,
		logger:          logger,
	}
}

// Run computes every registered snapshot and appends it to the
// precomputed-feature log. Each snapshot is timestamped at computation
// time; prior rows are never touched, so before/after comparisons stay
// possible. A failed snapshot aborts the run; snapshots already appended
// remain.
func (s *Service) Run(ctx context.Context) error {
	for _, name := range s.precomputedRepo.SnapshotNames() {
		prev, err := s.precomputedRepo.Latest(ctx, name)
		if err != nil && !errors.Is(err, xerrors.ErrNotFound) {
			return fmt.Errorf("snapshot %s: %w", name, err)
		}

		payload, err := s.precomputedRepo.ComputeSnapshot(ctx, name)
		if err != nil {
			return fmt.Errorf("snapshot %s: %w", name, err)
		}

		computedAt := time.Now().UTC()
		if err := s.precomputedRepo.Append(ctx, name, payload, computedAt); err != nil {
			return fmt.Errorf("snapshot %s: %w", name, err)
		}

		s.publishLatest(ctx, name, payload)

		fields := []zap.Field{
			zap.String("feature", name),
			zap.Int("payload_bytes", len(payload)),
			zap.Time("computed_at", computedAt),
		}
		if prev != nil {
			fields = append(fields, zap.Time("supersedes", prev.ComputedAt))
		}
		s.logger.Info("snapshot appended", fields...)
	}
	return nil
}

// publishLatest mirrors the newest payload into the cache. Cache failures
// only warn: the log row is already durable.
func (s *Service) publishLatest(ctx context.Context, name string, payload []byte) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, latestKeyPrefix+name, payload, 0).Err(); err != nil {
		s.logger.Warn("failed to cache latest snapshot", zap.String("feature", name), zap.Error(err))
	}
}
