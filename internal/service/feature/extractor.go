// internal/service/feature/extractor.go
package feature

import (
	"context"
	"fmt"

	"ecommerce-analytics/internal/domain/feature"
	xerrors "ecommerce-analytics/internal/pkg/errors"
	"ecommerce-analytics/internal/repository/postgres"

	"go.uber.org/zap"
)

type Extractor struct {
	featureRepo *postgres.FeatureRepository
	logger      *zap.Logger
}

func NewExtractor(featureRepo *postgres.FeatureRepository, logger *zap.Logger) *Extractor {
	return &Extractor{
		featureRepo: featureRepo,
		logger:      logger,
	}
}

// Extract computes the feature table for the full customer population, or
// for orders purchased within the window when one is set. Any query
// failure aborts the extraction before anything is persisted.
func (e *Extractor) Extract(ctx context.Context, w feature.Window) ([]feature.CustomerFeatures, error) {
	delivered, err := e.featureRepo.DeliveredAggregates(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("delivered aggregates: %w", err)
	}

	gaps, err := e.featureRepo.OrderGaps(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("order gaps: %w", err)
	}

	statuses, err := e.featureRepo.StatusCounts(ctx, w)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}

	table := BuildTable(delivered, gaps, statuses)
	if len(table) == 0 {
		return nil, fmt.Errorf("%w: no customers with orders in window", xerrors.ErrEmptyDataset)
	}

	e.logger.Info("feature table extracted",
		zap.Int("customers", len(table)),
		zap.Int("with_delivered_orders", len(delivered)),
		zap.Bool("windowed", !w.IsZero()),
	)

	return table, nil
}
