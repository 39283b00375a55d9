// internal/service/feature/writer.go
package feature

import (
	"context"
	"fmt"

	"ecommerce-analytics/internal/domain/feature"
	"ecommerce-analytics/internal/repository/postgres"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

type Writer struct {
	featureRepo *postgres.FeatureRepository
	logger      *zap.Logger
}

func NewWriter(featureRepo *postgres.FeatureRepository, logger *zap.Logger) *Writer {
	return &Writer{
		featureRepo: featureRepo,
		logger:      logger,
	}
}

// EnsureSchema applies the additive feature-column and artifact-table
// migrations. Safe to call on every run.
func (w *Writer) EnsureSchema(ctx context.Context) error {
	if err := w.featureRepo.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	w.logger.Info("schema migrations applied")
	return nil
}

// WriteFeatures upserts the feature table onto customer rows, one feature
// column per transaction. A failure aborts the run, but feature columns
// committed before the failure keep their new values; that partial
// progress is logged, never rolled back or retried here.
func (w *Writer) WriteFeatures(ctx context.Context, table []feature.CustomerFeatures) error {
	updates := ColumnUpdates(table)

	bar := progressbar.Default(int64(len(updates)))
	for i, u := range updates {
		if err := w.featureRepo.UpsertFeature(ctx, u.Column, u.Values); err != nil {
			w.logger.Error("feature update failed, earlier columns remain committed",
				zap.String("column", u.Column),
				zap.Int("columns_committed", i),
				zap.Error(err),
			)
			return fmt.Errorf("feature %s: %w", u.Column, err)
		}
		_ = bar.Add(1)
	}

	w.logger.Info("customer features written",
		zap.Int("customers", len(table)),
		zap.Int("features", len(updates)),
	)
	return nil
}

// WriteDerivedColumns refreshes the supplementary denormalized columns:
// order totals, product popularity and the per-customer product purchase
// breakdown. Each statement is its own all-or-nothing operation.
func (w *Writer) WriteDerivedColumns(ctx context.Context) error {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"order_totals", w.featureRepo.UpdateOrderTotals},
		{"product_popularity", w.featureRepo.UpdateProductPopularity},
		{"product_purchases", w.featureRepo.UpdateProductPurchases},
	}

	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			w.logger.Error("derived column update failed", zap.String("step", s.name), zap.Error(err))
			return fmt.Errorf("derived column %s: %w", s.name, err)
		}
		w.logger.Info("derived column updated", zap.String("step", s.name))
	}
	return nil
}
