// internal/repository/postgres/segmentation_repo.go
package postgres

import (
	"context"
	"fmt"

	"ecommerce-analytics/internal/domain/segment"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SegmentationRepository struct {
	db *pgxpool.Pool
}

func NewSegmentationRepository(db *pgxpool.Pool) *SegmentationRepository {
	return &SegmentationRepository{db: db}
}

// LoadFeatureRows reads the persisted customer feature table. Columns may
// be NULL for customers the writer skipped; filtering happens upstream.
func (r *SegmentationRepository) LoadFeatureRows(ctx context.Context) ([]segment.FeatureRow, error) {
	query := `
		SELECT customer_unique_id, clv, total_orders, avg_order_value,
		       avg_days_between_orders, avg_shipping_cost, estimated_return_rate
		FROM customers
		ORDER BY customer_unique_id
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query feature rows: %w", err)
	}
	defer rows.Close()

	var out []segment.FeatureRow
	for rows.Next() {
		var f segment.FeatureRow
		if err := rows.Scan(
			&f.CustomerUniqueID, &f.CLV, &f.TotalOrders, &f.AvgOrderValue,
			&f.AvgDaysBetweenOrders, &f.AvgShippingCost, &f.EstimatedReturnRate,
		); err != nil {
			return nil, fmt.Errorf("failed to scan feature row: %w", err)
		}
		out = append(out, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read feature rows: %w", err)
	}
	return out, nil
}

// ReplaceResults swaps the segmentation_results table for the new run's
// assignments in one transaction. Runs supersede, they never merge.
func (r *SegmentationRepository) ReplaceResults(ctx context.Context, runID string, assignments []segment.Assignment) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM segmentation_results`); err != nil {
		return fmt.Errorf("failed to clear previous results: %w", err)
	}

	query := `
		INSERT INTO segmentation_results (
			customer_unique_id, clv, total_orders, avg_order_value,
			avg_days_between_orders, avg_shipping_cost, estimated_return_rate,
			segment, run_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for start := 0; start < len(assignments); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(assignments) {
			end = len(assignments)
		}

		batch := &pgx.Batch{}
		for _, a := range assignments[start:end] {
			batch.Queue(query,
				a.CustomerUniqueID,
				a.Features[0], a.Features[1], a.Features[2],
				a.Features[3], a.Features[4], a.Features[5],
				a.Segment, runID,
			)
		}

		br := tx.SendBatch(ctx, batch)
		for range assignments[start:end] {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to insert segmentation result: %w", err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close result batch: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit segmentation results: %w", err)
	}
	return nil
}

// AppendMetrics records the quality scores for one run. Metrics rows are
// append-only so runs stay comparable over time.
func (r *SegmentationRepository) AppendMetrics(ctx context.Context, m segment.RunMetrics) error {
	query := `
		INSERT INTO segmentation_metrics (
			run_id, cluster_count, seed, silhouette, calinski_harabasz,
			davies_bouldin, computed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		m.RunID, m.ClusterCount, m.Seed, m.Silhouette,
		m.CalinskiHarabasz, m.DaviesBouldin, m.ComputedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append run metrics: %w", err)
	}
	return nil
}
