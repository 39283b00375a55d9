// internal/repository/postgres/precomputed_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ecommerce-analytics/internal/domain/feature"
	xerrors "ecommerce-analytics/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// snapshotQueries is the registry of named aggregate computations captured
// into the precomputed-feature log. Each query returns a single JSONB
// payload.
var snapshotQueries = []struct {
	Name  string
	Query string
}{
	{
		Name: "customer_product_purchases",
		Query: `
			SELECT jsonb_agg(jsonb_build_object(
				'customer_unique_id', subquery.customer_unique_id,
				'product_id', subquery.product_id,
				'total_purchases', subquery.total_purchases
			))
			FROM (
				SELECT c.customer_unique_id, oi.product_id, COUNT(*) AS total_purchases
				FROM customers c
				JOIN orders o ON c.customer_id = o.customer_id
				JOIN order_items oi ON o.order_id = oi.order_id
				WHERE o.order_status = 'delivered'
				GROUP BY c.customer_unique_id, oi.product_id
			) subquery
		`,
	},
	{
		Name: "top_product_popularity",
		Query: `
			SELECT jsonb_agg(jsonb_build_object(
				'product_id', subquery.product_id,
				'total_sales', subquery.total_sales
			))
			FROM (
				SELECT oi.product_id, COUNT(*) AS total_sales
				FROM order_items oi
				JOIN orders o ON oi.order_id = o.order_id
				WHERE o.order_status = 'delivered'
				GROUP BY oi.product_id
				ORDER BY total_sales DESC
			) subquery
		`,
	},
	{
		Name: "customer_payment_preferences",
		Query: `
			SELECT jsonb_agg(jsonb_build_object(
				'customer_unique_id', pay_counts.customer_unique_id,
				'payment_type', pay_counts.payment_type,
				'total_payments', pay_counts.total_payments
			))
			FROM (
				SELECT c.customer_unique_id, p.payment_type, COUNT(*) AS total_payments
				FROM customers c
				JOIN orders o ON c.customer_id = o.customer_id
				JOIN payments p ON o.order_id = p.order_id
				GROUP BY c.customer_unique_id, p.payment_type
			) pay_counts
		`,
	},
	{
		Name: "customer_top_categories",
		Query: `
			SELECT jsonb_agg(jsonb_build_object(
				'customer_unique_id', cat_counts.customer_unique_id,
				'category', cat_counts.product_category_name,
				'total_purchases', cat_counts.total_purchases
			))
			FROM (
				SELECT c.customer_unique_id, p.product_category_name, COUNT(oi.product_id) AS total_purchases
				FROM customers c
				JOIN orders o ON c.customer_id = o.customer_id
				JOIN order_items oi ON o.order_id = oi.order_id
				JOIN products p ON oi.product_id = p.product_id
				WHERE o.order_status = 'delivered'
				GROUP BY c.customer_unique_id, p.product_category_name
			) cat_counts
		`,
	},
}

type PrecomputedRepository struct {
	db *pgxpool.Pool
}

func NewPrecomputedRepository(db *pgxpool.Pool) *PrecomputedRepository {
	return &PrecomputedRepository{db: db}
}

// SnapshotNames lists the registered snapshot computations in order.
func (r *PrecomputedRepository) SnapshotNames() []string {
	names := make([]string, 0, len(snapshotQueries))
	for _, q := range snapshotQueries {
		names = append(names, q.Name)
	}
	return names
}

// ComputeSnapshot runs the named aggregate query and returns its JSONB
// payload. An empty aggregate is a data-quality failure, not an empty
// snapshot.
func (r *PrecomputedRepository) ComputeSnapshot(ctx context.Context, name string) ([]byte, error) {
	var query string
	for _, q := range snapshotQueries {
		if q.Name == name {
			query = q.Query
			break
		}
	}
	if query == "" {
		return nil, fmt.Errorf("%w: unknown snapshot %q", xerrors.ErrNotFound, name)
	}

	var payload []byte
	if err := r.db.QueryRow(ctx, query).Scan(&payload); err != nil {
		return nil, fmt.Errorf("failed to compute snapshot %s: %w", name, err)
	}
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: snapshot %s produced no rows", xerrors.ErrDataQuality, name)
	}
	return payload, nil
}

// Append adds one row to the precomputed-feature log. Prior snapshots are
// never overwritten.
func (r *PrecomputedRepository) Append(ctx context.Context, name string, payload []byte, computedAt time.Time) error {
	query := `
		INSERT INTO precomputed_features (feature_name, feature_value, computed_at)
		VALUES ($1, $2, $3)
	`
	if _, err := r.db.Exec(ctx, query, name, payload, computedAt); err != nil {
		return fmt.Errorf("failed to append snapshot %s: %w", name, err)
	}
	return nil
}

// Latest returns the most recent snapshot for a name.
func (r *PrecomputedRepository) Latest(ctx context.Context, name string) (*feature.Snapshot, error) {
	query := `
		SELECT id, feature_name, feature_value, computed_at
		FROM precomputed_features
		WHERE feature_name = $1
		ORDER BY computed_at DESC, id DESC
		LIMIT 1
	`

	var s feature.Snapshot
	err := r.db.QueryRow(ctx, query, name).Scan(&s.ID, &s.Name, &s.Payload, &s.ComputedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load latest snapshot %s: %w", name, err)
	}
	return &s, nil
}
