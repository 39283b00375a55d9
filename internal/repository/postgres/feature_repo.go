// internal/repository/postgres/feature_repo.go
package postgres

import (
	"context"
	"fmt"

	"ecommerce-analytics/internal/domain/feature"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const upsertBatchSize = 1000

// migrations are the idempotent schema-evolution statements owned by the
// pipeline. Safe to run repeatedly; the base tables (customers, orders,
// order_items, products, payments) belong to the ingestion process.
var migrations = []struct {
	name string
	stmt string
}{
	{"add_clv_column", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS clv FLOAT`},
	{"add_total_orders", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS total_orders INT`},
	{"add_avg_order_value", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS avg_order_value FLOAT`},
	{"add_avg_days_between_orders", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS avg_days_between_orders FLOAT`},
	{"add_avg_shipping_cost", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS avg_shipping_cost FLOAT`},
	{"add_estimated_return_rate", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS estimated_return_rate FLOAT`},
	{"add_product_purchases", `ALTER TABLE customers ADD COLUMN IF NOT EXISTS product_purchases JSONB`},
	{"add_total_order_value", `ALTER TABLE orders ADD COLUMN IF NOT EXISTS total_order_value FLOAT`},
	{"add_popularity_score", `ALTER TABLE products ADD COLUMN IF NOT EXISTS popularity_score FLOAT`},
	{"unique_customer_key", `CREATE UNIQUE INDEX IF NOT EXISTS customers_customer_unique_id_idx ON customers (customer_unique_id)`},
	{"create_precomputed_features", `
		CREATE TABLE IF NOT EXISTS precomputed_features (
			id BIGSERIAL PRIMARY KEY,
			feature_name TEXT NOT NULL,
			feature_value JSONB,
			computed_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`},
	{"create_segmentation_results", `
		CREATE TABLE IF NOT EXISTS segmentation_results (
			customer_unique_id TEXT PRIMARY KEY,
			clv FLOAT NOT NULL,
			total_orders FLOAT NOT NULL,
			avg_order_value FLOAT NOT NULL,
			avg_days_between_orders FLOAT NOT NULL,
			avg_shipping_cost FLOAT NOT NULL,
			estimated_return_rate FLOAT NOT NULL,
			segment INT NOT NULL,
			run_id TEXT NOT NULL
		)`},
	{"create_segmentation_metrics", `
		CREATE TABLE IF NOT EXISTS segmentation_metrics (
			run_id TEXT PRIMARY KEY,
			cluster_count INT NOT NULL,
			seed BIGINT NOT NULL,
			silhouette FLOAT NOT NULL,
			calinski_harabasz FLOAT NOT NULL,
			davies_bouldin FLOAT NOT NULL,
			computed_at TIMESTAMPTZ NOT NULL
		)`},
}

type FeatureRepository struct {
	db *pgxpool.Pool
}

func NewFeatureRepository(db *pgxpool.Pool) *FeatureRepository {
	return &FeatureRepository{db: db}
}

// EnsureSchema applies the additive schema migrations. Every statement is
// idempotent, so a failed run can simply be re-invoked.
func (r *FeatureRepository) EnsureSchema(ctx context.Context) error {
	for _, m := range migrations {
		if _, err := r.db.Exec(ctx, m.stmt); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.name, err)
		}
	}
	return nil
}

// DeliveredAggregates returns revenue, delivered order count and average
// freight per customer, over delivered orders within the window.
func (r *FeatureRepository) DeliveredAggregates(ctx context.Context, w feature.Window) ([]feature.DeliveredAggregate, error) {
	clause, args := windowClause(w, 2)
	query := fmt.Sprintf(`
		SELECT c.customer_unique_id,
		       COALESCE(SUM(oi.price + oi.freight_value), 0) AS revenue,
		       COUNT(DISTINCT o.order_id) AS delivered_orders,
		       COALESCE(AVG(oi.freight_value), 0) AS avg_shipping_cost
		FROM customers c
		JOIN orders o ON c.customer_id = o.customer_id
		JOIN order_items oi ON o.order_id = oi.order_id
		WHERE o.order_status = $1%s
		GROUP BY c.customer_unique_id
	`, clause)
	args = append([]interface{}{"delivered"}, args...)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivered aggregates: %w", err)
	}
	defer rows.Close()

	var out []feature.DeliveredAggregate
	for rows.Next() {
		var a feature.DeliveredAggregate
		if err := rows.Scan(&a.CustomerUniqueID, &a.Revenue, &a.DeliveredOrders, &a.AvgShippingCost); err != nil {
			return nil, fmt.Errorf("failed to scan delivered aggregate: %w", err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read delivered aggregates: %w", err)
	}
	return out, nil
}

// OrderGaps returns the average day gap between consecutive delivered
// orders per customer. Customers with a single delivered order come back
// with HasGap=false (the window function yields no gap rows for them).
func (r *FeatureRepository) OrderGaps(ctx context.Context, w feature.Window) ([]feature.GapAggregate, error) {
	clause, args := windowClause(w, 2)
	query := fmt.Sprintf(`
		SELECT order_gaps.customer_unique_id, AVG(order_gaps.order_gap) AS avg_days
		FROM (
			SELECT c.customer_unique_id,
			       EXTRACT(EPOCH FROM (LEAD(o.order_purchase_timestamp)
			           OVER (PARTITION BY c.customer_unique_id ORDER BY o.order_purchase_timestamp)
			           - o.order_purchase_timestamp)) / 86400.0 AS order_gap
			FROM customers c
			JOIN orders o ON c.customer_id = o.customer_id
			WHERE o.order_status = $1%s
		) order_gaps
		GROUP BY order_gaps.customer_unique_id
	`, clause)
	args = append([]interface{}{"delivered"}, args...)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query order gaps: %w", err)
	}
	defer rows.Close()

	var out []feature.GapAggregate
	for rows.Next() {
		var g feature.GapAggregate
		var avg *float64
		if err := rows.Scan(&g.CustomerUniqueID, &avg); err != nil {
			return nil, fmt.Errorf("failed to scan order gap: %w", err)
		}
		if avg != nil {
			g.AvgDays = *avg
			g.HasGap = true
		}
		out = append(out, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read order gaps: %w", err)
	}
	return out, nil
}

// StatusCounts returns total and cancelled order counts per customer,
// regardless of delivery status. The return-rate denominator covers every
// order the customer ever placed within the window.
func (r *FeatureRepository) StatusCounts(ctx context.Context, w feature.Window) ([]feature.StatusAggregate, error) {
	clause, args := windowClause(w, 2)
	query := fmt.Sprintf(`
		SELECT c.customer_unique_id,
		       COUNT(o.order_id) AS total_orders,
		       COUNT(CASE WHEN o.order_status = $1 THEN 1 END) AS cancelled_orders
		FROM customers c
		JOIN orders o ON c.customer_id = o.customer_id
		WHERE TRUE%s
		GROUP BY c.customer_unique_id
	`, clause)
	args = append([]interface{}{"canceled"}, args...)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query status counts: %w", err)
	}
	defer rows.Close()

	var out []feature.StatusAggregate
	for rows.Next() {
		var s feature.StatusAggregate
		if err := rows.Scan(&s.CustomerUniqueID, &s.TotalOrders, &s.CancelledOrders); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read status counts: %w", err)
	}
	return out, nil
}

// UpsertFeature writes one feature column for all customers in a single
// transaction: either every row commits or none does. Existing values are
// overwritten, never accumulated; customers absent from values keep their
// last-written state.
func (r *FeatureRepository) UpsertFeature(ctx context.Context, column string, values []feature.Value) error {
	if !validFeatureColumn(column) {
		return fmt.Errorf("unknown feature column %q", column)
	}

	query := fmt.Sprintf(`
		INSERT INTO customers (customer_unique_id, %s) VALUES ($1, $2)
		ON CONFLICT (customer_unique_id) DO UPDATE SET %s = EXCLUDED.%s
	`, column, column, column)

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for start := 0; start < len(values); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(values) {
			end = len(values)
		}

		batch := &pgx.Batch{}
		for _, v := range values[start:end] {
			batch.Queue(query, v.CustomerUniqueID, v.Value)
		}

		br := tx.SendBatch(ctx, batch)
		for range values[start:end] {
			if _, err := br.Exec(); err != nil {
				br.Close()
				return fmt.Errorf("failed to upsert %s: %w", column, err)
			}
		}
		if err := br.Close(); err != nil {
			return fmt.Errorf("failed to close %s batch: %w", column, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit %s upserts: %w", column, err)
	}
	return nil
}

// UpdateOrderTotals recomputes orders.total_order_value as the sum of item
// price plus freight over the order's items.
func (r *FeatureRepository) UpdateOrderTotals(ctx context.Context) error {
	query := `
		UPDATE orders
		SET total_order_value = subquery.total
		FROM (
			SELECT oi.order_id, SUM(oi.price + oi.freight_value) AS total
			FROM order_items oi
			GROUP BY oi.order_id
		) subquery
		WHERE orders.order_id = subquery.order_id
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to update order totals: %w", err)
	}
	return nil
}

// UpdateProductPopularity recomputes products.popularity_score as the
// delivered sale count per product.
func (r *FeatureRepository) UpdateProductPopularity(ctx context.Context) error {
	query := `
		UPDATE products
		SET popularity_score = subquery.popularity
		FROM (
			SELECT p.product_id, COUNT(*) AS popularity
			FROM order_items oi
			JOIN orders o ON oi.order_id = o.order_id
			JOIN products p ON oi.product_id = p.product_id
			WHERE o.order_status = 'delivered'
			GROUP BY p.product_id
		) subquery
		WHERE products.product_id = subquery.product_id
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to update product popularity: %w", err)
	}
	return nil
}

// UpdateProductPurchases rebuilds the per-customer product purchase
// breakdown stored as JSONB on the customer row.
func (r *FeatureRepository) UpdateProductPurchases(ctx context.Context) error {
	query := `
		UPDATE customers
		SET product_purchases = subquery.purchases
		FROM (
			SELECT product_counts.customer_unique_id,
			       JSONB_AGG(JSONB_BUILD_OBJECT(
			           'product_id', product_counts.product_id,
			           'total_purchases', product_counts.total_purchases
			       )) AS purchases
			FROM (
				SELECT c.customer_unique_id, oi.product_id, COUNT(*) AS total_purchases
				FROM customers c
				JOIN orders o ON c.customer_id = o.customer_id
				JOIN order_items oi ON o.order_id = oi.order_id
				WHERE o.order_status = 'delivered'
				GROUP BY c.customer_unique_id, oi.product_id
			) AS product_counts
			GROUP BY product_counts.customer_unique_id
		) subquery
		WHERE customers.customer_unique_id = subquery.customer_unique_id
	`
	if _, err := r.db.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to update product purchases: %w", err)
	}
	return nil
}

func validFeatureColumn(column string) bool {
	for _, c := range feature.Columns {
		if c == column {
			return true
		}
	}
	return false
}

// windowClause builds the optional purchase-timestamp filter appended to
// every extraction query. argPos is the first free placeholder index.
func windowClause(w feature.Window, argPos int) (string, []interface{}) {
	clause := ""
	args := []interface{}{}

	if !w.Start.IsZero() {
		clause += fmt.Sprintf(" AND o.order_purchase_timestamp >= $%d", argPos)
		args = append(args, w.Start)
		argPos++
	}
	if !w.End.IsZero() {
		clause += fmt.Sprintf(" AND o.order_purchase_timestamp < $%d", argPos)
		args = append(args, w.End)
	}
	return clause, args
}
