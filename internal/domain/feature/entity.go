// internal/domain/feature/entity.go
package feature

import "time"

// SingleOrderGapSentinel marks customers with exactly one delivered order:
// they have no order gap yet, and 0 would wrongly read as an immediate
// repurchase.
const SingleOrderGapSentinel = 9999.0

// Columns lists the customer feature columns in canonical order. The order
// is shared by the upsert whitelist, the segmentation loader and the CSV
// export header.
var Columns = []string{
	"clv",
	"total_orders",
	"avg_order_value",
	"avg_days_between_orders",
	"avg_shipping_cost",
	"estimated_return_rate",
}

// CustomerFeatures is one row of the materialized feature table.
type CustomerFeatures struct {
	CustomerUniqueID     string  `json:"customer_unique_id" db:"customer_unique_id"`
	CLV                  float64 `json:"clv" db:"clv"`
	TotalOrders          int64   `json:"total_orders" db:"total_orders"`
	AvgOrderValue        float64 `json:"avg_order_value" db:"avg_order_value"`
	AvgDaysBetweenOrders float64 `json:"avg_days_between_orders" db:"avg_days_between_orders"`
	AvgShippingCost      float64 `json:"avg_shipping_cost" db:"avg_shipping_cost"`
	EstimatedReturnRate  float64 `json:"estimated_return_rate" db:"estimated_return_rate"`
}

// Vector returns the feature values in the order of Columns.
func (c CustomerFeatures) Vector() []float64 {
	return []float64{
		c.CLV,
		float64(c.TotalOrders),
		c.AvgOrderValue,
		c.AvgDaysBetweenOrders,
		c.AvgShippingCost,
		c.EstimatedReturnRate,
	}
}

// DeliveredAggregate is the per-customer result of the delivered-order
// monetary query: revenue, delivered order count and average freight.
type DeliveredAggregate struct {
	CustomerUniqueID string
	Revenue          float64
	DeliveredOrders  int64
	AvgShippingCost  float64
}

// GapAggregate is the per-customer average day gap between consecutive
// delivered orders. HasGap is false for single-order customers (the store
// returns NULL for them).
type GapAggregate struct {
	CustomerUniqueID string
	AvgDays          float64
	HasGap           bool
}

// StatusAggregate counts a customer's orders regardless of delivery
// outcome; the return-rate denominator comes from here.
type StatusAggregate struct {
	CustomerUniqueID string
	TotalOrders      int64
	CancelledOrders  int64
}

// Value is a single (customer, value) pair handed to the batch upsert of
// one feature column.
type Value struct {
	CustomerUniqueID string
	Value            float64
}

// Snapshot is one append-only row of the precomputed-feature log.
type Snapshot struct {
	ID         int64     `json:"id" db:"id"`
	Name       string    `json:"feature_name" db:"feature_name"`
	Payload    []byte    `json:"feature_value" db:"feature_value"`
	ComputedAt time.Time `json:"computed_at" db:"computed_at"`
}

// Window bounds order purchase timestamps to [Start, End). Zero values
// leave the corresponding side unbounded.
type Window struct {
	Start time.Time
	End   time.Time
}

func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}
