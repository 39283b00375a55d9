// internal/domain/segment/entity.go
package segment

import (
	"database/sql"
	"time"
)

// FeatureRow is one customer's persisted feature vector as read back from
// the store. Any column may still be NULL if the writer has not run for it.
type FeatureRow struct {
	CustomerUniqueID     string
	CLV                  sql.NullFloat64
	TotalOrders          sql.NullFloat64
	AvgOrderValue        sql.NullFloat64
	AvgDaysBetweenOrders sql.NullFloat64
	AvgShippingCost      sql.NullFloat64
	EstimatedReturnRate  sql.NullFloat64
}

// Complete reports whether every feature column is present. Rows failing
// this are dropped before clustering; there is no imputation.
func (r FeatureRow) Complete() bool {
	return r.CLV.Valid && r.TotalOrders.Valid && r.AvgOrderValue.Valid &&
		r.AvgDaysBetweenOrders.Valid && r.AvgShippingCost.Valid && r.EstimatedReturnRate.Valid
}

// Vector returns the raw feature values. Only meaningful when Complete.
func (r FeatureRow) Vector() []float64 {
	return []float64{
		r.CLV.Float64,
		r.TotalOrders.Float64,
		r.AvgOrderValue.Float64,
		r.AvgDaysBetweenOrders.Float64,
		r.AvgShippingCost.Float64,
		r.EstimatedReturnRate.Float64,
	}
}

// Assignment is one customer's segmentation outcome: the feature vector
// that was clustered and the segment label it received. Labels carry no
// ordinal meaning.
type Assignment struct {
	CustomerUniqueID string    `json:"customer_unique_id"`
	Features         []float64 `json:"features"`
	Segment          int       `json:"segment"`
}

// RunMetrics holds the cluster-quality scores for one segmentation run.
type RunMetrics struct {
	RunID            string    `json:"run_id"`
	ClusterCount     int       `json:"cluster_count"`
	Seed             int64     `json:"seed"`
	Silhouette       float64   `json:"silhouette"`
	CalinskiHarabasz float64   `json:"calinski_harabasz"`
	DaviesBouldin    float64   `json:"davies_bouldin"`
	ComputedAt       time.Time `json:"computed_at"`
}
