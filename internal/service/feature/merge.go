// internal/service/feature/merge.go
package feature

import (
	"sort"

	"ecommerce-analytics/internal/domain/feature"
)

// BuildTable merges the three aggregate query results into the canonical
// one-row-per-customer feature table.
//
// Policy:
//   - customers with no orders at all never appear (statuses is the base
//     population), so no artificial zero-vectors reach segmentation;
//   - customers with orders but no delivered orders get zero-filled
//     monetary aggregates, never NaN;
//   - customers with fewer than two delivered orders get the gap sentinel;
//   - return rate is 100 × cancelled / all orders, zero-guarded.
//
// Output is sorted by customer key so repeated extractions over unchanged
// input are byte-for-byte identical.
func BuildTable(
	delivered []feature.DeliveredAggregate,
	gaps []feature.GapAggregate,
	statuses []feature.StatusAggregate,
) []feature.CustomerFeatures {
	deliveredByID := make(map[string]feature.DeliveredAggregate, len(delivered))
	for _, d := range delivered {
		deliveredByID[d.CustomerUniqueID] = d
	}
	gapByID := make(map[string]feature.GapAggregate, len(gaps))
	for _, g := range gaps {
		gapByID[g.CustomerUniqueID] = g
	}

	table := make([]feature.CustomerFeatures, 0, len(statuses))
	for _, s := range statuses {
		row := feature.CustomerFeatures{
			CustomerUniqueID:     s.CustomerUniqueID,
			AvgDaysBetweenOrders: feature.SingleOrderGapSentinel,
		}

		if d, ok := deliveredByID[s.CustomerUniqueID]; ok {
			row.CLV = d.Revenue
			row.TotalOrders = d.DeliveredOrders
			row.AvgShippingCost = d.AvgShippingCost
			if d.DeliveredOrders > 0 {
				row.AvgOrderValue = d.Revenue / float64(d.DeliveredOrders)
			}
		}

		if g, ok := gapByID[s.CustomerUniqueID]; ok && g.HasGap {
			row.AvgDaysBetweenOrders = g.AvgDays
		}

		if s.TotalOrders > 0 {
			row.EstimatedReturnRate = 100 * float64(s.CancelledOrders) / float64(s.TotalOrders)
		}

		table = append(table, row)
	}

	sort.Slice(table, func(i, j int) bool {
		return table[i].CustomerUniqueID < table[j].CustomerUniqueID
	})
	return table
}

// ColumnUpdate is one feature column's worth of upsert values, in the
// order they are applied by the writer.
type ColumnUpdate struct {
	Column string
	Values []feature.Value
}

// ColumnUpdates splits the feature table into per-column update sets,
// following the canonical column order.
func ColumnUpdates(table []feature.CustomerFeatures) []ColumnUpdate {
	updates := make([]ColumnUpdate, len(feature.Columns))
	for i, col := range feature.Columns {
		updates[i] = ColumnUpdate{Column: col, Values: make([]feature.Value, 0, len(table))}
	}

	for _, row := range table {
		vec := row.Vector()
		for i := range updates {
			updates[i].Values = append(updates[i].Values, feature.Value{
				CustomerUniqueID: row.CustomerUniqueID,
				Value:            vec[i],
			})
		}
	}
	return updates
}
