package feature

import (
	"math"
	"testing"

	"ecommerce-analytics/internal/domain/feature"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildTable_CLVFromDeliveredRevenue(t *testing.T) {
	// Two delivered orders totaling $150 in item price and $20 in freight.
	delivered := []feature.DeliveredAggregate{
		{CustomerUniqueID: "cust-a", Revenue: 170.00, DeliveredOrders: 2, AvgShippingCost: 10.00},
	}
	gaps := []feature.GapAggregate{
		{CustomerUniqueID: "cust-a", AvgDays: 30, HasGap: true},
	}
	statuses := []feature.StatusAggregate{
		{CustomerUniqueID: "cust-a", TotalOrders: 2, CancelledOrders: 0},
	}

	table := BuildTable(delivered, gaps, statuses)
	require.Len(t, table, 1)

	row := table[0]
	assert.Equal(t, "cust-a", row.CustomerUniqueID)
	assert.Equal(t, 170.00, row.CLV)
	assert.Equal(t, int64(2), row.TotalOrders)
	assert.Equal(t, 85.00, row.AvgOrderValue)
	assert.Equal(t, 30.0, row.AvgDaysBetweenOrders)
	assert.Equal(t, 10.00, row.AvgShippingCost)
	assert.Equal(t, 0.0, row.EstimatedReturnRate)
}

func TestBuildTable_ZeroDeliveredOrdersZeroFilled(t *testing.T) {
	// A customer whose only order was cancelled: no delivered aggregates,
	// but still counted in the return-rate denominator.
	statuses := []feature.StatusAggregate{
		{CustomerUniqueID: "cust-b", TotalOrders: 1, CancelledOrders: 1},
	}

	table := BuildTable(nil, nil, statuses)
	require.Len(t, table, 1)

	row := table[0]
	assert.Equal(t, 0.0, row.CLV)
	assert.Equal(t, int64(0), row.TotalOrders)
	assert.Equal(t, 0.0, row.AvgOrderValue, "AOV must be zero-guarded, never NaN")
	assert.False(t, math.IsNaN(row.AvgOrderValue))
	assert.Equal(t, feature.SingleOrderGapSentinel, row.AvgDaysBetweenOrders)
	assert.Equal(t, 100.0, row.EstimatedReturnRate)
}

func TestBuildTable_SingleDeliveredOrderGetsSentinel(t *testing.T) {
	delivered := []feature.DeliveredAggregate{
		{CustomerUniqueID: "cust-c", Revenue: 50, DeliveredOrders: 1, AvgShippingCost: 5},
	}
	// The store returns a NULL average gap for single-order customers.
	gaps := []feature.GapAggregate{
		{CustomerUniqueID: "cust-c", HasGap: false},
	}
	statuses := []feature.StatusAggregate{
		{CustomerUniqueID: "cust-c", TotalOrders: 1, CancelledOrders: 0},
	}

	table := BuildTable(delivered, gaps, statuses)
	require.Len(t, table, 1)
	assert.Equal(t, feature.SingleOrderGapSentinel, table[0].AvgDaysBetweenOrders,
		"single-order customers must get the sentinel, never 0")
}

func TestBuildTable_CustomersWithoutOrdersExcluded(t *testing.T) {
	table := BuildTable(nil, nil, nil)
	assert.Empty(t, table)
}

func TestBuildTable_ReturnRateWithinBounds(t *testing.T) {
	statuses := []feature.StatusAggregate{
		{CustomerUniqueID: "c1", TotalOrders: 4, CancelledOrders: 1},
		{CustomerUniqueID: "c2", TotalOrders: 3, CancelledOrders: 3},
		{CustomerUniqueID: "c3", TotalOrders: 5, CancelledOrders: 0},
	}

	for _, row := range BuildTable(nil, nil, statuses) {
		assert.GreaterOrEqual(t, row.EstimatedReturnRate, 0.0)
		assert.LessOrEqual(t, row.EstimatedReturnRate, 100.0)
	}
}

func TestBuildTable_Deterministic(t *testing.T) {
	delivered := []feature.DeliveredAggregate{
		{CustomerUniqueID: "c2", Revenue: 80, DeliveredOrders: 2, AvgShippingCost: 8},
		{CustomerUniqueID: "c1", Revenue: 170, DeliveredOrders: 2, AvgShippingCost: 10},
	}
	gaps := []feature.GapAggregate{
		{CustomerUniqueID: "c1", AvgDays: 12, HasGap: true},
		{CustomerUniqueID: "c2", AvgDays: 45, HasGap: true},
	}
	statuses := []feature.StatusAggregate{
		{CustomerUniqueID: "c1", TotalOrders: 2},
		{CustomerUniqueID: "c2", TotalOrders: 2},
	}

	first := BuildTable(delivered, gaps, statuses)

	// Same data, different input order.
	second := BuildTable(
		[]feature.DeliveredAggregate{delivered[1], delivered[0]},
		[]feature.GapAggregate{gaps[1], gaps[0]},
		[]feature.StatusAggregate{statuses[1], statuses[0]},
	)

	assert.Equal(t, first, second)
	assert.Equal(t, "c1", first[0].CustomerUniqueID, "output sorted by customer key")
}

func TestColumnUpdates(t *testing.T) {
	table := []feature.CustomerFeatures{
		{
			CustomerUniqueID:     "c1",
			CLV:                  170,
			TotalOrders:          2,
			AvgOrderValue:        85,
			AvgDaysBetweenOrders: 30,
			AvgShippingCost:      10,
			EstimatedReturnRate:  0,
		},
	}

	updates := ColumnUpdates(table)
	require.Len(t, updates, len(feature.Columns))

	for i, u := range updates {
		assert.Equal(t, feature.Columns[i], u.Column)
		require.Len(t, u.Values, 1)
		assert.Equal(t, "c1", u.Values[0].CustomerUniqueID)
	}

	assert.Equal(t, 170.0, updates[0].Values[0].Value)
	assert.Equal(t, 2.0, updates[1].Values[0].Value)
	assert.Equal(t, 85.0, updates[2].Values[0].Value)
}
