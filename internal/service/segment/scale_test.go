package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStandardize_ZeroMeanUnitVariance(t *testing.T) {
	X := [][]float64{
		{10, 1000},
		{20, 2000},
		{30, 3000},
		{40, 4000},
	}

	scaled := Standardize(X)
	require.Len(t, scaled, len(X))

	for j := 0; j < 2; j++ {
		mean := 0.0
		for i := range scaled {
			mean += scaled[i][j]
		}
		mean /= float64(len(scaled))
		assert.InDelta(t, 0, mean, 1e-9)

		variance := 0.0
		for i := range scaled {
			variance += (scaled[i][j] - mean) * (scaled[i][j] - mean)
		}
		variance /= float64(len(scaled))
		assert.InDelta(t, 1, variance, 1e-9)
	}
}

func TestStandardize_ConstantColumn(t *testing.T) {
	X := [][]float64{
		{5, 1},
		{5, 2},
		{5, 3},
	}

	scaled := Standardize(X)
	for i := range scaled {
		assert.Equal(t, 0.0, scaled[i][0], "constant column maps to zeros, not NaN")
	}
}

func TestStandardize_Empty(t *testing.T) {
	assert.Nil(t, Standardize(nil))
}
