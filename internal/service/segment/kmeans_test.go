package segment

import (
	"math/rand"
	"testing"

	xerrors "ecommerce-analytics/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// blobs builds three well-separated point clouds, deterministically.
func blobs(perCluster int) [][]float64 {
	rng := rand.New(rand.NewSource(7))
	centers := [][]float64{{0, 0}, {25, 25}, {-30, 40}}

	var X [][]float64
	for _, c := range centers {
		for i := 0; i < perCluster; i++ {
			X = append(X, []float64{
				c[0] + rng.NormFloat64(),
				c[1] + rng.NormFloat64(),
			})
		}
	}
	return X
}

// samePartition checks that two labelings induce the same grouping of
// points, ignoring the label values themselves.
func samePartition(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		for j := i + 1; j < len(a); j++ {
			if (a[i] == a[j]) != (b[i] == b[j]) {
				return false
			}
		}
	}
	return true
}

func TestKMeans_SameSeedSamePartition(t *testing.T) {
	X := blobs(10)
	km := KMeans{K: 3, MaxIter: 300, NInit: 10, Seed: 42}

	first, err := km.Fit(X)
	require.NoError(t, err)
	second, err := km.Fit(X)
	require.NoError(t, err)

	assert.True(t, samePartition(first.Labels, second.Labels),
		"same seed and k must induce the same partition")
	assert.Equal(t, first.Inertia, second.Inertia)
}

func TestKMeans_RecoversSeparatedBlobs(t *testing.T) {
	X := blobs(10)
	km := KMeans{K: 3, MaxIter: 300, NInit: 10, Seed: 42}

	got, err := km.Fit(X)
	require.NoError(t, err)
	require.Len(t, got.Labels, len(X))

	// Each blob of 10 consecutive points should share one label.
	for c := 0; c < 3; c++ {
		first := got.Labels[c*10]
		for i := 1; i < 10; i++ {
			assert.Equal(t, first, got.Labels[c*10+i])
		}
	}

	// And the three blobs should not share labels.
	assert.NotEqual(t, got.Labels[0], got.Labels[10])
	assert.NotEqual(t, got.Labels[10], got.Labels[20])
	assert.NotEqual(t, got.Labels[0], got.Labels[20])
}

func TestKMeans_SeparatesDistantCustomers(t *testing.T) {
	// Customer A: high CLV, many orders. Customer B: low CLV, one order.
	raw := [][]float64{
		{1000, 10, 100, 20, 15, 0},
		{980, 9, 108, 25, 14, 0},
		{50, 1, 50, 9999, 8, 0},
		{60, 1, 60, 9999, 9, 0},
	}
	scaled := Standardize(raw)

	km := KMeans{K: 2, MaxIter: 300, NInit: 10, Seed: 42}
	got, err := km.Fit(scaled)
	require.NoError(t, err)

	assert.Equal(t, got.Labels[0], got.Labels[1])
	assert.Equal(t, got.Labels[2], got.Labels[3])
	assert.NotEqual(t, got.Labels[0], got.Labels[2],
		"far-apart customers must land in different clusters")
}

func TestKMeans_LabelsWithinRange(t *testing.T) {
	X := blobs(5)
	got, err := KMeans{K: 3, Seed: 1}.Fit(X)
	require.NoError(t, err)

	for _, l := range got.Labels {
		assert.GreaterOrEqual(t, l, 0)
		assert.Less(t, l, 3)
	}
}

func TestKMeans_RejectsTooManyClusters(t *testing.T) {
	X := [][]float64{{1, 1}, {2, 2}, {3, 3}}

	_, err := KMeans{K: 3, Seed: 42}.Fit(X)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
}

func TestKMeans_CountsDistinctVectorsNotRows(t *testing.T) {
	// Five rows but only two distinct vectors: k=2 is still undefined.
	X := [][]float64{{1, 1}, {1, 1}, {1, 1}, {2, 2}, {2, 2}}

	_, err := KMeans{K: 2, Seed: 42}.Fit(X)
	require.Error(t, err)
	assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
}

func TestKMeans_RejectsTinyK(t *testing.T) {
	_, err := KMeans{K: 1, Seed: 42}.Fit(blobs(3))
	assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
}

func TestKMeans_EmptyInput(t *testing.T) {
	_, err := KMeans{K: 2, Seed: 42}.Fit(nil)
	assert.ErrorIs(t, err, xerrors.ErrEmptyDataset)
}
