// internal/service/segment/kmeans.go
package segment

import (
	"fmt"
	"math"
	"math/rand"

	xerrors "ecommerce-analytics/internal/pkg/errors"
)

// KMeans partitions vectors into K clusters with Lloyd iterations, running
// NInit seeded random initializations and keeping the result with the
// lowest inertia. A fixed Seed makes the induced partition reproducible;
// label values themselves carry no meaning.
type KMeans struct {
	K       int
	MaxIter int
	NInit   int
	Seed    int64
}

// Clustering is the best fit found across initializations.
type Clustering struct {
	Labels    []int
	Centroids [][]float64
	Inertia   float64
}

// Fit clusters X. Configuration is validated before any computation: K
// must be at least 2 and strictly smaller than the number of distinct
// vectors, otherwise the partition would be undefined.
func (km KMeans) Fit(X [][]float64) (*Clustering, error) {
	if len(X) == 0 {
		return nil, fmt.Errorf("%w: no vectors to cluster", xerrors.ErrEmptyDataset)
	}
	if km.K < 2 {
		return nil, fmt.Errorf("%w: cluster count must be at least 2, got %d", xerrors.ErrInvalidConfig, km.K)
	}
	if distinct := countDistinct(X); km.K >= distinct {
		return nil, fmt.Errorf("%w: cluster count %d must be below the %d distinct feature rows",
			xerrors.ErrInvalidConfig, km.K, distinct)
	}

	maxIter := km.MaxIter
	if maxIter < 1 {
		maxIter = 300
	}
	nInit := km.NInit
	if nInit < 1 {
		nInit = 10
	}

	rng := rand.New(rand.NewSource(km.Seed))

	var best *Clustering
	for run := 0; run < nInit; run++ {
		c := km.lloyd(X, initialCentroids(X, km.K, rng), maxIter)
		if best == nil || c.Inertia < best.Inertia {
			best = c
		}
	}
	return best, nil
}

// lloyd runs assignment/update iterations until labels stabilize or the
// iteration budget runs out.
func (km KMeans) lloyd(X [][]float64, centroids [][]float64, maxIter int) *Clustering {
	n := len(X)
	dims := len(X[0])
	labels := make([]int, n)

	for iter := 0; iter < maxIter; iter++ {
		changed := false
		for i, row := range X {
			nearest := nearestCentroid(row, centroids)
			if nearest != labels[i] || iter == 0 {
				labels[i] = nearest
				changed = true
			}
		}
		if !changed {
			break
		}

		counts := make([]int, km.K)
		next := make([][]float64, km.K)
		for c := range next {
			next[c] = make([]float64, dims)
		}
		for i, row := range X {
			counts[labels[i]]++
			for j, v := range row {
				next[labels[i]][j] += v
			}
		}
		for c := range next {
			if counts[c] == 0 {
				// Reseed an empty cluster with the point farthest from its
				// current centroid.
				next[c] = append([]float64(nil), X[farthestPoint(X, labels, centroids)]...)
				continue
			}
			for j := range next[c] {
				next[c][j] /= float64(counts[c])
			}
		}
		centroids = next
	}

	inertia := 0.0
	for i, row := range X {
		inertia += squaredDistance(row, centroids[labels[i]])
	}

	return &Clustering{Labels: labels, Centroids: centroids, Inertia: inertia}
}

// initialCentroids samples K distinct vectors from X.
func initialCentroids(X [][]float64, k int, rng *rand.Rand) [][]float64 {
	centroids := make([][]float64, 0, k)
	seen := make(map[string]struct{}, k)
	for _, idx := range rng.Perm(len(X)) {
		key := vectorKey(X[idx])
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		centroids = append(centroids, X[idx])
		if len(centroids) == k {
			break
		}
	}
	return centroids
}

func nearestCentroid(row []float64, centroids [][]float64) int {
	nearest := 0
	bestDist := math.Inf(1)
	for c, centroid := range centroids {
		if d := squaredDistance(row, centroid); d < bestDist {
			bestDist = d
			nearest = c
		}
	}
	return nearest
}

func farthestPoint(X [][]float64, labels []int, centroids [][]float64) int {
	farthest := 0
	worst := -1.0
	for i, row := range X {
		if d := squaredDistance(row, centroids[labels[i]]); d > worst {
			worst = d
			farthest = i
		}
	}
	return farthest
}

func squaredDistance(a, b []float64) float64 {
	sum := 0.0
	for j := range a {
		d := a[j] - b[j]
		sum += d * d
	}
	return sum
}

func euclideanDistance(a, b []float64) float64 {
	return math.Sqrt(squaredDistance(a, b))
}

func countDistinct(X [][]float64) int {
	seen := make(map[string]struct{}, len(X))
	for _, row := range X {
		seen[vectorKey(row)] = struct{}{}
	}
	return len(seen)
}

func vectorKey(row []float64) string {
	return fmt.Sprint(row)
}
