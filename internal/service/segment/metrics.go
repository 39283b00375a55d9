// internal/service/segment/metrics.go
package segment

import "math"

// Silhouette returns the mean silhouette coefficient over all samples,
// in [-1, 1]; higher means tighter, better-separated clusters. Samples in
// singleton clusters score 0, matching the usual convention.
func Silhouette(X [][]float64, labels []int, k int) float64 {
	n := len(X)
	sizes := clusterSizes(labels, k)

	total := 0.0
	for i := range X {
		own := labels[i]
		if sizes[own] <= 1 {
			continue
		}

		// Mean distance to every cluster.
		sums := make([]float64, k)
		for j := range X {
			if i == j {
				continue
			}
			sums[labels[j]] += euclideanDistance(X[i], X[j])
		}

		a := sums[own] / float64(sizes[own]-1)
		b := math.Inf(1)
		for c := 0; c < k; c++ {
			if c == own || sizes[c] == 0 {
				continue
			}
			if mean := sums[c] / float64(sizes[c]); mean < b {
				b = mean
			}
		}

		if m := math.Max(a, b); m > 0 {
			total += (b - a) / m
		}
	}
	return total / float64(n)
}

// CalinskiHarabasz returns the between/within dispersion ratio; higher is
// better and the score is unbounded.
func CalinskiHarabasz(X [][]float64, labels []int, k int) float64 {
	n := len(X)
	if k <= 1 || n <= k {
		return 0
	}

	overall := meanVector(X)
	centroids, sizes := clusterCentroids(X, labels, k)

	between := 0.0
	within := 0.0
	for c := 0; c < k; c++ {
		if sizes[c] == 0 {
			continue
		}
		between += float64(sizes[c]) * squaredDistance(centroids[c], overall)
	}
	for i, row := range X {
		within += squaredDistance(row, centroids[labels[i]])
	}
	if within == 0 {
		return math.Inf(1)
	}

	return (between / float64(k-1)) / (within / float64(n-k))
}

// DaviesBouldin returns the average worst-case similarity between each
// cluster and its closest other cluster; lower is better.
func DaviesBouldin(X [][]float64, labels []int, k int) float64 {
	centroids, sizes := clusterCentroids(X, labels, k)

	// Mean intra-cluster distance to the centroid.
	scatter := make([]float64, k)
	for i, row := range X {
		scatter[labels[i]] += euclideanDistance(row, centroids[labels[i]])
	}
	for c := 0; c < k; c++ {
		if sizes[c] > 0 {
			scatter[c] /= float64(sizes[c])
		}
	}

	total := 0.0
	active := 0
	for i := 0; i < k; i++ {
		if sizes[i] == 0 {
			continue
		}
		worst := 0.0
		for j := 0; j < k; j++ {
			if i == j || sizes[j] == 0 {
				continue
			}
			d := euclideanDistance(centroids[i], centroids[j])
			if d == 0 {
				continue
			}
			if r := (scatter[i] + scatter[j]) / d; r > worst {
				worst = r
			}
		}
		total += worst
		active++
	}
	if active == 0 {
		return 0
	}
	return total / float64(active)
}

func clusterSizes(labels []int, k int) []int {
	sizes := make([]int, k)
	for _, l := range labels {
		sizes[l]++
	}
	return sizes
}

func clusterCentroids(X [][]float64, labels []int, k int) ([][]float64, []int) {
	dims := len(X[0])
	centroids := make([][]float64, k)
	for c := range centroids {
		centroids[c] = make([]float64, dims)
	}
	sizes := clusterSizes(labels, k)

	for i, row := range X {
		for j, v := range row {
			centroids[labels[i]][j] += v
		}
	}
	for c := 0; c < k; c++ {
		if sizes[c] == 0 {
			continue
		}
		for j := range centroids[c] {
			centroids[c][j] /= float64(sizes[c])
		}
	}
	return centroids, sizes
}

func meanVector(X [][]float64) []float64 {
	mean := make([]float64, len(X[0]))
	for _, row := range X {
		for j, v := range row {
			mean[j] += v
		}
	}
	for j := range mean {
		mean[j] /= float64(len(X))
	}
	return mean
}
