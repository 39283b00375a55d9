// internal/service/segment/scale.go
package segment

import "math"

// Standardize scales each column to zero mean and unit variance using
// statistics computed from X itself; there is no held-out normalization
// reference. Constant columns map to all zeros rather than dividing by a
// zero deviation.
func Standardize(X [][]float64) [][]float64 {
	if len(X) == 0 {
		return nil
	}
	n := float64(len(X))
	dims := len(X[0])

	means := make([]float64, dims)
	for _, row := range X {
		for j, v := range row {
			means[j] += v
		}
	}
	for j := range means {
		means[j] /= n
	}

	stds := make([]float64, dims)
	for _, row := range X {
		for j, v := range row {
			d := v - means[j]
			stds[j] += d * d
		}
	}
	for j := range stds {
		stds[j] = math.Sqrt(stds[j] / n)
	}

	scaled := make([][]float64, len(X))
	for i, row := range X {
		scaled[i] = make([]float64, dims)
		for j, v := range row {
			if stds[j] == 0 {
				continue
			}
			scaled[i][j] = (v - means[j]) / stds[j]
		}
	}
	return scaled
}
