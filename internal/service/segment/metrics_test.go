package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// tight, far-apart clusters: near-ideal scores for every metric.
var (
	separatedX = [][]float64{
		{0, 0}, {0, 0.1}, {0.1, 0},
		{10, 10}, {10, 10.1}, {10.1, 10},
	}
	separatedLabels = []int{0, 0, 0, 1, 1, 1}
)

func TestSilhouette_SeparatedClusters(t *testing.T) {
	s := Silhouette(separatedX, separatedLabels, 2)
	assert.Greater(t, s, 0.9)
	assert.LessOrEqual(t, s, 1.0)
}

func TestSilhouette_WithinBounds(t *testing.T) {
	// Deliberately poor labeling still stays inside [-1, 1].
	badLabels := []int{0, 1, 0, 1, 0, 1}
	s := Silhouette(separatedX, badLabels, 2)
	assert.GreaterOrEqual(t, s, -1.0)
	assert.LessOrEqual(t, s, 1.0)
}

func TestSilhouette_BetterSeparationScoresHigher(t *testing.T) {
	good := Silhouette(separatedX, separatedLabels, 2)
	bad := Silhouette(separatedX, []int{0, 1, 0, 1, 0, 1}, 2)
	assert.Greater(t, good, bad)
}

func TestCalinskiHarabasz_SeparatedClusters(t *testing.T) {
	ch := CalinskiHarabasz(separatedX, separatedLabels, 2)
	assert.Greater(t, ch, 100.0, "tight far-apart clusters give a large ratio")
}

func TestCalinskiHarabasz_BetterSeparationScoresHigher(t *testing.T) {
	good := CalinskiHarabasz(separatedX, separatedLabels, 2)
	bad := CalinskiHarabasz(separatedX, []int{0, 1, 0, 1, 0, 1}, 2)
	assert.Greater(t, good, bad)
}

func TestDaviesBouldin_SeparatedClusters(t *testing.T) {
	db := DaviesBouldin(separatedX, separatedLabels, 2)
	assert.GreaterOrEqual(t, db, 0.0)
	assert.Less(t, db, 0.2, "tight far-apart clusters give a low score")
}

func TestDaviesBouldin_WorseSeparationScoresHigher(t *testing.T) {
	good := DaviesBouldin(separatedX, separatedLabels, 2)
	bad := DaviesBouldin(separatedX, []int{0, 1, 0, 1, 0, 1}, 2)
	assert.Less(t, good, bad)
}
