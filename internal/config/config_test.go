package config

import (
	"testing"
	"time"

	xerrors "ecommerce-analytics/internal/pkg/errors"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.ClusterCount)
	assert.Equal(t, int64(42), cfg.KMeansSeed)
	assert.Equal(t, 10, cfg.KMeansInits)
	assert.Equal(t, 300, cfg.KMeansMaxIter)
	assert.Equal(t, "datasets", cfg.OutputDir)
	assert.True(t, cfg.ExportCSV)
	assert.True(t, cfg.ExtractStart.IsZero())
	assert.True(t, cfg.ExtractEnd.IsZero())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("CLUSTER_COUNT", "5")
	t.Setenv("KMEANS_SEED", "7")
	t.Setenv("EXPORT_CSV", "false")
	t.Setenv("EXTRACT_START", "2017-01-01")
	t.Setenv("EXTRACT_END", "2018-01-01")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 5, cfg.ClusterCount)
	assert.Equal(t, int64(7), cfg.KMeansSeed)
	assert.False(t, cfg.ExportCSV)
	assert.Equal(t, time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC), cfg.ExtractStart)
	assert.Equal(t, time.Date(2018, 1, 1, 0, 0, 0, 0, time.UTC), cfg.ExtractEnd)
}

func TestLoad_RejectsSmallClusterCount(t *testing.T) {
	t.Setenv("CLUSTER_COUNT", "1")

	_, err := Load()
	assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
}

func TestLoad_RejectsInvertedWindow(t *testing.T) {
	t.Setenv("EXTRACT_START", "2018-01-01")
	t.Setenv("EXTRACT_END", "2017-01-01")

	_, err := Load()
	assert.ErrorIs(t, err, xerrors.ErrInvalidConfig)
}

func TestLoad_RejectsMalformedDate(t *testing.T) {
	t.Setenv("EXTRACT_START", "01/2017")

	_, err := Load()
	assert.Error(t, err)
}
