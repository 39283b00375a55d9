// internal/service/segment/service.go
package segment

import (
	"context"
	"fmt"
	"time"

	"ecommerce-analytics/internal/domain/segment"
	xerrors "ecommerce-analytics/internal/pkg/errors"
	"ecommerce-analytics/internal/repository/postgres"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
)

// Options configures a segmentation run.
type Options struct {
	ClusterCount int
	Seed         int64
	Inits        int
	MaxIter      int
	OutputDir    string
	ExportCSV    bool
}

type Service struct {
	segRepo *postgres.SegmentationRepository
	opts    Options
	logger  *zap.Logger
}

func NewService(segRepo *postgres.SegmentationRepository, opts Options, logger *zap.Logger) *Service {
	return &Service{
		segRepo: segRepo,
		opts:    opts,
		logger:  logger,
	}
}

// Run loads the persisted feature table, drops incomplete rows, clusters
// the standardized vectors and persists assignments plus quality metrics.
// The previous run's assignments are superseded wholesale; metrics rows
// accumulate per run.
func (s *Service) Run(ctx context.Context) (*segment.RunMetrics, error) {
	rows, err := s.segRepo.LoadFeatureRows(ctx)
	if err != nil {
		return nil, fmt.Errorf("load feature rows: %w", err)
	}

	ids, X := completeRows(rows)
	if len(X) == 0 {
		return nil, fmt.Errorf("%w: every customer was dropped by the missing-value filter; run the extractor first", xerrors.ErrEmptyDataset)
	}
	if dropped := len(rows) - len(X); dropped > 0 {
		s.logger.Info("dropped customers with incomplete features", zap.Int("dropped", dropped))
	}

	scaled := Standardize(X)

	km := KMeans{
		K:       s.opts.ClusterCount,
		MaxIter: s.opts.MaxIter,
		NInit:   s.opts.Inits,
		Seed:    s.opts.Seed,
	}
	clustering, err := km.Fit(scaled)
	if err != nil {
		return nil, err
	}

	runID := ulid.Make().String()
	assignments := make([]segment.Assignment, len(ids))
	for i, id := range ids {
		assignments[i] = segment.Assignment{
			CustomerUniqueID: id,
			Features:         X[i],
			Segment:          clustering.Labels[i],
		}
	}

	metrics := segment.RunMetrics{
		RunID:            runID,
		ClusterCount:     s.opts.ClusterCount,
		Seed:             s.opts.Seed,
		Silhouette:       Silhouette(scaled, clustering.Labels, km.K),
		CalinskiHarabasz: CalinskiHarabasz(scaled, clustering.Labels, km.K),
		DaviesBouldin:    DaviesBouldin(scaled, clustering.Labels, km.K),
		ComputedAt:       time.Now().UTC(),
	}

	if err := s.segRepo.ReplaceResults(ctx, runID, assignments); err != nil {
		return nil, fmt.Errorf("persist results: %w", err)
	}
	if err := s.segRepo.AppendMetrics(ctx, metrics); err != nil {
		return nil, fmt.Errorf("persist metrics: %w", err)
	}

	if s.opts.ExportCSV {
		resultsPath, err := exportResultsCSV(s.opts.OutputDir, assignments)
		if err != nil {
			return nil, fmt.Errorf("export results: %w", err)
		}
		metricsPath, err := exportMetricsCSV(s.opts.OutputDir, metrics)
		if err != nil {
			return nil, fmt.Errorf("export metrics: %w", err)
		}
		s.logger.Info("segmentation artifacts exported",
			zap.String("results", resultsPath),
			zap.String("metrics", metricsPath),
		)
	}

	s.logger.Info("segmentation run complete",
		zap.String("run_id", runID),
		zap.Int("customers", len(assignments)),
		zap.Int("clusters", km.K),
		zap.Float64("inertia", clustering.Inertia),
		zap.Float64("silhouette", metrics.Silhouette),
		zap.Float64("calinski_harabasz", metrics.CalinskiHarabasz),
		zap.Float64("davies_bouldin", metrics.DaviesBouldin),
	)

	return &metrics, nil
}

// completeRows keeps only customers with every feature present; there is
// no imputation.
func completeRows(rows []segment.FeatureRow) ([]string, [][]float64) {
	ids := make([]string, 0, len(rows))
	X := make([][]float64, 0, len(rows))
	for _, r := range rows {
		if !r.Complete() {
			continue
		}
		ids = append(ids, r.CustomerUniqueID)
		X = append(X, r.Vector())
	}
	return ids, X
}
