// internal/app/pipeline.go
package app

import (
	"context"
	"fmt"

	"ecommerce-analytics/internal/config"
	"ecommerce-analytics/internal/db"
	"ecommerce-analytics/internal/domain/feature"
	"ecommerce-analytics/internal/repository/postgres"
	featuresvc "ecommerce-analytics/internal/service/feature"
	precomputesvc "ecommerce-analytics/internal/service/precompute"
	segmentsvc "ecommerce-analytics/internal/service/segment"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Pipeline owns every stage of the batch run and the resources they
// share. Construct one per invocation and Close it when done; nothing in
// here is a process-wide singleton.
type Pipeline struct {
	cfg    config.AppConfig
	logger *zap.Logger
	pool   *pgxpool.Pool
	cache  *redis.Client

	extractor  *featuresvc.Extractor
	writer     *featuresvc.Writer
	precompute *precomputesvc.Service
	segmenter  *segmentsvc.Service
}

func New(ctx context.Context) (*Pipeline, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	// ----- PostgreSQL -----
	pool, err := db.ConnectDB(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL: %w", err)
	}

	// ----- Redis (optional snapshot cache) -----
	var cache *redis.Client
	if cfg.RedisAddr != "" {
		cache, err = db.NewRedisClient(db.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPass,
			DB:       0,
			PoolSize: 10,
		})
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("failed to connect to Redis: %w", err)
		}
	}

	// ----- Repositories -----
	featureRepo := postgres.NewFeatureRepository(pool)
	precomputedRepo := postgres.NewPrecomputedRepository(pool)
	segRepo := postgres.NewSegmentationRepository(pool)

	// ----- Services -----
	extractor := featuresvc.NewExtractor(featureRepo, logger)
	writer := featuresvc.NewWriter(featureRepo, logger)
	precompute := precomputesvc.NewService(precomputedRepo, cache, logger)
	segmenter := segmentsvc.NewService(segRepo, segmentsvc.Options{
		ClusterCount: cfg.ClusterCount,
		Seed:         cfg.KMeansSeed,
		Inits:        cfg.KMeansInits,
		MaxIter:      cfg.KMeansMaxIter,
		OutputDir:    cfg.OutputDir,
		ExportCSV:    cfg.ExportCSV,
	}, logger)

	return &Pipeline{
		cfg:        cfg,
		logger:     logger,
		pool:       pool,
		cache:      cache,
		extractor:  extractor,
		writer:     writer,
		precompute: precompute,
		segmenter:  segmenter,
	}, nil
}

func (p *Pipeline) Close() {
	if p.cache != nil {
		_ = p.cache.Close()
	}
	p.pool.Close()
	_ = p.logger.Sync()
}

func (p *Pipeline) Config() config.AppConfig {
	return p.cfg
}

// RunExtract materializes the feature table and writes it back onto the
// customer rows, then refreshes the derived denormalized columns.
func (p *Pipeline) RunExtract(ctx context.Context) error {
	if err := p.writer.EnsureSchema(ctx); err != nil {
		return err
	}

	window := feature.Window{Start: p.cfg.ExtractStart, End: p.cfg.ExtractEnd}
	table, err := p.extractor.Extract(ctx, window)
	if err != nil {
		return err
	}

	if err := p.writer.WriteFeatures(ctx, table); err != nil {
		return err
	}
	return p.writer.WriteDerivedColumns(ctx)
}

// RunPrecompute appends a fresh snapshot of each registered aggregate to
// the precomputed-feature log.
func (p *Pipeline) RunPrecompute(ctx context.Context) error {
	if err := p.writer.EnsureSchema(ctx); err != nil {
		return err
	}
	return p.precompute.Run(ctx)
}

// RunSegmentation clusters the persisted feature table and stores the
// resulting assignments and quality metrics.
func (p *Pipeline) RunSegmentation(ctx context.Context) error {
	if err := p.writer.EnsureSchema(ctx); err != nil {
		return err
	}
	_, err := p.segmenter.Run(ctx)
	return err
}

// RunAll executes the full pipeline in stage order. A failed stage aborts
// the run; completed stages are not undone.
func (p *Pipeline) RunAll(ctx context.Context) error {
	if err := p.RunExtract(ctx); err != nil {
		return fmt.Errorf("extract stage: %w", err)
	}
	if err := p.precompute.Run(ctx); err != nil {
		return fmt.Errorf("precompute stage: %w", err)
	}
	if err := p.RunSegmentation(ctx); err != nil {
		return fmt.Errorf("segmentation stage: %w", err)
	}
	return nil
}
