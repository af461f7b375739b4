package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
	"github.com/couchcryptid/trip-log-etl/internal/observability"
)

// CacheStore persists the city coordinate cache.
type CacheStore interface {
	Load() ([]domain.CityCoord, error)
	Save(coords []domain.CityCoord) error
}

// DatasetStore persists the accumulated dataset.
type DatasetStore interface {
	Load() ([]domain.EnrichedTrip, error)
	Replace(trips []domain.EnrichedTrip) error
}

// BatchReader reads and normalizes a raw batch export.
type BatchReader func(path string) ([]domain.TripRecord, error)

// Result is what the presentation layer consumes from a pipeline run.
type Result struct {
	Stats  []domain.Stat
	Visits []domain.CityVisits
	Rows   int // accumulated dataset row count after the run
}

// Pipeline sequences ingestion: load the accumulated dataset, optionally
// normalize and merge a new batch, then compute the aggregates. A rejected
// batch never mutates durable state.
type Pipeline struct {
	cache     CacheStore
	dataset   DatasetStore
	readBatch BatchReader
	geocoder  domain.Geocoder
	logger    *slog.Logger
	metrics   *observability.Metrics
	ready     atomic.Bool
}

// New creates a Pipeline with the given stores and geocoder.
func New(cache CacheStore, dataset DatasetStore, readBatch BatchReader, geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		cache:     cache,
		dataset:   dataset,
		readBatch: readBatch,
		geocoder:  geocoder,
		logger:    logger,
		metrics:   metrics,
	}
}

// CheckReadiness returns nil once the pipeline has completed at least one
// run, or an error describing why the service is not yet ready.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("pipeline has not completed a run yet")
	}
	return nil
}

// Run loads the accumulated dataset (falling back to the bundled sample),
// ingests batchPath when non-empty, and returns the statistics and visit
// aggregate. An empty batchPath only recomputes aggregates; that is not an
// error.
func (p *Pipeline) Run(ctx context.Context, batchPath string) (Result, error) {
	start := time.Now()
	p.metrics.PipelineRunning.Set(1)
	defer p.metrics.PipelineRunning.Set(0)
	defer func() { p.metrics.RunDuration.Observe(time.Since(start).Seconds()) }()

	trips, err := p.dataset.Load()
	if err != nil {
		return Result{}, fmt.Errorf("load accumulated dataset: %w", err)
	}

	if batchPath != "" {
		trips, err = p.ingest(ctx, trips, batchPath)
		if err != nil {
			p.metrics.BatchesRejected.Inc()
			return Result{}, err
		}
	}

	p.metrics.DatasetRows.Set(float64(len(trips)))
	p.ready.Store(true)

	return Result{
		Stats:  domain.ComputeStats(trips),
		Visits: domain.CountVisits(trips),
		Rows:   len(trips),
	}, nil
}

// ingest normalizes a batch, resolves its cities, joins coordinates, merges
// it into the accumulated dataset, and persists the result. Any failure
// rejects the batch and leaves the previous dataset untouched.
func (p *Pipeline) ingest(ctx context.Context, existing []domain.EnrichedTrip, batchPath string) ([]domain.EnrichedTrip, error) {
	batch, err := p.readBatch(batchPath)
	if err != nil {
		return nil, err
	}
	p.metrics.RowsIngested.Add(float64(len(batch)))
	p.logger.Info("batch parsed", "path", batchPath, "rows", len(batch))

	if err := p.resolveCities(ctx, batch); err != nil {
		return nil, err
	}

	// Re-read the cache after resolution so the join sees every newly
	// persisted coordinate.
	coords, err := p.cache.Load()
	if err != nil {
		return nil, fmt.Errorf("reload coordinate cache: %w", err)
	}

	enriched, err := joinCoordinates(batch, indexByCity(coords))
	if err != nil {
		return nil, err
	}

	merged, dropped := mergeTrips(existing, enriched)
	p.metrics.DuplicatesDropped.Add(float64(dropped))

	if err := p.dataset.Replace(merged); err != nil {
		return nil, fmt.Errorf("persist accumulated dataset: %w", err)
	}

	p.metrics.BatchesIngested.Inc()
	p.logger.Info("batch merged",
		"new_rows", len(merged)-len(existing),
		"duplicates_dropped", dropped,
		"dataset_rows", len(merged),
	)
	return merged, nil
}

// resolveCities geocodes every batch city absent from the cache, one call
// per city in sorted order, and persists the grown cache before returning.
// A city the geocoder cannot resolve fails the whole batch.
func (p *Pipeline) resolveCities(ctx context.Context, batch []domain.TripRecord) error {
	coords, err := p.cache.Load()
	if err != nil {
		return fmt.Errorf("load coordinate cache: %w", err)
	}
	known := indexByCity(coords)

	missing := missingCities(batch, known)
	p.metrics.GeocodeCache.WithLabelValues("hit").Add(float64(countCities(batch) - len(missing)))
	p.metrics.GeocodeCache.WithLabelValues("miss").Add(float64(len(missing)))
	if len(missing) == 0 {
		return nil
	}
	if p.geocoder == nil {
		return fmt.Errorf("batch references %d unknown cities but no geocoder is configured", len(missing))
	}

	p.logger.Info("resolving unknown cities", "count", len(missing))
	for _, city := range missing {
		coord, err := p.geocoder.Geocode(ctx, city)
		if err != nil {
			return fmt.Errorf("resolve city %q: %w", city, err)
		}
		coords = append(coords, coord)
	}

	if err := p.cache.Save(coords); err != nil {
		return fmt.Errorf("persist coordinate cache: %w", err)
	}
	return nil
}
