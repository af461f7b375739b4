// Command ingest runs the trip pipeline once and prints the statistics
// block and the visit table. With -batch it merges a new trip log export
// first; without it, it only recomputes aggregates over the accumulated
// dataset.
//
// Usage:
//
//	go run ./cmd/ingest -batch exports/trips_2026-08.csv
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/trip-log-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/trip-log-etl/internal/adapter/nominatim"
	"github.com/couchcryptid/trip-log-etl/internal/config"
	"github.com/couchcryptid/trip-log-etl/internal/observability"
	"github.com/couchcryptid/trip-log-etl/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		slog.Error("ingest failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	batchPath := flag.String("batch", "", "path to a new trip log export to merge (optional)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	geocoder := nominatim.NewClient(nominatim.Options{
		BaseURL:   cfg.GeocoderURL,
		UserAgent: cfg.GeocoderUserAgent,
		Box:       cfg.GeocoderViewbox,
		MinDelay:  cfg.GeocoderMinDelay,
		Timeout:   cfg.GeocoderTimeout,
	}, metrics, logger)

	cache := csvstore.NewCacheStore(cfg.CachePath)
	dataset := csvstore.NewDatasetStore(cfg.DatasetPath, cfg.SamplePath)
	p := pipeline.New(cache, dataset, csvstore.ReadBatch, geocoder, logger, metrics)

	result, err := p.Run(context.Background(), *batchPath)
	if err != nil {
		return err
	}

	fmt.Println("=== Statistics ===")
	for _, s := range result.Stats {
		fmt.Printf("%s : %s\n", s.Label, s.Value)
	}

	fmt.Println("\n=== Visited cities ===")
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "City\tLatitude\tLongitude\tVisits")
	for _, v := range result.Visits {
		fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%d\n", v.City, v.Lat, v.Lon, v.Visits)
	}
	return w.Flush()
}
