package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/trip-log-etl/internal/adapter/csvstore"
	httpadapter "github.com/couchcryptid/trip-log-etl/internal/adapter/http"
	"github.com/couchcryptid/trip-log-etl/internal/adapter/nominatim"
	"github.com/couchcryptid/trip-log-etl/internal/config"
	"github.com/couchcryptid/trip-log-etl/internal/observability"
	"github.com/couchcryptid/trip-log-etl/internal/pipeline"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
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

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the aggregates once so readiness reflects loadable stores.
	if result, err := p.Run(ctx, ""); err != nil {
		logger.Error("initial aggregate run failed", "error", err)
	} else {
		logger.Info("aggregates ready", "dataset_rows", result.Rows)
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}

	logger.Info("shutdown complete")
}
