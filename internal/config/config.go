package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Durable stores. Defaults derive from DataDir.
	DataDir     string
	CachePath   string // city coordinate cache CSV
	DatasetPath string // accumulated dataset CSV
	SamplePath  string // bundled sample dataset, used while DatasetPath does not exist

	// Geocoder configuration.
	GeocoderURL       string
	GeocoderUserAgent string
	GeocoderTimeout   time.Duration
	GeocoderMinDelay  time.Duration // minimum delay between successive geocoding calls
	GeocoderViewbox   domain.BoundingBox
}

// Load reads configuration from environment variables, applying defaults
// where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDurationEnv("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	geocoderTimeout, err := parseDurationEnv("GEOCODER_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	minDelay, err := parseDurationEnv("GEOCODER_MIN_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	viewbox, err := parseViewbox(envOrDefault("GEOCODER_VIEWBOX", "-12,35,30,65"))
	if err != nil {
		return nil, err
	}

	dataDir := envOrDefault("DATA_DIR", "data")

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataDir:     dataDir,
		CachePath:   envOrDefault("CACHE_PATH", filepath.Join(dataDir, "geoloc_cities.csv")),
		DatasetPath: envOrDefault("DATASET_PATH", filepath.Join(dataDir, "consolidated.csv")),
		SamplePath:  envOrDefault("SAMPLE_PATH", filepath.Join(dataDir, "sample.csv")),

		GeocoderURL:       envOrDefault("GEOCODER_URL", "https://nominatim.openstreetmap.org/search"),
		GeocoderUserAgent: envOrDefault("GEOCODER_USER_AGENT", "trip-log-etl"),
		GeocoderTimeout:   geocoderTimeout,
		GeocoderMinDelay:  minDelay,
		GeocoderViewbox:   viewbox,
	}

	if cfg.CachePath == "" {
		return nil, errors.New("CACHE_PATH is required")
	}
	if cfg.DatasetPath == "" {
		return nil, errors.New("DATASET_PATH is required")
	}
	if cfg.GeocoderURL == "" {
		return nil, errors.New("GEOCODER_URL is required")
	}
	if cfg.GeocoderMinDelay < 0 {
		return nil, errors.New("GEOCODER_MIN_DELAY must not be negative")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseDurationEnv(key, fallback string) (time.Duration, error) {
	s := envOrDefault(key, fallback)
	d, err := time.ParseDuration(s)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

// parseViewbox parses "minLon,minLat,maxLon,maxLat" into a bounding box.
func parseViewbox(s string) (domain.BoundingBox, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return domain.BoundingBox{}, fmt.Errorf("invalid GEOCODER_VIEWBOX: %q (want minLon,minLat,maxLon,maxLat)", s)
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return domain.BoundingBox{}, fmt.Errorf("invalid GEOCODER_VIEWBOX: %q: %w", s, err)
		}
		vals[i] = v
	}
	box := domain.BoundingBox{MinLon: vals[0], MinLat: vals[1], MaxLon: vals[2], MaxLat: vals[3]}
	if box.MinLon >= box.MaxLon || box.MinLat >= box.MaxLat {
		return domain.BoundingBox{}, fmt.Errorf("invalid GEOCODER_VIEWBOX: %q: min must be below max", s)
	}
	return box, nil
}
