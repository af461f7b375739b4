package nominatim

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
	"github.com/couchcryptid/trip-log-etl/internal/observability"
)

// Client implements domain.Geocoder against a Nominatim-style search
// endpoint. Every query is constrained to the configured bounding box, and
// successive requests are spaced by at least minDelay to honor the
// provider's fair-use policy. Callers issue requests sequentially; the
// client is not safe for concurrent use.
type Client struct {
	baseURL    string
	userAgent  string
	box        domain.BoundingBox
	minDelay   time.Duration
	httpClient *http.Client
	clock      clockwork.Clock
	last       time.Time
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// Options configures a Client.
type Options struct {
	BaseURL   string
	UserAgent string
	Box       domain.BoundingBox
	MinDelay  time.Duration
	Timeout   time.Duration
}

// NewClient creates a geocoding client.
func NewClient(opts Options, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    opts.BaseURL,
		userAgent:  opts.UserAgent,
		box:        opts.Box,
		minDelay:   opts.MinDelay,
		httpClient: &http.Client{Timeout: opts.Timeout},
		clock:      clockwork.NewRealClock(),
		metrics:    metrics,
		logger:     logger,
	}
}

// Geocode resolves a city name to coordinates inside the bounding box.
// Returns an error wrapping domain.ErrCityNotFound when the provider has no
// match.
func (c *Client) Geocode(ctx context.Context, city string) (domain.CityCoord, error) {
	c.throttle()

	params := url.Values{
		"q":       {city},
		"format":  {"jsonv2"},
		"limit":   {"1"},
		"bounded": {"1"},
		"viewbox": {fmt.Sprintf("%g,%g,%g,%g", c.box.MinLon, c.box.MinLat, c.box.MaxLon, c.box.MaxLat)},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return domain.CityCoord{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.CityCoord{}, fmt.Errorf("geocode request for %q: %w", city, err)
	}
	defer resp.Body.Close()
	c.metrics.GeocodeAPIDuration.Observe(time.Since(start).Seconds())

	if resp.StatusCode != http.StatusOK {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		body, _ := io.ReadAll(resp.Body)
		return domain.CityCoord{}, fmt.Errorf("geocoder API error: status %d: %s", resp.StatusCode, body)
	}

	var places []place
	if err := json.NewDecoder(resp.Body).Decode(&places); err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.CityCoord{}, fmt.Errorf("decode response: %w", err)
	}

	if len(places) == 0 {
		c.metrics.GeocodeRequests.WithLabelValues("not_found").Inc()
		return domain.CityCoord{}, fmt.Errorf("geocode %q: %w", city, domain.ErrCityNotFound)
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.CityCoord{}, fmt.Errorf("geocode %q: parse latitude %q: %w", city, places[0].Lat, err)
	}
	lon, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		c.metrics.GeocodeRequests.WithLabelValues("error").Inc()
		return domain.CityCoord{}, fmt.Errorf("geocode %q: parse longitude %q: %w", city, places[0].Lon, err)
	}

	c.metrics.GeocodeRequests.WithLabelValues("success").Inc()
	c.logger.Debug("city resolved", "city", city, "lat", lat, "lon", lon, "display_name", places[0].DisplayName)
	return domain.CityCoord{City: city, Lat: lat, Lon: lon}, nil
}

// throttle sleeps until at least minDelay has passed since the previous
// request. The first request goes out immediately.
func (c *Client) throttle() {
	if !c.last.IsZero() {
		if wait := c.minDelay - c.clock.Since(c.last); wait > 0 {
			c.clock.Sleep(wait)
		}
	}
	c.last = c.clock.Now()
}

// Nominatim API response types. Coordinates arrive as strings.

type place struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
}
