package pipeline

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/trip-log-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/trip-log-etl/internal/domain"
	"github.com/couchcryptid/trip-log-etl/internal/observability"
)

type fakeGeocoder struct {
	coords map[string]domain.CityCoord
	calls  int
}

func (g *fakeGeocoder) Geocode(_ context.Context, city string) (domain.CityCoord, error) {
	g.calls++
	c, ok := g.coords[city]
	if !ok {
		return domain.CityCoord{}, fmt.Errorf("geocode %q: %w", city, domain.ErrCityNotFound)
	}
	return c, nil
}

type testEnv struct {
	dir      string
	cache    *csvstore.CacheStore
	dataset  *csvstore.DatasetStore
	geocoder *fakeGeocoder
	pipeline *Pipeline
}

func newTestEnv(t *testing.T, geocoder *fakeGeocoder) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cache := csvstore.NewCacheStore(filepath.Join(dir, "geoloc_cities.csv"))
	require.NoError(t, cache.Save([]domain.CityCoord{
		{City: "Berlin", Lat: 52.5200, Lon: 13.4050},
		{City: "Lyon", Lat: 45.7578, Lon: 4.8320},
	}))

	dataset := csvstore.NewDatasetStore(filepath.Join(dir, "consolidated.csv"), "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	return &testEnv{
		dir:      dir,
		cache:    cache,
		dataset:  dataset,
		geocoder: geocoder,
		pipeline: New(cache, dataset, csvstore.ReadBatch, geocoder, logger, observability.NewMetricsForTesting()),
	}
}

const batchHeaderLine = "Depuis,Vers,Chargement,Masse,Distance planifiée,Distance acceptée,Ravitaillé,Coût du carburant,Consommation moyenne,Vitesse maximale atteinte,Bénéfice,Amendes,Camion,Plaque d'immatriculation du camion,Temps pris (réel) [s],Date"

func batchRow(origin, destination, date string) string {
	return fmt.Sprintf("%s,%s,Grumes,17 587 kg,1 054 km,1 071 km,452 l,723 €,31.4 l/100km,87 km/h,45 230 €,0 €,Scania R,ID:AB-123-CD),38556,%s", origin, destination, date)
}

func writeBatchFile(t *testing.T, dir, name string, rows ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	content := strings.Join(append([]string{batchHeaderLine}, rows...), "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestRun_IngestsBatchAndResolvesUnknownCity(t *testing.T) {
	env := newTestEnv(t, &fakeGeocoder{coords: map[string]domain.CityCoord{
		"Praha": {City: "Praha", Lat: 50.0755, Lon: 14.4378},
	}})
	batch := writeBatchFile(t, env.dir, "batch.csv",
		batchRow("Lyon", "Berlin", "03/05/2026 14:10"),
		batchRow("Lyon", "Praha", "05/05/2026 09:45"),
	)

	result, err := env.pipeline.Run(context.Background(), batch)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Rows)
	assert.NotEmpty(t, result.Stats)

	assert.Equal(t, 1, env.geocoder.calls, "only the city missing from the cache should be geocoded")

	coords, err := env.cache.Load()
	require.NoError(t, err)
	require.Len(t, coords, 3)
	assert.Equal(t, domain.CityCoord{City: "Praha", Lat: 50.0755, Lon: 14.4378}, coords[2])

	trips, err := env.dataset.Load()
	require.NoError(t, err)
	require.Len(t, trips, 2)
	assert.Equal(t, "Praha", trips[1].To.City)
	assert.Equal(t, 50.0755, trips[1].To.Lat)
}

func TestRun_ReingestingSameBatchIsIdempotent(t *testing.T) {
	env := newTestEnv(t, &fakeGeocoder{coords: map[string]domain.CityCoord{
		"Praha": {City: "Praha", Lat: 50.0755, Lon: 14.4378},
	}})
	batch := writeBatchFile(t, env.dir, "batch.csv",
		batchRow("Lyon", "Berlin", "03/05/2026 14:10"),
		batchRow("Lyon", "Praha", "05/05/2026 09:45"),
	)

	first, err := env.pipeline.Run(context.Background(), batch)
	require.NoError(t, err)
	before, err := env.dataset.Load()
	require.NoError(t, err)

	second, err := env.pipeline.Run(context.Background(), batch)
	require.NoError(t, err)
	after, err := env.dataset.Load()
	require.NoError(t, err)

	assert.Equal(t, first.Rows, second.Rows)
	assert.Empty(t, cmp.Diff(before, after))
	assert.Equal(t, 1, env.geocoder.calls, "the second run must be served entirely from the cache")
}

func TestRun_UnresolvableCityRejectsBatch(t *testing.T) {
	env := newTestEnv(t, &fakeGeocoder{})
	batch := writeBatchFile(t, env.dir, "batch.csv",
		batchRow("Lyon", "Atlantis", "03/05/2026 14:10"),
	)

	_, err := env.pipeline.Run(context.Background(), batch)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCityNotFound)
	assert.Contains(t, err.Error(), "Atlantis")

	trips, err := env.dataset.Load()
	require.NoError(t, err)
	assert.Empty(t, trips, "a rejected batch must not touch the dataset")
}

func TestRun_MalformedBatchRejectedDatasetUntouched(t *testing.T) {
	env := newTestEnv(t, &fakeGeocoder{})
	good := writeBatchFile(t, env.dir, "good.csv",
		batchRow("Lyon", "Berlin", "03/05/2026 14:10"),
	)
	_, err := env.pipeline.Run(context.Background(), good)
	require.NoError(t, err)
	before, err := env.dataset.Load()
	require.NoError(t, err)
	require.Len(t, before, 1)

	bad := writeBatchFile(t, env.dir, "bad.csv",
		"Lyon,Berlin,Grumes,not a mass,1 054 km,1 071 km,452 l,723 €,31.4 l/100km,87 km/h,45 230 €,0 €,Scania R,ID:AB-123-CD),38556,03/05/2026 14:10",
	)
	_, err = env.pipeline.Run(context.Background(), bad)
	require.Error(t, err)

	var fieldErr *domain.FieldError
	assert.ErrorAs(t, err, &fieldErr)

	after, err := env.dataset.Load()
	require.NoError(t, err)
	assert.Empty(t, cmp.Diff(before, after))
}

func TestRun_EmptyBatchPathOnlyRecomputes(t *testing.T) {
	env := newTestEnv(t, &fakeGeocoder{})
	batch := writeBatchFile(t, env.dir, "batch.csv",
		batchRow("Lyon", "Berlin", "03/05/2026 14:10"),
	)
	_, err := env.pipeline.Run(context.Background(), batch)
	require.NoError(t, err)

	result, err := env.pipeline.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1, result.Rows)
	assert.NotEmpty(t, result.Stats)
	assert.Len(t, result.Visits, 2)
	assert.Zero(t, env.geocoder.calls)
}

func TestRun_EmptyDatasetYieldsEmptyAggregates(t *testing.T) {
	env := newTestEnv(t, &fakeGeocoder{})

	result, err := env.pipeline.Run(context.Background(), "")
	require.NoError(t, err)
	assert.Zero(t, result.Rows)
	assert.Empty(t, result.Stats)
	assert.Empty(t, result.Visits)
}

func TestCheckReadiness(t *testing.T) {
	env := newTestEnv(t, &fakeGeocoder{})

	require.Error(t, env.pipeline.CheckReadiness(context.Background()))

	_, err := env.pipeline.Run(context.Background(), "")
	require.NoError(t, err)
	assert.NoError(t, env.pipeline.CheckReadiness(context.Background()))
}

func TestRun_NoGeocoderConfigured(t *testing.T) {
	dir := t.TempDir()
	cache := csvstore.NewCacheStore(filepath.Join(dir, "geoloc_cities.csv"))
	dataset := csvstore.NewDatasetStore(filepath.Join(dir, "consolidated.csv"), "")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	p := New(cache, dataset, csvstore.ReadBatch, nil, logger, observability.NewMetricsForTesting())

	batch := writeBatchFile(t, dir, "batch.csv",
		batchRow("Lyon", "Berlin", "03/05/2026 14:10"),
	)

	_, err := p.Run(context.Background(), batch)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no geocoder is configured")
}
