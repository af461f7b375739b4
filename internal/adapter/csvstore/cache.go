package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

// CacheHeader is the on-disk schema of the city coordinate cache.
var CacheHeader = []string{"City", "Latitude", "Longitude"}

// CacheStore persists the city coordinate cache as a CSV file. The file is
// read in full on every lookup and rewritten in full, atomically, on every
// update. The cache only ever grows.
type CacheStore struct {
	path string
}

// NewCacheStore creates a store backed by the CSV file at path.
func NewCacheStore(path string) *CacheStore {
	return &CacheStore{path: path}
}

// Load reads every cached city coordinate. A missing cache file is an empty
// cache, not an error.
func (s *CacheStore) Load() ([]domain.CityCoord, error) {
	f, err := os.Open(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open coordinate cache: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read coordinate cache %s: %w", s.path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := checkHeader(rows[0], CacheHeader); err != nil {
		return nil, fmt.Errorf("coordinate cache %s: %w", s.path, err)
	}

	coords := make([]domain.CityCoord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		lat, err := strconv.ParseFloat(row[1], 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate cache %s row %d: latitude %q: %w", s.path, i+1, row[1], err)
		}
		lon, err := strconv.ParseFloat(row[2], 64)
		if err != nil {
			return nil, fmt.Errorf("coordinate cache %s row %d: longitude %q: %w", s.path, i+1, row[2], err)
		}
		coords = append(coords, domain.CityCoord{City: row[0], Lat: lat, Lon: lon})
	}
	return coords, nil
}

// Save rewrites the full cache atomically. Callers append newly resolved
// cities to the loaded slice and pass the complete new state.
func (s *CacheStore) Save(coords []domain.CityCoord) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(CacheHeader); err != nil {
		return fmt.Errorf("write cache header: %w", err)
	}
	for _, c := range coords {
		row := []string{
			c.City,
			strconv.FormatFloat(c.Lat, 'f', -1, 64),
			strconv.FormatFloat(c.Lon, 'f', -1, 64),
		}
		if err := w.Write(row); err != nil {
			return fmt.Errorf("write cache row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush cache: %w", err)
	}
	return writeFileAtomic(s.path, buf.Bytes())
}
