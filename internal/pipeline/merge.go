package pipeline

import (
	"fmt"
	"sort"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

func indexByCity(coords []domain.CityCoord) map[string]domain.CityCoord {
	index := make(map[string]domain.CityCoord, len(coords))
	for _, c := range coords {
		index[c.City] = c
	}
	return index
}

// missingCities returns the batch's unique origin and destination cities
// absent from the cache, sorted for a deterministic resolution order.
func missingCities(batch []domain.TripRecord, known map[string]domain.CityCoord) []string {
	seen := make(map[string]struct{})
	var missing []string
	add := func(city string) {
		if _, ok := known[city]; ok {
			return
		}
		if _, ok := seen[city]; ok {
			return
		}
		seen[city] = struct{}{}
		missing = append(missing, city)
	}
	for i := range batch {
		add(batch[i].Origin)
		add(batch[i].Destination)
	}
	sort.Strings(missing)
	return missing
}

// countCities counts the unique cities referenced by a batch.
func countCities(batch []domain.TripRecord) int {
	seen := make(map[string]struct{}, len(batch)*2)
	for i := range batch {
		seen[batch[i].Origin] = struct{}{}
		seen[batch[i].Destination] = struct{}{}
	}
	return len(seen)
}

// joinCoordinates joins each trip against the coordinate index on origin and
// destination. A city still absent after resolution is an enrichment
// failure; no partially enriched row is produced.
func joinCoordinates(batch []domain.TripRecord, index map[string]domain.CityCoord) ([]domain.EnrichedTrip, error) {
	enriched := make([]domain.EnrichedTrip, 0, len(batch))
	for i := range batch {
		from, ok := index[batch[i].Origin]
		if !ok {
			return nil, fmt.Errorf("enrich row %d: origin %q missing from coordinate cache: %w", i+1, batch[i].Origin, domain.ErrCityNotFound)
		}
		to, ok := index[batch[i].Destination]
		if !ok {
			return nil, fmt.Errorf("enrich row %d: destination %q missing from coordinate cache: %w", i+1, batch[i].Destination, domain.ErrCityNotFound)
		}
		enriched = append(enriched, domain.EnrichedTrip{TripRecord: batch[i], From: from, To: to})
	}
	return enriched, nil
}

// mergeTrips appends the enriched batch after the existing dataset and
// collapses rows identical across every column, keeping the first
// occurrence. Re-uploading an already ingested file is therefore a no-op.
func mergeTrips(existing, batch []domain.EnrichedTrip) ([]domain.EnrichedTrip, int) {
	merged := make([]domain.EnrichedTrip, 0, len(existing)+len(batch))
	seen := make(map[domain.EnrichedTrip]struct{}, len(existing)+len(batch))
	duplicates := 0

	for _, rows := range [][]domain.EnrichedTrip{existing, batch} {
		for _, t := range rows {
			if _, ok := seen[t]; ok {
				duplicates++
				continue
			}
			seen[t] = struct{}{}
			merged = append(merged, t)
		}
	}
	return merged, duplicates
}
