// Command validate performs integrity checks over the durable stores: the
// city coordinate cache and the accumulated dataset. It verifies that the
// cache parses and is uniquely keyed, that every dataset row is fully
// enriched, that no duplicate rows survived merging, and that the cache
// covers every city the dataset references.
//
// Usage:
//
//	go run ./cmd/validate -cache data/geoloc_cities.csv -dataset data/consolidated.csv
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/couchcryptid/trip-log-etl/internal/adapter/csvstore"
	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	cachePath := flag.String("cache", "data/geoloc_cities.csv", "path to the coordinate cache CSV")
	datasetPath := flag.String("dataset", "data/consolidated.csv", "path to the accumulated dataset CSV")
	flag.Parse()

	os.Exit(run(*cachePath, *datasetPath))
}

func run(cachePath, datasetPath string) int {
	fmt.Println("=== Trip Data Integrity Validation ===")
	fmt.Println()

	coords, err := csvstore.NewCacheStore(cachePath).Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load coordinate cache: %v\n", err)
		return 1
	}

	trips, err := csvstore.NewDatasetStore(datasetPath, "").Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load dataset: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateCacheKeys(coords),
		validateEnrichment(trips),
		validateDeduplication(trips),
		validateCacheCoverage(coords, trips),
	}

	fmt.Printf("Records: %d cached cities, %d dataset rows\n\n", len(coords), len(trips))

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-38s %s\n", p.name, status)
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validateCacheKeys checks that the cache is uniquely keyed by city name and
// carries plausible coordinates.
func validateCacheKeys(coords []domain.CityCoord) *phase {
	p := &phase{name: "cache uniquely keyed"}
	seen := make(map[string]struct{}, len(coords))
	for i, c := range coords {
		if c.City == "" {
			p.errorf("row %d: empty city name", i+1)
			continue
		}
		if _, ok := seen[c.City]; ok {
			p.errorf("row %d: duplicate city %q", i+1, c.City)
		}
		seen[c.City] = struct{}{}
		if c.Lat < -90 || c.Lat > 90 || c.Lon < -180 || c.Lon > 180 {
			p.errorf("row %d: %q has out-of-range coordinates (%g, %g)", i+1, c.City, c.Lat, c.Lon)
		}
	}
	return p
}

// validateEnrichment checks that every dataset row carries complete origin
// and destination coordinates matching its city columns.
func validateEnrichment(trips []domain.EnrichedTrip) *phase {
	p := &phase{name: "dataset fully enriched"}
	for i := range trips {
		t := &trips[i]
		if t.From.City != t.Origin {
			p.errorf("row %d: origin %q joined against %q", i+1, t.Origin, t.From.City)
		}
		if t.To.City != t.Destination {
			p.errorf("row %d: destination %q joined against %q", i+1, t.Destination, t.To.City)
		}
		if t.From.Lat == 0 && t.From.Lon == 0 {
			p.errorf("row %d: origin %q has no coordinates", i+1, t.Origin)
		}
		if t.To.Lat == 0 && t.To.Lon == 0 {
			p.errorf("row %d: destination %q has no coordinates", i+1, t.Destination)
		}
	}
	return p
}

// validateDeduplication checks the merge invariant: no two rows identical
// across every column.
func validateDeduplication(trips []domain.EnrichedTrip) *phase {
	p := &phase{name: "dataset deduplicated"}
	seen := make(map[domain.EnrichedTrip]int, len(trips))
	for i := range trips {
		if first, ok := seen[trips[i]]; ok {
			p.errorf("row %d duplicates row %d (%s → %s, %s)",
				i+1, first, trips[i].Origin, trips[i].Destination, trips[i].Date.Format(domain.DateLayout))
			continue
		}
		seen[trips[i]] = i + 1
	}
	return p
}

// validateCacheCoverage checks that every city the dataset references is
// present in the cache.
func validateCacheCoverage(coords []domain.CityCoord, trips []domain.EnrichedTrip) *phase {
	p := &phase{name: "cache covers dataset cities"}
	known := make(map[string]struct{}, len(coords))
	for _, c := range coords {
		known[c.City] = struct{}{}
	}
	reported := make(map[string]struct{})
	for i := range trips {
		for _, city := range []string{trips[i].Origin, trips[i].Destination} {
			if _, ok := known[city]; ok {
				continue
			}
			if _, ok := reported[city]; ok {
				continue
			}
			reported[city] = struct{}{}
			p.errorf("city %q referenced by the dataset but missing from the cache", city)
		}
	}
	return p
}
