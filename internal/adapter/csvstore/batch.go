package csvstore

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

// ReadBatch reads a raw trip log export and normalizes every row. Any
// malformed field rejects the whole batch; the returned error names the
// offending row and column.
func ReadBatch(path string) ([]domain.TripRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open batch: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read batch %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("batch %s: empty file", path)
	}
	if err := checkHeader(rows[0], domain.BatchHeader); err != nil {
		return nil, fmt.Errorf("batch %s: %w", path, err)
	}

	trips := make([]domain.TripRecord, 0, len(rows)-1)
	for i, row := range rows[1:] {
		rec, err := domain.NormalizeRow(row, i+1)
		if err != nil {
			return nil, fmt.Errorf("batch %s: %w", path, err)
		}
		trips = append(trips, rec)
	}
	return trips, nil
}

func checkHeader(got, want []string) error {
	if len(got) != len(want) {
		return fmt.Errorf("header has %d columns, expected %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return fmt.Errorf("header column %d is %q, expected %q", i, got[i], want[i])
		}
	}
	return nil
}
