package csvstore

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

// DatasetHeader is the on-disk schema of the accumulated dataset: the batch
// columns followed by the origin- and destination-qualified coordinate
// columns produced by the merge join.
var DatasetHeader = append(append([]string{}, domain.BatchHeader...),
	"City_from", "Latitude_from", "Longitude_from",
	"City_to", "Latitude_to", "Longitude_to",
)

// DatasetStore persists the accumulated dataset as a CSV file. Loads fall
// back to a bundled sample dataset while no accumulated dataset exists yet;
// writes always replace the whole file atomically so the on-disk state is a
// complete snapshot.
type DatasetStore struct {
	path       string
	samplePath string
}

// NewDatasetStore creates a store backed by path, falling back to the sample
// dataset at samplePath when path does not exist.
func NewDatasetStore(path, samplePath string) *DatasetStore {
	return &DatasetStore{path: path, samplePath: samplePath}
}

// Load reads the accumulated dataset, or the bundled sample when none has
// been written yet. When neither file exists the dataset is empty.
func (s *DatasetStore) Load() ([]domain.EnrichedTrip, error) {
	trips, err := readDataset(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		trips, err = readDataset(s.samplePath)
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
	}
	return trips, err
}

// Replace overwrites the accumulated dataset with the complete new state.
func (s *DatasetStore) Replace(trips []domain.EnrichedTrip) error {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(DatasetHeader); err != nil {
		return fmt.Errorf("write dataset header: %w", err)
	}
	for i := range trips {
		if err := w.Write(marshalTrip(&trips[i])); err != nil {
			return fmt.Errorf("write dataset row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return fmt.Errorf("flush dataset: %w", err)
	}
	return writeFileAtomic(s.path, buf.Bytes())
}

func readDataset(path string) ([]domain.EnrichedTrip, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read dataset %s: %w", path, err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	if err := checkHeader(rows[0], DatasetHeader); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	trips := make([]domain.EnrichedTrip, 0, len(rows)-1)
	for i, row := range rows[1:] {
		t, err := unmarshalTrip(row)
		if err != nil {
			return nil, fmt.Errorf("dataset %s row %d: %w", path, i+1, err)
		}
		trips = append(trips, t)
	}
	return trips, nil
}

func marshalTrip(t *domain.EnrichedTrip) []string {
	row := make([]string, len(DatasetHeader))
	row[domain.ColOrigin] = t.Origin
	row[domain.ColDestination] = t.Destination
	row[domain.ColCargo] = t.Cargo
	row[domain.ColMass] = strconv.Itoa(t.Mass)
	row[domain.ColPlannedDistance] = strconv.Itoa(t.PlannedDistance)
	row[domain.ColAcceptedDistance] = strconv.Itoa(t.AcceptedDistance)
	row[domain.ColRefueled] = strconv.Itoa(t.Refueled)
	row[domain.ColFuelCost] = strconv.Itoa(t.FuelCost)
	row[domain.ColConsumption] = strconv.FormatFloat(t.Consumption, 'f', -1, 64)
	row[domain.ColTopSpeed] = strconv.Itoa(t.TopSpeed)
	row[domain.ColProfit] = strconv.Itoa(t.Profit)
	row[domain.ColFines] = strconv.Itoa(t.Fines)
	row[domain.ColTruck] = t.Truck
	row[domain.ColPlate] = t.Plate
	row[domain.ColRealTime] = strconv.Itoa(t.RealTimeSec)
	row[domain.ColDate] = t.Date.Format(domain.DateLayout)

	n := len(domain.BatchHeader)
	row[n] = t.From.City
	row[n+1] = strconv.FormatFloat(t.From.Lat, 'f', -1, 64)
	row[n+2] = strconv.FormatFloat(t.From.Lon, 'f', -1, 64)
	row[n+3] = t.To.City
	row[n+4] = strconv.FormatFloat(t.To.Lat, 'f', -1, 64)
	row[n+5] = strconv.FormatFloat(t.To.Lon, 'f', -1, 64)
	return row
}

func unmarshalTrip(row []string) (domain.EnrichedTrip, error) {
	var t domain.EnrichedTrip
	var err error

	t.Origin = row[domain.ColOrigin]
	t.Destination = row[domain.ColDestination]
	t.Cargo = row[domain.ColCargo]
	t.Truck = row[domain.ColTruck]
	t.Plate = row[domain.ColPlate]

	ints := []struct {
		dst *int
		col int
	}{
		{&t.Mass, domain.ColMass},
		{&t.PlannedDistance, domain.ColPlannedDistance},
		{&t.AcceptedDistance, domain.ColAcceptedDistance},
		{&t.Refueled, domain.ColRefueled},
		{&t.FuelCost, domain.ColFuelCost},
		{&t.TopSpeed, domain.ColTopSpeed},
		{&t.Profit, domain.ColProfit},
		{&t.Fines, domain.ColFines},
		{&t.RealTimeSec, domain.ColRealTime},
	}
	for _, f := range ints {
		if *f.dst, err = strconv.Atoi(strings.TrimSpace(row[f.col])); err != nil {
			return domain.EnrichedTrip{}, fmt.Errorf("column %q: %w", DatasetHeader[f.col], err)
		}
	}

	if t.Consumption, err = strconv.ParseFloat(row[domain.ColConsumption], 64); err != nil {
		return domain.EnrichedTrip{}, fmt.Errorf("column %q: %w", DatasetHeader[domain.ColConsumption], err)
	}
	if t.Date, err = time.Parse(domain.DateLayout, row[domain.ColDate]); err != nil {
		return domain.EnrichedTrip{}, fmt.Errorf("column %q: %w", DatasetHeader[domain.ColDate], err)
	}

	n := len(domain.BatchHeader)
	t.From.City = row[n]
	t.To.City = row[n+3]
	coords := []struct {
		dst *float64
		col int
	}{
		{&t.From.Lat, n + 1},
		{&t.From.Lon, n + 2},
		{&t.To.Lat, n + 4},
		{&t.To.Lon, n + 5},
	}
	for _, f := range coords {
		if *f.dst, err = strconv.ParseFloat(row[f.col], 64); err != nil {
			return domain.EnrichedTrip{}, fmt.Errorf("column %q: %w", DatasetHeader[f.col], err)
		}
	}

	return t, nil
}
