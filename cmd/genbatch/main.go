// Command genbatch generates a synthetic trip log export in the game's raw
// locale formatting, for exercising the pipeline without a real save game.
// Every generated row is pushed through the actual normalizer so the fixture
// is guaranteed to parse the way real exports do.
//
// Usage:
//
//	go run ./cmd/genbatch -out testdata/batch.csv -rows 50 -seed 1
//	go run ./cmd/genbatch -out batch.csv -cache-out geoloc_cities.csv
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"strconv"
	"time"

	"github.com/couchcryptid/trip-log-etl/internal/domain"
)

var baseDate = time.Date(2026, time.August, 1, 8, 0, 0, 0, time.UTC)

// city coordinates are approximate, good enough for plotting fixtures.
var cities = []domain.CityCoord{
	{City: "Berlin", Lat: 52.5200, Lon: 13.4050},
	{City: "Bruxelles", Lat: 50.8467, Lon: 4.3525},
	{City: "Genève", Lat: 46.2044, Lon: 6.1432},
	{City: "Luxembourg", Lat: 49.6117, Lon: 6.1319},
	{City: "Lyon", Lat: 45.7640, Lon: 4.8357},
	{City: "Milano", Lat: 45.4642, Lon: 9.1900},
	{City: "Paris", Lat: 48.8566, Lon: 2.3522},
	{City: "Praha", Lat: 50.0755, Lon: 14.4378},
	{City: "Rotterdam", Lat: 51.9244, Lon: 4.4777},
	{City: "Warszawa", Lat: 52.2297, Lon: 21.0122},
}

var cargoes = []string{"Grumes", "Tracteurs", "Verre", "Carburant", "Pièces automobiles", "Produits surgelés"}

var trucks = []struct {
	name  string
	plate string
}{
	{"Scania R", "AB-123-CD"},
	{"Volvo FH16", "EF-456-GH"},
	{"DAF XF", "IJ-789-KL"},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the raw batch CSV")
	cacheOut := flag.String("cache-out", "", "optional output path for a matching coordinate cache CSV")
	rows := flag.Int("rows", 25, "number of trips to generate")
	seed := flag.Int64("seed", 1, "RNG seed")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	rng := rand.New(rand.NewSource(*seed))

	records := make([][]string, 0, *rows)
	for i := 0; i < *rows; i++ {
		row := generateRow(rng, i)
		// Round-trip through the real normalizer so the fixture always
		// matches actual pipeline behavior.
		if _, err := domain.NormalizeRow(row, i+1); err != nil {
			return fmt.Errorf("generated row does not normalize: %w", err)
		}
		records = append(records, row)
	}

	if err := writeCSV(*out, domain.BatchHeader, records); err != nil {
		return fmt.Errorf("writing batch: %w", err)
	}
	log.Printf("wrote %d trips: %s", len(records), *out)

	if *cacheOut != "" {
		cacheRows := make([][]string, 0, len(cities))
		for _, c := range cities {
			cacheRows = append(cacheRows, []string{
				c.City,
				strconv.FormatFloat(c.Lat, 'f', -1, 64),
				strconv.FormatFloat(c.Lon, 'f', -1, 64),
			})
		}
		if err := writeCSV(*cacheOut, []string{"City", "Latitude", "Longitude"}, cacheRows); err != nil {
			return fmt.Errorf("writing cache: %w", err)
		}
		log.Printf("wrote %d cities: %s", len(cacheRows), *cacheOut)
	}

	return nil
}

func generateRow(rng *rand.Rand, i int) []string {
	from := cities[rng.Intn(len(cities))]
	to := cities[rng.Intn(len(cities))]
	for to.City == from.City {
		to = cities[rng.Intn(len(cities))]
	}
	truck := trucks[rng.Intn(len(trucks))]

	planned := 200 + rng.Intn(1800)
	accepted := planned + rng.Intn(100) - 30
	mass := 5000 + rng.Intn(20000)
	refueled := 100 + rng.Intn(700)
	fuelCost := refueled + rng.Intn(800)
	consumption := 25.0 + rng.Float64()*15
	topSpeed := 70 + rng.Intn(25)
	profit := 10000 + rng.Intn(90000)
	fines := rng.Intn(3) * (100 + rng.Intn(900))
	realTime := accepted*35 + rng.Intn(600)
	date := baseDate.Add(time.Duration(i) * 7 * time.Hour)

	row := make([]string, len(domain.BatchHeader))
	row[domain.ColOrigin] = from.City
	row[domain.ColDestination] = to.City
	row[domain.ColCargo] = cargoes[rng.Intn(len(cargoes))]
	row[domain.ColMass] = groupDigits(mass) + " kg"
	row[domain.ColPlannedDistance] = groupDigits(planned) + " km"
	row[domain.ColAcceptedDistance] = groupDigits(accepted) + " km"
	row[domain.ColRefueled] = groupDigits(refueled) + " l"
	row[domain.ColFuelCost] = groupDigits(fuelCost) + " €"
	row[domain.ColConsumption] = fmt.Sprintf("%.1f l/100km", consumption)
	row[domain.ColTopSpeed] = groupDigits(topSpeed) + " km/h"
	row[domain.ColProfit] = groupDigits(profit) + " €"
	row[domain.ColFines] = groupDigits(fines) + " €"
	row[domain.ColTruck] = truck.name
	row[domain.ColPlate] = "ID:" + truck.plate + ")"
	row[domain.ColRealTime] = strconv.Itoa(realTime)
	row[domain.ColDate] = date.Format(domain.DateLayout)
	return row
}

// groupDigits renders n with the export's space-separated thousands,
// e.g. 17587 → "17 587".
func groupDigits(n int) string {
	s := strconv.Itoa(n)
	if n < 0 {
		return "-" + groupDigits(-n)
	}
	var out []byte
	for i, d := range []byte(s) {
		if i > 0 && (len(s)-i)%3 == 0 {
			out = append(out, ' ')
		}
		out = append(out, d)
	}
	return string(out)
}

func writeCSV(path string, header []string, rows [][]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}
