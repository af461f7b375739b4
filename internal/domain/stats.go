package domain

import (
	"fmt"
	"math"
	"sort"
	"strconv"
)

const dateOnly = "02/01/2006"

// ComputeStats derives the summary statistics block from the accumulated
// dataset. The slice order is the display order. An empty dataset yields an
// empty result rather than an error; mode and max are undefined on nothing.
func ComputeStats(trips []EnrichedTrip) []Stat {
	if len(trips) == 0 {
		return nil
	}

	origins := make(map[string]int)
	dests := make(map[string]int)
	cargoes := make(map[string]int)
	trucks := make(map[string]int)
	plates := make(map[string]int)

	minDate, maxDate := trips[0].Date, trips[0].Date
	var totalMass, maxMass, totalPlanned, totalAccepted, maxSpeed int
	var totalProfit, totalFines, totalRealSec int
	var weightedConsumption float64

	for i := range trips {
		t := &trips[i]
		origins[t.Origin]++
		dests[t.Destination]++
		cargoes[t.Cargo]++
		trucks[t.Truck]++
		plates[t.Plate]++

		if t.Date.Before(minDate) {
			minDate = t.Date
		}
		if t.Date.After(maxDate) {
			maxDate = t.Date
		}
		totalMass += t.Mass
		if t.Mass > maxMass {
			maxMass = t.Mass
		}
		totalPlanned += t.PlannedDistance
		totalAccepted += t.AcceptedDistance
		if t.TopSpeed > maxSpeed {
			maxSpeed = t.TopSpeed
		}
		totalProfit += t.Profit
		totalFines += t.Fines
		totalRealSec += t.RealTimeSec
		weightedConsumption += t.Consumption * float64(t.AcceptedDistance)
	}

	topOrigin, topOriginCount := mode(origins)
	topDest, topDestCount := mode(dests)
	topVisited, topVisitedCount := mode(combineCounts(origins, dests))
	topCargo, topCargoCount := mode(cargoes)
	topTruck, topTruckCount := mode(trucks)
	topPlate, _ := mode(plates)

	stats := []Stat{
		{"Trips recorded", fmt.Sprintf("%d trips from %s to %s",
			len(trips), minDate.Format(dateOnly), maxDate.Format(dateOnly))},
		{"Most frequent origin", fmt.Sprintf("%s : %d", topOrigin, topOriginCount)},
		{"Most frequent destination", fmt.Sprintf("%s : %d", topDest, topDestCount)},
		{"Most visited city", fmt.Sprintf("%s : %d", topVisited, topVisitedCount)},
		{"Most frequent cargo", fmt.Sprintf("%s : %d trips", topCargo, topCargoCount)},
		{"Most used truck", fmt.Sprintf("%s %s : %d trips", topTruck, topPlate, topTruckCount)},
		{"Heaviest cargo", fmt.Sprintf("%d T", int(math.Round(float64(maxMass)/1000)))},
		{"Total mass transported", fmt.Sprintf("%d T", int(math.Round(float64(totalMass)/1000)))},
		{"Total planned distance", fmt.Sprintf("%d km", totalPlanned)},
		{"Total driven distance", fmt.Sprintf("%d km", totalAccepted)},
	}

	if totalAccepted > 0 {
		avg := weightedConsumption / float64(totalAccepted)
		stats = append(stats, Stat{"Average consumption", formatRound(avg, 1) + " l/100 km"})
	}

	stats = append(stats,
		Stat{"Top speed", fmt.Sprintf("%d km/h", maxSpeed)},
		Stat{"Total profit", formatRound(float64(totalProfit)/1e6, 2) + " M€"},
		Stat{"Total fines", formatRound(float64(totalFines)/1e3, 2) + " k€"},
	)

	// The export has carried the elapsed-time column only in recent game
	// versions; older sample data has zeros throughout.
	if totalRealSec > 0 {
		stats = append(stats, Stat{"Total time on the road", formatRound(float64(totalRealSec)/3600, 1) + " h"})
	}

	return stats
}

// CountVisits builds the visit aggregate: one entry per distinct
// (city, lat, lon) triple, counting every appearance as origin or
// destination. A round trip through the same city twice counts two visits.
// Sorted by city name for stable output.
func CountVisits(trips []EnrichedTrip) []CityVisits {
	counts := make(map[CityCoord]int)
	for i := range trips {
		counts[trips[i].From]++
		counts[trips[i].To]++
	}

	out := make([]CityVisits, 0, len(counts))
	for c, n := range counts {
		out = append(out, CityVisits{City: c.City, Lat: c.Lat, Lon: c.Lon, Visits: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].City != out[j].City {
			return out[i].City < out[j].City
		}
		if out[i].Lat != out[j].Lat {
			return out[i].Lat < out[j].Lat
		}
		return out[i].Lon < out[j].Lon
	})
	return out
}

// mode returns the most frequent value and its count. Ties resolve to the
// lexicographically smallest value so the result is deterministic.
func mode(counts map[string]int) (string, int) {
	var best string
	bestCount := -1
	for v, n := range counts {
		if n > bestCount || (n == bestCount && v < best) {
			best, bestCount = v, n
		}
	}
	if bestCount < 0 {
		return "", 0
	}
	return best, bestCount
}

func combineCounts(a, b map[string]int) map[string]int {
	out := make(map[string]int, len(a)+len(b))
	for v, n := range a {
		out[v] += n
	}
	for v, n := range b {
		out[v] += n
	}
	return out
}

// formatRound rounds v to the given number of decimal places and trims
// trailing zeros, so 2.50 renders as "2.5".
func formatRound(v float64, places int) string {
	shift := math.Pow(10, float64(places))
	return strconv.FormatFloat(math.Round(v*shift)/shift, 'f', -1, 64)
}
