package domain

import "time"

// DateLayout is the timestamp format used by the game's trip log export.
const DateLayout = "02/01/2006 15:04"

// Batch column positions, in export order. ColDate is the fixed index of the
// date/time column within a raw batch row.
const (
	ColOrigin = iota
	ColDestination
	ColCargo
	ColMass
	ColPlannedDistance
	ColAcceptedDistance
	ColRefueled
	ColFuelCost
	ColConsumption
	ColTopSpeed
	ColProfit
	ColFines
	ColTruck
	ColPlate
	ColRealTime
	ColDate
)

// BatchHeader lists the batch CSV headers in export order. Headers are the
// game's French locale strings and are matched verbatim.
var BatchHeader = []string{
	ColOrigin:           "Depuis",
	ColDestination:      "Vers",
	ColCargo:            "Chargement",
	ColMass:             "Masse",
	ColPlannedDistance:  "Distance planifiée",
	ColAcceptedDistance: "Distance acceptée",
	ColRefueled:         "Ravitaillé",
	ColFuelCost:         "Coût du carburant",
	ColConsumption:      "Consommation moyenne",
	ColTopSpeed:         "Vitesse maximale atteinte",
	ColProfit:           "Bénéfice",
	ColFines:            "Amendes",
	ColTruck:            "Camion",
	ColPlate:            "Plaque d'immatriculation du camion",
	ColRealTime:         "Temps pris (réel) [s]",
	ColDate:             "Date",
}

// TripRecord is one completed delivery with every quantity field already
// normalized to its numeric type.
type TripRecord struct {
	Origin           string
	Destination      string
	Cargo            string
	Mass             int // kg
	PlannedDistance  int // km
	AcceptedDistance int // km
	Refueled         int // liters
	FuelCost         int // euros
	Consumption      float64 // l/100km
	TopSpeed         int // km/h
	Profit           int // euros
	Fines            int // euros
	Truck            string
	Plate            string
	RealTimeSec      int // wall-clock seconds spent on the trip
	Date             time.Time
}

// CityCoord maps a city name to its WGS-84 coordinates. Uniquely keyed by
// city name; coordinates never change once resolved.
type CityCoord struct {
	City string
	Lat  float64
	Lon  float64
}

// EnrichedTrip is a trip record joined with the resolved coordinates of its
// origin and destination. Rows of the accumulated dataset have this shape.
type EnrichedTrip struct {
	TripRecord
	From CityCoord
	To   CityCoord
}

// CityVisits counts how often a city appears as an origin or destination
// across the accumulated dataset. Derived on every query, never persisted.
type CityVisits struct {
	City   string  `json:"city"`
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Visits int     `json:"visits"`
}

// Stat is one labelled, human-readable summary statistic. Statistics are
// returned as an ordered slice so callers render them in a stable order.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}
