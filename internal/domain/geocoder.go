package domain

import (
	"context"
	"errors"
)

// ErrCityNotFound is returned when the external geocoder has no match for a
// city inside the configured bounding box.
var ErrCityNotFound = errors.New("city not found")

// BoundingBox constrains geocoding queries to the expected coverage area.
// Coordinates are WGS-84 degrees.
type BoundingBox struct {
	MinLon float64
	MinLat float64
	MaxLon float64
	MaxLat float64
}

// Geocoder resolves a city name to coordinates.
type Geocoder interface {
	// Geocode returns the coordinates for city, or an error wrapping
	// ErrCityNotFound when the provider has no match.
	Geocode(ctx context.Context, city string) (CityCoord, error)
}
