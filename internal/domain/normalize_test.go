package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// validRow returns a well-formed raw batch row in export order.
func validRow() []string {
	row := make([]string, len(BatchHeader))
	row[ColOrigin] = "Lyon"
	row[ColDestination] = "Berlin"
	row[ColCargo] = "Grumes"
	row[ColMass] = "17 587 kg"
	row[ColPlannedDistance] = "1 234 km"
	row[ColAcceptedDistance] = "1 250 km"
	row[ColRefueled] = "452 l"
	row[ColFuelCost] = "723 €"
	row[ColConsumption] = "12.3 l/100km"
	row[ColTopSpeed] = "87 km/h"
	row[ColProfit] = "45 678 €"
	row[ColFines] = "0 €"
	row[ColTruck] = "Scania R"
	row[ColPlate] = "ID:AB-123-CD)"
	row[ColRealTime] = "38556"
	row[ColDate] = "03/05/2026 14:10"
	return row
}

func TestNormalizeRow(t *testing.T) {
	rec, err := NormalizeRow(validRow(), 1)
	require.NoError(t, err)

	assert.Equal(t, "Lyon", rec.Origin)
	assert.Equal(t, "Berlin", rec.Destination)
	assert.Equal(t, "Grumes", rec.Cargo)
	assert.Equal(t, 17587, rec.Mass)
	assert.Equal(t, 1234, rec.PlannedDistance)
	assert.Equal(t, 1250, rec.AcceptedDistance)
	assert.Equal(t, 452, rec.Refueled)
	assert.Equal(t, 723, rec.FuelCost)
	assert.Equal(t, 12.3, rec.Consumption)
	assert.Equal(t, 87, rec.TopSpeed)
	assert.Equal(t, 45678, rec.Profit)
	assert.Equal(t, 0, rec.Fines)
	assert.Equal(t, "Scania R", rec.Truck)
	assert.Equal(t, "AB-123-CD", rec.Plate)
	assert.Equal(t, 38556, rec.RealTimeSec)
	assert.Equal(t, time.Date(2026, 5, 3, 14, 10, 0, 0, time.UTC), rec.Date)
}

func TestNormalizeRow_FieldErrors(t *testing.T) {
	tests := []struct {
		name   string
		col    int
		value  string
		column string
	}{
		{"mass without digits", ColMass, "heavy kg", "Masse"},
		{"distance without unit", ColPlannedDistance, "1234", "Distance planifiée"},
		{"garbled currency", ColProfit, "lots of €", "Bénéfice"},
		{"consumption not numeric", ColConsumption, "n/a l/100km", "Consommation moyenne"},
		{"plate without colon", ColPlate, "AB-123-CD)", "Plaque d'immatriculation du camion"},
		{"bad date", ColDate, "2026-05-03", "Date"},
		{"empty origin", ColOrigin, "  ", "Depuis"},
		{"real time not integer", ColRealTime, "4h", "Temps pris (réel) [s]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := validRow()
			row[tt.col] = tt.value

			_, err := NormalizeRow(row, 7)
			require.Error(t, err)

			var fieldErr *FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.column, fieldErr.Column)
			assert.Equal(t, 7, fieldErr.Row)
			assert.Contains(t, err.Error(), tt.column)
		})
	}
}

func TestNormalizeRow_WrongColumnCount(t *testing.T) {
	_, err := NormalizeRow(validRow()[:5], 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected 16 columns")
}

func TestParseUnitInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"1 234 km", 1234, false},
		{"52 km", 52, false},
		{"1 234 567 km", 1234567, false},
		{"87 km/h", 87, false},
		{"1234", 0, true},
		{"", 0, true},
		{"km", 0, true},
	}
	for _, tt := range tests {
		got, err := parseUnitInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseCurrencyInt(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"45 678 €", 45678, false},
		{"€45 678", 45678, false},
		{"0 €", 0, false},
		{"-12 345 €", -12345, false},
		{"€", 0, true},
		{"abc €", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCurrencyInt(tt.in)
		if tt.wantErr {
			assert.Error(t, err, "input %q", tt.in)
			continue
		}
		require.NoError(t, err, "input %q", tt.in)
		assert.Equal(t, tt.want, got, "input %q", tt.in)
	}
}

func TestParseMassKg(t *testing.T) {
	got, err := parseMassKg("17 587 kg")
	require.NoError(t, err)
	assert.Equal(t, 17587, got)

	_, err = parseMassKg(" kg")
	assert.Error(t, err)
}

func TestParseConsumption(t *testing.T) {
	got, err := parseConsumption("12.3 l/100km")
	require.NoError(t, err)
	assert.Equal(t, 12.3, got)

	_, err = parseConsumption("")
	assert.Error(t, err)
}

func TestExtractPlate(t *testing.T) {
	got, err := extractPlate("ID:AB-123-CD)")
	require.NoError(t, err)
	assert.Equal(t, "AB-123-CD", got)

	_, err = extractPlate("AB-123-CD")
	assert.Error(t, err)

	_, err = extractPlate("ID:)")
	assert.Error(t, err)
}

func TestFieldError_Unwrap(t *testing.T) {
	inner := errors.New("boom")
	err := &FieldError{Row: 1, Column: "Masse", Value: "x", Err: inner}
	assert.ErrorIs(t, err, inner)
}
