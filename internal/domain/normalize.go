package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// FieldError reports a batch field that failed normalization. The whole
// batch is rejected when any field fails; no partial rows are admitted.
type FieldError struct {
	Row    int // 1-based data row within the batch file
	Column string
	Value  string
	Err    error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("row %d: column %q: cannot parse %q: %v", e.Row, e.Column, e.Value, e.Err)
}

func (e *FieldError) Unwrap() error { return e.Err }

// NormalizeRow converts one raw batch row into a typed TripRecord. The row
// must have exactly len(BatchHeader) columns in export order. rowNum is the
// 1-based data row number, used only for error reporting.
func NormalizeRow(row []string, rowNum int) (TripRecord, error) {
	if len(row) != len(BatchHeader) {
		return TripRecord{}, fmt.Errorf("row %d: expected %d columns, got %d", rowNum, len(BatchHeader), len(row))
	}

	fail := func(col int, err error) (TripRecord, error) {
		return TripRecord{}, &FieldError{Row: rowNum, Column: BatchHeader[col], Value: row[col], Err: err}
	}

	rec := TripRecord{
		Origin:      strings.TrimSpace(row[ColOrigin]),
		Destination: strings.TrimSpace(row[ColDestination]),
		Cargo:       strings.TrimSpace(row[ColCargo]),
		Truck:       strings.TrimSpace(row[ColTruck]),
	}
	if rec.Origin == "" {
		return fail(ColOrigin, errors.New("empty city name"))
	}
	if rec.Destination == "" {
		return fail(ColDestination, errors.New("empty city name"))
	}

	var err error
	if rec.Mass, err = parseMassKg(row[ColMass]); err != nil {
		return fail(ColMass, err)
	}
	if rec.PlannedDistance, err = parseUnitInt(row[ColPlannedDistance]); err != nil {
		return fail(ColPlannedDistance, err)
	}
	if rec.AcceptedDistance, err = parseUnitInt(row[ColAcceptedDistance]); err != nil {
		return fail(ColAcceptedDistance, err)
	}
	if rec.Refueled, err = parseUnitInt(row[ColRefueled]); err != nil {
		return fail(ColRefueled, err)
	}
	if rec.FuelCost, err = parseUnitInt(row[ColFuelCost]); err != nil {
		return fail(ColFuelCost, err)
	}
	if rec.Consumption, err = parseConsumption(row[ColConsumption]); err != nil {
		return fail(ColConsumption, err)
	}
	if rec.TopSpeed, err = parseUnitInt(row[ColTopSpeed]); err != nil {
		return fail(ColTopSpeed, err)
	}
	if rec.Profit, err = parseCurrencyInt(row[ColProfit]); err != nil {
		return fail(ColProfit, err)
	}
	if rec.Fines, err = parseCurrencyInt(row[ColFines]); err != nil {
		return fail(ColFines, err)
	}
	if rec.Plate, err = extractPlate(row[ColPlate]); err != nil {
		return fail(ColPlate, err)
	}
	if rec.RealTimeSec, err = strconv.Atoi(strings.TrimSpace(row[ColRealTime])); err != nil {
		return fail(ColRealTime, err)
	}
	if rec.Date, err = time.Parse(DateLayout, strings.TrimSpace(row[ColDate])); err != nil {
		return fail(ColDate, err)
	}

	return rec, nil
}

// parseUnitInt parses a quantity with a trailing space-separated unit token,
// e.g. "1 234 km": the unit token is dropped and the remaining numeric
// groups are concatenated.
func parseUnitInt(s string) (int, error) {
	fields := strings.Fields(s)
	if len(fields) < 2 {
		return 0, errors.New(`expected "<number> <unit>"`)
	}
	return strconv.Atoi(strings.Join(fields[:len(fields)-1], ""))
}

// parseCurrencyInt parses a euro amount with spaced thousands, e.g.
// "45 678 €". The glyph may prefix or suffix the number.
func parseCurrencyInt(s string) (int, error) {
	s = strings.Trim(strings.TrimSpace(s), "€")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, errors.New("empty amount")
	}
	return strconv.Atoi(s)
}

// parseMassKg parses a cargo mass like "17 587 kg".
func parseMassKg(s string) (int, error) {
	s = strings.TrimSuffix(strings.TrimSpace(s), "kg")
	s = strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if s == "" {
		return 0, errors.New("empty mass")
	}
	return strconv.Atoi(s)
}

// parseConsumption parses "<number> l/100km", keeping only the leading token.
func parseConsumption(s string) (float64, error) {
	fields := strings.Fields(s)
	if len(fields) == 0 {
		return 0, errors.New("empty consumption")
	}
	return strconv.ParseFloat(fields[0], 64)
}

// extractPlate pulls the plate out of the composite export field
// "<prefix>:<plate>)", dropping the trailing parenthesis.
func extractPlate(s string) (string, error) {
	_, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(rest) < 2 {
		return "", errors.New(`expected "<prefix>:<plate>)"`)
	}
	return rest[:len(rest)-1], nil
}
