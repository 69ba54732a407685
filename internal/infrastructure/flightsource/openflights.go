package flightsource

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Наборы данных в формате OpenFlights: CSV без заголовка, "\N" означает NULL
const (
	aircraftDataset = "planes.dat"
	airlineDataset  = "airlines.dat"
	airportDataset  = "airports.dat"

	planesColumns   = 3
	airlinesColumns = 8
	airportsColumns = 12 // минимально необходимые, в наборе их 14
)

var errMalformedDataset = errors.New("malformed dataset")

func readDataset(r io.Reader, minColumns int, row func(fields []string)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.ReuseRecord = true

	line := 0
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		line++
		if err != nil {
			return fmt.Errorf("%w: line %d: %v", errMalformedDataset, line, err)
		}
		if len(fields) < minColumns {
			return fmt.Errorf("%w: line %d: expected at least %d columns, got %d",
				errMalformedDataset, line, minColumns, len(fields))
		}
		row(fields)
	}
}

func parseAircrafts(r io.Reader) ([]AircraftRecord, error) {
	var records []AircraftRecord
	err := readDataset(r, planesColumns, func(f []string) {
		records = append(records, AircraftRecord{
			Name: text(f[0]),
			IATA: text(f[1]),
			ICAO: text(f[2]),
		})
	})
	return records, err
}

// airlines.dat: id, name, alias, iata, icao, callsign, country, active
func parseAirlines(r io.Reader) ([]AirlineRecord, error) {
	var records []AirlineRecord
	err := readDataset(r, airlinesColumns, func(f []string) {
		records = append(records, AirlineRecord{
			Name:     text(f[1]),
			Alias:    text(f[2]),
			IATA:     text(f[3]),
			ICAO:     text(f[4]),
			Callsign: text(f[5]),
			Country:  text(f[6]),
			Active:   strings.EqualFold(text(f[7]), "Y"),
		})
	})
	return records, err
}

// airports.dat: id, name, city, country, iata, icao, lat, lon, altitude, timezone, dst, tz, ...
func parseAirports(r io.Reader) ([]AirportRecord, error) {
	var records []AirportRecord
	err := readDataset(r, airportsColumns, func(f []string) {
		records = append(records, AirportRecord{
			Name:      text(f[1]),
			City:      text(f[2]),
			Country:   text(f[3]),
			IATA:      text(f[4]),
			ICAO:      text(f[5]),
			Latitude:  number(f[6], math.NaN()),
			Longitude: number(f[7], math.NaN()),
			UTCOffset: number(f[9], 0),
		})
	})
	return records, err
}

func text(s string) string {
	s = strings.TrimSpace(s)
	if s == `\N` {
		return ""
	}
	return s
}

// number разбирает число; NULL дает fallback, мусор - NaN (запись не пройдет валидацию)
func number(s string, fallback float64) float64 {
	s = text(s)
	if s == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
