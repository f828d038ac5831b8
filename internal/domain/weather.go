package domain

import (
	"fmt"
	"time"
)

// WeatherRecord is one civil day of weather in canonical units. See the
// package documentation for the unit table.
type WeatherRecord struct {
	Date time.Time `json:"date"` // midnight UTC

	TempMean float64 `json:"temp_mean"` // °C
	TempMin  float64 `json:"temp_min"`  // °C
	TempMax  float64 `json:"temp_max"`  // °C

	RadiationSW float64 `json:"radiation_sw"` // W/m²
	RadiationLW float64 `json:"radiation_lw"` // W/m²

	RelHumidity   float64 `json:"rel_humidity"`  // %
	Precipitation float64 `json:"precipitation"` // mm/day
	WindSpeed     float64 `json:"wind_speed"`    // m/s
}

// WeatherSeries is a gapless daily series plus provenance metadata.
// MissingDays counts the days that were absent or marked missing in the raw
// source and have since been gap-filled; the records themselves are complete.
type WeatherSeries struct {
	Provider    string  `json:"provider"`
	Description string  `json:"description"`
	Lon         float64 `json:"lon"`
	Lat         float64 `json:"lat"`
	Elevation   float64 `json:"elevation"`

	First       time.Time `json:"first"`
	Last        time.Time `json:"last"`
	MissingDays int       `json:"missing_days"`

	Records []WeatherRecord `json:"records"`
}

// CivilDay truncates a time to its calendar day at midnight UTC.
func CivilDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Covers reports whether the series' declared range spans [first, last].
func (s WeatherSeries) Covers(first, last time.Time) bool {
	first, last = CivilDay(first), CivilDay(last)
	return !s.First.After(first) && !s.Last.Before(last)
}

// Validate checks the series invariants: non-empty, exactly one record per
// calendar day in order, and declared range matching the actual records.
func (s WeatherSeries) Validate() error {
	if len(s.Records) == 0 {
		return fmt.Errorf("weather series %q has no records", s.Provider)
	}

	if !s.First.Equal(s.Records[0].Date) || !s.Last.Equal(s.Records[len(s.Records)-1].Date) {
		return fmt.Errorf("weather series %q declares range %s..%s but records span %s..%s",
			s.Provider,
			s.First.Format(time.DateOnly), s.Last.Format(time.DateOnly),
			s.Records[0].Date.Format(time.DateOnly), s.Records[len(s.Records)-1].Date.Format(time.DateOnly))
	}

	for i := 1; i < len(s.Records); i++ {
		prev, cur := s.Records[i-1].Date, s.Records[i].Date
		if !cur.Equal(prev.AddDate(0, 0, 1)) {
			return fmt.Errorf("weather series %q is not gapless at %s -> %s",
				s.Provider, prev.Format(time.DateOnly), cur.Format(time.DateOnly))
		}
	}
	return nil
}
