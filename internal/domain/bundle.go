package domain

import (
	"fmt"
	"time"
)

// Period is a closed interval of calendar days to simulate over.
type Period struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Validate checks the period is non-zero and ordered.
func (p Period) Validate() error {
	if p.Start.IsZero() || p.End.IsZero() {
		return fmt.Errorf("simulation period has a zero bound")
	}
	if p.End.Before(p.Start) {
		return fmt.Errorf("simulation period ends (%s) before it starts (%s)",
			p.End.Format(time.DateOnly), p.Start.Format(time.DateOnly))
	}
	return nil
}

// Days returns the number of calendar days in the period, inclusive.
func (p Period) Days() int {
	return int(CivilDay(p.End).Sub(CivilDay(p.Start))/(24*time.Hour)) + 1
}

// CropCalendar names the crop campaign handed to the engine. Crop physiology
// lives on the engine side; this is parameter passing only.
type CropCalendar struct {
	Crop         string    `json:"crop"`
	Variety      string    `json:"variety"`
	CampaignYear int       `json:"campaign_year"`
	SowingDate   time.Time `json:"sowing_date"`
}

// SiteConstants are the fixed site inputs the engine expects alongside soil
// and weather.
type SiteConstants struct {
	WAV          float64 `json:"wav"`            // initial available water, cm
	CO2          float64 `json:"co2"`            // ambient CO₂, ppm
	NAvailI      float64 `json:"n_avail_i"`      // initial available N, kg/ha
	PAvailI      float64 `json:"p_avail_i"`      // initial available P, kg/ha
	KAvailI      float64 `json:"k_avail_i"`      // initial available K, kg/ha
	SoilTempInit float64 `json:"soil_temp_init"` // initial soil temperature, °C
}

// DefaultSite returns the standard UK site constants.
func DefaultSite() SiteConstants {
	return SiteConstants{
		WAV:          100,
		CO2:          360,
		NAvailI:      80,
		PAvailI:      10,
		KAvailI:      20,
		SoilTempInit: 5.0,
	}
}

// InputBundle is the complete, validated input set for one simulation run.
// It composes (by value, not reference) one Location, one WeatherSeries and
// one SoilParameters, and is never mutated after Validate passes.
type InputBundle struct {
	Location Location       `json:"location"`
	Weather  WeatherSeries  `json:"weather"`
	Soil     SoilParameters `json:"soil"`
	Site     SiteConstants  `json:"site"`
	Period   Period         `json:"period"`
	Calendar CropCalendar   `json:"calendar"`
}

// Validate checks mutual consistency: weather and soil must describe the
// bundled location, the weather series must be intact and span the period,
// and the soil set must be complete.
func (b InputBundle) Validate() error {
	if b.Location.GridRef == "" {
		return fmt.Errorf("bundle has an unresolved location")
	}
	if err := b.Period.Validate(); err != nil {
		return err
	}
	if err := b.Weather.Validate(); err != nil {
		return err
	}
	if err := b.Soil.Validate(); err != nil {
		return err
	}
	if b.Soil.GridRef != b.Location.GridRef {
		return fmt.Errorf("soil resolved for %s but location is %s", b.Soil.GridRef, b.Location.GridRef)
	}
	if !b.Weather.Covers(b.Period.Start, b.Period.End) {
		return fmt.Errorf("%w: weather covers %s..%s, period is %s..%s",
			ErrIncompleteInputs,
			b.Weather.First.Format(time.DateOnly), b.Weather.Last.Format(time.DateOnly),
			b.Period.Start.Format(time.DateOnly), b.Period.End.Format(time.DateOnly))
	}
	return nil
}

// ResultRow is one simulated day reported by the engine.
type ResultRow struct {
	Day  time.Time `json:"day"`
	DVS  float64   `json:"dvs"`  // development stage
	LAI  float64   `json:"lai"`  // leaf area index
	TAGP float64   `json:"tagp"` // total above-ground production, kg/ha
	TWSO float64   `json:"twso"` // storage organ weight, kg/ha
	SM   float64   `json:"sm"`   // root-zone soil moisture, cm³/cm³
}

// SimulationResult is the engine's output, opaque to this service beyond
// these field names.
type SimulationResult struct {
	RunID       string      `json:"run_id"`
	GridRef     string      `json:"grid_ref"`
	Crop        string      `json:"crop"`
	Yield       float64     `json:"yield"` // final TWSO, kg/ha
	Rows        []ResultRow `json:"rows"`
	CompletedAt time.Time   `json:"completed_at"`
}
