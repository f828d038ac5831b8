package weather

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// PowerFetcher retrieves the NASA POWER daily point archive for a
// coordinate. Implemented by adapter/power.Client; faked in tests.
type PowerFetcher interface {
	Fetch(ctx context.Context, lat, lon float64, start, end time.Time) (PowerResult, error)
}

// PowerResult is the decoded POWER response: site metadata plus one entry
// per archive day, still in POWER units.
type PowerResult struct {
	Lat       float64
	Lon       float64
	Elevation float64
	Days      []PowerDay
}

// PowerDay carries the POWER daily parameters. Temperatures are °C,
// radiation MJ/m²/day, humidity %, precipitation mm/day, wind m/s.
// Missing observations hold PowerFillValue.
type PowerDay struct {
	Date   time.Time
	T2M    float64 // T2M
	T2MMin float64 // T2M_MIN
	T2MMax float64 // T2M_MAX
	SWDown float64 // ALLSKY_SFC_SW_DWN
	LWDown float64 // ALLSKY_SFC_LW_DWN
	RH2M   float64 // RH2M
	Precip float64 // PRECTOTCORR
	Wind   float64 // WS2M
}

// PowerFillValue marks a missing observation in the POWER archive.
const PowerFillValue = -999.0

// powerArchiveStart is the first day of the POWER daily archive.
var powerArchiveStart = time.Date(1984, time.January, 1, 0, 0, 0, 0, time.UTC)

// mjPerDayToWatt converts MJ/m²/day to mean W/m².
func mjPerDayToWatt(x float64) float64 { return x * 1e6 / 86400 }

func buildNASA(ctx context.Context, loc domain.Location, window domain.Period, cfg Config) (domain.WeatherSeries, error) {
	if cfg.Power == nil {
		return domain.WeatherSeries{}, fmt.Errorf("%w: no POWER fetcher configured", domain.ErrFetch)
	}

	start, end := window.Start, window.End
	if start.IsZero() {
		start = powerArchiveStart
	}
	if end.IsZero() {
		// The archive trails real time by a few days.
		end = domain.CivilDay(domain.Now()).AddDate(0, 0, -7)
	}

	result, err := cfg.Power.Fetch(ctx, loc.Lat, loc.Lon, start, end)
	if err != nil {
		return domain.WeatherSeries{}, err
	}
	if len(result.Days) == 0 {
		return domain.WeatherSeries{}, fmt.Errorf("%w: POWER returned no days for (%.4f, %.4f)",
			domain.ErrDataUnavailable, loc.Lon, loc.Lat)
	}

	records := make([]domain.WeatherRecord, 0, len(result.Days))
	for _, d := range result.Days {
		records = append(records, domain.WeatherRecord{
			Date:          domain.CivilDay(d.Date),
			TempMean:      powerValue(d.T2M, nil),
			TempMin:       powerValue(d.T2MMin, nil),
			TempMax:       powerValue(d.T2MMax, nil),
			RadiationSW:   powerValue(d.SWDown, mjPerDayToWatt),
			RadiationLW:   powerValue(d.LWDown, mjPerDayToWatt),
			RelHumidity:   powerValue(d.RH2M, nil),
			Precipitation: powerValue(d.Precip, nil),
			WindSpeed:     powerValue(d.Wind, nil),
		})
	}

	filled, missingDays := fillGaps(records, cfg.PrecipFill)
	series := domain.WeatherSeries{
		Provider:    string(SelectorNASA),
		Lon:         loc.Lon,
		Lat:         loc.Lat,
		Elevation:   loc.Elevation,
		First:       filled[0].Date,
		Last:        filled[len(filled)-1].Date,
		MissingDays: missingDays,
		Records:     filled,
	}
	series.Description = fmt.Sprintf(
		"Weather data for:\nCountry: Great Britain\nStation: %s\n"+
			"Description: NASA POWER daily reanalysis at (%.4f, %.4f)\n"+
			"Source: NASA POWER (power.larc.nasa.gov)\nRange: %s to %s",
		loc.GridRef, loc.Lon, loc.Lat,
		series.First.Format(time.DateOnly), series.Last.Format(time.DateOnly),
	)
	return series, nil
}

// powerValue maps the POWER fill value to the missing marker and applies an
// optional unit conversion to everything else.
func powerValue(v float64, convert func(float64) float64) float64 {
	if math.Abs(v-PowerFillValue) < 1e-4 {
		return missing
	}
	if convert != nil {
		return convert(v)
	}
	return v
}
