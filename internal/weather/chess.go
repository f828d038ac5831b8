package weather

import (
	"fmt"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// CellReader extracts one 1-km cell's daily rows from the CHESS-Scape
// projection archive. Implemented by adapter/chessfs.Archive.
type CellReader interface {
	ReadCell(gridRef, rcp string, ensemble int) (CellData, error)
}

// CellData is one archive cell: its centre coordinate and daily rows in
// CHESS-Scape native units.
type CellData struct {
	Lon  float64
	Lat  float64
	Rows []CellRow
}

// CellRow is one archive day. Temperatures are Kelvin, precipitation is
// flux in kg/m²/s, radiation W/m², humidity %, wind m/s. The archive runs
// on a 360-day model calendar, so civil-calendar days are routinely absent
// and are gap-filled after conversion.
type CellRow struct {
	Date    time.Time
	Tas     float64
	Tasmin  float64
	Tasmax  float64
	Pr      float64
	Rsds    float64
	Rlds    float64
	Hurs    float64
	SfcWind float64
}

func kelvinToCelsius(x float64) float64 { return x - 273.15 }

// fluxToMMDay converts precipitation flux (kg/m²/s) to mm/day.
func fluxToMMDay(x float64) float64 { return x * 86400 }

func buildChess(loc domain.Location, cfg Config) (domain.WeatherSeries, error) {
	if cfg.Cells == nil {
		return domain.WeatherSeries{}, fmt.Errorf("%w: no projection archive configured", domain.ErrFetch)
	}

	cell, err := cfg.Cells.ReadCell(loc.GridRef, cfg.RCP, cfg.Ensemble)
	if err != nil {
		return domain.WeatherSeries{}, err
	}
	if len(cell.Rows) == 0 {
		return domain.WeatherSeries{}, fmt.Errorf("%w: archive has no rows for %s (%s, ensemble %02d)",
			domain.ErrDataUnavailable, loc.GridRef, cfg.RCP, cfg.Ensemble)
	}

	records := make([]domain.WeatherRecord, 0, len(cell.Rows))
	for _, row := range cell.Rows {
		records = append(records, domain.WeatherRecord{
			Date:          domain.CivilDay(row.Date),
			TempMean:      kelvinToCelsius(row.Tas),
			TempMin:       kelvinToCelsius(row.Tasmin),
			TempMax:       kelvinToCelsius(row.Tasmax),
			RadiationSW:   row.Rsds,
			RadiationLW:   row.Rlds,
			RelHumidity:   row.Hurs,
			Precipitation: fluxToMMDay(row.Pr),
			WindSpeed:     row.SfcWind,
		})
	}

	filled, missingDays := fillGaps(records, cfg.PrecipFill)
	series := domain.WeatherSeries{
		Provider:    string(SelectorChess),
		Lon:         cell.Lon,
		Lat:         cell.Lat,
		Elevation:   loc.Elevation,
		First:       filled[0].Date,
		Last:        filled[len(filled)-1].Date,
		MissingDays: missingDays,
		Records:     filled,
	}
	series.Description = fmt.Sprintf(
		"Weather data for:\nCountry: Great Britain\nStation: %s\n"+
			"Description: Projected weather for %s, %s ensemble %02d\n"+
			"Source: UK Centre for Ecology and Hydrology (CHESS-Scape)\nRange: %s to %s",
		loc.GridRef, loc.GridRef, cfg.RCP, cfg.Ensemble,
		series.First.Format(time.DateOnly), series.Last.Format(time.DateOnly),
	)
	return series, nil
}
