package weather

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"strconv"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// customColumns are the required columns of a parcel weather file, already
// in canonical units (°C, W/m², %, mm/day, m/s).
var customColumns = []string{
	"date", "tasmean", "tasmin", "tasmax",
	"swdown", "lwdown", "hurs", "pr", "wspeed",
}

const customDateLayout = "2006-01-02"

// CustomFileName returns the conventional weather file name for a parcel.
func CustomFileName(parcelID int) string {
	return fmt.Sprintf("parcel_%d_mesoclim.csv", parcelID)
}

func buildCustom(loc domain.Location, cfg Config) (domain.WeatherSeries, error) {
	if cfg.Files == nil {
		return domain.WeatherSeries{}, fmt.Errorf("%w: no custom weather directory configured", domain.ErrFetch)
	}
	if loc.ParcelID == 0 {
		return domain.WeatherSeries{}, fmt.Errorf("%w: custom weather requires a parcel identity", domain.ErrDataUnavailable)
	}

	name := CustomFileName(loc.ParcelID)
	f, err := cfg.Files.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return domain.WeatherSeries{}, fmt.Errorf("%w: no weather file %s", domain.ErrDataUnavailable, name)
		}
		return domain.WeatherSeries{}, fmt.Errorf("%w: open %s: %v", domain.ErrFetch, name, err)
	}
	defer f.Close()

	records, err := readCustomRows(f, name)
	if err != nil {
		return domain.WeatherSeries{}, err
	}

	filled, missingDays := fillGaps(records, cfg.PrecipFill)
	series := domain.WeatherSeries{
		Provider:    string(SelectorCustom),
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
			"Description: Downscaled weather for parcel %d at %s\n"+
			"Source: custom parcel file %s\nRange: %s to %s",
		loc.GridRef, loc.ParcelID, loc.GridRef, name,
		series.First.Format(time.DateOnly), series.Last.Format(time.DateOnly),
	)
	return series, nil
}

func readCustomRows(f io.Reader, name string) ([]domain.WeatherRecord, error) {
	reader := csv.NewReader(f)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no header row", domain.ErrSchema, name)
	}

	colIdx := make(map[string]int, len(header))
	for i, h := range header {
		colIdx[h] = i
	}
	for _, col := range customColumns {
		if _, ok := colIdx[col]; !ok {
			return nil, fmt.Errorf("%w: %s is missing column %q", domain.ErrSchema, name, col)
		}
	}

	var records []domain.WeatherRecord
	seen := make(map[time.Time]bool)
	for line := 2; ; line++ {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", domain.ErrMalformedRow, name, line, err)
		}

		date, err := time.Parse(customDateLayout, row[colIdx["date"]])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: unparseable date %q",
				domain.ErrMalformedRow, name, line, row[colIdx["date"]])
		}
		date = domain.CivilDay(date)
		if seen[date] {
			return nil, fmt.Errorf("%w: %s line %d: duplicate date %s",
				domain.ErrMalformedRow, name, line, date.Format(time.DateOnly))
		}
		seen[date] = true

		values := make(map[string]float64, len(customColumns)-1)
		for _, col := range customColumns[1:] {
			v, err := strconv.ParseFloat(row[colIdx[col]], 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: bad %s value %q",
					domain.ErrMalformedRow, name, line, col, row[colIdx[col]])
			}
			values[col] = v
		}

		records = append(records, domain.WeatherRecord{
			Date:          date,
			TempMean:      values["tasmean"],
			TempMin:       values["tasmin"],
			TempMax:       values["tasmax"],
			RadiationSW:   values["swdown"],
			RadiationLW:   values["lwdown"],
			RelHumidity:   values["hurs"],
			Precipitation: values["pr"],
			WindSpeed:     values["wspeed"],
		})
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s has no data rows", domain.ErrDataUnavailable, name)
	}
	return records, nil
}
