// Package chessfs reads CHESS-Scape projection extracts from a directory of
// per-tile CSV files. One file covers a 10-km tile for one scenario and
// ensemble member, named <TILE>_<rcp>_<NN>.csv.
package chessfs

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

var cellColumns = []string{"date", "tas", "tasmin", "tasmax", "pr", "rsds", "rlds", "hurs", "sfcWind"}

const cellDateLayout = "2006-01-02"

// Archive implements weather.CellReader over an fs.FS of tile extracts.
type Archive struct {
	fsys   fs.FS
	logger *slog.Logger
}

// NewArchive creates an Archive over fsys, typically os.DirFS of the
// extract directory.
func NewArchive(fsys fs.FS, logger *slog.Logger) *Archive {
	if logger == nil {
		logger = slog.Default()
	}
	return &Archive{fsys: fsys, logger: logger}
}

// TileName returns the 10-km tile a grid reference falls in: the 100-km
// letter pair plus the leading digit of each coordinate half.
func TileName(gridRef string) (string, error) {
	letters, digits, err := splitGridRef(gridRef)
	if err != nil {
		return "", err
	}
	half := len(digits) / 2
	return letters + digits[:1] + digits[half:half+1], nil
}

// FileName returns the extract file holding a grid reference's tile for a
// scenario and ensemble member.
func FileName(gridRef, rcp string, ensemble int) (string, error) {
	tile, err := TileName(gridRef)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s_%s_%02d.csv", tile, rcp, ensemble), nil
}

// ReadCell loads the daily rows for the tile containing gridRef. A missing
// tile file means the location is outside the archive's extent.
func (a *Archive) ReadCell(gridRef, rcp string, ensemble int) (weather.CellData, error) {
	name, err := FileName(gridRef, rcp, ensemble)
	if err != nil {
		return weather.CellData{}, err
	}

	f, err := a.fsys.Open(name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return weather.CellData{}, fmt.Errorf("%w: no archive tile %s for %s",
				domain.ErrDataUnavailable, name, gridRef)
		}
		return weather.CellData{}, fmt.Errorf("%w: open %s: %v", domain.ErrFetch, name, err)
	}
	defer f.Close()

	rows, err := readRows(f, name)
	if err != nil {
		return weather.CellData{}, err
	}

	lon, lat, err := domain.LonLatFromGridReference(gridRef)
	if err != nil {
		return weather.CellData{}, err
	}

	a.logger.Debug("archive tile read", "file", name, "rows", len(rows))
	return weather.CellData{Lon: lon, Lat: lat, Rows: rows}, nil
}

func readRows(r io.Reader, name string) ([]weather.CellRow, error) {
	reader := csv.NewReader(r)

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no header", domain.ErrSchema, name)
	}
	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, col := range cellColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: %s is missing column %q", domain.ErrSchema, name, col)
		}
	}

	var rows []weather.CellRow
	seen := make(map[time.Time]bool)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: %v", domain.ErrMalformedRow, name, line, err)
		}

		date, err := time.Parse(cellDateLayout, record[index["date"]])
		if err != nil {
			return nil, fmt.Errorf("%w: %s line %d: bad date %q", domain.ErrMalformedRow, name, line, record[index["date"]])
		}
		date = domain.CivilDay(date)
		if seen[date] {
			return nil, fmt.Errorf("%w: %s line %d: duplicate date %s", domain.ErrMalformedRow, name, line, date.Format(cellDateLayout))
		}
		seen[date] = true

		values := make(map[string]float64, len(cellColumns)-1)
		for _, col := range cellColumns[1:] {
			v, err := strconv.ParseFloat(strings.TrimSpace(record[index[col]]), 64)
			if err != nil {
				return nil, fmt.Errorf("%w: %s line %d: bad %s %q", domain.ErrMalformedRow, name, line, col, record[index[col]])
			}
			values[col] = v
		}

		rows = append(rows, weather.CellRow{
			Date:    date,
			Tas:     values["tas"],
			Tasmin:  values["tasmin"],
			Tasmax:  values["tasmax"],
			Pr:      values["pr"],
			Rsds:    values["rsds"],
			Rlds:    values["rlds"],
			Hurs:    values["hurs"],
			SfcWind: values["sfcWind"],
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s has no rows", domain.ErrDataUnavailable, name)
	}
	return rows, nil
}

func splitGridRef(gridRef string) (letters, digits string, err error) {
	code := strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(gridRef), " ", ""))
	if len(code) < 4 {
		return "", "", fmt.Errorf("%w: %q is too short for tile addressing", domain.ErrInvalidGridReference, gridRef)
	}
	letters, digits = code[:2], code[2:]
	if len(digits)%2 != 0 {
		return "", "", fmt.Errorf("%w: %q has an odd digit count", domain.ErrInvalidGridReference, gridRef)
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return "", "", fmt.Errorf("%w: %q has non-digit coordinates", domain.ErrInvalidGridReference, gridRef)
		}
	}
	return letters, digits, nil
}
