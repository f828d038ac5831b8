package pipeline

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

var runColumns = []string{
	"parcel_id", "grid_ref", "weather", "soil",
	"start", "end", "crop", "variety", "campaign_year", "sowing_date",
}

const runDateLayout = "2006-01-02"

// CSVSource reads run requests from a CSV file, one request per row.
// Either parcel_id or grid_ref must be set on every row.
type CSVSource struct {
	reader *csv.Reader
	index  map[string]int
	line   int
}

// NewCSVSource wraps a CSV stream, validating its header.
func NewCSVSource(r io.Reader) (*CSVSource, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("%w: run file has no header", domain.ErrSchema)
	}

	index := make(map[string]int, len(header))
	for i, col := range header {
		index[strings.TrimSpace(col)] = i
	}
	for _, col := range runColumns {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("%w: run file is missing column %q", domain.ErrSchema, col)
		}
	}
	return &CSVSource{reader: reader, index: index, line: 1}, nil
}

// Next implements RequestSource.
func (s *CSVSource) Next(_ context.Context) (RunRequest, error) {
	record, err := s.reader.Read()
	if errors.Is(err, io.EOF) {
		return RunRequest{}, io.EOF
	}
	s.line++
	if err != nil {
		return RunRequest{}, fmt.Errorf("%w: run file line %d: %v", domain.ErrMalformedRow, s.line, err)
	}

	field := func(col string) string {
		return strings.TrimSpace(record[s.index[col]])
	}

	req := RunRequest{GridRef: field("grid_ref")}
	if v := field("parcel_id"); v != "" {
		req.ParcelID, err = strconv.Atoi(v)
		if err != nil {
			return RunRequest{}, s.rowError("bad parcel_id %q", v)
		}
	}
	if req.ParcelID == 0 && req.GridRef == "" {
		return RunRequest{}, s.rowError("neither parcel_id nor grid_ref set")
	}

	req.Weather, err = weather.ParseSelector(field("weather"))
	if err != nil {
		return RunRequest{}, s.rowError("%v", err)
	}
	req.Soil, err = soil.ParseSelector(field("soil"))
	if err != nil {
		return RunRequest{}, s.rowError("%v", err)
	}

	req.Period.Start, err = time.Parse(runDateLayout, field("start"))
	if err != nil {
		return RunRequest{}, s.rowError("bad start %q", field("start"))
	}
	req.Period.End, err = time.Parse(runDateLayout, field("end"))
	if err != nil {
		return RunRequest{}, s.rowError("bad end %q", field("end"))
	}

	req.Calendar.Crop = field("crop")
	req.Calendar.Variety = field("variety")
	if req.Calendar.Crop == "" {
		return RunRequest{}, s.rowError("crop is empty")
	}
	req.Calendar.CampaignYear, err = strconv.Atoi(field("campaign_year"))
	if err != nil {
		return RunRequest{}, s.rowError("bad campaign_year %q", field("campaign_year"))
	}
	req.Calendar.SowingDate, err = time.Parse(runDateLayout, field("sowing_date"))
	if err != nil {
		return RunRequest{}, s.rowError("bad sowing_date %q", field("sowing_date"))
	}

	return req, nil
}

func (s *CSVSource) rowError(format string, args ...any) error {
	msg := fmt.Sprintf(format, args...)
	return fmt.Errorf("%w: run file line %d: %s", domain.ErrMalformedRow, s.line, msg)
}
