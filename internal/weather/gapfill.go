package weather

import (
	"math"
	"sort"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
)

// PrecipFillPolicy selects how precipitation is reconstructed on missing
// days. Temperature, radiation, humidity and wind always interpolate
// linearly; rainfall is episodic, so zero-fill is the default and
// interpolation is opt-in.
type PrecipFillPolicy string

const (
	PrecipFillZero        PrecipFillPolicy = "zero"
	PrecipFillInterpolate PrecipFillPolicy = "interpolate"
)

// ParsePrecipFill validates a policy string, mapping "" to the default.
func ParsePrecipFill(s string) (PrecipFillPolicy, bool) {
	switch PrecipFillPolicy(s) {
	case "":
		return PrecipFillZero, true
	case PrecipFillZero, PrecipFillInterpolate:
		return PrecipFillPolicy(s), true
	default:
		return "", false
	}
}

// missing is the in-record marker for a value the source did not supply.
// Providers translate their own fill values (POWER's -999 etc.) to NaN
// before gap-filling.
var missing = math.NaN()

// fillGaps turns sparse, possibly hole-ridden daily records into a gapless
// series between the first and last supplied date. Absent days are inserted;
// each continuous field interpolates linearly between its nearest valid
// neighbours (clamping at the ends); precipitation follows the policy. The
// returned count is the number of days that had any value missing before
// filling.
func fillGaps(records []domain.WeatherRecord, policy PrecipFillPolicy) ([]domain.WeatherRecord, int) {
	if len(records) == 0 {
		return nil, 0
	}

	sort.Slice(records, func(i, j int) bool { return records[i].Date.Before(records[j].Date) })

	first := domain.CivilDay(records[0].Date)
	last := domain.CivilDay(records[len(records)-1].Date)
	days := int(last.Sub(first).Hours()/24) + 1

	filled := make([]domain.WeatherRecord, days)
	present := make([]bool, days)
	for i := range filled {
		filled[i] = domain.WeatherRecord{
			Date:     first.AddDate(0, 0, i),
			TempMean: missing, TempMin: missing, TempMax: missing,
			RadiationSW: missing, RadiationLW: missing,
			RelHumidity: missing, Precipitation: missing, WindSpeed: missing,
		}
	}
	for _, r := range records {
		i := int(domain.CivilDay(r.Date).Sub(first).Hours() / 24)
		r.Date = filled[i].Date
		filled[i] = r
		present[i] = true
	}

	missingDays := 0
	for i := range filled {
		if !present[i] || hasMissingField(filled[i]) {
			missingDays++
		}
	}

	interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.TempMean })
	interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.TempMin })
	interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.TempMax })
	interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.RadiationSW })
	interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.RadiationLW })
	interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.RelHumidity })
	interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.WindSpeed })

	if policy == PrecipFillInterpolate {
		interpolateField(filled, func(r *domain.WeatherRecord) *float64 { return &r.Precipitation })
	} else {
		for i := range filled {
			if math.IsNaN(filled[i].Precipitation) {
				filled[i].Precipitation = 0
			}
		}
	}

	return filled, missingDays
}

func hasMissingField(r domain.WeatherRecord) bool {
	for _, v := range []float64{
		r.TempMean, r.TempMin, r.TempMax,
		r.RadiationSW, r.RadiationLW,
		r.RelHumidity, r.Precipitation, r.WindSpeed,
	} {
		if math.IsNaN(v) {
			return true
		}
	}
	return false
}

// interpolateField fills NaN runs in one field by linear interpolation
// between the nearest valid values on each side; runs touching an end of
// the series take the single nearest valid value.
func interpolateField(records []domain.WeatherRecord, field func(*domain.WeatherRecord) *float64) {
	n := len(records)
	prev := -1 // index of last valid value seen

	for i := 0; i < n; i++ {
		if !math.IsNaN(*field(&records[i])) {
			prev = i
			continue
		}

		// Find the end of this NaN run.
		next := i
		for next < n && math.IsNaN(*field(&records[next])) {
			next++
		}

		switch {
		case prev < 0 && next >= n:
			// Whole series missing for this field; leave zeroes.
			for j := i; j < next; j++ {
				*field(&records[j]) = 0
			}
		case prev < 0:
			for j := i; j < next; j++ {
				*field(&records[j]) = *field(&records[next])
			}
		case next >= n:
			for j := i; j < n; j++ {
				*field(&records[j]) = *field(&records[prev])
			}
		default:
			lo, hi := *field(&records[prev]), *field(&records[next])
			span := float64(next - prev)
			for j := i; j < next; j++ {
				frac := float64(j-prev) / span
				*field(&records[j]) = lo + (hi-lo)*frac
			}
		}
		i = next - 1
	}
}
