// Command validateweather checks a per-parcel weather file before it is
// handed to the provisioning service: schema, parseability, calendar gaps,
// and physically plausible value ranges. It then builds the Custom provider
// on the file to confirm the service would accept it.
//
// Usage:
//
//	go run ./cmd/validateweather -dir ./weatherdata -parcel 21616
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", ".", "directory containing the weather file")
	parcel := flag.Int("parcel", 0, "parcel identifier")
	flag.Parse()

	if *parcel == 0 {
		flag.Usage()
		os.Exit(2)
	}
	os.Exit(run(*dir, *parcel))
}

func run(dir string, parcel int) int {
	name := weather.CustomFileName(parcel)
	path := filepath.Join(dir, name)

	fmt.Printf("=== Weather File Validation: %s ===\n\n", path)

	rows, header, loadErr := loadRows(path)
	if loadErr != nil {
		fmt.Fprintf(os.Stderr, "FATAL: %v\n", loadErr)
		return 1
	}

	phases := []*phase{
		validateSchema(header),
		validateCalendar(rows),
		validateRanges(rows),
		validateProviderAccepts(dir, parcel),
	}

	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-38s %s\n", p.name, status)
	}

	fmt.Printf("\nRows: %d\n", len(rows))
	if len(rows) > 0 {
		dates := sortedDates(rows)
		fmt.Printf("Coverage: %s to %s\n",
			dates[0].Format(time.DateOnly), dates[len(dates)-1].Format(time.DateOnly))
	}

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

var requiredColumns = []string{
	"date", "tasmean", "tasmin", "tasmax",
	"swdown", "lwdown", "hurs", "pr", "wspeed",
}

// fileRow is one parsed data row keyed by column name.
type fileRow struct {
	lineNum int
	date    time.Time
	values  map[string]float64
}

func loadRows(path string) ([]fileRow, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	all, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("%s is empty", path)
	}

	header := all[0]
	colIdx := map[string]int{}
	for i, h := range header {
		colIdx[h] = i
	}

	var rows []fileRow
	for i, record := range all[1:] {
		row := fileRow{lineNum: i + 2, values: map[string]float64{}}
		if j, ok := colIdx["date"]; ok && j < len(record) {
			row.date, _ = time.Parse(time.DateOnly, record[j])
		}
		for _, col := range requiredColumns[1:] {
			j, ok := colIdx[col]
			if !ok || j >= len(record) {
				continue
			}
			if v, err := strconv.ParseFloat(record[j], 64); err == nil {
				row.values[col] = v
			}
		}
		rows = append(rows, row)
	}

	return rows, header, nil
}

func validateSchema(header []string) *phase {
	p := &phase{name: "Phase 1: Schema (columns)"}
	have := map[string]bool{}
	for _, h := range header {
		have[h] = true
	}
	for _, col := range requiredColumns {
		if !have[col] {
			p.errorf("missing column %q", col)
		}
	}
	return p
}

func validateCalendar(rows []fileRow) *phase {
	p := &phase{name: "Phase 2: Calendar (gaps, duplicates)"}
	if len(rows) == 0 {
		p.errorf("no data rows")
		return p
	}

	seen := map[time.Time]int{}
	for _, r := range rows {
		if r.date.IsZero() {
			p.errorf("line %d: unparseable date", r.lineNum)
			continue
		}
		if prev, ok := seen[r.date]; ok {
			p.errorf("line %d: duplicate of line %d (%s)", r.lineNum, prev, r.date.Format(time.DateOnly))
			continue
		}
		seen[r.date] = r.lineNum
	}

	dates := sortedDates(rows)
	if len(dates) == 0 {
		return p
	}
	var gaps []time.Time
	for d := dates[0]; !d.After(dates[len(dates)-1]); d = d.AddDate(0, 0, 1) {
		if _, ok := seen[d]; !ok {
			gaps = append(gaps, d)
		}
	}
	for _, g := range gaps {
		p.errorf("missing day %s (will be gap-filled by interpolation)", g.Format(time.DateOnly))
	}
	return p
}

// rangeCheck is a plausibility window for one canonical-unit column.
type rangeCheck struct {
	col      string
	min, max float64
}

var rangeChecks = []rangeCheck{
	{col: "tasmean", min: -30, max: 45},
	{col: "tasmin", min: -35, max: 40},
	{col: "tasmax", min: -25, max: 50},
	{col: "swdown", min: 0, max: 500},
	{col: "lwdown", min: 100, max: 500},
	{col: "hurs", min: 0, max: 100},
	{col: "pr", min: 0, max: 300},
	{col: "wspeed", min: 0, max: 60},
}

func validateRanges(rows []fileRow) *phase {
	p := &phase{name: "Phase 3: Value ranges (canonical units)"}
	for _, r := range rows {
		for _, c := range rangeChecks {
			v, ok := r.values[c.col]
			if !ok {
				p.errorf("line %d: missing or unparseable %s", r.lineNum, c.col)
				continue
			}
			if v < c.min || v > c.max {
				p.errorf("line %d: %s=%g outside [%g, %g]", r.lineNum, c.col, v, c.min, c.max)
			}
		}
		if tmin, ok := r.values["tasmin"]; ok {
			if tmax, ok := r.values["tasmax"]; ok && tmin > tmax {
				p.errorf("line %d: tasmin %g exceeds tasmax %g", r.lineNum, tmin, tmax)
			}
		}
	}
	return p
}

// validateProviderAccepts builds the Custom provider on the file exactly as
// the service would.
func validateProviderAccepts(dir string, parcel int) *phase {
	p := &phase{name: "Phase 4: Provider construction"}

	loc := domain.Location{ParcelID: parcel}
	provider, err := weather.Build(context.Background(), weather.SelectorCustom, loc, domain.Period{},
		weather.Config{Files: os.DirFS(dir)})
	if err != nil {
		p.errorf("provider rejected file: %v", err)
		return p
	}

	series := provider.Series()
	if series.MissingDays > 0 {
		fmt.Printf("  Note: provider gap-filled %d missing day(s)\n", series.MissingDays)
	}
	return p
}

func sortedDates(rows []fileRow) []time.Time {
	dates := make([]time.Time, 0, len(rows))
	for _, r := range rows {
		if !r.date.IsZero() {
			dates = append(dates, r.date)
		}
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
