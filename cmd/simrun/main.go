// Command simrun provisions and runs a single simulation from the command
// line and prints the result as JSON. With -describe it stops after
// provisioning and prints the input summary instead.
//
// Usage:
//
//	simrun -parcel 21616 -start 2020-03-01 -end 2020-09-30 -crop wheat -year 2020
//	simrun -gridref SX92289293 -weather Chess -soil HWSD -describe
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/wofost-input-service/internal/adapter/catalogue"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/chessfs"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/engine"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/hwsd"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/power"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/soilgrids"
	"github.com/couchcryptid/wofost-input-service/internal/config"
	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
	"github.com/couchcryptid/wofost-input-service/internal/sim"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "simrun: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	parcel := flag.Int("parcel", 0, "parcel identifier")
	gridRef := flag.String("gridref", "", "OS grid reference")
	lon := flag.Float64("lon", 0, "longitude (WGS84)")
	lat := flag.Float64("lat", 0, "latitude (WGS84)")
	figs := flag.Int("figs", 0, "grid precision for coordinate inputs")
	weatherSel := flag.String("weather", "NASA", "weather provider (NASA, Chess, Custom)")
	soilSel := flag.String("soil", "SoilGrids", "soil provider (SoilGrids, HWSD)")
	start := flag.String("start", "", "simulation start date (YYYY-MM-DD)")
	end := flag.String("end", "", "simulation end date (YYYY-MM-DD)")
	crop := flag.String("crop", "", "crop name")
	variety := flag.String("variety", "", "crop variety")
	year := flag.Int("year", 0, "campaign year")
	sowing := flag.String("sowing", "", "sowing date (YYYY-MM-DD)")
	describe := flag.Bool("describe", false, "print the provisioned inputs and exit")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	simCfg, cleanup, err := buildSimConfig(cfg, logger, metrics)
	if err != nil {
		return err
	}
	defer cleanup()

	ctx := context.Background()
	input := sim.LocationInput{
		ParcelID: *parcel,
		GridRef:  *gridRef,
		Lon:      *lon,
		Lat:      *lat,
		Figs:     *figs,
	}

	m, err := sim.New(ctx, input, weather.Selector(*weatherSel), soil.Selector(*soilSel), simCfg)
	if err != nil {
		return err
	}

	if *describe {
		fmt.Println(m.Describe())
		return nil
	}

	period, calendar, err := parseCampaign(*start, *end, *crop, *variety, *year, *sowing)
	if err != nil {
		return err
	}
	if err := m.Validate(period); err != nil {
		return err
	}

	result, err := m.Run(ctx, period, calendar)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

func parseCampaign(start, end, crop, variety string, year int, sowing string) (domain.Period, domain.CropCalendar, error) {
	var period domain.Period
	var calendar domain.CropCalendar
	var err error

	if period.Start, err = time.Parse(time.DateOnly, start); err != nil {
		return period, calendar, fmt.Errorf("bad -start %q", start)
	}
	if period.End, err = time.Parse(time.DateOnly, end); err != nil {
		return period, calendar, fmt.Errorf("bad -end %q", end)
	}
	if crop == "" {
		return period, calendar, fmt.Errorf("-crop is required")
	}
	if year == 0 {
		return period, calendar, fmt.Errorf("-year is required")
	}
	calendar.Crop = crop
	calendar.Variety = variety
	calendar.CampaignYear = year
	if sowing != "" {
		if calendar.SowingDate, err = time.Parse(time.DateOnly, sowing); err != nil {
			return period, calendar, fmt.Errorf("bad -sowing %q", sowing)
		}
	}
	return period, calendar, nil
}

// buildSimConfig mirrors the bulk runner's wiring for a one-shot run.
func buildSimConfig(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (sim.Config, func(), error) {
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	var cat domain.Catalogue
	var terrain domain.Terrain
	if cfg.CatalogueDSN != "" {
		db, err := catalogue.Open(cfg.CatalogueDSN, logger)
		if err != nil {
			return sim.Config{}, cleanup, fmt.Errorf("catalogue: %w", err)
		}
		closers = append(closers, db.Close)
		cat, terrain = db, db
	} else {
		cat = catalogue.NewMemory(nil)
	}

	precipFill, ok := weather.ParsePrecipFill(cfg.PrecipFill)
	if !ok {
		return sim.Config{}, cleanup, fmt.Errorf("unknown precip fill policy %q", cfg.PrecipFill)
	}

	weatherCfg := weather.Config{
		Power:      power.NewClient(cfg.PowerBaseURL, cfg.PowerTimeout, logger),
		RCP:        cfg.RCP,
		Ensemble:   cfg.Ensemble,
		PrecipFill: precipFill,
		Logger:     logger,
		Metrics:    metrics,
	}
	if cfg.ChessDir != "" {
		weatherCfg.Cells = chessfs.NewArchive(os.DirFS(cfg.ChessDir), logger)
	}
	if cfg.WeatherDir != "" {
		weatherCfg.Files = os.DirFS(cfg.WeatherDir)
	}

	soilCfg := soil.Config{
		SoilGrids: soilgrids.NewClient(cfg.SoilGridsBaseURL, cfg.SoilGridsTimeout, logger),
		Logger:    logger,
		Metrics:   metrics,
	}
	if cfg.HWSDDSN != "" {
		db, err := hwsd.Open(cfg.HWSDDSN, logger)
		if err != nil {
			return sim.Config{}, cleanup, fmt.Errorf("hwsd: %w", err)
		}
		closers = append(closers, db.Close)
		soilCfg.HWSD = db
	}

	return sim.Config{
		Resolver: domain.NewResolver(cat, terrain),
		Weather:  weatherCfg,
		Soil:     soilCfg,
		Engine:   engine.NewClient(cfg.EngineBaseURL, cfg.EngineTimeout, logger),
		Logger:   logger,
		Metrics:  metrics,
	}, cleanup, nil
}
