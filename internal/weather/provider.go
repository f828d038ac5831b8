// Package weather normalizes heterogeneous weather sources into the single
// daily series contract the simulation engine consumes. Three variants sit
// behind the Provider interface: the NASA POWER historical reanalysis, the
// CHESS-Scape downscaled climate projections, and caller-supplied per-parcel
// files. Construction performs all I/O; a built provider is pure.
package weather

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
)

// Provider is the uniform capability set over all weather sources.
// Describe and Series never fail: any failure happens at construction.
type Provider interface {
	// Describe returns a human-readable account of the source and site.
	Describe() string

	// Coverage returns the first and last day of the declared window.
	Coverage() (first, last time.Time)

	// Series returns the gap-filled daily series. Callers must not mutate
	// the returned records.
	Series() domain.WeatherSeries
}

// Selector names a weather source variant. The enumeration is closed:
// anything else fails before any I/O is attempted.
type Selector string

const (
	SelectorNASA   Selector = "NASA"
	SelectorChess  Selector = "Chess"
	SelectorCustom Selector = "Custom"
)

// ParseSelector validates a selector string.
func ParseSelector(s string) (Selector, error) {
	switch Selector(s) {
	case SelectorNASA, SelectorChess, SelectorCustom:
		return Selector(s), nil
	default:
		return "", fmt.Errorf("unknown weather provider %q (want NASA, Chess or Custom)", s)
	}
}

// Config carries the collaborators and policies the variants need. Only the
// collaborator for the selected variant has to be set.
type Config struct {
	// Power fetches the NASA POWER daily point archive.
	Power PowerFetcher

	// Cells reads the CHESS-Scape projection archive.
	Cells CellReader

	// Files holds custom parcel weather files named parcel_<ID>_mesoclim.csv.
	Files fs.FS

	// RCP and Ensemble select the CHESS-Scape archive slice.
	RCP      string
	Ensemble int

	// PrecipFill is the gap-fill policy for precipitation; zero value means
	// PrecipFillZero.
	PrecipFill PrecipFillPolicy

	// Cache, when non-nil, short-circuits construction for series already
	// fetched for the same source, location and window.
	Cache *SeriesCache

	Logger  *slog.Logger
	Metrics *observability.Metrics
}

const (
	defaultRCP      = "rcp26"
	defaultEnsemble = 1
)

// Build constructs the provider variant named by sel for a resolved
// location. window bounds the fetch for remote sources; a zero window means
// the source's full archive. Unknown selectors fail before any I/O;
// coverage and I/O failures surface as ErrDataUnavailable and ErrFetch.
func Build(ctx context.Context, sel Selector, loc domain.Location, window domain.Period, cfg Config) (Provider, error) {
	if _, err := ParseSelector(string(sel)); err != nil {
		return nil, err
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RCP == "" {
		cfg.RCP = defaultRCP
	}
	if cfg.Ensemble == 0 {
		cfg.Ensemble = defaultEnsemble
	}

	key := cacheKey(sel, loc, window, cfg)
	if cfg.Cache != nil {
		if series, ok := cfg.Cache.Get(key); ok {
			if cfg.Metrics != nil {
				cfg.Metrics.SeriesCache.WithLabelValues("hit").Inc()
			}
			return seriesProvider{series: series}, nil
		}
		if cfg.Metrics != nil {
			cfg.Metrics.SeriesCache.WithLabelValues("miss").Inc()
		}
	}

	start := time.Now()
	var (
		series domain.WeatherSeries
		err    error
	)
	switch sel {
	case SelectorNASA:
		series, err = buildNASA(ctx, loc, window, cfg)
	case SelectorChess:
		series, err = buildChess(loc, cfg)
	case SelectorCustom:
		series, err = buildCustom(loc, cfg)
	}

	if cfg.Metrics != nil {
		outcome := "success"
		if err != nil {
			outcome = "error"
		}
		cfg.Metrics.WeatherFetches.WithLabelValues(string(sel), outcome).Inc()
		cfg.Metrics.WeatherFetchDuration.WithLabelValues(string(sel)).Observe(time.Since(start).Seconds())
	}
	if err != nil {
		return nil, err
	}

	if cfg.Metrics != nil {
		cfg.Metrics.GapFilledDays.Add(float64(series.MissingDays))
	}
	cfg.Logger.Info("weather series built",
		"provider", series.Provider,
		"grid_ref", loc.GridRef,
		"first", series.First.Format(time.DateOnly),
		"last", series.Last.Format(time.DateOnly),
		"missing_days", series.MissingDays,
	)

	if cfg.Cache != nil {
		cfg.Cache.Put(key, series)
	}
	return seriesProvider{series: series}, nil
}

// seriesProvider adapts a fully-built WeatherSeries to the Provider
// interface. All variants funnel through it.
type seriesProvider struct {
	series domain.WeatherSeries
}

func (p seriesProvider) Describe() string { return p.series.Description }

func (p seriesProvider) Coverage() (time.Time, time.Time) {
	return p.series.First, p.series.Last
}

func (p seriesProvider) Series() domain.WeatherSeries { return p.series }
