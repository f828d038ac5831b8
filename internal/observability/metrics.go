package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the
// input-provisioning service.
type Metrics struct {
	// Weather provisioning metrics.
	WeatherFetches       *prometheus.CounterVec   // labels: provider={NASA,Chess,Custom}, outcome={success,error}
	WeatherFetchDuration *prometheus.HistogramVec // labels: provider={NASA,Chess,Custom}
	SeriesCache          *prometheus.CounterVec   // labels: result={hit,miss}
	GapFilledDays        prometheus.Counter

	// Soil provisioning metrics.
	SoilLookups *prometheus.CounterVec // labels: source={SoilGrids,HWSD}, outcome={success,error}

	// Simulation metrics.
	SimulationRuns     *prometheus.CounterVec // labels: outcome={success,error}
	SimulationDuration prometheus.Histogram

	// Bulk runner metrics.
	ResultsPublished prometheus.Counter
	PipelineRunning  prometheus.Gauge
}

// NewMetrics creates and registers all service metrics with the default
// Prometheus registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		WeatherFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wofost_input",
			Name:      "weather_fetches_total",
			Help:      "Weather series constructions by provider and outcome.",
		}, []string{"provider", "outcome"}),
		WeatherFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "wofost_input",
			Name:      "weather_fetch_duration_seconds",
			Help:      "Duration of a weather series construction including remote I/O.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		SeriesCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wofost_input",
			Name:      "series_cache_total",
			Help:      "Weather series cache lookups by result.",
		}, []string{"result"}),
		GapFilledDays: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wofost_input",
			Name:      "gap_filled_days_total",
			Help:      "Total interior missing days repaired by gap-filling.",
		}),
		SoilLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wofost_input",
			Name:      "soil_lookups_total",
			Help:      "Soil texture lookups by source and outcome.",
		}, []string{"source", "outcome"}),
		SimulationRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "wofost_input",
			Name:      "simulation_runs_total",
			Help:      "Engine invocations by outcome.",
		}, []string{"outcome"}),
		SimulationDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "wofost_input",
			Name:      "simulation_duration_seconds",
			Help:      "Duration of a complete engine run.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		}),
		ResultsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "wofost_input",
			Name:      "results_published_total",
			Help:      "Simulation results written to the result sink.",
		}),
		PipelineRunning: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "wofost_input",
			Name:      "pipeline_running",
			Help:      "1 when the bulk runner is active, 0 when shut down.",
		}),
	}

	prometheus.MustRegister(
		m.WeatherFetches,
		m.WeatherFetchDuration,
		m.SeriesCache,
		m.GapFilledDays,
		m.SoilLookups,
		m.SimulationRuns,
		m.SimulationDuration,
		m.ResultsPublished,
		m.PipelineRunning,
	)

	return m
}

// NewMetricsForTesting creates Metrics with a fresh registry to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return &Metrics{
		WeatherFetches:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wofost_input", Name: "weather_fetches_total"}, []string{"provider", "outcome"}),
		WeatherFetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{Namespace: "wofost_input", Name: "weather_fetch_duration_seconds"}, []string{"provider"}),
		SeriesCache:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wofost_input", Name: "series_cache_total"}, []string{"result"}),
		GapFilledDays:        prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wofost_input", Name: "gap_filled_days_total"}),
		SoilLookups:          prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wofost_input", Name: "soil_lookups_total"}, []string{"source", "outcome"}),
		SimulationRuns:       prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "wofost_input", Name: "simulation_runs_total"}, []string{"outcome"}),
		SimulationDuration:   prometheus.NewHistogram(prometheus.HistogramOpts{Namespace: "wofost_input", Name: "simulation_duration_seconds"}),
		ResultsPublished:     prometheus.NewCounter(prometheus.CounterOpts{Namespace: "wofost_input", Name: "results_published_total"}),
		PipelineRunning:      prometheus.NewGauge(prometheus.GaugeOpts{Namespace: "wofost_input", Name: "pipeline_running"}),
	}
}
