// Command bulkrun reads a CSV of simulation run requests, provisions and
// runs each simulation, and publishes the results to Kafka. It serves
// health, readiness and metrics endpoints while the batch is in flight.
//
// Usage:
//
//	bulkrun -runs runs.csv
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/couchcryptid/wofost-input-service/internal/adapter/catalogue"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/chessfs"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/engine"
	httpadapter "github.com/couchcryptid/wofost-input-service/internal/adapter/http"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/hwsd"
	kafkaadapter "github.com/couchcryptid/wofost-input-service/internal/adapter/kafka"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/power"
	"github.com/couchcryptid/wofost-input-service/internal/adapter/soilgrids"
	"github.com/couchcryptid/wofost-input-service/internal/config"
	"github.com/couchcryptid/wofost-input-service/internal/domain"
	"github.com/couchcryptid/wofost-input-service/internal/observability"
	"github.com/couchcryptid/wofost-input-service/internal/pipeline"
	"github.com/couchcryptid/wofost-input-service/internal/sim"
	"github.com/couchcryptid/wofost-input-service/internal/soil"
	"github.com/couchcryptid/wofost-input-service/internal/weather"
)

func main() {
	runFile := flag.String("runs", "", "CSV file of run requests")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *runFile == "" {
		flag.Usage()
		os.Exit(2)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	simCfg, cleanup, err := buildSimConfig(cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to wire collaborators", "error", err)
		os.Exit(1)
	}
	defer cleanup()

	f, err := os.Open(*runFile)
	if err != nil {
		logger.Error("failed to open run file", "error", err)
		os.Exit(1)
	}
	defer f.Close()

	source, err := pipeline.NewCSVSource(f)
	if err != nil {
		logger.Error("invalid run file", "error", err)
		os.Exit(1)
	}

	writer := kafkaadapter.NewWriter(cfg, logger)
	defer writer.Close()

	runner := pipeline.NewManagerRunner(simCfg)
	p := pipeline.New(source, runner, writer, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	pipelineDone := make(chan error, 1)
	go func() { pipelineDone <- p.Run(ctx) }()

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-pipelineDone:
		if err != nil {
			logger.Error("bulk run error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	logger.Info("shutdown complete")
}

// buildSimConfig wires the resolver, provider collaborators and engine
// client from configuration. The returned cleanup closes any databases.
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
		logger.Warn("no catalogue DSN set, using built-in fixture parcels")
		cat = catalogue.NewMemory(nil)
	}

	cache, err := weather.NewSeriesCache(cfg.CacheSize, cfg.CacheTTL)
	if err != nil {
		return sim.Config{}, cleanup, fmt.Errorf("series cache: %w", err)
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
		Cache:      cache,
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
