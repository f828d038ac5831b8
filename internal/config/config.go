// Package config loads service settings from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// NASA POWER archive client.
	PowerBaseURL string
	PowerTimeout time.Duration

	// CHESS-Scape projection archive.
	ChessDir string
	RCP      string
	Ensemble int

	// Custom per-parcel weather files.
	WeatherDir string

	// Weather series cache and gap-fill policy.
	CacheSize  int
	CacheTTL   time.Duration
	PrecipFill string

	// ISRIC SoilGrids REST client.
	SoilGridsBaseURL string
	SoilGridsTimeout time.Duration

	// Land-cover catalogue and HWSD databases (MySQL DSNs, empty disables).
	CatalogueDSN string
	HWSDDSN      string

	// WOFOST engine service.
	EngineBaseURL string
	EngineTimeout time.Duration

	// Bulk-run result sink.
	KafkaBrokers    []string
	KafkaSinkTopic  string
	KafkaClientID   string
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	powerTimeout, err := parseDuration("POWER_TIMEOUT", "30s")
	if err != nil {
		return nil, err
	}
	soilGridsTimeout, err := parseDuration("SOILGRIDS_TIMEOUT", "15s")
	if err != nil {
		return nil, err
	}
	engineTimeout, err := parseDuration("ENGINE_TIMEOUT", "120s")
	if err != nil {
		return nil, err
	}
	cacheTTL, err := parseDuration("CACHE_TTL", "2160h") // 90 days
	if err != nil {
		return nil, err
	}

	ensemble, err := parseInt("CHESS_ENSEMBLE", 1, 1, 15)
	if err != nil {
		return nil, err
	}
	cacheSize, err := parseInt("CACHE_SIZE", 256, 1, 1<<20)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		PowerBaseURL: envOrDefault("POWER_BASE_URL", "https://power.larc.nasa.gov"),
		PowerTimeout: powerTimeout,

		ChessDir: os.Getenv("CHESS_DIR"),
		RCP:      envOrDefault("CHESS_RCP", "rcp26"),
		Ensemble: ensemble,

		WeatherDir: os.Getenv("WEATHER_DIR"),

		CacheSize:  cacheSize,
		CacheTTL:   cacheTTL,
		PrecipFill: envOrDefault("PRECIP_FILL", "zero"),

		SoilGridsBaseURL: envOrDefault("SOILGRIDS_BASE_URL", "https://rest.isric.org"),
		SoilGridsTimeout: soilGridsTimeout,

		CatalogueDSN: os.Getenv("CATALOGUE_DSN"),
		HWSDDSN:      os.Getenv("HWSD_DSN"),

		EngineBaseURL: envOrDefault("ENGINE_BASE_URL", "http://localhost:9100"),
		EngineTimeout: engineTimeout,

		KafkaBrokers:   parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: envOrDefault("KAFKA_SINK_TOPIC", "wofost-run-results"),
		KafkaClientID:  envOrDefault("KAFKA_CLIENT_ID", "wofost-input-service"),
	}

	switch cfg.RCP {
	case "rcp26", "rcp45", "rcp60", "rcp85":
	default:
		return nil, fmt.Errorf("invalid CHESS_RCP %q", cfg.RCP)
	}
	switch cfg.PrecipFill {
	case "zero", "interpolate":
	default:
		return nil, fmt.Errorf("invalid PRECIP_FILL %q (want zero or interpolate)", cfg.PrecipFill)
	}
	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseInt(key string, fallback, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s (want %d..%d)", key, min, max)
	}
	return n, nil
}
