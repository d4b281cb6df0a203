// Package config loads the pipeline's settings from environment variables,
// optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultStationID   = "USW00013743" // Washington Reagan National, proxy for Arlington VA
	defaultStartDate   = "1995-01-01"
	defaultPrimaryURL  = "https://www.ncei.noaa.gov/pub/data/ghcn/daily/all/%s.dly"
	defaultFallbackURL = "https://www1.ncdc.noaa.gov/pub/data/ghcn/daily/all/%s.dly"
)

// Config holds all pipeline settings, populated from environment variables.
type Config struct {
	StationID string
	StartDate time.Time

	PrimaryURL   string // printf template with one %s for the station id
	FallbackURL  string
	FetchTimeout time.Duration
	MaxRetries   int
	BackoffBase  time.Duration

	OutputDir string
	CacheDir  string

	// SnowInTenths selects the tenths-of-mm convention for SNOW/SNWD raw
	// values; the default treats them as whole millimeters.
	SnowInTenths bool

	// ClimatologyStats selects mean or percentile climatology columns.
	ClimatologyStats string

	XLSXEnabled bool
	MetricsFile string // empty disables the metrics textfile

	LogLevel  string
	LogFormat string
}

// Load reads configuration from the environment, applying defaults where
// unset. A .env file in the working directory is merged in first.
func Load() (*Config, error) {
	_ = godotenv.Load(".env")

	cfg := &Config{
		StationID:        envOrDefault("STATION_ID", defaultStationID),
		PrimaryURL:       envOrDefault("PRIMARY_URL", defaultPrimaryURL),
		FallbackURL:      envOrDefault("FALLBACK_URL", defaultFallbackURL),
		OutputDir:        envOrDefault("OUTPUT_DIR", "data"),
		CacheDir:         envOrDefault("CACHE_DIR", "cache"),
		ClimatologyStats: envOrDefault("CLIMATOLOGY_STATS", "mean"),
		LogLevel:         envOrDefault("LOG_LEVEL", "info"),
		LogFormat:        envOrDefault("LOG_FORMAT", "json"),
		MetricsFile:      os.Getenv("METRICS_FILE"),
	}

	start, err := time.ParseInLocation("2006-01-02", envOrDefault("START_DATE", defaultStartDate), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("invalid START_DATE: %w", err)
	}
	cfg.StartDate = start

	if cfg.FetchTimeout, err = parseDuration("FETCH_TIMEOUT", "180s"); err != nil {
		return nil, err
	}
	if cfg.BackoffBase, err = parseDuration("FETCH_BACKOFF", "500ms"); err != nil {
		return nil, err
	}
	if cfg.MaxRetries, err = parseInt("FETCH_MAX_RETRIES", 4); err != nil {
		return nil, err
	}

	switch v := envOrDefault("SNOW_UNITS", "mm"); v {
	case "mm":
	case "tenths":
		cfg.SnowInTenths = true
	default:
		return nil, fmt.Errorf("invalid SNOW_UNITS %q: want mm or tenths", v)
	}

	if cfg.ClimatologyStats != "mean" && cfg.ClimatologyStats != "percentiles" {
		return nil, fmt.Errorf("invalid CLIMATOLOGY_STATS %q: want mean or percentiles", cfg.ClimatologyStats)
	}

	cfg.XLSXEnabled = envOrDefault("XLSX_ENABLED", "true") == "true"

	if cfg.StationID == "" {
		return nil, errors.New("STATION_ID is required")
	}
	if !strings.Contains(cfg.PrimaryURL, "%s") {
		return nil, errors.New("PRIMARY_URL must contain a %s station placeholder")
	}
	if cfg.FallbackURL != "" && !strings.Contains(cfg.FallbackURL, "%s") {
		return nil, errors.New("FALLBACK_URL must contain a %s station placeholder")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(envOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: want a positive duration", key)
	}
	return d, nil
}

func parseInt(key string, fallback int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: want a non-negative integer", key)
	}
	return n, nil
}
