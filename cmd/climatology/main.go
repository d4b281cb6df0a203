// Command climatology runs one end-to-end update of the station's daily
// series and day-of-year climatology tables. It is designed for cron: a run
// either publishes a complete set of outputs, or leaves the previous ones
// untouched. Exit status is zero both on success and when NOAA is
// unreachable with no cached fallback (stay up with stale data).
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/ghcn-climatology/internal/adapter/noaa"
	"github.com/couchcryptid/ghcn-climatology/internal/adapter/tabular"
	"github.com/couchcryptid/ghcn-climatology/internal/config"
	"github.com/couchcryptid/ghcn-climatology/internal/domain"
	"github.com/couchcryptid/ghcn-climatology/internal/observability"
	"github.com/couchcryptid/ghcn-climatology/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := noaa.NewClient(noaa.Options{
		PrimaryURL:  cfg.PrimaryURL,
		FallbackURL: cfg.FallbackURL,
		Timeout:     cfg.FetchTimeout,
		MaxRetries:  cfg.MaxRetries,
		BackoffBase: cfg.BackoffBase,
		OnRetry:     metrics.FetchRetries.Inc,
	}, logger)
	cache := noaa.NewCache(cfg.CacheDir)

	writer, err := tabular.NewWriter(cfg.OutputDir, tabular.StatMode(cfg.ClimatologyStats))
	if err != nil {
		logger.Error("failed to prepare output dir", "error", err)
		os.Exit(1)
	}

	p := pipeline.New(client, cache, writer, logger, metrics, pipeline.Options{
		StationID:   cfg.StationID,
		StartDate:   cfg.StartDate,
		UnitRules:   domain.UnitRules{SnowInTenths: cfg.SnowInTenths},
		XLSXEnabled: cfg.XLSXEnabled,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runErr := p.Run(ctx)

	if cfg.MetricsFile != "" {
		if err := metrics.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("failed to write metrics textfile", "error", err)
		}
	}

	if runErr != nil {
		logger.Error("run failed", "error", runErr)
		os.Exit(1)
	}
}
