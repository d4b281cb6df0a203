// Package pipeline orchestrates one end-to-end climatology run: retrieve the
// station file (or fall back to the cached copy), reconstruct the daily
// series, fill gaps, aggregate per day-of-year, and write the output tables.
// The stages run strictly in sequence; the observation table has exactly one
// writer at a time as ownership moves stage to stage.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/ghcn-climatology/internal/adapter/noaa"
	"github.com/couchcryptid/ghcn-climatology/internal/domain"
	"github.com/couchcryptid/ghcn-climatology/internal/observability"
)

// Fetcher retrieves the raw .dly text for a station.
type Fetcher interface {
	FetchStation(ctx context.Context, stationID string) (string, error)
}

// RawCache stores and recalls the last good raw .dly text per station.
type RawCache interface {
	Load(stationID string) (string, bool, error)
	Save(stationID, text string) error
}

// OutputWriter serializes the finished tables. Implementations must write
// each artifact atomically.
type OutputWriter interface {
	WriteDaily(stationID string, rows []domain.DailyRow) error
	WriteClimatology(rows []domain.ClimatologyRow) error
	WriteMetadata(meta domain.Metadata) error
	WriteDailyXLSX(stationID string, rows []domain.DailyRow) error
}

// Options carries the run parameters the pipeline needs from configuration.
type Options struct {
	StationID   string
	StartDate   time.Time
	UnitRules   domain.UnitRules
	XLSXEnabled bool
}

// Pipeline runs the fetch → build → complete → interpolate → aggregate →
// write sequence exactly once per invocation.
type Pipeline struct {
	fetcher Fetcher
	cache   RawCache
	writer  OutputWriter
	logger  *slog.Logger
	metrics *observability.Metrics
	opts    Options
}

// New creates a Pipeline with the given collaborators.
func New(f Fetcher, c RawCache, w OutputWriter, logger *slog.Logger, metrics *observability.Metrics, opts Options) *Pipeline {
	return &Pipeline{
		fetcher: f,
		cache:   c,
		writer:  w,
		logger:  logger,
		metrics: metrics,
		opts:    opts,
	}
}

// Run executes one pipeline pass. When no input is available anywhere —
// retrieval exhausted and no cached copy — it returns nil without writing
// anything, so previously published outputs stay up on stale data. A no-data
// condition (input present but zero valid observations) is an error: it
// points at a configuration or upstream data problem.
func (p *Pipeline) Run(ctx context.Context) error {
	start := time.Now()
	defer func() { p.metrics.RunDuration.Set(time.Since(start).Seconds()) }()

	text, ok, err := p.acquireInput(ctx)
	if err != nil {
		return err
	}
	if !ok {
		p.logger.Warn("no station data available and no cached copy, keeping previous outputs",
			"station", p.opts.StationID)
		return nil
	}

	series, stats, err := domain.BuildSeries(text, p.opts.StationID, p.opts.StartDate, p.opts.UnitRules)
	if err != nil {
		return fmt.Errorf("build series: %w", err)
	}
	p.recordBuildStats(stats)
	p.logger.Info("series built",
		"station", p.opts.StationID,
		"start", series.Start.Format("2006-01-02"),
		"last_observed", series.End.Format("2006-01-02"),
		"values_kept", stats.ValuesKept,
	)

	series.CompleteRange(series.Start, series.End)
	imputed := series.InterpolateTemps(series.Start, series.End)
	p.metrics.ValuesImputed.Add(float64(imputed))
	derived := series.DeriveAverageTemp()
	p.logger.Info("gaps filled", "values_imputed", imputed, "tavg_derived", derived)

	dailyRows := domain.DailyRows(series)
	climRows := domain.Climatology(series)
	meta := domain.BuildMetadata(p.opts.StationID, series, dailyRows,
		"single-day TMIN/TMAX gaps imputed as mean of adjacent days")

	if err := p.writeOutputs(dailyRows, climRows, meta); err != nil {
		return err
	}

	p.metrics.RunSuccess.Set(1)
	p.metrics.LastObservedDay.Set(float64(series.End.Unix()))
	p.logger.Info("run complete",
		"daily_rows", len(dailyRows),
		"climatology_rows", len(climRows),
		"imputed_days", meta.ImputedDays,
		"duration", time.Since(start),
	)
	return nil
}

// acquireInput fetches the station file, refreshing the cache on success and
// falling back to the cached copy on exhaustion. The bool result is false
// when no input exists anywhere.
func (p *Pipeline) acquireInput(ctx context.Context) (string, bool, error) {
	text, err := p.fetcher.FetchStation(ctx, p.opts.StationID)
	if err == nil {
		if err := p.cache.Save(p.opts.StationID, text); err != nil {
			// A stale cache is survivable; a failed run is not.
			p.logger.Warn("failed to refresh raw cache", "error", err)
		}
		return text, true, nil
	}
	if ctx.Err() != nil {
		return "", false, ctx.Err()
	}
	if !errors.Is(err, noaa.ErrExhausted) {
		return "", false, fmt.Errorf("fetch station data: %w", err)
	}

	p.logger.Warn("station fetch exhausted, trying cached copy", "error", err)
	cached, ok, cacheErr := p.cache.Load(p.opts.StationID)
	if cacheErr != nil {
		return "", false, fmt.Errorf("load cached station data: %w", cacheErr)
	}
	if !ok {
		return "", false, nil
	}
	p.metrics.CacheFallbacks.Inc()
	p.logger.Info("using cached station data", "station", p.opts.StationID)
	return cached, true, nil
}

// writeOutputs publishes all artifacts. The optional xlsx snapshot is
// best-effort: a failure there is logged and swallowed so it can never block
// the primary CSV outputs.
func (p *Pipeline) writeOutputs(daily []domain.DailyRow, clim []domain.ClimatologyRow, meta domain.Metadata) error {
	if err := p.writer.WriteDaily(p.opts.StationID, daily); err != nil {
		return fmt.Errorf("write daily table: %w", err)
	}
	if err := p.writer.WriteClimatology(clim); err != nil {
		return fmt.Errorf("write climatology table: %w", err)
	}
	if err := p.writer.WriteMetadata(meta); err != nil {
		return fmt.Errorf("write metadata: %w", err)
	}

	if p.opts.XLSXEnabled {
		if err := p.writer.WriteDailyXLSX(p.opts.StationID, daily); err != nil {
			p.logger.Warn("xlsx snapshot failed, continuing", "error", err)
		}
	}
	return nil
}

func (p *Pipeline) recordBuildStats(stats domain.BuildStats) {
	p.metrics.LinesRead.Add(float64(stats.LinesRead))
	p.metrics.ParseAnomalies.Add(float64(stats.LinesMalformed + stats.DaysSkipped))
	p.metrics.ValuesKept.Add(float64(stats.ValuesKept))
	p.metrics.ValuesMissing.Add(float64(stats.ValuesMissing))
}
