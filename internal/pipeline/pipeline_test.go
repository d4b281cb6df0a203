package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ghcn-climatology/internal/adapter/noaa"
	"github.com/couchcryptid/ghcn-climatology/internal/domain"
	"github.com/couchcryptid/ghcn-climatology/internal/observability"
	"github.com/couchcryptid/ghcn-climatology/internal/pipeline"
)

const stationID = "USW00013743"

// --- stubs ---

type stubFetcher struct {
	text string
	err  error
}

func (f *stubFetcher) FetchStation(_ context.Context, _ string) (string, error) {
	return f.text, f.err
}

type stubCache struct {
	stored  map[string]string
	loadErr error
}

func newStubCache() *stubCache { return &stubCache{stored: make(map[string]string)} }

func (c *stubCache) Load(stationID string) (string, bool, error) {
	if c.loadErr != nil {
		return "", false, c.loadErr
	}
	text, ok := c.stored[stationID]
	return text, ok, nil
}

func (c *stubCache) Save(stationID, text string) error {
	c.stored[stationID] = text
	return nil
}

type stubWriter struct {
	daily   []domain.DailyRow
	clim    []domain.ClimatologyRow
	meta    *domain.Metadata
	xlsx    bool
	xlsxErr error
}

func (w *stubWriter) WriteDaily(_ string, rows []domain.DailyRow) error {
	w.daily = rows
	return nil
}

func (w *stubWriter) WriteClimatology(rows []domain.ClimatologyRow) error {
	w.clim = rows
	return nil
}

func (w *stubWriter) WriteMetadata(meta domain.Metadata) error {
	w.meta = &meta
	return nil
}

func (w *stubWriter) WriteDailyXLSX(_ string, _ []domain.DailyRow) error {
	w.xlsx = true
	return w.xlsxErr
}

// dlyLine builds one full-width .dly line; days absent from values carry the
// missing sentinel.
func dlyLine(station string, year, month int, element string, values map[int]int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%-11s%04d%02d%-4s", station, year, month, element)
	for day := 1; day <= 31; day++ {
		v := domain.MissingValue
		if val, ok := values[day]; ok {
			v = val
		}
		fmt.Fprintf(&b, "%5d   ", v)
	}
	return b.String()
}

func defaultOptions() pipeline.Options {
	return pipeline.Options{
		StationID: stationID,
		StartDate: domain.Date(1995, time.January, 1),
	}
}

func newPipeline(f pipeline.Fetcher, c pipeline.RawCache, w pipeline.OutputWriter, opts pipeline.Options) *pipeline.Pipeline {
	return pipeline.New(f, c, w, slog.Default(), observability.NewMetrics(), opts)
}

// --- tests ---

func TestPipeline_Run_EndToEnd(t *testing.T) {
	// Jan 1-3 1995 with the middle TMIN missing: the reconstructed series is
	// [-5.0, -4.0, -3.0] with only day 2 flagged as imputed.
	text := dlyLine(stationID, 1995, 1, "TMIN", map[int]int{1: -50, 3: -30})

	fetcher := &stubFetcher{text: text}
	cache := newStubCache()
	writer := &stubWriter{}
	p := newPipeline(fetcher, cache, writer, defaultOptions())

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, writer.daily, 3)
	expected := []float64{-5.0, -4.0, -3.0}
	flags := []bool{false, true, false}
	for i, row := range writer.daily {
		require.NotNil(t, row.TMinC, "day %d", i+1)
		assert.InDelta(t, expected[i], *row.TMinC, 1e-9)
		assert.Equal(t, flags[i], row.ImputedTempFlag)
	}

	require.Len(t, writer.clim, 3)
	assert.Equal(t, 1, writer.clim[0].DOY365)

	require.NotNil(t, writer.meta)
	assert.Equal(t, stationID, writer.meta.StationID)
	assert.Equal(t, "1995-01-03", writer.meta.LastObserved)
	assert.Equal(t, 1, writer.meta.ImputedDays)

	assert.Equal(t, text, cache.stored[stationID], "successful fetch refreshes the cache")
}

func TestPipeline_Run_FallsBackToCache(t *testing.T) {
	text := dlyLine(stationID, 1995, 1, "TMIN", map[int]int{1: -50, 2: -40})

	fetcher := &stubFetcher{err: fmt.Errorf("%w: all mirrors down", noaa.ErrExhausted)}
	cache := newStubCache()
	cache.stored[stationID] = text
	writer := &stubWriter{}
	p := newPipeline(fetcher, cache, writer, defaultOptions())

	require.NoError(t, p.Run(context.Background()))
	assert.Len(t, writer.daily, 2, "cached copy feeds the run")
}

func TestPipeline_Run_NoInputAnywhereIsSuccessfulNoop(t *testing.T) {
	fetcher := &stubFetcher{err: fmt.Errorf("%w: all mirrors down", noaa.ErrExhausted)}
	cache := newStubCache()
	writer := &stubWriter{}
	p := newPipeline(fetcher, cache, writer, defaultOptions())

	err := p.Run(context.Background())

	require.NoError(t, err, "stay up with stale data")
	assert.Nil(t, writer.daily)
	assert.Nil(t, writer.clim)
	assert.Nil(t, writer.meta)
	assert.False(t, writer.xlsx)
}

func TestPipeline_Run_NoDataIsFatal(t *testing.T) {
	// The fetch succeeds but the file holds nothing usable at/after start:
	// a configuration or upstream data problem, not a transient outage.
	fetcher := &stubFetcher{text: dlyLine("USW00099999", 1995, 1, "TMIN", map[int]int{1: -50})}
	cache := newStubCache()
	writer := &stubWriter{}
	p := newPipeline(fetcher, cache, writer, defaultOptions())

	err := p.Run(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNoData)
	assert.Nil(t, writer.daily)
}

func TestPipeline_Run_XLSXFailureIsSwallowed(t *testing.T) {
	text := dlyLine(stationID, 1995, 1, "TMIN", map[int]int{1: -50})

	fetcher := &stubFetcher{text: text}
	cache := newStubCache()
	writer := &stubWriter{xlsxErr: errors.New("disk full")}
	opts := defaultOptions()
	opts.XLSXEnabled = true
	p := newPipeline(fetcher, cache, writer, opts)

	require.NoError(t, p.Run(context.Background()))
	assert.True(t, writer.xlsx)
	assert.NotNil(t, writer.meta, "primary outputs written despite xlsx failure")
}

func TestPipeline_Run_XLSXDisabled(t *testing.T) {
	text := dlyLine(stationID, 1995, 1, "TMIN", map[int]int{1: -50})

	writer := &stubWriter{}
	p := newPipeline(&stubFetcher{text: text}, newStubCache(), writer, defaultOptions())

	require.NoError(t, p.Run(context.Background()))
	assert.False(t, writer.xlsx)
}

func TestPipeline_Run_SnowUnitVariant(t *testing.T) {
	text := dlyLine(stationID, 1995, 1, "SNOW", map[int]int{1: 120})

	writer := &stubWriter{}
	opts := defaultOptions()
	opts.UnitRules = domain.UnitRules{SnowInTenths: true}
	p := newPipeline(&stubFetcher{text: text}, newStubCache(), writer, opts)

	require.NoError(t, p.Run(context.Background()))
	require.Len(t, writer.daily, 1)
	require.NotNil(t, writer.daily[0].SnowfallMM)
	assert.InDelta(t, 12.0, *writer.daily[0].SnowfallMM, 1e-9)
}
