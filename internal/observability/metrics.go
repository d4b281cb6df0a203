package observability

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Metrics holds the Prometheus instruments for one pipeline run. The binary
// is a short-lived batch job, so instead of a scrape endpoint the final
// values are exported as a node_exporter textfile (see WriteTextfile).
type Metrics struct {
	registry *prometheus.Registry

	LinesRead       prometheus.Counter
	ParseAnomalies  prometheus.Counter
	ValuesKept      prometheus.Counter
	ValuesMissing   prometheus.Counter
	ValuesImputed   prometheus.Counter
	FetchRetries    prometheus.Counter
	CacheFallbacks  prometheus.Counter
	RunSuccess      prometheus.Gauge
	LastObservedDay prometheus.Gauge
	RunDuration     prometheus.Gauge
}

// NewMetrics creates and registers all run metrics on a private registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		LinesRead: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghcn_climatology",
			Name:      "lines_read_total",
			Help:      "Lines read from the station .dly input.",
		}),
		ParseAnomalies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghcn_climatology",
			Name:      "parse_anomalies_total",
			Help:      "Malformed lines and invalid calendar days skipped during parsing.",
		}),
		ValuesKept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghcn_climatology",
			Name:      "values_kept_total",
			Help:      "Daily element values accepted into the series.",
		}),
		ValuesMissing: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghcn_climatology",
			Name:      "values_missing_total",
			Help:      "Daily element values dropped as sentinel-missing or quality-flagged.",
		}),
		ValuesImputed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghcn_climatology",
			Name:      "values_imputed_total",
			Help:      "Temperature values filled by single-day interpolation.",
		}),
		FetchRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghcn_climatology",
			Name:      "fetch_retries_total",
			Help:      "HTTP fetch attempts beyond the first.",
		}),
		CacheFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ghcn_climatology",
			Name:      "cache_fallbacks_total",
			Help:      "Runs that used the cached .dly copy instead of a live download.",
		}),
		RunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ghcn_climatology",
			Name:      "run_success",
			Help:      "1 when the last run completed and wrote outputs.",
		}),
		LastObservedDay: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ghcn_climatology",
			Name:      "last_observed_timestamp_seconds",
			Help:      "Unix time of the last observed date in the series.",
		}),
		RunDuration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ghcn_climatology",
			Name:      "run_duration_seconds",
			Help:      "Wall-clock duration of the last pipeline run.",
		}),
	}

	reg.MustRegister(
		m.LinesRead,
		m.ParseAnomalies,
		m.ValuesKept,
		m.ValuesMissing,
		m.ValuesImputed,
		m.FetchRetries,
		m.CacheFallbacks,
		m.RunSuccess,
		m.LastObservedDay,
		m.RunDuration,
	)
	return m
}

// WriteTextfile exports the registry in the Prometheus text format to path,
// atomically, for collection by node_exporter's textfile collector.
func (m *Metrics) WriteTextfile(path string) error {
	families, err := m.registry.Gather()
	if err != nil {
		return fmt.Errorf("gather metrics: %w", err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create metrics temp file: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after successful rename

	enc := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := enc.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("encode metrics: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close metrics temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace metrics file: %w", err)
	}
	return nil
}
