// Package tabular serializes the finished daily and climatology tables for
// the static dashboard. Every file is written atomically: content goes to a
// temp file in the output directory and is renamed into place, so consumers
// never observe a partially written table.
package tabular

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/couchcryptid/ghcn-climatology/internal/domain"
)

// StatMode selects which aggregate columns the climatology table carries.
type StatMode string

const (
	StatMean        StatMode = "mean"
	StatPercentiles StatMode = "percentiles"
)

var dailyHeader = []string{
	"Date", "Year", "DOY_366", "DOY_365",
	"Tmin_C", "Tmax_C", "Tavg_C", "PRCP_mm", "SNOW_mm", "SNWD_mm",
	"ImputedTempFlag",
}

// Writer writes the pipeline's output tables under a single directory,
// using the climatology column layout selected at construction.
type Writer struct {
	dir  string
	mode StatMode
}

// NewWriter creates a Writer rooted at dir, creating it if needed.
func NewWriter(dir string, mode StatMode) (*Writer, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	return &Writer{dir: dir, mode: mode}, nil
}

// DailyPath returns where the daily table for the station is written.
func (w *Writer) DailyPath(stationID string) string {
	return filepath.Join(w.dir, stationID+"_daily.csv")
}

// ClimatologyPath returns where the climatology table is written.
func (w *Writer) ClimatologyPath() string {
	return filepath.Join(w.dir, "climatology_doy365_"+string(w.mode)+".csv")
}

// MetadataPath returns where the provenance artifact is written.
func (w *Writer) MetadataPath(stationID string) string {
	return filepath.Join(w.dir, stationID+"_metadata.json")
}

// WriteDaily writes one CSV row per calendar date. Missing values become
// empty cells.
func (w *Writer) WriteDaily(stationID string, rows []domain.DailyRow) error {
	records := make([][]string, 0, len(rows)+1)
	records = append(records, dailyHeader)
	for _, r := range rows {
		flag := "0"
		if r.ImputedTempFlag {
			flag = "1"
		}
		records = append(records, []string{
			r.Date.Format("2006-01-02"),
			strconv.Itoa(r.Year),
			strconv.Itoa(r.DOY366),
			formatInt(r.DOY365),
			formatFloat(r.TMinC),
			formatFloat(r.TMaxC),
			formatFloat(r.TAvgC),
			formatFloat(r.PrecipMM),
			formatFloat(r.SnowfallMM),
			formatFloat(r.SnowDepthMM),
			flag,
		})
	}
	return w.writeCSV(w.DailyPath(stationID), records)
}

// WriteClimatology writes one CSV row per DOY_365 bucket. In mean mode each
// metric gets a plain column; in percentile mode each metric gets
// _p10/_p50/_p90 suffixed columns.
func (w *Writer) WriteClimatology(rows []domain.ClimatologyRow) error {
	header := []string{"DOY_365"}
	metricNames := map[domain.Element]string{
		domain.ElementTMin: "Tmin_C",
		domain.ElementTMax: "Tmax_C",
		domain.ElementTAvg: "Tavg_C",
		domain.ElementPRCP: "PRCP_mm",
	}
	for _, el := range domain.ClimatologyMetrics {
		name := metricNames[el]
		if w.mode == StatPercentiles {
			header = append(header, name+"_p10", name+"_p50", name+"_p90")
		} else {
			header = append(header, name)
		}
	}

	records := make([][]string, 0, len(rows)+1)
	records = append(records, header)
	for _, row := range rows {
		rec := []string{strconv.Itoa(row.DOY365)}
		for _, el := range domain.ClimatologyMetrics {
			agg := row.Metrics[el]
			if w.mode == StatPercentiles {
				rec = append(rec, formatFloat(agg.P10), formatFloat(agg.P50), formatFloat(agg.P90))
			} else {
				rec = append(rec, formatFloat(agg.Mean))
			}
		}
		records = append(records, rec)
	}
	return w.writeCSV(w.ClimatologyPath(), records)
}

// WriteMetadata writes the provenance artifact as indented JSON.
func (w *Writer) WriteMetadata(meta domain.Metadata) error {
	data, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal metadata: %w", err)
	}
	return w.writeAtomic(w.MetadataPath(meta.StationID), append(data, '\n'))
}

func (w *Writer) writeCSV(path string, records [][]string) error {
	tmp, err := os.CreateTemp(w.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after successful rename

	cw := csv.NewWriter(tmp)
	if err := cw.WriteAll(records); err != nil {
		tmp.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

func (w *Writer) writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(w.dir, filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("create temp output: %w", err)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // no-op after successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace output: %w", err)
	}
	return nil
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}
