package domain

import (
	"bufio"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// ErrNoData signals that the input contained zero valid observations at or
// after the configured start date. This is a data or configuration problem,
// distinct from the network being unavailable.
var ErrNoData = errors.New("no valid observations at or after start date")

// Observation is the progressively enriched record for one calendar date.
// Values holds converted element values; absent keys mean "missing".
type Observation struct {
	Values  map[Element]float64
	Imputed map[Element]bool
	Notes   []string
}

func newObservation() *Observation {
	return &Observation{Values: make(map[Element]float64)}
}

// Value returns the element's value and whether it is present.
func (o *Observation) Value(el Element) (float64, bool) {
	v, ok := o.Values[el]
	return v, ok
}

// WasImputed reports whether any element on this date was gap-filled.
func (o *Observation) WasImputed() bool { return len(o.Imputed) > 0 }

func (o *Observation) markImputed(el Element) {
	if o.Imputed == nil {
		o.Imputed = make(map[Element]bool)
	}
	o.Imputed[el] = true
}

// Series is the owned date→observation table handed from stage to stage.
// Exactly one stage mutates it at a time.
type Series struct {
	Start time.Time
	End   time.Time // last observed date
	Days  map[time.Time]*Observation
}

// BuildStats summarizes what the builder saw, for logging and metrics.
type BuildStats struct {
	LinesRead      int
	LinesIgnored   int // other stations, unrecognized elements
	LinesMalformed int
	ValuesKept     int
	ValuesMissing  int // sentinel or quality-flagged
	DaysSkipped    int // invalid calendar days, dates before start
}

// Date normalizes a calendar date to its canonical map key form.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// BuildSeries folds the raw .dly text into a per-date observation table for
// one station. Records for other stations and dates before start are
// discarded; the most recently read value wins for a (date, element) pair.
// Returns ErrNoData when nothing valid remains.
func BuildSeries(text, stationID string, start time.Time, rules UnitRules) (*Series, BuildStats, error) {
	s := &Series{Start: start, Days: make(map[time.Time]*Observation)}
	var stats BuildStats
	var lastDate time.Time

	scanner := bufio.NewScanner(strings.NewReader(text))
	scanner.Buffer(make([]byte, 0, 512), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		stats.LinesRead++

		rec, err := ParseLine(line)
		if err != nil {
			stats.LinesMalformed++
			continue
		}
		if rec.StationID != stationID || !Elements[rec.Element] {
			stats.LinesIgnored++
			continue
		}

		for i, dv := range rec.Days {
			if !dv.Present {
				continue
			}
			day := i + 1
			d := Date(rec.Year, time.Month(rec.Month), day)
			if d.Day() != day || d.Month() != time.Month(rec.Month) {
				// time.Date normalized an invalid day (e.g. Feb 30) into the
				// next month; such slots are padding, not observations.
				stats.DaysSkipped++
				continue
			}
			if d.Before(start) {
				stats.DaysSkipped++
				continue
			}
			if dv.Missing() {
				stats.ValuesMissing++
				continue
			}

			obs, ok := s.Days[d]
			if !ok {
				obs = newObservation()
				s.Days[d] = obs
			}
			obs.Values[rec.Element] = rules.Convert(rec.Element, dv.Raw)
			stats.ValuesKept++
			if d.After(lastDate) {
				lastDate = d
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan dly text: %w", err)
	}

	if lastDate.IsZero() {
		return nil, stats, fmt.Errorf("%w (station %s, start %s)", ErrNoData, stationID, start.Format("2006-01-02"))
	}
	s.End = lastDate
	return s, stats, nil
}

// CompleteRange guarantees an observation entry (possibly empty) for every
// date in [start, end] inclusive. Idempotent.
func (s *Series) CompleteRange(start, end time.Time) {
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if _, ok := s.Days[d]; !ok {
			s.Days[d] = newObservation()
		}
	}
}

// InterpolateTemps fills isolated single-day holes in TMIN and TMAX with the
// mean of the two neighboring days. Only the strict interior of the range is
// touched: the first and last date are never modified. Single pass; a hole
// wider than one day fails the neighbor checks and stays missing. Returns the
// number of values filled.
func (s *Series) InterpolateTemps(start, end time.Time) int {
	filled := 0
	for d := start.AddDate(0, 0, 1); d.Before(end); d = d.AddDate(0, 0, 1) {
		obs := s.Days[d]
		if obs == nil {
			obs = newObservation()
			s.Days[d] = obs
		}
		prev := s.Days[d.AddDate(0, 0, -1)]
		next := s.Days[d.AddDate(0, 0, 1)]
		if prev == nil || next == nil {
			continue
		}

		for _, el := range []Element{ElementTMin, ElementTMax} {
			if _, ok := obs.Values[el]; ok {
				continue
			}
			pv, pok := prev.Values[el]
			nv, nok := next.Values[el]
			if !pok || !nok {
				continue
			}
			obs.Values[el] = (pv + nv) / 2.0
			obs.markImputed(el)
			filled++
		}
		if obs.WasImputed() && len(obs.Notes) == 0 {
			obs.Notes = append(obs.Notes, imputationNote(obs))
		}
	}
	return filled
}

func imputationNote(obs *Observation) string {
	els := make([]string, 0, len(obs.Imputed))
	for el := range obs.Imputed {
		els = append(els, string(el))
	}
	sort.Strings(els)
	return "imputed " + strings.Join(els, ",") + " as mean of adjacent days"
}

// DeriveAverageTemp fills TAVG as (TMIN+TMAX)/2 wherever TAVG is not directly
// observed and both inputs are present. Runs after interpolation so that a
// derivation over freshly imputed inputs is possible. Returns the number of
// values derived.
func (s *Series) DeriveAverageTemp() int {
	derived := 0
	for _, obs := range s.Days {
		if _, ok := obs.Values[ElementTAvg]; ok {
			continue
		}
		tmin, minOK := obs.Values[ElementTMin]
		tmax, maxOK := obs.Values[ElementTMax]
		if !minOK || !maxOK {
			continue
		}
		obs.Values[ElementTAvg] = (tmin + tmax) / 2.0
		obs.Notes = append(obs.Notes, "TAVG derived as (TMIN+TMAX)/2")
		derived++
	}
	return derived
}

// Dates returns every date in the table in ascending order.
func (s *Series) Dates() []time.Time {
	dates := make([]time.Time, 0, len(s.Days))
	for d := range s.Days {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
