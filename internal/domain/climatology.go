package domain

import (
	"math"
	"sort"
)

// ClimatologyMetrics are the elements aggregated per day-of-year bucket.
var ClimatologyMetrics = []Element{ElementTMin, ElementTMax, ElementTAvg, ElementPRCP}

// Aggregate holds the long-run statistics of one metric in one bucket.
// Pointers are nil when the bucket had zero non-missing samples for the
// metric; a missing aggregate is never reported as zero.
type Aggregate struct {
	Count int
	Mean  *float64
	P10   *float64
	P50   *float64
	P90   *float64
}

// ClimatologyRow is the aggregate record for one DOY_365 bucket.
type ClimatologyRow struct {
	DOY365  int
	Metrics map[Element]Aggregate
}

// Climatology groups the series by normalized day-of-year, dropping Feb 29
// entries, and computes mean and 10th/50th/90th percentiles per metric.
// Rows are sorted ascending by bucket and cover exactly the buckets that
// occur in the series.
func Climatology(s *Series) []ClimatologyRow {
	samples := make(map[int]map[Element][]float64)
	for d, obs := range s.Days {
		doy, ok := DayOfYear365(d)
		if !ok {
			continue
		}
		bucket, ok := samples[doy]
		if !ok {
			bucket = make(map[Element][]float64)
			samples[doy] = bucket
		}
		for _, el := range ClimatologyMetrics {
			if v, ok := obs.Values[el]; ok {
				bucket[el] = append(bucket[el], v)
			}
		}
	}

	buckets := make([]int, 0, len(samples))
	for doy := range samples {
		buckets = append(buckets, doy)
	}
	sort.Ints(buckets)

	rows := make([]ClimatologyRow, 0, len(buckets))
	for _, doy := range buckets {
		row := ClimatologyRow{DOY365: doy, Metrics: make(map[Element]Aggregate)}
		for _, el := range ClimatologyMetrics {
			row.Metrics[el] = aggregate(samples[doy][el])
		}
		rows = append(rows, row)
	}
	return rows
}

func aggregate(values []float64) Aggregate {
	if len(values) == 0 {
		return Aggregate{}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	mean := sum / float64(len(sorted))

	return Aggregate{
		Count: len(sorted),
		Mean:  &mean,
		P10:   ptr(Percentile(sorted, 0.10)),
		P50:   ptr(Percentile(sorted, 0.50)),
		P90:   ptr(Percentile(sorted, 0.90)),
	}
}

// Percentile computes quantile q over an ascending-sorted sample using linear
// interpolation between order statistics at position q*(n-1).
func Percentile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return math.NaN()
	}
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (pos-float64(lo))*(sorted[hi]-sorted[lo])
}

func ptr(v float64) *float64 { return &v }
