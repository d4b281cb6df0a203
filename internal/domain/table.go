package domain

import "time"

// DailyRow is one output record of the daily table, one per calendar date in
// the completed range. Nil pointers are missing values and serialize to
// empty cells, never to zero.
type DailyRow struct {
	Date            time.Time
	Year            int
	DOY366          int
	DOY365          *int // nil on Feb 29
	TMinC           *float64
	TMaxC           *float64
	TAvgC           *float64
	PrecipMM        *float64
	SnowfallMM      *float64
	SnowDepthMM     *float64
	ImputedTempFlag bool
	Notes           string
}

// DailyRows flattens the completed, interpolated series into output rows in
// ascending date order.
func DailyRows(s *Series) []DailyRow {
	dates := s.Dates()
	rows := make([]DailyRow, 0, len(dates))
	for _, d := range dates {
		obs := s.Days[d]
		row := DailyRow{
			Date:            d,
			Year:            d.Year(),
			DOY366:          d.YearDay(),
			TMinC:           optional(obs, ElementTMin),
			TMaxC:           optional(obs, ElementTMax),
			TAvgC:           optional(obs, ElementTAvg),
			PrecipMM:        optional(obs, ElementPRCP),
			SnowfallMM:      optional(obs, ElementSNOW),
			SnowDepthMM:     optional(obs, ElementSNWD),
			ImputedTempFlag: obs.WasImputed(),
			Notes:           joinNotes(obs.Notes),
		}
		if doy, ok := DayOfYear365(d); ok {
			row.DOY365 = &doy
		}
		rows = append(rows, row)
	}
	return rows
}

func optional(obs *Observation, el Element) *float64 {
	if v, ok := obs.Values[el]; ok {
		return &v
	}
	return nil
}

func joinNotes(notes []string) string {
	switch len(notes) {
	case 0:
		return ""
	case 1:
		return notes[0]
	}
	joined := notes[0]
	for _, n := range notes[1:] {
		joined += " | " + n
	}
	return joined
}

// Metadata describes a finished run for downstream provenance display.
type Metadata struct {
	StationID    string    `json:"station_id"`
	StartDate    string    `json:"start_date"`
	LastObserved string    `json:"last_observed_date"`
	GeneratedAt  time.Time `json:"generated_at"`
	DailyRows    int       `json:"daily_rows"`
	ImputedDays  int       `json:"imputed_days"`
	Notes        string    `json:"notes,omitempty"`
}

// BuildMetadata assembles the provenance artifact for a completed series.
// The generation timestamp comes from the package clock.
func BuildMetadata(stationID string, s *Series, rows []DailyRow, notes string) Metadata {
	imputed := 0
	for _, r := range rows {
		if r.ImputedTempFlag {
			imputed++
		}
	}
	return Metadata{
		StationID:    stationID,
		StartDate:    s.Start.Format("2006-01-02"),
		LastObserved: s.End.Format("2006-01-02"),
		GeneratedAt:  clock.Now().UTC(),
		DailyRows:    len(rows),
		ImputedDays:  imputed,
		Notes:        notes,
	}
}
