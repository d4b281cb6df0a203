package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// MissingValue is the GHCN-Daily sentinel for "no observation".
const MissingValue = -9999

const (
	stationWidth = 11
	headerWidth  = 21 // station + year + month + element
	dayGroup     = 8  // 5-char value + MFLAG + QFLAG + SFLAG
	valueWidth   = 5
	qflagOffset  = 6 // position of QFLAG within a day group
)

// DayValue is one day's raw sub-field from a .dly line.
type DayValue struct {
	Raw     int
	QFlag   byte
	Present bool // false when the day slot was absent or unparseable
}

// Missing reports whether the day's value must be treated as absent:
// either the sentinel raw value or a failed quality assurance check.
func (v DayValue) Missing() bool {
	return !v.Present || v.Raw == MissingValue || v.QFlag != ' '
}

// StationMonth is one parsed .dly line: a month of raw values for a single
// element at a single station. Days is indexed by day-of-month minus one.
type StationMonth struct {
	StationID string
	Year      int
	Month     int
	Element   Element
	Days      [31]DayValue
}

// ParseLine decodes one fixed-width .dly line. It is a pure function: no
// station filtering, no unit conversion, no calendar validation beyond the
// month number. Lines shorter than 31 day groups yield only the groups that
// fit; a trailing group with a complete value field but truncated flags is
// kept, with the absent flags read as blank.
func ParseLine(line string) (StationMonth, error) {
	if len(line) < headerWidth+valueWidth {
		return StationMonth{}, fmt.Errorf("parse dly line: %d chars is shorter than header plus one value", len(line))
	}

	year, err := strconv.Atoi(strings.TrimSpace(line[stationWidth : stationWidth+4]))
	if err != nil {
		return StationMonth{}, fmt.Errorf("parse dly year: %w", err)
	}
	month, err := strconv.Atoi(strings.TrimSpace(line[stationWidth+4 : stationWidth+6]))
	if err != nil {
		return StationMonth{}, fmt.Errorf("parse dly month: %w", err)
	}
	if month < 1 || month > 12 {
		return StationMonth{}, fmt.Errorf("parse dly month: %d out of range", month)
	}

	rec := StationMonth{
		StationID: line[0:stationWidth],
		Year:      year,
		Month:     month,
		Element:   Element(line[headerWidth-4 : headerWidth]),
	}

	for day := 0; day < 31; day++ {
		pos := headerWidth + day*dayGroup
		if pos+valueWidth > len(line) {
			break
		}
		raw, err := strconv.Atoi(strings.TrimSpace(line[pos : pos+valueWidth]))
		if err != nil {
			// Malformed value field: skip the day, keep the line.
			continue
		}
		qflag := byte(' ')
		if pos+qflagOffset < len(line) {
			qflag = line[pos+qflagOffset]
		}
		rec.Days[day] = DayValue{Raw: raw, QFlag: qflag, Present: true}
	}

	return rec, nil
}
