package domain

import "time"

// DayOfYear365 maps a date to the normalized 365-day scale used for
// climatology bucketing. Feb 29 maps to nothing (ok=false); every date on or
// after Mar 1 of a leap year has its calendar ordinal reduced by one so that
// the same bucket means the same calendar day across leap and non-leap years.
func DayOfYear365(d time.Time) (int, bool) {
	if d.Month() == time.February && d.Day() == 29 {
		return 0, false
	}
	doy := d.YearDay()
	if isLeapYear(d.Year()) && doy > 59 {
		return doy - 1, true
	}
	return doy, true
}

func isLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
