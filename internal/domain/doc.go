// Package domain models NOAA GHCN-Daily station data and the climatology
// derived from it.
//
// # Data Source
//
// Observations come from GHCN-Daily per-station ".dly" files published at
// https://www.ncei.noaa.gov/pub/data/ghcn/daily/all/. Each line carries one
// month of values for one element at one station, in a fixed-width layout:
//
//	columns 1-11   station identifier
//	columns 12-15  year
//	columns 16-17  month
//	columns 18-21  element code
//	columns 22-end up to 31 day groups of 8 characters each:
//	               5-char signed integer value, then MFLAG, QFLAG, SFLAG
//
// Day groups always occupy 31 slots in well-formed files, but lines may be
// truncated; the parser only reads groups that are actually present.
//
// # Value Conventions
//
// The sentinel -9999 means "no observation" and is never a numeric zero.
// A non-blank QFLAG means the value failed a NOAA quality assurance check
// and is treated as missing rather than trusted.
//
// Units as stored in the .dly file:
//
//	TMIN, TMAX, TAVG  tenths of degrees Celsius
//	PRCP              tenths of millimeters
//	SNOW, SNWD        millimeters (NOAA convention); some historical feeds
//	                  used tenths of millimeters, selectable via SNOW_UNITS
//
// # Day-of-Year Normalization
//
// Climatology buckets use a 365-day scale (DOY_365) so that "July 4th" lands
// in the same bucket every year: Feb 29 maps to no bucket, and every date on
// or after Mar 1 of a leap year has its ordinal day-of-year reduced by one.
// Within a non-leap year DOY_365 is exactly the calendar ordinal.
//
// # Imputation
//
// An isolated one-day hole in TMIN or TMAX is filled with the mean of the
// two neighboring days. Multi-day gaps are left missing, as are the first
// and last day of the series. Every filled value is flagged so downstream
// consumers can distinguish observed from imputed temperatures.
package domain
