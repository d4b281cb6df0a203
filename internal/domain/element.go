package domain

// Element is a GHCN-Daily observation element code.
type Element string

const (
	ElementTMin Element = "TMIN" // daily minimum temperature
	ElementTMax Element = "TMAX" // daily maximum temperature
	ElementTAvg Element = "TAVG" // daily average temperature
	ElementPRCP Element = "PRCP" // precipitation
	ElementSNOW Element = "SNOW" // snowfall
	ElementSNWD Element = "SNWD" // snow depth
)

// Elements lists the recognized element codes; lines carrying any other code
// are ignored by the builder.
var Elements = map[Element]bool{
	ElementTMin: true,
	ElementTMax: true,
	ElementTAvg: true,
	ElementPRCP: true,
	ElementSNOW: true,
	ElementSNWD: true,
}

// tenthsElements store values in tenths of a unit in the .dly file.
var tenthsElements = map[Element]bool{
	ElementTMin: true,
	ElementTMax: true,
	ElementTAvg: true,
	ElementPRCP: true,
}

// UnitRules selects the conversion applied to raw .dly integers.
// SnowInTenths covers the historical feeds that stored SNOW/SNWD in tenths
// of millimeters instead of whole millimeters.
type UnitRules struct {
	SnowInTenths bool
}

// Convert turns a raw .dly integer into the element's final unit.
func (r UnitRules) Convert(el Element, raw int) float64 {
	if tenthsElements[el] {
		return float64(raw) / 10.0
	}
	if r.SnowInTenths && (el == ElementSNOW || el == ElementSNWD) {
		return float64(raw) / 10.0
	}
	return float64(raw)
}
