package domain

import (
	"fmt"
	"math"
)

// SeverityBand is an ordered AQI category. Higher values are more severe.
type SeverityBand int

const (
	BandGood SeverityBand = iota
	BandModerate
	BandSensitiveUnhealthy
	BandUnhealthy
	BandVeryUnhealthy
	BandHazardous
)

// FallbackBand is used for locations without an AQI reading.
const FallbackBand = BandHazardous

// Color is a named display colour with its CSS hex value.
type Color struct {
	Name string `json:"name"`
	Hex  string `json:"hex"`
}

var (
	ColorGreen  = Color{Name: "green", Hex: "#00e400"}
	ColorYellow = Color{Name: "yellow", Hex: "#ffff00"}
	ColorOrange = Color{Name: "orange", Hex: "#ff7e00"}
	ColorRed    = Color{Name: "red", Hex: "#ff0000"}
	ColorPurple = Color{Name: "purple", Hex: "#8f3f97"}
	ColorMaroon = Color{Name: "maroon", Hex: "#7e0023"}
)

type bandRow struct {
	upper int // inclusive
	band  SeverityBand
	color Color
	name  string
	label string
}

// bandTable is ordered by upper bound; the last row is unbounded.
var bandTable = []bandRow{
	{upper: 50, band: BandGood, color: ColorGreen, name: "good", label: "Good"},
	{upper: 100, band: BandModerate, color: ColorYellow, name: "moderate", label: "Moderate"},
	{upper: 150, band: BandSensitiveUnhealthy, color: ColorOrange, name: "sensitive_unhealthy", label: "Unhealthy for Sensitive Groups"},
	{upper: 200, band: BandUnhealthy, color: ColorRed, name: "unhealthy", label: "Unhealthy"},
	{upper: 300, band: BandVeryUnhealthy, color: ColorPurple, name: "very_unhealthy", label: "Very Unhealthy"},
	{upper: math.MaxInt, band: BandHazardous, color: ColorMaroon, name: "hazardous", label: "Hazardous"},
}

// Classify maps an AQI value to its severity band and colour.
func Classify(aqi int) (SeverityBand, Color) {
	for _, row := range bandTable {
		if aqi <= row.upper {
			return row.band, row.color
		}
	}
	// Unreachable: the last row is unbounded.
	last := bandTable[len(bandTable)-1]
	return last.band, last.color
}

// ClassifyOptional classifies a possibly missing AQI. A nil value resolves to
// FallbackBand.
func ClassifyOptional(aqi *int) (SeverityBand, Color) {
	if aqi == nil {
		return FallbackBand, FallbackBand.Color()
	}
	return Classify(*aqi)
}

// Color returns the display colour of the band.
func (b SeverityBand) Color() Color {
	if row, ok := b.row(); ok {
		return row.color
	}
	return ColorMaroon
}

// Label returns the human-readable band name used in the legend.
func (b SeverityBand) Label() string {
	if row, ok := b.row(); ok {
		return row.label
	}
	return "Unknown"
}

// Range returns the band's numeric AQI range, e.g. "101-150" or "301+".
func (b SeverityBand) Range() string {
	row, ok := b.row()
	if !ok {
		return ""
	}
	lower := 0
	if b > BandGood {
		prev, _ := (b - 1).row()
		lower = prev.upper + 1
	}
	if row.upper == math.MaxInt {
		return fmt.Sprintf("%d+", lower)
	}
	return fmt.Sprintf("%d-%d", lower, row.upper)
}

func (b SeverityBand) String() string {
	if row, ok := b.row(); ok {
		return row.name
	}
	return "unknown"
}

func (b SeverityBand) row() (bandRow, bool) {
	if b < BandGood || int(b) >= len(bandTable) {
		return bandRow{}, false
	}
	return bandTable[b], true
}

// LegendEntry is one row of the map legend.
type LegendEntry struct {
	Band  string `json:"band"`
	Label string `json:"label"`
	Range string `json:"range"`
	Color Color  `json:"color"`
}

// Legend returns the six legend entries in severity order.
func Legend() []LegendEntry {
	entries := make([]LegendEntry, 0, len(bandTable))
	for _, row := range bandTable {
		entries = append(entries, LegendEntry{
			Band:  row.name,
			Label: row.label,
			Range: row.band.Range(),
			Color: row.color,
		})
	}
	return entries
}
