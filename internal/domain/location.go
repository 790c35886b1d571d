package domain

import "time"

// LatLon represents a WGS-84 latitude/longitude coordinate pair.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Pollutant is a single pollutant reading reported alongside a location.
type Pollutant struct {
	Name   string  `json:"name"` // "PM2_5", "NO2", "O3", ...
	Value  float64 `json:"value"`
	Unit   string  `json:"unit,omitempty"`
	Rating string  `json:"rating,omitempty"`
}

// Location is one monitored place. Locations are immutable once loaded.
type Location struct {
	Name       string      `json:"name"`
	Lat        float64     `json:"lat"`
	Lon        float64     `json:"lon"`
	AQI        *int        `json:"aqi"` // nil when the source had no index
	Condition  string      `json:"condition"`
	Pollutants []Pollutant `json:"pollutants,omitempty"`

	// Set when coordinates were filled in by the geocoder: "forward", "failed".
	GeoSource string `json:"geo_source,omitempty"`
}

// Position returns the location's coordinates.
func (l Location) Position() LatLon {
	return LatLon{Lat: l.Lat, Lon: l.Lon}
}

// HasCoordinates reports whether the location carries a non-zero position.
func (l Location) HasCoordinates() bool {
	return l.Lat != 0 || l.Lon != 0
}

// SelectionSource identifies which interaction produced a selection.
type SelectionSource string

const (
	SelectionMarker SelectionSource = "marker"
	SelectionSearch SelectionSource = "search"
)

// SelectionEvent is the payload a host records when a location is selected.
// The map subsystem itself keeps no selection state.
type SelectionEvent struct {
	SessionID  string          `json:"session_id"`
	Source     SelectionSource `json:"source"`
	Location   Location        `json:"location"`
	Band       string          `json:"band"`
	SelectedAt time.Time       `json:"selected_at"`
}

// NewSelectionEvent stamps a selection with the package clock.
func NewSelectionEvent(sessionID string, source SelectionSource, loc Location) SelectionEvent {
	band, _ := ClassifyOptional(loc.AQI)
	return SelectionEvent{
		SessionID:  sessionID,
		Source:     source,
		Location:   loc,
		Band:       band.String(),
		SelectedAt: clock.Now(),
	}
}

// IntPtr returns a pointer to v.
func IntPtr(v int) *int {
	return &v
}
