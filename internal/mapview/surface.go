package mapview

import (
	"errors"

	"github.com/couchcryptid/air-quality-map/internal/domain"
)

// ErrSurfaceDestroyed is returned by surface operations after Destroy.
var ErrSurfaceDestroyed = errors.New("map surface destroyed")

// Event is a viewport notification raised by a surface.
type Event string

const (
	// EventMoveEnd fires when a pan gesture completes.
	EventMoveEnd Event = "moveend"
	// EventZoomEnd fires when a zoom gesture completes.
	EventZoomEnd Event = "zoomend"
)

// Role distinguishes the two map surfaces of a dashboard.
type Role string

const (
	RolePrimary  Role = "primary"
	RoleOverview Role = "overview"
)

// ViewportFunc receives the surface viewport after a notification.
type ViewportFunc func(domain.Viewport)

// TileLayer describes the raster tile source of a map surface.
type TileLayer struct {
	// URLTemplate uses {z}/{x}/{y} and an optional {r} retina suffix.
	URLTemplate string `json:"url_template"`
	Attribution string `json:"attribution"`
}

// SurfaceOptions configure a new surface.
type SurfaceOptions struct {
	Role     Role
	Viewport domain.Viewport
	Tiles    TileLayer
	// Interactive is false for the overview map, which only follows the primary.
	Interactive bool
}

// Icon is the visual of a marker. Default icons carry no custom content.
type Icon struct {
	Default bool         `json:"default"`
	HTML    string       `json:"html,omitempty"`
	Color   domain.Color `json:"color"`
}

// Popup is the detail shown when a marker is opened.
type Popup struct {
	Name      string `json:"name"`
	AQI       string `json:"aqi"`
	Condition string `json:"condition"`
}

// Marker is a point marker placed on a surface.
type Marker struct {
	ID       string        `json:"id"`
	Position domain.LatLon `json:"position"`
	Label    string        `json:"label"`
	Icon     Icon          `json:"icon"`
	Popup    Popup         `json:"popup"`
	OnClick  func()        `json:"-"`
}

// ControlPosition is a map corner for fixed overlay controls.
type ControlPosition string

const (
	PositionTopRight    ControlPosition = "topright"
	PositionBottomRight ControlPosition = "bottomright"
)

// Control is a fixed-position overlay attached to a surface.
type Control struct {
	ID       string               `json:"id"`
	Position ControlPosition      `json:"position"`
	Title    string               `json:"title"`
	Entries  []domain.LegendEntry `json:"entries"`
}

// Surface is the capability a map engine offers to the dashboard. Surfaces are
// driven from a single event loop and need not be safe for concurrent use.
type Surface interface {
	ID() string
	AddMarker(m Marker) error
	RemoveMarker(id string) error
	AddControl(c Control) error
	RemoveControl(id string) error
	// SetView moves the viewport instantly.
	SetView(v domain.Viewport) error
	// FlyTo animates the viewport to v.
	FlyTo(v domain.Viewport) error
	Viewport() domain.Viewport
	// Subscribe registers fn for event and returns the function that revokes it.
	Subscribe(event Event, fn ViewportFunc) (unsubscribe func())
	Destroy() error
}

// SurfaceFactory creates map surfaces.
type SurfaceFactory interface {
	NewSurface(opts SurfaceOptions) (Surface, error)
}
