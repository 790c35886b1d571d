// Package ws drives browser-side map engines over a WebSocket. The page is a
// thin rendering shell: every surface, marker, control and viewport change is
// a command sent from the server, and every gesture is reported back.
package ws

import (
	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/mapview"
)

// Server → page command types.
const (
	CmdCreate        = "create"
	CmdAddMarker     = "add_marker"
	CmdRemoveMarker  = "remove_marker"
	CmdAddControl    = "add_control"
	CmdRemoveControl = "remove_control"
	CmdSetView       = "set_view"
	CmdFlyTo         = "fly_to"
	CmdDestroy       = "destroy"
	CmdNoData        = "no_data"
	CmdSelected      = "selected"
	CmdSearchMiss    = "search_miss"
	CmdKeyAck        = "key_ack"
	CmdError         = "error"
)

// Page → server message types.
const (
	MsgViewport    = "viewport"
	MsgMarkerClick = "marker_click"
	MsgSearch      = "search"
	MsgKey         = "key"
	// MsgRemount asks for a fresh primary map, e.g. after the page rebuilt its layout.
	MsgRemount = "remount_primary"
)

// Command is a single instruction for the page.
type Command struct {
	Type    string `json:"type"`
	Surface string `json:"surface,omitempty"`

	Role        mapview.Role       `json:"role,omitempty"`
	Tiles       *mapview.TileLayer `json:"tiles,omitempty"`
	Interactive bool               `json:"interactive,omitempty"`

	Viewport  *domain.Viewport       `json:"viewport,omitempty"`
	Marker    *mapview.Marker        `json:"marker,omitempty"`
	MarkerID  string                 `json:"marker_id,omitempty"`
	Control   *mapview.Control       `json:"control,omitempty"`
	ControlID string                 `json:"control_id,omitempty"`
	Selection *domain.SelectionEvent `json:"selection,omitempty"`

	Query          string `json:"query,omitempty"`
	PreventDefault bool   `json:"prevent_default,omitempty"`
	Message        string `json:"message,omitempty"`
}

// Message is an event reported by the page.
type Message struct {
	Type    string `json:"type"`
	Surface string `json:"surface,omitempty"`

	// Event is "moveend" or "zoomend" for viewport messages.
	Event    mapview.Event    `json:"event,omitempty"`
	Viewport *domain.Viewport `json:"viewport,omitempty"`
	MarkerID string           `json:"marker_id,omitempty"`
	Query    string           `json:"query,omitempty"`
	Key      string           `json:"key,omitempty"`
}
