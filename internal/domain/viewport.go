package domain

const (
	// SearchZoom is the zoom level search navigation flies to.
	SearchZoom = 8

	overviewZoomOffset = 2
	overviewMinZoom    = 1
	overviewMaxZoom    = 7
)

// Viewport is a map's visible region.
type Viewport struct {
	Center LatLon `json:"center"`
	Zoom   int    `json:"zoom"`
}

// OverviewOf derives the overview map viewport from the primary one. The
// relationship is one-directional: nothing derives a primary from an overview.
func OverviewOf(primary Viewport) Viewport {
	return Viewport{
		Center: primary.Center,
		Zoom:   OverviewZoom(primary.Zoom),
	}
}

// OverviewZoom returns clamp(zoom-2, 1, 7).
func OverviewZoom(zoom int) int {
	return min(max(zoom-overviewZoomOffset, overviewMinZoom), overviewMaxZoom)
}
