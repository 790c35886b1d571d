package mapview

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/observability"
)

// LayerState is the render state of the marker layer.
type LayerState int

const (
	// StateNoData covers an empty directory, an outstanding load, and a failed load.
	StateNoData LayerState = iota
	StateRendered
)

func (s LayerState) String() string {
	if s == StateRendered {
		return "rendered"
	}
	return "no_data"
}

// MarkerLayer renders one classified marker per location on a surface.
type MarkerLayer struct {
	surface Surface
	engine  *Engine
	emitter *Emitter
	ids     []string
	state   LayerState
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewMarkerLayer creates a layer in the no-data state.
func NewMarkerLayer(engine *Engine, emitter *Emitter, logger *slog.Logger, metrics *observability.Metrics) *MarkerLayer {
	return &MarkerLayer{
		engine:  engine,
		emitter: emitter,
		state:   StateNoData,
		logger:  logger,
		metrics: metrics,
	}
}

// State returns the current render state.
func (l *MarkerLayer) State() LayerState {
	return l.state
}

// Count returns the number of markers currently placed.
func (l *MarkerLayer) Count() int {
	return len(l.ids)
}

// Bind points the layer at a surface. Markers on a previous surface are removed.
func (l *MarkerLayer) Bind(surface Surface) {
	l.Clear()
	l.surface = surface
}

// Render replaces the layer's markers with one per location. An empty
// directory short-circuits to StateNoData without constructing any marker.
// A failed render removes the markers it placed.
func (l *MarkerLayer) Render(locations []domain.Location) (LayerState, error) {
	l.Clear()

	if len(locations) == 0 {
		l.state = StateNoData
		return l.state, nil
	}
	if l.surface == nil {
		return l.state, errors.New("marker layer has no surface")
	}

	for i, loc := range locations {
		m := l.markerFor(i, loc)
		if err := l.surface.AddMarker(m); err != nil {
			l.Clear()
			return l.state, fmt.Errorf("add marker %q: %w", loc.Name, err)
		}
		l.ids = append(l.ids, m.ID)
	}

	l.metrics.MarkersRendered.Add(float64(len(l.ids)))
	l.state = StateRendered
	return l.state, nil
}

// Clear removes every marker the layer placed and returns to StateNoData.
func (l *MarkerLayer) Clear() {
	if l.surface != nil {
		for _, id := range l.ids {
			if err := l.surface.RemoveMarker(id); err != nil && !errors.Is(err, ErrSurfaceDestroyed) {
				l.logger.Warn("remove marker failed", "marker", id, "error", err)
			}
		}
	}
	l.ids = nil
	l.state = StateNoData
}

func (l *MarkerLayer) markerFor(i int, loc domain.Location) Marker {
	band, color := domain.ClassifyOptional(loc.AQI)
	label := domain.FormatAQI(loc.AQI)

	return Marker{
		ID:       fmt.Sprintf("loc-%d", i),
		Position: loc.Position(),
		Label:    label,
		Icon:     l.engine.Icon(band, color, label),
		Popup: Popup{
			Name:      loc.Name,
			AQI:       label,
			Condition: loc.Condition,
		},
		OnClick: func() {
			l.emitter.Notify(loc, domain.SelectionMarker)
		},
	}
}
