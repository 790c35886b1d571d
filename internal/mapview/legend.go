package mapview

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/air-quality-map/internal/domain"
)

const legendControlID = "aqi-legend"

// Legend is the band-to-colour overlay of the primary surface. At most one
// legend control is attached at any time.
type Legend struct {
	surface Surface
	logger  *slog.Logger
}

// NewLegend creates a detached legend.
func NewLegend(logger *slog.Logger) *Legend {
	return &Legend{logger: logger}
}

// Control builds the legend control with the six bands in severity order.
func (l *Legend) Control() Control {
	return Control{
		ID:       legendControlID,
		Position: PositionBottomRight,
		Title:    "Air Quality Index",
		Entries:  domain.Legend(),
	}
}

// Attach adds the legend to surface. A legend attached elsewhere is removed
// from its old surface first; attaching to the same surface again is a no-op.
func (l *Legend) Attach(surface Surface) error {
	if l.surface == surface {
		return nil
	}
	l.Detach()

	if err := surface.AddControl(l.Control()); err != nil {
		return fmt.Errorf("attach legend: %w", err)
	}
	l.surface = surface
	return nil
}

// Detach fully removes the legend control from its surface.
func (l *Legend) Detach() {
	if l.surface == nil {
		return
	}
	if err := l.surface.RemoveControl(legendControlID); err != nil && !errors.Is(err, ErrSurfaceDestroyed) {
		l.logger.Warn("detach legend failed", "surface", l.surface.ID(), "error", err)
	}
	l.surface = nil
}

// Attached reports whether the legend is on a surface.
func (l *Legend) Attached() bool {
	return l.surface != nil
}
