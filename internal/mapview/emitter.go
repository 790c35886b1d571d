package mapview

import "github.com/couchcryptid/air-quality-map/internal/domain"

// SelectFunc is the host callback receiving selected locations.
type SelectFunc func(loc domain.Location, source domain.SelectionSource)

// Emitter forwards selections to the host synchronously. It keeps no state.
type Emitter struct {
	onSelect SelectFunc
}

// NewEmitter wraps the host callback. A nil callback drops selections.
func NewEmitter(onSelect SelectFunc) *Emitter {
	return &Emitter{onSelect: onSelect}
}

// Notify delivers one selection.
func (e *Emitter) Notify(loc domain.Location, source domain.SelectionSource) {
	if e == nil || e.onSelect == nil {
		return
	}
	e.onSelect(loc, source)
}
