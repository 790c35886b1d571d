// Package mapviewtest provides an in-memory map surface for tests.
package mapviewtest

import (
	"fmt"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/mapview"
)

// Surface is a fake mapview.Surface that records every command it receives.
// Fire simulates user gestures; it invokes whatever listeners are still
// registered, even after Destroy, so tests can detect leaked subscriptions.
type Surface struct {
	id        string
	opts      mapview.SurfaceOptions
	viewport  domain.Viewport
	markers   map[string]mapview.Marker
	order     []string
	controls  map[string]mapview.Control
	listeners map[mapview.Event]map[int]mapview.ViewportFunc
	nextSub   int
	destroyed bool

	SetViews      []domain.Viewport
	FlyTos        []domain.Viewport
	MarkersAdded  int
	ControlsAdded int

	// MarkerLimit makes AddMarker fail once that many markers were added. Zero means no limit.
	MarkerLimit int
}

// NewSurface creates a fake surface.
func NewSurface(id string, opts mapview.SurfaceOptions) *Surface {
	return &Surface{
		id:        id,
		opts:      opts,
		viewport:  opts.Viewport,
		markers:   make(map[string]mapview.Marker),
		controls:  make(map[string]mapview.Control),
		listeners: make(map[mapview.Event]map[int]mapview.ViewportFunc),
	}
}

func (s *Surface) ID() string { return s.id }

// Options returns the options the surface was created with.
func (s *Surface) Options() mapview.SurfaceOptions { return s.opts }

func (s *Surface) AddMarker(m mapview.Marker) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	if s.MarkerLimit > 0 && s.MarkersAdded >= s.MarkerLimit {
		return fmt.Errorf("marker limit %d reached", s.MarkerLimit)
	}
	if _, ok := s.markers[m.ID]; !ok {
		s.order = append(s.order, m.ID)
	}
	s.markers[m.ID] = m
	s.MarkersAdded++
	return nil
}

func (s *Surface) RemoveMarker(id string) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	if _, ok := s.markers[id]; !ok {
		return fmt.Errorf("marker %q not found", id)
	}
	delete(s.markers, id)
	for i, v := range s.order {
		if v == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Surface) AddControl(c mapview.Control) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	if _, ok := s.controls[c.ID]; ok {
		return fmt.Errorf("control %q already attached", c.ID)
	}
	s.controls[c.ID] = c
	s.ControlsAdded++
	return nil
}

func (s *Surface) RemoveControl(id string) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	if _, ok := s.controls[id]; !ok {
		return fmt.Errorf("control %q not found", id)
	}
	delete(s.controls, id)
	return nil
}

func (s *Surface) SetView(v domain.Viewport) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	s.viewport = v
	s.SetViews = append(s.SetViews, v)
	return nil
}

func (s *Surface) FlyTo(v domain.Viewport) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	s.viewport = v
	s.FlyTos = append(s.FlyTos, v)
	return nil
}

func (s *Surface) Viewport() domain.Viewport { return s.viewport }

func (s *Surface) Subscribe(event mapview.Event, fn mapview.ViewportFunc) func() {
	if s.listeners[event] == nil {
		s.listeners[event] = make(map[int]mapview.ViewportFunc)
	}
	id := s.nextSub
	s.nextSub++
	s.listeners[event][id] = fn
	return func() { delete(s.listeners[event], id) }
}

func (s *Surface) Destroy() error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	s.destroyed = true
	return nil
}

// Fire simulates a completed gesture: the viewport changes to v and event
// listeners are invoked.
func (s *Surface) Fire(event mapview.Event, v domain.Viewport) {
	s.viewport = v
	for _, fn := range s.listeners[event] {
		fn(v)
	}
}

// Click invokes the click handler of a marker.
func (s *Surface) Click(markerID string) error {
	m, ok := s.markers[markerID]
	if !ok {
		return fmt.Errorf("marker %q not found", markerID)
	}
	if m.OnClick != nil {
		m.OnClick()
	}
	return nil
}

// Markers returns the live markers in insertion order.
func (s *Surface) Markers() []mapview.Marker {
	out := make([]mapview.Marker, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.markers[id])
	}
	return out
}

// Controls returns the number of attached controls.
func (s *Surface) Controls() int { return len(s.controls) }

// Control returns an attached control by id.
func (s *Surface) Control(id string) (mapview.Control, bool) {
	c, ok := s.controls[id]
	return c, ok
}

// Listeners returns the number of live subscriptions.
func (s *Surface) Listeners() int {
	n := 0
	for _, fns := range s.listeners {
		n += len(fns)
	}
	return n
}

// Destroyed reports whether Destroy was called.
func (s *Surface) Destroyed() bool { return s.destroyed }

// Factory is a fake mapview.SurfaceFactory that keeps every surface it created.
type Factory struct {
	Surfaces []*Surface
	Err      error
	// FailRole makes NewSurface fail only for that role when Err is set.
	FailRole mapview.Role
}

func (f *Factory) NewSurface(opts mapview.SurfaceOptions) (mapview.Surface, error) {
	if f.Err != nil && (f.FailRole == "" || f.FailRole == opts.Role) {
		return nil, f.Err
	}
	s := NewSurface(fmt.Sprintf("%s-%d", opts.Role, len(f.Surfaces)), opts)
	f.Surfaces = append(f.Surfaces, s)
	return s, nil
}

// Latest returns the most recently created surface with the given role.
func (f *Factory) Latest(role mapview.Role) *Surface {
	for i := len(f.Surfaces) - 1; i >= 0; i-- {
		if f.Surfaces[i].opts.Role == role {
			return f.Surfaces[i]
		}
	}
	return nil
}
