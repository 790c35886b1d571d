package ws

import (
	"fmt"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/mapview"
)

// remoteSurface is a mapview.Surface rendered by the page. Its state mirrors
// what has been commanded; viewport changes from gestures arrive as messages.
type remoteSurface struct {
	id        string
	send      func(Command)
	onDestroy func()
	viewport  domain.Viewport
	markers   map[string]mapview.Marker
	controls  map[string]struct{}
	listeners map[mapview.Event]map[int]mapview.ViewportFunc
	nextSub   int
	destroyed bool
}

// newRemoteSurface sends the create command. onDestroy runs once, after the
// destroy command, and may be nil.
func newRemoteSurface(id string, opts mapview.SurfaceOptions, send func(Command), onDestroy func()) *remoteSurface {
	s := &remoteSurface{
		id:        id,
		send:      send,
		onDestroy: onDestroy,
		viewport:  opts.Viewport,
		markers:   make(map[string]mapview.Marker),
		controls:  make(map[string]struct{}),
		listeners: make(map[mapview.Event]map[int]mapview.ViewportFunc),
	}
	tiles := opts.Tiles
	vp := opts.Viewport
	send(Command{
		Type:        CmdCreate,
		Surface:     id,
		Role:        opts.Role,
		Tiles:       &tiles,
		Interactive: opts.Interactive,
		Viewport:    &vp,
	})
	return s
}

func (s *remoteSurface) ID() string { return s.id }

func (s *remoteSurface) AddMarker(m mapview.Marker) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	s.markers[m.ID] = m
	s.send(Command{Type: CmdAddMarker, Surface: s.id, Marker: &m})
	return nil
}

func (s *remoteSurface) RemoveMarker(id string) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	if _, ok := s.markers[id]; !ok {
		return fmt.Errorf("marker %q not on surface %s", id, s.id)
	}
	delete(s.markers, id)
	s.send(Command{Type: CmdRemoveMarker, Surface: s.id, MarkerID: id})
	return nil
}

func (s *remoteSurface) AddControl(c mapview.Control) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	if _, ok := s.controls[c.ID]; ok {
		return fmt.Errorf("control %q already on surface %s", c.ID, s.id)
	}
	s.controls[c.ID] = struct{}{}
	s.send(Command{Type: CmdAddControl, Surface: s.id, Control: &c})
	return nil
}

func (s *remoteSurface) RemoveControl(id string) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	if _, ok := s.controls[id]; !ok {
		return fmt.Errorf("control %q not on surface %s", id, s.id)
	}
	delete(s.controls, id)
	s.send(Command{Type: CmdRemoveControl, Surface: s.id, ControlID: id})
	return nil
}

func (s *remoteSurface) SetView(v domain.Viewport) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	s.viewport = v
	s.send(Command{Type: CmdSetView, Surface: s.id, Viewport: &v})
	return nil
}

func (s *remoteSurface) FlyTo(v domain.Viewport) error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	s.viewport = v
	s.send(Command{Type: CmdFlyTo, Surface: s.id, Viewport: &v})
	return nil
}

func (s *remoteSurface) Viewport() domain.Viewport { return s.viewport }

func (s *remoteSurface) Subscribe(event mapview.Event, fn mapview.ViewportFunc) func() {
	if s.listeners[event] == nil {
		s.listeners[event] = make(map[int]mapview.ViewportFunc)
	}
	id := s.nextSub
	s.nextSub++
	s.listeners[event][id] = fn
	return func() { delete(s.listeners[event], id) }
}

func (s *remoteSurface) Destroy() error {
	if s.destroyed {
		return mapview.ErrSurfaceDestroyed
	}
	s.destroyed = true
	s.markers = nil
	s.send(Command{Type: CmdDestroy, Surface: s.id})
	if s.onDestroy != nil {
		s.onDestroy()
	}
	return nil
}

// notify records a gesture-completed viewport and invokes the listeners.
// Late notifications for a destroyed surface are discarded.
func (s *remoteSurface) notify(event mapview.Event, v domain.Viewport) {
	if s.destroyed {
		return
	}
	s.viewport = v
	for _, fn := range s.listeners[event] {
		fn(v)
	}
}

// click invokes the handler of a marker.
func (s *remoteSurface) click(markerID string) bool {
	m, ok := s.markers[markerID]
	if !ok || m.OnClick == nil {
		return false
	}
	m.OnClick()
	return true
}
