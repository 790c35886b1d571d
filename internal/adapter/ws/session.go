package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/directory"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/mapview"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	outboundBuffer = 256
)

// session is one mounted dashboard bound to one connection. All dashboard
// state is owned by the run loop; the reader and writer goroutines only move
// messages in and out.
type session struct {
	id     string
	conn   *websocket.Conn
	h      *Handler
	logger *slog.Logger

	in         chan Message
	malformed  chan error
	readErr    chan error
	out        chan Command
	writerDone chan struct{}

	surfaces    map[string]*remoteSurface
	nextSurface int
}

func newSession(id string, conn *websocket.Conn, h *Handler) *session {
	return &session{
		id:         id,
		conn:       conn,
		h:          h,
		logger:     h.logger.With("session", id),
		in:         make(chan Message),
		malformed:  make(chan error),
		readErr:    make(chan error, 1),
		out:        make(chan Command, outboundBuffer),
		writerDone: make(chan struct{}),
		surfaces:   make(map[string]*remoteSurface),
	}
}

// NewSurface implements mapview.SurfaceFactory by creating a page-side map.
func (s *session) NewSurface(opts mapview.SurfaceOptions) (mapview.Surface, error) {
	s.nextSurface++
	id := fmt.Sprintf("%s-%d", opts.Role, s.nextSurface)
	surface := newRemoteSurface(id, opts, s.send, func() { delete(s.surfaces, id) })
	s.surfaces[id] = surface
	return surface, nil
}

func (s *session) send(cmd Command) {
	select {
	case s.out <- cmd:
	case <-s.writerDone:
	}
}

func (s *session) run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)

	go s.writeLoop()
	go s.readLoop(ctx)

	defer func() {
		cancel()
		close(s.out)
		<-s.writerDone
		_ = s.conn.Close()
		s.logger.Info("map session closed")
	}()

	dash, err := mapview.Mount(s, mapview.Options{
		Initial:  s.h.cfg.Initial,
		Tiles:    s.h.cfg.Tiles,
		Engine:   s.h.engines.Engine(),
		OnSelect: func(loc domain.Location, source domain.SelectionSource) { s.selected(ctx, loc, source) },
		Logger:   s.logger,
		Metrics:  s.h.metrics,
	})
	if err != nil {
		s.logger.Error("mount dashboard failed", "error", err)
		s.send(Command{Type: CmdError, Message: "map unavailable"})
		return
	}
	defer dash.Unmount()
	s.logger.Info("map session started")

	// One-shot load; the result is applied from this loop.
	loaded := make(chan directory.Snapshot, 1)
	go func() { loaded <- s.h.loader.Load(ctx) }()

	for {
		select {
		case <-ctx.Done():
			return
		case err := <-s.readErr:
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.logger.Warn("websocket read failed", "error", err)
			}
			return
		case snap := <-loaded:
			s.applyDirectory(dash, snap)
		case msg := <-s.in:
			s.dispatch(dash, msg)
		case err := <-s.malformed:
			s.logger.Warn("malformed message", "error", err)
			s.send(Command{Type: CmdError, Message: "malformed message"})
		}
	}
}

func (s *session) applyDirectory(dash *mapview.Dashboard, snap directory.Snapshot) {
	state, err := dash.ApplyDirectory(snap.Locations)
	if err != nil {
		s.logger.Error("apply directory failed", "error", err)
	}
	if state == mapview.StateNoData {
		s.send(Command{Type: CmdNoData})
	}
	s.logger.Debug("directory applied", "state", state, "locations", snap.Len())
}

func (s *session) dispatch(dash *mapview.Dashboard, msg Message) {
	switch msg.Type {
	case MsgViewport:
		surface, ok := s.surfaces[msg.Surface]
		if !ok || msg.Viewport == nil {
			s.logger.Debug("ignoring viewport message", "surface", msg.Surface)
			return
		}
		if msg.Event != mapview.EventMoveEnd && msg.Event != mapview.EventZoomEnd {
			s.logger.Debug("ignoring viewport event", "event", msg.Event)
			return
		}
		surface.notify(msg.Event, *msg.Viewport)

	case MsgMarkerClick:
		surface, ok := s.surfaces[msg.Surface]
		if !ok || !surface.click(msg.MarkerID) {
			s.logger.Debug("click on unknown marker", "surface", msg.Surface, "marker", msg.MarkerID)
		}

	case MsgSearch:
		if _, ok := dash.Search(msg.Query); !ok && mapview.NormalizeQuery(msg.Query) != "" {
			s.send(Command{Type: CmdSearchMiss, Query: msg.Query})
		}

	case MsgKey:
		res := dash.HandleKey(mapview.KeyEvent{Key: msg.Key, Query: msg.Query})
		s.send(Command{Type: CmdKeyAck, PreventDefault: res.PreventDefault})
		if res.Handled && res.Match == nil && mapview.NormalizeQuery(msg.Query) != "" {
			s.send(Command{Type: CmdSearchMiss, Query: msg.Query})
		}

	case MsgRemount:
		if err := dash.ReplacePrimary(); err != nil {
			s.logger.Error("replace primary map failed", "error", err)
			s.send(Command{Type: CmdError, Message: "map unavailable"})
		}

	default:
		s.logger.Warn("unknown message type", "type", msg.Type)
		s.send(Command{Type: CmdError, Message: "unknown message type " + msg.Type})
	}
}

// selected is the host side of the selection channel.
func (s *session) selected(ctx context.Context, loc domain.Location, source domain.SelectionSource) {
	s.h.metrics.Selections.WithLabelValues(string(source)).Inc()
	ev := domain.NewSelectionEvent(s.id, source, loc)
	s.send(Command{Type: CmdSelected, Selection: &ev})

	if s.h.publisher == nil {
		return
	}
	if err := s.h.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warn("publish selection failed", "location", loc.Name, "error", err)
	}
}

func (s *session) readLoop(ctx context.Context) {
	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			s.readErr <- err
			return
		}

		// A bad payload is reported back; only transport errors end the session.
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			select {
			case s.malformed <- err:
				continue
			case <-ctx.Done():
				return
			}
		}
		select {
		case s.in <- msg:
		case <-ctx.Done():
			return
		}
	}
}

func (s *session) writeLoop() {
	defer close(s.writerDone)
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case cmd, ok := <-s.out:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = s.conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
				return
			}
			if err := s.conn.WriteJSON(cmd); err != nil {
				s.logger.Warn("websocket write failed", "error", err)
				_ = s.conn.Close()
				return
			}
		case <-ticker.C:
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				_ = s.conn.Close()
				return
			}
		}
	}
}

var _ mapview.SurfaceFactory = (*session)(nil)
