package ws

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/couchcryptid/air-quality-map/internal/directory"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/mapview"
	"github.com/couchcryptid/air-quality-map/internal/observability"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// DirectoryLoader produces the location directory for a new session.
type DirectoryLoader interface {
	Load(ctx context.Context) directory.Snapshot
}

// SelectionPublisher records selections outside the session.
type SelectionPublisher interface {
	Publish(ctx context.Context, event domain.SelectionEvent) error
}

// Config is the per-session map setup.
type Config struct {
	Initial        domain.Viewport
	Tiles          mapview.TileLayer
	AllowedOrigins []string
}

// Handler upgrades requests to map sessions.
type Handler struct {
	cfg       Config
	loader    DirectoryLoader
	engines   *mapview.EngineLoader
	publisher SelectionPublisher
	logger    *slog.Logger
	metrics   *observability.Metrics
	upgrader  websocket.Upgrader

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewHandler creates a session handler. publisher may be nil.
func NewHandler(cfg Config, loader DirectoryLoader, engines *mapview.EngineLoader, publisher SelectionPublisher, logger *slog.Logger, metrics *observability.Metrics) *Handler {
	ctx, cancel := context.WithCancel(context.Background())
	h := &Handler{
		cfg:       cfg,
		loader:    loader,
		engines:   engines,
		publisher: publisher,
		logger:    logger,
		metrics:   metrics,
		ctx:       ctx,
		cancel:    cancel,
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 4096,
		CheckOrigin:     h.checkOrigin,
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err, "remote", r.RemoteAddr)
		return
	}

	h.wg.Add(1)
	defer h.wg.Done()
	newSession(uuid.NewString(), conn, h).run(h.ctx)
}

// Close ends every open session and waits for them to unmount.
func (h *Handler) Close() {
	h.cancel()
	h.wg.Wait()
}

// checkOrigin allows same-origin requests, requests without an Origin header,
// and origins on the allow-list. Entries may contain one "*" wildcard, as in
// "https://*.vercel.app".
func (h *Handler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || origin == "http://"+r.Host || origin == "https://"+r.Host {
		return true
	}
	for _, allowed := range h.cfg.AllowedOrigins {
		if matchOrigin(allowed, origin) {
			return true
		}
	}
	h.logger.Warn("rejected websocket origin", "origin", origin)
	return false
}

func matchOrigin(pattern, origin string) bool {
	if pattern == "*" {
		return true
	}
	prefix, suffix, wildcard := strings.Cut(pattern, "*")
	if !wildcard {
		return strings.EqualFold(pattern, origin)
	}
	origin = strings.ToLower(origin)
	return len(origin) >= len(prefix)+len(suffix) &&
		strings.HasPrefix(origin, strings.ToLower(prefix)) &&
		strings.HasSuffix(origin, strings.ToLower(suffix))
}
