package http

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/directory"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

//go:embed web
var webFS embed.FS

// DirectoryLoader serves the current location directory.
type DirectoryLoader interface {
	Load(ctx context.Context) directory.Snapshot
}

// Routes are the handlers and collaborators the server mounts.
type Routes struct {
	Ready          sharedobs.ReadinessChecker
	Sessions       http.Handler
	Directory      DirectoryLoader
	AllowedOrigins []string
}

// Server exposes the map page, map sessions, JSON APIs, and health, readiness
// and metrics endpoints.
type Server struct {
	httpServer *http.Server
	logger     *slog.Logger
}

// NewServer creates an HTTP server on addr.
func NewServer(addr string, routes Routes, logger *slog.Logger) *Server {
	s := &Server{
		httpServer: &http.Server{
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
		logger: logger,
	}
	s.httpServer.Handler = s.buildRouter(routes)
	return s
}

func (s *Server) buildRouter(routes Routes) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   routes.AllowedOrigins,
		AllowedMethods:   []string{"GET", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(routes.Ready))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))
		r.Get("/legend", handleLegend)
		if routes.Directory != nil {
			r.Get("/locations", handleLocations(routes.Directory))
		}
	})

	if routes.Sessions != nil {
		r.Handle("/ws", routes.Sessions)
	}

	static, err := fs.Sub(webFS, "web")
	if err != nil {
		panic(err)
	}
	r.Handle("/*", http.FileServerFS(static))

	return r
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
// Hijacked WebSocket connections are not tracked here; close the session
// handler separately.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func handleLegend(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"legend": domain.Legend()})
}

// locationView is a location annotated with its classification.
type locationView struct {
	domain.Location
	AQILabel string       `json:"aqi_label"`
	Band     string       `json:"band"`
	Color    domain.Color `json:"color"`
}

func handleLocations(loader DirectoryLoader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		snap := loader.Load(r.Context())

		views := make([]locationView, 0, snap.Len())
		for _, loc := range snap.Locations {
			band, color := domain.ClassifyOptional(loc.AQI)
			views = append(views, locationView{
				Location: loc,
				AQILabel: domain.FormatAQI(loc.AQI),
				Band:     band.String(),
				Color:    color,
			})
		}
		sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
			"state":     snap.State,
			"loaded_at": snap.LoadedAt,
			"locations": views,
		})
	}
}
