package mapview

import (
	"log/slog"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/observability"
)

// Synchronizer keeps the overview surface following the primary surface.
// The binding is one-directional: it only reads the primary and only writes
// the overview.
type Synchronizer struct {
	overview Surface
	scope    Scope
	active   bool
	last     *domain.Viewport
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewSynchronizer creates an unbound synchronizer.
func NewSynchronizer(logger *slog.Logger, metrics *observability.Metrics) *Synchronizer {
	return &Synchronizer{logger: logger, metrics: metrics}
}

// Bind subscribes to the primary surface's pan-end and zoom-end notifications
// and performs the first sync from its current viewport. Any previous binding
// is released first.
func (s *Synchronizer) Bind(primary, overview Surface) {
	s.Release()

	s.overview = overview
	s.active = true
	s.scope.Defer(primary.Subscribe(EventMoveEnd, s.sync))
	s.scope.Defer(primary.Subscribe(EventZoomEnd, s.sync))

	s.sync(primary.Viewport())
}

// Release revokes the subscriptions. After Release no overview update occurs,
// even if the primary surface delivers a late notification.
func (s *Synchronizer) Release() {
	s.active = false
	s.scope.Close()
	s.overview = nil
}

// Overview returns the last derived overview viewport, if any.
func (s *Synchronizer) Overview() (domain.Viewport, bool) {
	if s.last == nil {
		return domain.Viewport{}, false
	}
	return *s.last, true
}

func (s *Synchronizer) sync(primary domain.Viewport) {
	if !s.active {
		return
	}

	overview := domain.OverviewOf(primary)
	if err := s.overview.SetView(overview); err != nil {
		s.logger.Warn("overview sync failed", "surface", s.overview.ID(), "error", err)
		return
	}
	s.last = &overview
	s.metrics.ViewportSyncs.Inc()
}
