package mapview

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/observability"
)

// ErrUnmounted is returned by operations on an unmounted dashboard.
var ErrUnmounted = errors.New("dashboard unmounted")

// Options configure a dashboard mount.
type Options struct {
	Initial  domain.Viewport
	Tiles    TileLayer
	Engine   *Engine
	OnSelect SelectFunc
	Logger   *slog.Logger
	Metrics  *observability.Metrics
}

// Dashboard composes the map subsystem: primary and overview surfaces, the
// marker layer, legend, viewport synchronizer, and search navigator. It is
// driven from one event loop and is not safe for concurrent use.
type Dashboard struct {
	factory  SurfaceFactory
	opts     Options
	primary  Surface
	overview Surface

	// primaryScope releases everything bound to the current primary surface.
	primaryScope Scope

	emitter   *Emitter
	sync      *Synchronizer
	markers   *MarkerLayer
	legend    *Legend
	navigator *Navigator

	locations []domain.Location
	applied   bool
	unmounted bool
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// Mount creates both surfaces, attaches the legend, binds the synchronizer,
// and puts the marker layer in the no-data state until ApplyDirectory.
func Mount(factory SurfaceFactory, opts Options) (*Dashboard, error) {
	emitter := NewEmitter(opts.OnSelect)
	d := &Dashboard{
		factory:   factory,
		opts:      opts,
		emitter:   emitter,
		sync:      NewSynchronizer(opts.Logger, opts.Metrics),
		markers:   NewMarkerLayer(opts.Engine, emitter, opts.Logger, opts.Metrics),
		legend:    NewLegend(opts.Logger),
		navigator: NewNavigator(emitter, opts.Logger, opts.Metrics),
		logger:    opts.Logger,
		metrics:   opts.Metrics,
	}

	overview, err := factory.NewSurface(SurfaceOptions{
		Role:     RoleOverview,
		Viewport: domain.OverviewOf(opts.Initial),
		Tiles:    opts.Tiles,
	})
	if err != nil {
		return nil, fmt.Errorf("create overview surface: %w", err)
	}
	d.overview = overview

	if err := d.attachPrimary(opts.Initial); err != nil {
		d.destroy(overview)
		return nil, err
	}

	d.metrics.ActiveSessions.Inc()
	return d, nil
}

// attachPrimary creates a primary surface and binds every primary-scoped
// resource to it. On failure everything acquired so far is released.
func (d *Dashboard) attachPrimary(initial domain.Viewport) error {
	primary, err := d.factory.NewSurface(SurfaceOptions{
		Role:        RolePrimary,
		Viewport:    initial,
		Tiles:       d.opts.Tiles,
		Interactive: true,
	})
	if err != nil {
		return fmt.Errorf("create primary surface: %w", err)
	}
	d.primary = primary
	d.primaryScope.Defer(func() { d.destroy(primary) })

	if err := d.legend.Attach(primary); err != nil {
		d.primaryScope.Close()
		d.primary = nil
		return err
	}
	d.primaryScope.Defer(d.legend.Detach)

	d.sync.Bind(primary, d.overview)
	d.primaryScope.Defer(d.sync.Release)

	d.markers.Bind(primary)
	d.primaryScope.Defer(d.markers.Clear)
	d.navigator.Bind(primary)
	d.primaryScope.Defer(func() { d.navigator.Bind(nil) })

	if d.applied {
		if _, err := d.markers.Render(d.locations); err != nil {
			d.logger.Warn("render markers failed", "error", err)
		}
	}
	return nil
}

// ApplyDirectory installs the loaded directory and renders its markers. The
// directory is applied once per mount; later calls are ignored.
func (d *Dashboard) ApplyDirectory(locations []domain.Location) (LayerState, error) {
	if d.unmounted {
		return StateNoData, ErrUnmounted
	}
	if d.applied {
		d.logger.Warn("directory already applied, ignoring update")
		return d.markers.State(), nil
	}

	d.applied = true
	d.locations = locations
	d.navigator.SetDirectory(locations)
	return d.markers.Render(locations)
}

// Search navigates to the first location matching query.
func (d *Dashboard) Search(query string) (domain.Location, bool) {
	if d.unmounted {
		return domain.Location{}, false
	}
	return d.navigator.Search(query)
}

// HandleKey forwards a search-input key press.
func (d *Dashboard) HandleKey(ev KeyEvent) KeyResult {
	if d.unmounted {
		return KeyResult{}
	}
	return d.navigator.HandleKey(ev)
}

// ReplacePrimary tears down the primary surface and everything bound to it,
// then mounts a fresh primary at the old viewport.
func (d *Dashboard) ReplacePrimary() error {
	if d.unmounted {
		return ErrUnmounted
	}
	viewport := d.opts.Initial
	if d.primary != nil {
		viewport = d.primary.Viewport()
	}
	d.primaryScope.Close()
	d.primary = nil
	return d.attachPrimary(viewport)
}

// Unmount releases every subscription and overlay and destroys both surfaces.
// It is safe to call more than once.
func (d *Dashboard) Unmount() {
	if d.unmounted {
		return
	}
	d.unmounted = true
	d.primaryScope.Close()
	d.primary = nil
	d.destroy(d.overview)
	d.overview = nil
	d.metrics.ActiveSessions.Dec()
}

// Primary returns the current primary surface, nil after unmount.
func (d *Dashboard) Primary() Surface { return d.primary }

// Overview returns the overview surface, nil after unmount.
func (d *Dashboard) Overview() Surface { return d.overview }

// MarkerState returns the marker layer state.
func (d *Dashboard) MarkerState() LayerState { return d.markers.State() }

// Legend returns the legend overlay.
func (d *Dashboard) Legend() *Legend { return d.legend }

// Synchronizer returns the viewport synchronizer.
func (d *Dashboard) Synchronizer() *Synchronizer { return d.sync }

func (d *Dashboard) destroy(s Surface) {
	if s == nil {
		return
	}
	if err := s.Destroy(); err != nil && !errors.Is(err, ErrSurfaceDestroyed) {
		d.logger.Warn("destroy surface failed", "surface", s.ID(), "error", err)
	}
}
