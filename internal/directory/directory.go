// Package directory loads the location directory from an air-quality source.
package directory

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/observability"
	"github.com/couchcryptid/storm-data-shared/retry"
	"github.com/jonboulle/clockwork"
)

// Source fetches the raw location list.
type Source interface {
	Fetch(ctx context.Context) ([]domain.Location, error)
}

// State is the outcome of a directory load.
type State string

const (
	StateReady State = "ready"
	// StateEmpty covers an empty source and a failed load.
	StateEmpty State = "empty"
)

// Snapshot is an immutable, ordered directory.
type Snapshot struct {
	State     State             `json:"state"`
	Locations []domain.Location `json:"locations"`
	LoadedAt  time.Time         `json:"loaded_at"`
}

// Len returns the number of locations.
func (s Snapshot) Len() int {
	return len(s.Locations)
}

// Options tune retries of a failing source.
type Options struct {
	Retries    int
	Backoff    time.Duration
	MaxBackoff time.Duration
	Clock      clockwork.Clock
}

// Loader fetches, normalizes and enriches the directory.
type Loader struct {
	source   Source
	geocoder domain.Geocoder
	opts     Options
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// NewLoader creates a Loader. Pass a nil geocoder to disable coordinate
// enrichment.
func NewLoader(source Source, geocoder domain.Geocoder, opts Options, logger *slog.Logger, metrics *observability.Metrics) *Loader {
	if opts.Clock == nil {
		opts.Clock = clockwork.NewRealClock()
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	if opts.MaxBackoff < opts.Backoff {
		opts.MaxBackoff = 5 * time.Second
	}
	return &Loader{
		source:   source,
		geocoder: geocoder,
		opts:     opts,
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once a load has reached the source successfully.
func (l *Loader) CheckReadiness(_ context.Context) error {
	if !l.ready.Load() {
		return errors.New("location directory has not been loaded yet")
	}
	return nil
}

// Load fetches the directory. It never fails: an unreachable source or a
// malformed payload yields an empty snapshot and is only logged. Entries that
// cannot be placed on the map are dropped.
func (l *Loader) Load(ctx context.Context) Snapshot {
	start := l.opts.Clock.Now()

	raw, err := l.fetchWithRetry(ctx)
	if err != nil {
		l.logger.Error("location directory load failed", "error", err)
		l.metrics.DirectoryLoads.WithLabelValues("failed").Inc()
		l.metrics.LocationsLoaded.Set(0)
		return Snapshot{State: StateEmpty, LoadedAt: domain.Now()}
	}
	l.ready.Store(true)

	locations := make([]domain.Location, 0, len(raw))
	for i, entry := range raw {
		loc, err := domain.NormalizeLocation(entry)
		if err != nil {
			l.drop(i, entry.Name, err)
			continue
		}
		loc = domain.EnrichWithGeocoding(ctx, loc, l.geocoder, l.logger)
		if !loc.HasCoordinates() {
			l.drop(i, loc.Name, errors.New("no coordinates"))
			continue
		}
		locations = append(locations, loc)
	}

	snap := Snapshot{State: StateReady, Locations: locations, LoadedAt: domain.Now()}
	if len(locations) == 0 {
		snap.State = StateEmpty
	}

	l.metrics.DirectoryLoads.WithLabelValues(string(snap.State)).Inc()
	l.metrics.LocationsLoaded.Set(float64(len(locations)))
	l.metrics.DirectoryLoadLatency.Observe(l.opts.Clock.Since(start).Seconds())
	l.logger.Info("location directory loaded",
		"state", snap.State,
		"locations", len(locations),
		"dropped", len(raw)-len(locations),
	)
	return snap
}

func (l *Loader) drop(index int, name string, reason error) {
	l.logger.Warn("dropping malformed location", "index", index, "name", name, "error", reason)
	l.metrics.LocationsDropped.Inc()
}

// fetchWithRetry calls the source up to Retries+1 times with exponential
// backoff between attempts.
func (l *Loader) fetchWithRetry(ctx context.Context) ([]domain.Location, error) {
	backoff := l.opts.Backoff
	for attempt := 0; ; attempt++ {
		locs, err := l.source.Fetch(ctx)
		if err == nil {
			return locs, nil
		}
		if ctx.Err() != nil || attempt >= l.opts.Retries {
			return nil, err
		}
		l.logger.Warn("location source fetch failed, retrying",
			"attempt", attempt+1,
			"backoff", backoff,
			"error", err,
		)
		if !l.sleep(ctx, backoff) {
			return nil, err
		}
		backoff = retry.NextBackoff(backoff, l.opts.MaxBackoff)
	}
}

func (l *Loader) sleep(ctx context.Context, d time.Duration) bool {
	timer := l.opts.Clock.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.Chan():
		return true
	}
}
