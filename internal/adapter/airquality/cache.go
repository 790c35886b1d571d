package airquality

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/directory"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/observability"
	"github.com/jonboulle/clockwork"
)

// CachedSource wraps a source and reuses its last successful response for ttl.
// When a refresh fails the stale copy is served instead.
type CachedSource struct {
	inner   directory.Source
	ttl     time.Duration
	clock   clockwork.Clock
	logger  *slog.Logger
	metrics *observability.Metrics

	mu        sync.Mutex
	locations []domain.Location
	fetchedAt time.Time
	valid     bool
}

// NewCachedSource creates a TTL cache decorator. A non-positive ttl disables caching.
func NewCachedSource(inner directory.Source, ttl time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *CachedSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedSource{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		logger:  logger,
		metrics: metrics,
	}
}

func (c *CachedSource) Fetch(ctx context.Context) ([]domain.Location, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.ttl > 0 && c.clock.Since(c.fetchedAt) < c.ttl {
		c.metrics.SourceCache.WithLabelValues("hit").Inc()
		return slices.Clone(c.locations), nil
	}
	c.metrics.SourceCache.WithLabelValues("miss").Inc()

	locs, err := c.inner.Fetch(ctx)
	if err != nil {
		if c.valid {
			c.logger.Warn("air quality refresh failed, serving stale locations",
				"error", err,
				"age", c.clock.Since(c.fetchedAt),
			)
			return slices.Clone(c.locations), nil
		}
		return nil, err
	}

	c.locations = locs
	c.fetchedAt = c.clock.Now()
	c.valid = true
	return slices.Clone(locs), nil
}
