package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the map service.
type Metrics struct {
	// Directory loading.
	DirectoryLoads       *prometheus.CounterVec // labels: outcome={ready,empty,failed}
	LocationsLoaded      prometheus.Gauge
	LocationsDropped     prometheus.Counter
	SourceFetchDuration  prometheus.Histogram
	SourceCache          *prometheus.CounterVec // labels: result={hit,miss}
	DirectoryLoadLatency prometheus.Histogram

	// Map sessions.
	ActiveSessions  prometheus.Gauge
	ViewportSyncs   prometheus.Counter
	Selections      *prometheus.CounterVec // labels: source={marker,search}
	SearchMisses    prometheus.Counter
	MarkersRendered prometheus.Counter

	// Geocoding metrics.
	GeocodeRequests    *prometheus.CounterVec // labels: outcome={success,error,empty}
	GeocodeCache       *prometheus.CounterVec // labels: result={hit,miss}
	GeocodeAPIDuration prometheus.Histogram
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(m.collectors()...)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		DirectoryLoads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "directory_loads_total",
			Help:      "Location directory loads by outcome.",
		}, []string{"outcome"}),
		LocationsLoaded: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_map",
			Name:      "locations_loaded",
			Help:      "Number of locations in the most recent directory load.",
		}),
		LocationsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "locations_dropped_total",
			Help:      "Source entries dropped as malformed.",
		}),
		SourceFetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi_map",
			Name:      "source_fetch_duration_seconds",
			Help:      "Air-quality source request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SourceCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "source_cache_total",
			Help:      "Source snapshot cache lookups by result.",
		}, []string{"result"}),
		DirectoryLoadLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi_map",
			Name:      "directory_load_duration_seconds",
			Help:      "Duration from load start to ready or empty state.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "aqi_map",
			Name:      "active_sessions",
			Help:      "Mounted map dashboards.",
		}),
		ViewportSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "viewport_syncs_total",
			Help:      "Overview map updates derived from the primary map.",
		}),
		Selections: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "selections_total",
			Help:      "Location selections by source.",
		}, []string{"source"}),
		SearchMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "search_misses_total",
			Help:      "Searches that matched no location.",
		}),
		MarkersRendered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "markers_rendered_total",
			Help:      "Markers added to primary map surfaces.",
		}),
		GeocodeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "geocode_requests_total",
			Help:      "Geocoding API requests by outcome.",
		}, []string{"outcome"}),
		GeocodeCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi_map",
			Name:      "geocode_cache_total",
			Help:      "Geocoding cache lookups by result.",
		}, []string{"result"}),
		GeocodeAPIDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi_map",
			Name:      "geocode_api_duration_seconds",
			Help:      "Mapbox API request duration in seconds.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.DirectoryLoads,
		m.LocationsLoaded,
		m.LocationsDropped,
		m.SourceFetchDuration,
		m.SourceCache,
		m.DirectoryLoadLatency,
		m.ActiveSessions,
		m.ViewportSyncs,
		m.Selections,
		m.SearchMisses,
		m.MarkersRendered,
		m.GeocodeRequests,
		m.GeocodeCache,
		m.GeocodeAPIDuration,
	}
}
