package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
)

const (
	defaultTileURL         = "https://{s}.basemaps.cartocdn.com/light_all/{z}/{x}/{y}{r}.png"
	defaultTileAttribution = `&copy; <a href="https://www.openstreetmap.org/copyright">OpenStreetMap</a> contributors &copy; <a href="https://carto.com/attributions">CARTO</a>`
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
	AllowedOrigins  []string

	// Air-quality data source.
	SourceURL     string
	SourceTimeout time.Duration
	SourceRetries int
	CacheTTL      time.Duration

	// Map presentation.
	TileURL         string
	TileAttribution string
	MapCenterLat    float64
	MapCenterLon    float64
	MapZoom         int

	// Selection sink. Empty KafkaBrokers disables publishing.
	KafkaBrokers        []string
	KafkaSelectionTopic string

	// Mapbox geocoding configuration.
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	sourceTimeout, err := parsePositiveDuration("AQ_SOURCE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheTTL, err := time.ParseDuration(sharedcfg.EnvOrDefault("AQ_CACHE_TTL", "5m"))
	if err != nil || cacheTTL < 0 {
		return nil, errors.New("invalid AQ_CACHE_TTL")
	}

	sourceRetries, err := strconv.Atoi(sharedcfg.EnvOrDefault("AQ_SOURCE_RETRIES", "2"))
	if err != nil || sourceRetries < 0 || sourceRetries > 10 {
		return nil, errors.New("invalid AQ_SOURCE_RETRIES: must be 0-10")
	}

	mapboxTimeout, err := parsePositiveDuration("MAPBOX_TIMEOUT", "5s")
	if err != nil {
		return nil, err
	}

	centerLat, err := parseFloat("MAP_CENTER_LAT", "39.8")
	if err != nil {
		return nil, err
	}
	centerLon, err := parseFloat("MAP_CENTER_LON", "-98.6")
	if err != nil {
		return nil, err
	}
	zoom, err := strconv.Atoi(sharedcfg.EnvOrDefault("MAP_ZOOM", "4"))
	if err != nil || zoom < 1 || zoom > 18 {
		return nil, errors.New("invalid MAP_ZOOM: must be 1-18")
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
		AllowedOrigins:  sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("ALLOWED_ORIGINS", "http://localhost:3000,https://*.vercel.app")),

		SourceURL:     strings.TrimRight(sharedcfg.EnvOrDefault("AQ_SOURCE_URL", "http://localhost:5000"), "/"),
		SourceTimeout: sourceTimeout,
		SourceRetries: sourceRetries,
		CacheTTL:      cacheTTL,

		TileURL:         sharedcfg.EnvOrDefault("TILE_URL", defaultTileURL),
		TileAttribution: sharedcfg.EnvOrDefault("TILE_ATTRIBUTION", defaultTileAttribution),
		MapCenterLat:    centerLat,
		MapCenterLon:    centerLon,
		MapZoom:         zoom,

		KafkaBrokers:        sharedcfg.ParseBrokers(os.Getenv("KAFKA_BROKERS")),
		KafkaSelectionTopic: sharedcfg.EnvOrDefault("KAFKA_SELECTION_TOPIC", "map-selections"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseMapboxCacheSize(),
	}

	if u, err := url.Parse(cfg.SourceURL); err != nil || u.Scheme == "" || u.Host == "" {
		return nil, errors.New("invalid AQ_SOURCE_URL")
	}
	if cfg.MapCenterLat < -90 || cfg.MapCenterLat > 90 || cfg.MapCenterLon < -180 || cfg.MapCenterLon > 180 {
		return nil, errors.New("MAP_CENTER_LAT/MAP_CENTER_LON out of range")
	}
	if !strings.Contains(cfg.TileURL, "{z}") {
		return nil, errors.New("TILE_URL must contain {z}/{x}/{y} placeholders")
	}
	if len(cfg.KafkaBrokers) > 0 && cfg.KafkaSelectionTopic == "" {
		return nil, errors.New("KAFKA_SELECTION_TOPIC is required when KAFKA_BROKERS is set")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

// KafkaEnabled reports whether selections are published.
func (c *Config) KafkaEnabled() bool {
	return len(c.KafkaBrokers) > 0
}

func parsePositiveDuration(key, def string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, def))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

func parseFloat(key, def string) (float64, error) {
	f, err := strconv.ParseFloat(sharedcfg.EnvOrDefault(key, def), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return f, nil
}

func parseMapboxCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
