package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/air-quality-map/internal/adapter/airquality"
	httpadapter "github.com/couchcryptid/air-quality-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/air-quality-map/internal/adapter/kafka"
	"github.com/couchcryptid/air-quality-map/internal/adapter/mapbox"
	"github.com/couchcryptid/air-quality-map/internal/adapter/ws"
	"github.com/couchcryptid/air-quality-map/internal/config"
	"github.com/couchcryptid/air-quality-map/internal/directory"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/mapview"
	"github.com/couchcryptid/air-quality-map/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	// Geocoding fills in coordinates the source left out (MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	source := airquality.NewCachedSource(
		airquality.NewClient(cfg.SourceURL, cfg.SourceTimeout, logger, metrics),
		cfg.CacheTTL, nil, logger, metrics,
	)
	loader := directory.NewLoader(source, geocoder, directory.Options{Retries: cfg.SourceRetries}, logger, metrics)

	var publisher ws.SelectionPublisher
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = writer
		logger.Info("selection publishing enabled", "topic", cfg.KafkaSelectionTopic)
	}

	sessions := ws.NewHandler(ws.Config{
		Initial: domain.Viewport{
			Center: domain.LatLon{Lat: cfg.MapCenterLat, Lon: cfg.MapCenterLon},
			Zoom:   cfg.MapZoom,
		},
		Tiles:          mapview.TileLayer{URLTemplate: cfg.TileURL, Attribution: cfg.TileAttribution},
		AllowedOrigins: cfg.AllowedOrigins,
	}, loader, mapview.NewEngineLoader(mapview.LoadEmbeddedAssets, logger), publisher, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, httpadapter.Routes{
		Ready:          loader,
		Sessions:       sessions,
		Directory:      loader,
		AllowedOrigins: cfg.AllowedOrigins,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Warm the source cache and flip readiness before the first session.
	go func() {
		snap := loader.Load(ctx)
		logger.Info("directory warmed", "state", snap.State, "locations", snap.Len())
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	sessions.Close()
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
