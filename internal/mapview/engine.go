package mapview

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"sync"

	"github.com/couchcryptid/air-quality-map/internal/domain"
)

//go:embed assets/marker.html.tmpl
var assetFS embed.FS

// AssetLoader loads the engine's marker icon template.
type AssetLoader func() (*template.Template, error)

// LoadEmbeddedAssets parses the marker template bundled with the binary.
func LoadEmbeddedAssets() (*template.Template, error) {
	tmpl, err := template.ParseFS(assetFS, "assets/marker.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse marker template: %w", err)
	}
	return tmpl, nil
}

// Engine renders marker icons. An engine whose assets failed to load hands
// out default icons instead of custom ones.
type Engine struct {
	markerTmpl *template.Template
}

// CustomIcons reports whether the engine renders AQI-labelled icons.
func (e *Engine) CustomIcons() bool {
	return e != nil && e.markerTmpl != nil
}

// Icon returns the icon for a classified marker, falling back to the default
// icon when custom rendering is unavailable.
func (e *Engine) Icon(band domain.SeverityBand, color domain.Color, label string) Icon {
	if !e.CustomIcons() {
		return Icon{Default: true, Color: color}
	}

	var buf bytes.Buffer
	err := e.markerTmpl.Execute(&buf, struct {
		Band      string
		Color     string
		TextColor string
		Label     string
	}{
		Band:      band.String(),
		Color:     color.Hex,
		TextColor: textColorFor(band),
		Label:     label,
	})
	if err != nil {
		return Icon{Default: true, Color: color}
	}
	return Icon{HTML: buf.String(), Color: color}
}

// Dark text on the light bands, white elsewhere.
func textColorFor(band domain.SeverityBand) string {
	if band <= domain.BandSensitiveUnhealthy {
		return "#000000"
	}
	return "#ffffff"
}

// EngineLoader lazily loads engine assets exactly once and caches the handle.
type EngineLoader struct {
	once   sync.Once
	load   AssetLoader
	logger *slog.Logger
	engine *Engine
}

// NewEngineLoader creates a loader that defers load until the first Engine call.
func NewEngineLoader(load AssetLoader, logger *slog.Logger) *EngineLoader {
	return &EngineLoader{load: load, logger: logger}
}

// Engine returns the shared engine, loading assets on first use. Load failures
// are logged and produce an engine that uses default icons.
func (l *EngineLoader) Engine() *Engine {
	l.once.Do(func() {
		tmpl, err := l.load()
		if err != nil {
			l.logger.Warn("map engine assets unavailable, using default marker icons", "error", err)
			l.engine = &Engine{}
			return
		}
		l.engine = &Engine{markerTmpl: tmpl}
	})
	return l.engine
}
