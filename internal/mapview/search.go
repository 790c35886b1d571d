package mapview

import (
	"log/slog"
	"strings"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/observability"
)

// KeyEnter is the key name that submits a search from the query input.
const KeyEnter = "Enter"

// KeyEvent is a key press in the search input.
type KeyEvent struct {
	Key   string
	Query string
}

// KeyResult reports how a key press was handled.
type KeyResult struct {
	Handled bool
	// PreventDefault is set when the page must suppress native form submission.
	PreventDefault bool
	Match          *domain.Location
}

// Navigator resolves free-text queries against the directory and flies the
// primary surface to the first match.
type Navigator struct {
	surface   Surface
	locations []domain.Location
	emitter   *Emitter
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewNavigator creates a navigator with an empty directory.
func NewNavigator(emitter *Emitter, logger *slog.Logger, metrics *observability.Metrics) *Navigator {
	return &Navigator{emitter: emitter, logger: logger, metrics: metrics}
}

// Bind sets the surface that search results navigate.
func (n *Navigator) Bind(surface Surface) {
	n.surface = surface
}

// SetDirectory sets the locations searched, in directory order.
func (n *Navigator) SetDirectory(locations []domain.Location) {
	n.locations = locations
}

// NormalizeQuery trims and case-folds a query.
func NormalizeQuery(query string) string {
	return strings.ToLower(strings.TrimSpace(query))
}

// Find returns the first location whose case-folded name contains the
// normalized query. An empty query never matches.
func (n *Navigator) Find(query string) (domain.Location, bool) {
	q := NormalizeQuery(query)
	if q == "" {
		return domain.Location{}, false
	}
	for _, loc := range n.locations {
		if strings.Contains(strings.ToLower(loc.Name), q) {
			return loc, true
		}
	}
	return domain.Location{}, false
}

// Search flies to the first match at domain.SearchZoom and emits it as a
// selection. A blank query or a miss does nothing and is not an error.
func (n *Navigator) Search(query string) (domain.Location, bool) {
	if NormalizeQuery(query) == "" {
		return domain.Location{}, false
	}

	match, ok := n.Find(query)
	if !ok {
		n.metrics.SearchMisses.Inc()
		n.logger.Debug("search matched no location", "query", query)
		return domain.Location{}, false
	}

	if n.surface != nil {
		target := domain.Viewport{Center: match.Position(), Zoom: domain.SearchZoom}
		if err := n.surface.FlyTo(target); err != nil {
			n.logger.Warn("fly to search match failed", "location", match.Name, "error", err)
		}
	}
	n.emitter.Notify(match, domain.SelectionSearch)
	return match, true
}

// HandleKey runs the search for an Enter press, exactly as the submit
// control does. Other keys are ignored.
func (n *Navigator) HandleKey(ev KeyEvent) KeyResult {
	if ev.Key != KeyEnter {
		return KeyResult{}
	}
	res := KeyResult{Handled: true, PreventDefault: true}
	if match, ok := n.Search(ev.Query); ok {
		res.Match = &match
	}
	return res
}
