package mapview_test

import (
	"errors"
	"html/template"
	"io"
	"log/slog"
	"testing"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/mapview"
	"github.com/couchcryptid/air-quality-map/internal/mapview/mapviewtest"
	"github.com/couchcryptid/air-quality-map/internal/observability"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testEngine(t *testing.T) *mapview.Engine {
	t.Helper()
	return mapview.NewEngineLoader(mapview.LoadEmbeddedAssets, discardLogger()).Engine()
}

type selection struct {
	loc    domain.Location
	source domain.SelectionSource
}

type recorder struct {
	got []selection
}

func (r *recorder) onSelect(loc domain.Location, source domain.SelectionSource) {
	r.got = append(r.got, selection{loc: loc, source: source})
}

func testDirectory() []domain.Location {
	return []domain.Location{
		{Name: "New Delhi", Lat: 28.6139, Lon: 77.209, AQI: domain.IntPtr(312), Condition: "Hazardous smog"},
		{Name: "Delhi Heights", Lat: 28.7, Lon: 77.1, AQI: domain.IntPtr(180), Condition: "Haze"},
		{Name: "Toronto, Canada", Lat: 43.6532, Lon: -79.3832, AQI: domain.IntPtr(35), Condition: "Clear"},
		{Name: "Houston, USA", Lat: 29.7604, Lon: -95.3698, Condition: "Unknown"},
	}
}

// --- Synchronizer ---

func TestSynchronizer_DerivesOverviewOnGestureEnd(t *testing.T) {
	primary := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{
		Viewport: domain.Viewport{Center: domain.LatLon{Lat: 40, Lon: -100}, Zoom: 4},
	})
	overview := mapviewtest.NewSurface("overview", mapview.SurfaceOptions{})
	sync := mapview.NewSynchronizer(discardLogger(), observability.NewMetricsForTesting())

	sync.Bind(primary, overview)

	// First observation happens at bind time.
	require.Len(t, overview.SetViews, 1)
	assert.Equal(t, domain.Viewport{Center: domain.LatLon{Lat: 40, Lon: -100}, Zoom: 2}, overview.Viewport())

	primary.Fire(mapview.EventZoomEnd, domain.Viewport{Center: domain.LatLon{Lat: 40, Lon: -100}, Zoom: 6})
	assert.Equal(t, 4, overview.Viewport().Zoom)

	primary.Fire(mapview.EventMoveEnd, domain.Viewport{Center: domain.LatLon{Lat: 10, Lon: 20}, Zoom: 10})
	assert.Equal(t, domain.Viewport{Center: domain.LatLon{Lat: 10, Lon: 20}, Zoom: 7}, overview.Viewport())

	primary.Fire(mapview.EventZoomEnd, domain.Viewport{Center: domain.LatLon{Lat: 10, Lon: 20}, Zoom: 2})
	assert.Equal(t, 1, overview.Viewport().Zoom)

	// Overview updates are instantaneous, never animated.
	assert.Empty(t, overview.FlyTos)
	assert.Len(t, overview.SetViews, 4)

	last, ok := sync.Overview()
	require.True(t, ok)
	assert.Equal(t, overview.Viewport(), last)
}

func TestSynchronizer_OverviewNeverFeedsBack(t *testing.T) {
	primary := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{Viewport: domain.Viewport{Zoom: 5}})
	overview := mapviewtest.NewSurface("overview", mapview.SurfaceOptions{})
	sync := mapview.NewSynchronizer(discardLogger(), observability.NewMetricsForTesting())
	sync.Bind(primary, overview)

	overview.Fire(mapview.EventZoomEnd, domain.Viewport{Zoom: 1})

	assert.Equal(t, 5, primary.Viewport().Zoom)
	assert.Empty(t, primary.SetViews)
	assert.Empty(t, primary.FlyTos)
}

func TestSynchronizer_NoUpdatesAfterRelease(t *testing.T) {
	primary := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{Viewport: domain.Viewport{Zoom: 5}})
	overview := mapviewtest.NewSurface("overview", mapview.SurfaceOptions{})
	sync := mapview.NewSynchronizer(discardLogger(), observability.NewMetricsForTesting())
	sync.Bind(primary, overview)
	require.Equal(t, 2, primary.Listeners())

	sync.Release()
	sync.Release() // idempotent

	assert.Equal(t, 0, primary.Listeners())
	primary.Fire(mapview.EventMoveEnd, domain.Viewport{Zoom: 9})
	primary.Fire(mapview.EventZoomEnd, domain.Viewport{Zoom: 9})
	assert.Len(t, overview.SetViews, 1, "only the bind-time sync")
}

func TestSynchronizer_RebindReleasesPreviousPrimary(t *testing.T) {
	first := mapviewtest.NewSurface("p1", mapview.SurfaceOptions{Viewport: domain.Viewport{Zoom: 5}})
	second := mapviewtest.NewSurface("p2", mapview.SurfaceOptions{Viewport: domain.Viewport{Zoom: 8}})
	overview := mapviewtest.NewSurface("overview", mapview.SurfaceOptions{})
	sync := mapview.NewSynchronizer(discardLogger(), observability.NewMetricsForTesting())

	sync.Bind(first, overview)
	sync.Bind(second, overview)

	assert.Equal(t, 0, first.Listeners())
	assert.Equal(t, 2, second.Listeners())
	assert.Equal(t, 6, overview.Viewport().Zoom)
}

// --- Marker layer ---

func TestMarkerLayer_EmptyDirectoryIsNoData(t *testing.T) {
	surface := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{})
	layer := mapview.NewMarkerLayer(testEngine(t), mapview.NewEmitter(nil), discardLogger(), observability.NewMetricsForTesting())
	layer.Bind(surface)

	state, err := layer.Render(nil)

	require.NoError(t, err)
	assert.Equal(t, mapview.StateNoData, state)
	assert.Equal(t, 0, surface.MarkersAdded)
}

func TestMarkerLayer_RendersClassifiedMarkers(t *testing.T) {
	surface := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{})
	layer := mapview.NewMarkerLayer(testEngine(t), mapview.NewEmitter(nil), discardLogger(), observability.NewMetricsForTesting())
	layer.Bind(surface)

	state, err := layer.Render(testDirectory())
	require.NoError(t, err)
	assert.Equal(t, mapview.StateRendered, state)

	markers := surface.Markers()
	require.Len(t, markers, 4)

	delhi := markers[0]
	assert.Equal(t, domain.LatLon{Lat: 28.6139, Lon: 77.209}, delhi.Position)
	assert.Equal(t, "312", delhi.Label)
	assert.Equal(t, domain.ColorMaroon, delhi.Icon.Color)
	assert.False(t, delhi.Icon.Default)
	assert.Contains(t, delhi.Icon.HTML, "312")
	assert.Contains(t, delhi.Icon.HTML, "#7e0023")
	assert.Equal(t, mapview.Popup{Name: "New Delhi", AQI: "312", Condition: "Hazardous smog"}, delhi.Popup)

	assert.Equal(t, domain.ColorGreen, markers[2].Icon.Color)

	// Missing AQI uses the fallback band and an N/A label.
	houston := markers[3]
	assert.Equal(t, "N/A", houston.Label)
	assert.Equal(t, domain.ColorMaroon, houston.Icon.Color)
}

func TestMarkerLayer_ClickEmitsSelection(t *testing.T) {
	rec := &recorder{}
	surface := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{})
	layer := mapview.NewMarkerLayer(testEngine(t), mapview.NewEmitter(rec.onSelect), discardLogger(), observability.NewMetricsForTesting())
	layer.Bind(surface)
	_, err := layer.Render(testDirectory())
	require.NoError(t, err)

	require.NoError(t, surface.Click(surface.Markers()[2].ID))
	require.NoError(t, surface.Click(surface.Markers()[2].ID))

	require.Len(t, rec.got, 2, "each click is delivered, nothing is coalesced")
	assert.Equal(t, "Toronto, Canada", rec.got[0].loc.Name)
	assert.Equal(t, domain.SelectionMarker, rec.got[0].source)
}

func TestMarkerLayer_RerenderReplacesMarkers(t *testing.T) {
	surface := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{})
	layer := mapview.NewMarkerLayer(testEngine(t), mapview.NewEmitter(nil), discardLogger(), observability.NewMetricsForTesting())
	layer.Bind(surface)

	_, err := layer.Render(testDirectory())
	require.NoError(t, err)
	_, err = layer.Render(testDirectory()[:1])
	require.NoError(t, err)

	assert.Len(t, surface.Markers(), 1)
	assert.Equal(t, 1, layer.Count())
}

func TestMarkerLayer_FailedRenderLeavesNoMarkers(t *testing.T) {
	surface := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{})
	surface.MarkerLimit = 2
	layer := mapview.NewMarkerLayer(testEngine(t), mapview.NewEmitter(nil), discardLogger(), observability.NewMetricsForTesting())
	layer.Bind(surface)

	state, err := layer.Render(testDirectory())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Toronto, Canada")
	assert.Equal(t, mapview.StateNoData, state)
	assert.Equal(t, mapview.StateNoData, layer.State())
	assert.Empty(t, surface.Markers())
	assert.Equal(t, 0, layer.Count())
}

func TestMarkerLayer_DefaultIconsWhenAssetsFail(t *testing.T) {
	loader := mapview.NewEngineLoader(func() (*template.Template, error) {
		return nil, errors.New("asset bundle missing")
	}, discardLogger())
	engine := loader.Engine()
	require.False(t, engine.CustomIcons())

	surface := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{})
	layer := mapview.NewMarkerLayer(engine, mapview.NewEmitter(nil), discardLogger(), observability.NewMetricsForTesting())
	layer.Bind(surface)

	state, err := layer.Render(testDirectory())
	require.NoError(t, err)
	assert.Equal(t, mapview.StateRendered, state)
	for _, m := range surface.Markers() {
		assert.True(t, m.Icon.Default)
		assert.Empty(t, m.Icon.HTML)
	}
}

func TestEngineLoader_LoadsOnce(t *testing.T) {
	calls := 0
	loader := mapview.NewEngineLoader(func() (*template.Template, error) {
		calls++
		return mapview.LoadEmbeddedAssets()
	}, discardLogger())

	assert.Equal(t, 0, calls, "loading is deferred until first use")
	first := loader.Engine()
	second := loader.Engine()

	assert.Equal(t, 1, calls)
	assert.Same(t, first, second)
	assert.True(t, first.CustomIcons())
}

// --- Search navigator ---

func newNavigator(rec *recorder) (*mapview.Navigator, *mapviewtest.Surface) {
	surface := mapviewtest.NewSurface("primary", mapview.SurfaceOptions{})
	nav := mapview.NewNavigator(mapview.NewEmitter(rec.onSelect), discardLogger(), observability.NewMetricsForTesting())
	nav.Bind(surface)
	nav.SetDirectory(testDirectory())
	return nav, surface
}

func TestNavigator_FirstMatchInDirectoryOrder(t *testing.T) {
	rec := &recorder{}
	nav, surface := newNavigator(rec)

	match, ok := nav.Search("delhi")

	require.True(t, ok)
	assert.Equal(t, "New Delhi", match.Name)
	require.Len(t, surface.FlyTos, 1)
	assert.Equal(t, domain.Viewport{Center: domain.LatLon{Lat: 28.6139, Lon: 77.209}, Zoom: 8}, surface.FlyTos[0])
	require.Len(t, rec.got, 1)
	assert.Equal(t, "New Delhi", rec.got[0].loc.Name)
	assert.Equal(t, domain.SelectionSearch, rec.got[0].source)
}

func TestNavigator_TrimsAndCaseFolds(t *testing.T) {
	rec := &recorder{}
	nav, _ := newNavigator(rec)

	match, ok := nav.Search("   TORONTO  ")

	require.True(t, ok)
	assert.Equal(t, "Toronto, Canada", match.Name)
}

func TestNavigator_MissIsSilentNoOp(t *testing.T) {
	rec := &recorder{}
	nav, surface := newNavigator(rec)

	_, ok := nav.Search("utopia")

	assert.False(t, ok)
	assert.Empty(t, rec.got)
	assert.Empty(t, surface.FlyTos)
}

func TestNavigator_BlankQueryIsNoOp(t *testing.T) {
	rec := &recorder{}
	nav, surface := newNavigator(rec)

	for _, q := range []string{"", "   ", "\t\n"} {
		_, ok := nav.Search(q)
		assert.False(t, ok)
	}
	assert.Empty(t, rec.got)
	assert.Empty(t, surface.FlyTos)
}

func TestNavigator_EnterKeyMatchesSubmit(t *testing.T) {
	rec := &recorder{}
	nav, surface := newNavigator(rec)

	res := nav.HandleKey(mapview.KeyEvent{Key: mapview.KeyEnter, Query: "houston"})

	assert.True(t, res.Handled)
	assert.True(t, res.PreventDefault)
	require.NotNil(t, res.Match)
	assert.Equal(t, "Houston, USA", res.Match.Name)
	assert.Len(t, surface.FlyTos, 1)
	assert.Len(t, rec.got, 1)

	other := nav.HandleKey(mapview.KeyEvent{Key: "a", Query: "houston"})
	assert.False(t, other.Handled)
	assert.False(t, other.PreventDefault)
	assert.Len(t, rec.got, 1)
}

// --- Legend ---

func TestLegend_ControlListsBandsInOrder(t *testing.T) {
	legend := mapview.NewLegend(discardLogger())
	ctrl := legend.Control()

	require.Len(t, ctrl.Entries, 6)
	assert.Equal(t, "Good", ctrl.Entries[0].Label)
	assert.Equal(t, "0-50", ctrl.Entries[0].Range)
	assert.Equal(t, "Hazardous", ctrl.Entries[5].Label)
	assert.Equal(t, "301+", ctrl.Entries[5].Range)
}

func TestLegend_RoundTripAcrossSurfaces(t *testing.T) {
	legend := mapview.NewLegend(discardLogger())
	first := mapviewtest.NewSurface("p1", mapview.SurfaceOptions{})
	second := mapviewtest.NewSurface("p2", mapview.SurfaceOptions{})

	require.NoError(t, legend.Attach(first))
	require.NoError(t, legend.Attach(first)) // same surface: no duplicate
	assert.Equal(t, 1, first.Controls())
	assert.Equal(t, 1, first.ControlsAdded)

	legend.Detach()
	assert.Equal(t, 0, first.Controls())
	assert.False(t, legend.Attached())

	require.NoError(t, legend.Attach(second))
	assert.Equal(t, 0, first.Controls())
	assert.Equal(t, 1, second.Controls())

	// Attaching elsewhere moves the single overlay.
	require.NoError(t, legend.Attach(first))
	assert.Equal(t, 1, first.Controls())
	assert.Equal(t, 0, second.Controls())
}

func TestLegend_DetachAfterSurfaceDestroyed(t *testing.T) {
	legend := mapview.NewLegend(discardLogger())
	surface := mapviewtest.NewSurface("p1", mapview.SurfaceOptions{})
	require.NoError(t, legend.Attach(surface))
	require.NoError(t, surface.Destroy())

	legend.Detach()

	assert.False(t, legend.Attached())
}

// --- Emitter and scope ---

func TestEmitter_NilCallback(t *testing.T) {
	assert.NotPanics(t, func() {
		mapview.NewEmitter(nil).Notify(domain.Location{Name: "x"}, domain.SelectionMarker)
	})
}

func TestScope_ReleasesInReverseOrderOnce(t *testing.T) {
	var order []int
	var s mapview.Scope
	s.Defer(func() { order = append(order, 1) })
	s.Defer(func() { order = append(order, 2) })

	s.Close()
	s.Close()

	assert.Equal(t, []int{2, 1}, order)
}
