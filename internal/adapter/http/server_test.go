package http_test

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	httpadapter "github.com/couchcryptid/air-quality-map/internal/adapter/http"
	"github.com/couchcryptid/air-quality-map/internal/directory"
	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockReadiness struct {
	err error
}

func (m *mockReadiness) CheckReadiness(_ context.Context) error { return m.err }

type fakeDirectory struct {
	snap directory.Snapshot
}

func (f *fakeDirectory) Load(_ context.Context) directory.Snapshot { return f.snap }

func newTestServer(readyErr error) *httpadapter.Server {
	return httpadapter.NewServer(":0", httpadapter.Routes{
		Ready: &mockReadiness{err: readyErr},
		Directory: &fakeDirectory{snap: directory.Snapshot{
			State:    directory.StateReady,
			LoadedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
			Locations: []domain.Location{
				{Name: "Toronto, Canada", Lat: 43.6532, Lon: -79.3832, AQI: domain.IntPtr(42), Condition: "Clear"},
				{Name: "Houston, USA", Lat: 29.7604, Lon: -95.3698, Condition: "Unknown"},
			},
		}},
		AllowedOrigins: []string{"http://localhost:3000"},
	}, slog.Default())
}

func TestHealthzReturns200(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "healthy", body["status"])
}

func TestReadyzReturns200WhenReady(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body["status"])
}

func TestReadyzReturns503WhenNotReady(t *testing.T) {
	srv := newTestServer(fmt.Errorf("directory not loaded"))
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body["status"])
	assert.Equal(t, "directory not loaded", body["error"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestLegendEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/legend", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Legend []domain.LegendEntry `json:"legend"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Legend, 6)
	assert.Equal(t, "Good", body.Legend[0].Label)
	assert.Equal(t, "0-50", body.Legend[0].Range)
	assert.Equal(t, "#7e0023", body.Legend[5].Color.Hex)
}

func TestLocationsEndpoint(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/locations", nil)

	srv.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		State     string `json:"state"`
		Locations []struct {
			Name     string       `json:"name"`
			AQI      *int         `json:"aqi"`
			AQILabel string       `json:"aqi_label"`
			Band     string       `json:"band"`
			Color    domain.Color `json:"color"`
		} `json:"locations"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "ready", body.State)
	require.Len(t, body.Locations, 2)

	assert.Equal(t, "Toronto, Canada", body.Locations[0].Name)
	assert.Equal(t, "42", body.Locations[0].AQILabel)
	assert.Equal(t, "good", body.Locations[0].Band)
	assert.Equal(t, "green", body.Locations[0].Color.Name)

	assert.Nil(t, body.Locations[1].AQI)
	assert.Equal(t, "N/A", body.Locations[1].AQILabel)
	assert.Equal(t, "hazardous", body.Locations[1].Band)
	assert.Equal(t, "maroon", body.Locations[1].Color.Name)
}

func TestLocationsEndpointOmittedWithoutDirectory(t *testing.T) {
	srv := httpadapter.NewServer(":0", httpadapter.Routes{Ready: &mockReadiness{}}, slog.Default())
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/locations", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestIndexServesMapPage(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `id="map"`)
	assert.Contains(t, rec.Body.String(), `id="minimap"`)
}

func TestStaticScript(t *testing.T) {
	srv := newTestServer(nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/app.js", nil)

	srv.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "marker_click")
}

func TestCORSPreflight(t *testing.T) {
	tests := []struct {
		name    string
		origin  string
		allowed bool
	}{
		{name: "allowed origin", origin: "http://localhost:3000", allowed: true},
		{name: "foreign origin", origin: "https://evil.example", allowed: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(nil)
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodOptions, "/api/legend", nil)
			req.Header.Set("Origin", tt.origin)
			req.Header.Set("Access-Control-Request-Method", http.MethodGet)

			srv.ServeHTTP(rec, req)

			if tt.allowed {
				assert.Equal(t, tt.origin, rec.Header().Get("Access-Control-Allow-Origin"))
			} else {
				assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
			}
		})
	}
}
