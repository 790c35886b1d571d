// Package airquality fetches the location list from the air-quality data API.
package airquality

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/couchcryptid/air-quality-map/internal/observability"
)

// Client implements directory.Source against GET {baseURL}/airquality.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates an air-quality API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		baseURL: strings.TrimRight(baseURL, "/"),
		metrics: metrics,
		logger:  logger,
	}
}

// Fetch returns the source's locations in the order the source lists them.
func (c *Client) Fetch(ctx context.Context) ([]domain.Location, error) {
	start := time.Now()
	defer func() {
		c.metrics.SourceFetchDuration.Observe(time.Since(start).Seconds())
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/airquality", nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("air quality request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("air quality API error: status %d: %s", resp.StatusCode, body)
	}

	var payload response
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if payload.Locations == nil {
		return nil, fmt.Errorf("decode response: missing locations field")
	}

	out := make([]domain.Location, 0, len(payload.Locations))
	for _, l := range payload.Locations {
		out = append(out, l.toDomain())
	}
	c.logger.Debug("fetched air quality locations", "count", len(out))
	return out, nil
}

// API response types.

type response struct {
	Locations []location `json:"locations"`
}

type location struct {
	Name       string      `json:"name"`
	Lat        float64     `json:"lat"`
	Lon        float64     `json:"lon"`
	AQI        aqiValue    `json:"aqi"`
	Condition  string      `json:"condition"`
	Pollutants []pollutant `json:"pollutants"`
}

type pollutant struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Unit   string  `json:"unit"`
	Rating string  `json:"rating"`
}

// aqiValue is a lenient AQI field. Anything other than a JSON number (null,
// "N/A", objects) decodes as missing so one bad entry cannot fail the payload.
type aqiValue struct {
	value int
	valid bool
}

func (a *aqiValue) UnmarshalJSON(data []byte) error {
	*a = aqiValue{}
	var f float64
	if err := json.Unmarshal(data, &f); err != nil || string(data) == "null" {
		return nil
	}
	f = math.Round(f)
	a.value = int(max(min(f, math.MaxInt32), math.MinInt32))
	a.valid = true
	return nil
}

func (l location) toDomain() domain.Location {
	loc := domain.Location{
		Name:      l.Name,
		Lat:       l.Lat,
		Lon:       l.Lon,
		Condition: l.Condition,
	}
	// The API reports a falsy index (null or 0) when it has none.
	if l.AQI.valid && l.AQI.value != 0 {
		loc.AQI = domain.IntPtr(l.AQI.value)
	}
	for _, p := range l.Pollutants {
		loc.Pollutants = append(loc.Pollutants, domain.Pollutant(p))
	}
	return loc
}
