// Command genmock writes a mock air-quality snapshot for local runs and the
// client test fixtures. Bands are computed with the domain package so the
// printed summary matches what the map will show.
//
// Usage:
//
//	go run ./cmd/genmock -out data/mock/airquality.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/couchcryptid/air-quality-map/internal/domain"
	"github.com/jonboulle/clockwork"
)

type mockCity struct {
	name      string
	lat, lon  float64
	aqi       *float64
	condition string
	pm25      float64 // 0 means no reading
}

// cities are the North American stations of the dashboard. Vancouver reports
// PM2.5 only, so its AQI is derived at load time; Houston reports nothing.
var cities = []mockCity{
	{name: "New York, USA", lat: 40.7128, lon: -74.0060, aqi: fp(58), condition: "Clear", pm25: 14.2},
	{name: "Los Angeles, USA", lat: 34.0522, lon: -118.2437, aqi: fp(132), condition: "Haze", pm25: 48.1},
	{name: "Chicago, USA", lat: 41.8781, lon: -87.6298, aqi: fp(61), condition: "Cloudy", pm25: 16.9},
	{name: "Toronto, Canada", lat: 43.6532, lon: -79.3832, aqi: fp(35), condition: "Clear", pm25: 8.4},
	{name: "Vancouver, Canada", lat: 49.2827, lon: -123.1207, condition: "Rain", pm25: 5.3},
	{name: "Mexico City, Mexico", lat: 19.4326, lon: -99.1332, aqi: fp(168), condition: "Smoke", pm25: 88.0},
	{name: "Montreal, Canada", lat: 45.5017, lon: -73.5673, aqi: fp(42), condition: "Snow", pm25: 10.1},
	{name: "Houston, USA", lat: 29.7604, lon: -95.3698, condition: "Humid"},
}

type snapshot struct {
	GeneratedAt time.Time  `json:"generated_at"`
	Locations   []location `json:"locations"`
}

type location struct {
	Name       string             `json:"name"`
	Lat        float64            `json:"lat"`
	Lon        float64            `json:"lon"`
	AQI        *float64           `json:"aqi"`
	Condition  string             `json:"condition"`
	Pollutants []domain.Pollutant `json:"pollutants,omitempty"`
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "output path for the mock snapshot")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	// Fixed clock for a reproducible generated_at.
	domain.SetClock(clockwork.NewFakeClockAt(time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)))
	defer domain.SetClock(nil)

	snap := snapshot{GeneratedAt: domain.Now()}
	for _, c := range cities {
		loc := location{Name: c.name, Lat: c.lat, Lon: c.lon, AQI: c.aqi, Condition: c.condition}
		if c.pm25 > 0 {
			loc.Pollutants = []domain.Pollutant{{Name: "PM2_5", Value: c.pm25, Unit: "µg/m³"}}
		}
		snap.Locations = append(snap.Locations, loc)
	}

	if err := writeJSON(*out, snap); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	log.Printf("wrote %d locations: %s", len(snap.Locations), *out)

	printBands(snap.Locations)
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printBands(locs []location) {
	fmt.Println("\n=== Bands for updating test assertions ===")
	counts := map[string]int{}
	for _, l := range locs {
		loc := domain.Location{Name: l.Name, Lat: l.Lat, Lon: l.Lon, Condition: l.Condition, Pollutants: l.Pollutants}
		if l.AQI != nil {
			loc.AQI = domain.IntPtr(int(*l.AQI))
		}
		norm, err := domain.NormalizeLocation(loc)
		if err != nil {
			fmt.Printf("  %-22s dropped: %v\n", l.Name, err)
			continue
		}
		band, color := domain.ClassifyOptional(norm.AQI)
		counts[band.String()]++
		fmt.Printf("  %-22s AQI %-4s %-20s %s\n", norm.Name, domain.FormatAQI(norm.AQI), band, color.Name)
	}
	fmt.Println()
	for _, entry := range domain.Legend() {
		fmt.Printf("%s: %d\n", entry.Label, counts[entry.Band])
	}
}

func fp(v float64) *float64 { return &v }
