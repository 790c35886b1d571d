package domain

import (
	"strings"
)

// DeriveAQI estimates an AQI from pollutant readings when the source did not
// report one. PM2.5 is preferred (simplified EPA breakpoints), then NO2, then
// O3; the gas-based estimates are capped at 200. A zero estimate counts as no
// estimate and the next pollutant is tried. Returns nil if nothing applies.
func DeriveAQI(pollutants []Pollutant) *int {
	if v, ok := pollutantValue(pollutants, "PM2_5"); ok {
		if aqi := pm25ToAQI(v); aqi > 0 {
			return &aqi
		}
	}
	if v, ok := pollutantValue(pollutants, "NO2"); ok {
		if aqi := min(200, int(v/200*150)); aqi > 0 {
			return &aqi
		}
	}
	if v, ok := pollutantValue(pollutants, "O3"); ok {
		if aqi := min(200, int(v/100*150)); aqi > 0 {
			return &aqi
		}
	}
	return nil
}

// pm25ToAQI linearly interpolates within the EPA PM2.5 breakpoint ranges (µg/m³).
func pm25ToAQI(pm25 float64) int {
	switch {
	case pm25 <= 12:
		return int(pm25 / 12 * 50)
	case pm25 <= 35.4:
		return int(50 + (pm25-12.1)*(100-51)/(35.4-12.1))
	case pm25 <= 55.4:
		return int(101 + (pm25-35.5)*(150-101)/(55.4-35.5))
	default:
		return int(151 + (pm25-55.5)*(200-151)/(150.4-55.5))
	}
}

// pollutantValue returns the first positive reading for the named pollutant.
// Names compare case-insensitively with "." and "_" ignored, so "PM2.5",
// "pm25" and "PM2_5" all match.
func pollutantValue(pollutants []Pollutant, name string) (float64, bool) {
	want := canonicalPollutant(name)
	for _, p := range pollutants {
		if canonicalPollutant(p.Name) == want && p.Value > 0 {
			return p.Value, true
		}
	}
	return 0, false
}

var pollutantNameReplacer = strings.NewReplacer(".", "", "_", "", " ", "")

func canonicalPollutant(name string) string {
	return strings.ToUpper(pollutantNameReplacer.Replace(name))
}
