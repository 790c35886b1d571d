package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	ErrBlankName      = errors.New("location name is blank")
	ErrBadCoordinates = errors.New("location coordinates out of range")
)

// NormalizeLocation trims text fields, fills a missing AQI from pollutant
// readings, and validates the entry. Invalid entries are reported with an
// error so the caller can drop them.
func NormalizeLocation(loc Location) (Location, error) {
	loc.Name = strings.TrimSpace(loc.Name)
	loc.Condition = strings.TrimSpace(loc.Condition)
	if loc.Name == "" {
		return Location{}, ErrBlankName
	}
	if loc.Lat < -90 || loc.Lat > 90 || loc.Lon < -180 || loc.Lon > 180 {
		return Location{}, fmt.Errorf("%w: %q (%.4f, %.4f)", ErrBadCoordinates, loc.Name, loc.Lat, loc.Lon)
	}
	if loc.Condition == "" {
		loc.Condition = "Unknown"
	}
	if loc.AQI == nil {
		loc.AQI = DeriveAQI(loc.Pollutants)
	}
	return loc, nil
}

// FormatAQI renders an AQI for marker labels and popups.
func FormatAQI(aqi *int) string {
	if aqi == nil {
		return "N/A"
	}
	return strconv.Itoa(*aqi)
}
