package domain

import (
	"context"
	"log/slog"
)

// EnrichWithGeocoding fills in coordinates for a location the source reported
// without any. If geocoder is nil, the location already has coordinates, or
// geocoding fails, the location is returned unchanged apart from GeoSource
// (graceful degradation).
func EnrichWithGeocoding(ctx context.Context, loc Location, geocoder Geocoder, logger *slog.Logger) Location {
	if geocoder == nil || loc.HasCoordinates() || loc.Name == "" {
		return loc
	}

	result, err := geocoder.ForwardGeocode(ctx, loc.Name)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"location", loc.Name,
			"error", err,
		)
		loc.GeoSource = "failed"
		return loc
	}
	if result.Lat == 0 && result.Lon == 0 {
		loc.GeoSource = "failed"
		return loc
	}

	loc.Lat = result.Lat
	loc.Lon = result.Lon
	loc.GeoSource = "forward"
	return loc
}
