// Package domain models monitored air-quality locations and the map concepts
// built on top of them.
//
// # Data Source
//
// Locations come from the upstream air-quality API as a single snapshot:
//
//	GET /airquality -> {"locations": [{"name", "lat", "lon", "aqi", "condition", "pollutants"}]}
//
// The snapshot is fetched once per dashboard mount. "aqi" may be null when the
// upstream had no index for a city; see [DeriveAQI] for the fallback derivation
// from pollutant readings.
//
// # Severity Classification
//
// AQI values map onto the six US EPA bands. Bounds are inclusive upper limits:
//
//	Good                 0–50    green   #00e400
//	Moderate             51–100  yellow  #ffff00
//	SensitiveUnhealthy   101–150 orange  #ff7e00
//	Unhealthy            151–200 red     #ff0000
//	VeryUnhealthy        201–300 purple  #8f3f97
//	Hazardous            301+    maroon  #7e0023
//
// Classification is table driven ([Classify]) and total. Negative values fall
// into Good by the table. A missing AQI resolves to [FallbackBand] (Hazardous)
// so an unknown reading is never rendered as safe.
//
// # Viewports
//
// The overview map never owns its viewport. It is always [OverviewOf] the
// primary viewport: same center, zoom reduced by two and clamped to 1–7.
package domain
