package domain

import "time"

// LocationSample is the most recent known coordinates for an actor.
// Overwritten on every report; the core keeps no history.
type LocationSample struct {
	ActorID   string
	Latitude  float64
	Longitude float64
	UpdatedAt time.Time
}

// ValidCoordinates reports whether lat/lon fall in the WGS84 ranges.
func ValidCoordinates(lat, lon float64) bool {
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}
