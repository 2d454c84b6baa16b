package geo

import "math"

const (
	// EarthRadiusKm is Earth's radius in kilometers for the Haversine formula.
	EarthRadiusKm = 6371.0
	// AvgSpeedKmh is the assumed average courier speed for ETA estimates.
	// A deliberate simplification: no routing, no traffic.
	AvgSpeedKmh = 30.0
)

// HaversineKm calculates the great-circle distance between two points
// on Earth in kilometers.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

// RoundKm rounds a distance to two decimal places for display.
func RoundKm(d float64) float64 {
	return math.Round(d*100) / 100
}

// ETAMinutes estimates travel time in whole minutes at AvgSpeedKmh.
func ETAMinutes(distanceKm float64) int {
	return int(math.Round(distanceKm / AvgSpeedKmh * 60))
}
