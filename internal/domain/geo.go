// Package domain holds the routing engine's entities, value objects,
// and the pure assignment policies (skill requirements, office
// selection, round-robin). Nothing here touches I/O.
package domain

import "math"

const earthRadiusKm = 6371.0

// GeoPoint is an immutable (latitude, longitude) pair in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// HaversineKm returns the great-circle distance to other in kilometers.
func (p GeoPoint) HaversineKm(other GeoPoint) float64 {
	lat1 := radians(p.Latitude)
	lat2 := radians(other.Latitude)
	dlat := radians(other.Latitude - p.Latitude)
	dlon := radians(other.Longitude - p.Longitude)

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// RoundKm rounds a distance to 0.01 km, the precision stored on
// assignments.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
