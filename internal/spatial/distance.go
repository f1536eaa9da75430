package spatial

import (
	"github.com/golang/geo/s2"
)

// HaversineDistance calculates the great-circle distance between two points in meters
func HaversineDistance(lat1, lon1, lat2, lon2 float64) float64 {
	p1 := s2.LatLngFromDegrees(lat1, lon1)
	p2 := s2.LatLngFromDegrees(lat2, lon2)
	return p1.Distance(p2).Radians() * EarthRadiusMeters
}

// Distance is HaversineDistance over Points
func Distance(a, b Point) float64 {
	return HaversineDistance(a.Lat, a.Lon, b.Lat, b.Lon)
}

// SpeedKmh converts meters over seconds to km/h, returning 0 for a non-positive duration
func SpeedKmh(meters float64, seconds float64) float64 {
	if seconds <= 0 {
		return 0
	}
	return meters / seconds * 3.6
}

// EarthRadiusMeters is the mean radius of the Earth
const EarthRadiusMeters = 6371000.0
