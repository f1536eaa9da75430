package spatial

import (
	"github.com/golang/geo/s2"
)

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// Centroid calculates the geographic centroid of a set of points
func Centroid(points []Point) Point {
	if len(points) == 0 {
		return Point{}
	}

	var sumLat, sumLon float64
	for _, p := range points {
		sumLat += p.Lat
		sumLon += p.Lon
	}

	return Point{
		Lat: sumLat / float64(len(points)),
		Lon: sumLon / float64(len(points)),
	}
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		totalDist += Distance(points[i-1], points[i])
	}

	return totalDist
}

// Polygon is a closed ring of points on the sphere. The ring may be given in
// either orientation and need not repeat its first vertex.
type Polygon struct {
	loop *s2.Loop
}

// NewPolygon builds a polygon from at least three vertices. It returns nil for
// degenerate input.
func NewPolygon(vertices []Point) *Polygon {
	ring := vertices
	if n := len(ring); n > 1 && ring[0] == ring[n-1] {
		ring = ring[:n-1]
	}
	if len(ring) < 3 {
		return nil
	}

	pts := make([]s2.Point, 0, len(ring))
	for _, v := range ring {
		pts = append(pts, s2.PointFromLatLng(s2.LatLngFromDegrees(v.Lat, v.Lon)))
	}
	loop := s2.LoopFromPoints(pts)
	// Normalize flips a clockwise ring so the loop covers the small side.
	loop.Normalize()
	return &Polygon{loop: loop}
}

// Contains reports whether the polygon contains the point
func (p *Polygon) Contains(pt Point) bool {
	if p == nil {
		return false
	}
	return p.loop.ContainsPoint(s2.PointFromLatLng(s2.LatLngFromDegrees(pt.Lat, pt.Lon)))
}

// Center returns the centroid of the polygon area
func (p *Polygon) Center() Point {
	if p == nil {
		return Point{}
	}
	ll := s2.LatLngFromPoint(s2.Point{Vector: p.loop.Centroid().Normalize()})
	return Point{Lat: ll.Lat.Degrees(), Lon: ll.Lng.Degrees()}
}
