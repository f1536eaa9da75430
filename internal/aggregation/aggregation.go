// Package aggregation computes dashboard figures from segments. Every function
// is pure: callers select the date range with InRange and pass an explicit
// timezone wherever calendar buckets are involved.
package aggregation

import (
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/spatial"
)

// InRange keeps the segments whose start lies in [from, to)
func InRange(segs []models.Segment, from, to time.Time) []models.Segment {
	var out []models.Segment
	for _, s := range segs {
		if !s.StartTime.Before(from) && s.StartTime.Before(to) {
			out = append(out, s)
		}
	}
	return out
}

func isTrip(s models.Segment) bool {
	return s.Kind == models.KindTrip && s.Trip != nil
}

// TotalDistance sums trip distances in meters, optionally only for one movement type
func TotalDistance(segs []models.Segment, movement *models.MovementType) float64 {
	var total float64
	for _, s := range segs {
		if !isTrip(s) {
			continue
		}
		if movement != nil && s.Trip.MovementType != *movement {
			continue
		}
		total += s.Trip.DistanceMeters
	}
	return total
}

// DistanceByMovement splits trip distance by movement type
func DistanceByMovement(segs []models.Segment) map[models.MovementType]float64 {
	out := make(map[models.MovementType]float64)
	for _, s := range segs {
		if isTrip(s) {
			out[s.Trip.MovementType] += s.Trip.DistanceMeters
		}
	}
	return out
}

// TimeMoving sums trip durations in seconds
func TimeMoving(segs []models.Segment) int64 {
	var total int64
	for _, s := range segs {
		if isTrip(s) {
			total += s.DurationSeconds()
		}
	}
	return total
}

// AverageSpeed is total trip distance over total trip time in km/h, which
// weights every trip by its duration. It is 0 when there is no trip time.
func AverageSpeed(segs []models.Segment) float64 {
	return spatial.SpeedKmh(TotalDistance(segs, nil), float64(TimeMoving(segs)))
}

// Counts returns the number of segments per kind
func Counts(segs []models.Segment) (stays, trips, gaps int) {
	for _, s := range segs {
		switch s.Kind {
		case models.KindStay:
			stays++
		case models.KindTrip:
			trips++
		case models.KindGap:
			gaps++
		}
	}
	return stays, trips, gaps
}
