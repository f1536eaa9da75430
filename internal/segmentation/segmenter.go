// Package segmentation turns a user's raw GPS points into a contiguous sequence
// of stays, trips and data gaps.
package segmentation

import (
	"sort"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/spatial"
	"github.com/rs/zerolog/log"
)

// span is a stretch of one run, addressed by inclusive point indices. Movement
// spans share their end points with the neighboring stays.
type span struct {
	stay     bool
	from, to int

	// stay centroid and the number of points it was computed from
	lat, lon float64
	weight   int
}

// Segment classifies points into segments ordered by start time. The result
// tiles [first point, last point] without overlap: each segment starts where the
// previous one ends. Empty input yields no segments and a single point yields
// one zero-duration stay.
func Segment(points []models.RawPoint, cfg Config) []models.Segment {
	if len(points) == 0 {
		return nil
	}

	pts := make([]models.RawPoint, len(points))
	copy(pts, points)
	// points from several devices arrive interleaved
	sort.SliceStable(pts, func(i, j int) bool {
		return pts[i].Timestamp.Before(pts[j].Timestamp)
	})
	for i := range pts {
		pts[i].Timestamp = pts[i].Timestamp.UTC()
	}

	userID := pts[0].UserID
	var segments []models.Segment

	runs := splitRuns(pts, cfg)
	for i, run := range runs {
		if i > 0 {
			prev := runs[i-1]
			segments = append(segments, models.NewGap(userID, prev[len(prev)-1].Timestamp, run[0].Timestamp))
		}
		segments = append(segments, segmentRun(userID, run, cfg)...)
	}

	log.Debug().
		Str("component", "segmentation").
		Str("user_id", userID).
		Int("points", len(pts)).
		Int("runs", len(runs)).
		Int("segments", len(segments)).
		Msg("segmentation finished")

	return segments
}

// splitRuns cuts the sorted points wherever the sampling interval exceeds the
// data gap threshold.
func splitRuns(pts []models.RawPoint, cfg Config) [][]models.RawPoint {
	var runs [][]models.RawPoint
	start := 0
	for i := 1; i < len(pts); i++ {
		gap := pts[i].Timestamp.Sub(pts[i-1].Timestamp)
		if gap <= cfg.DataGapThreshold {
			continue
		}
		if cfg.GapStayInference && gap <= cfg.GapStayInferenceMaxGap &&
			distance(pts[i-1], pts[i]) <= cfg.StayRadiusMeters {
			continue
		}
		runs = append(runs, pts[start:i])
		start = i
	}
	return append(runs, pts[start:])
}

func segmentRun(userID string, run []models.RawPoint, cfg Config) []models.Segment {
	spans := buildSpans(run, cfg)
	spans = absorbShortMovement(run, spans, cfg)
	spans = mergeNearbyStays(run, spans, cfg)

	out := make([]models.Segment, 0, len(spans))
	for _, sp := range spans {
		start, end := run[sp.from].Timestamp, run[sp.to].Timestamp
		if sp.stay {
			out = append(out, models.NewStay(userID, start, end, models.StayDetails{
				Latitude:   sp.lat,
				Longitude:  sp.lon,
				PointCount: sp.to - sp.from + 1,
			}))
			continue
		}
		if !end.After(start) {
			continue
		}
		out = append(out, models.NewTrip(userID, start, end, tripDetails(run[sp.from:sp.to+1], cfg)))
	}
	return out
}

// buildSpans detects stay clusters and fills the stretches between them with
// movement spans.
func buildSpans(run []models.RawPoint, cfg Config) []span {
	var spans []span
	cursor := 0
	for _, c := range detectStays(run, cfg) {
		if c.from > cursor {
			spans = append(spans, span{from: cursor, to: c.from})
		}
		spans = append(spans, c)
		cursor = c.to
	}
	if cursor < len(run)-1 || len(spans) == 0 {
		spans = append(spans, span{from: cursor, to: len(run) - 1})
	}
	return spans
}

// detectStays grows a cluster from each point while the next point lies within
// the stay radius of the running centroid, and keeps clusters that last long
// enough.
func detectStays(run []models.RawPoint, cfg Config) []span {
	var clusters []span
	i := 0
	for i < len(run) {
		lat, lon := run[i].Latitude, run[i].Longitude
		n := 1
		j := i + 1
		for ; j < len(run); j++ {
			d := spatial.HaversineDistance(lat, lon, run[j].Latitude, run[j].Longitude)
			if d > cfg.StayRadiusMeters {
				break
			}
			n++
			lat += (run[j].Latitude - lat) / float64(n)
			lon += (run[j].Longitude - lon) / float64(n)
		}

		last := j - 1
		if run[last].Timestamp.Sub(run[i].Timestamp) >= cfg.MinStayDuration {
			clusters = append(clusters, span{stay: true, from: i, to: last, lat: lat, lon: lon, weight: n})
			i = j
			continue
		}
		i++
	}
	return clusters
}

// absorbShortMovement turns movement spans shorter than the minimum trip
// distance (or without duration) into stay time and joins stays that became
// adjacent.
func absorbShortMovement(run []models.RawPoint, spans []span, cfg Config) []span {
	out := make([]span, 0, len(spans))
	for _, sp := range spans {
		if !sp.stay && (pathLength(run[sp.from:sp.to+1]) < cfg.MinTripDistanceMeters ||
			!run[sp.to].Timestamp.After(run[sp.from].Timestamp)) {
			sp = stayOver(run, sp.from, sp.to)
		}
		if sp.stay && len(out) > 0 && out[len(out)-1].stay {
			out[len(out)-1] = joinStays(out[len(out)-1], sp)
			continue
		}
		out = append(out, sp)
	}
	return out
}

// mergeNearbyStays collapses stay, trip, stay into one stay when both stays are
// at the same place and the trip between them was brief.
func mergeNearbyStays(run []models.RawPoint, spans []span, cfg Config) []span {
	out := make([]span, 0, len(spans))
	for _, sp := range spans {
		out = append(out, sp)
		for len(out) >= 3 {
			a, t, b := out[len(out)-3], out[len(out)-2], out[len(out)-1]
			if !a.stay || t.stay || !b.stay {
				break
			}
			if spatial.HaversineDistance(a.lat, a.lon, b.lat, b.lon) > cfg.StayMergeDistanceMeters {
				break
			}
			if run[t.to].Timestamp.Sub(run[t.from].Timestamp) > cfg.StayMergeMaxGap {
				break
			}
			out = append(out[:len(out)-3], joinStays(a, b))
		}
	}
	return out
}

func stayOver(run []models.RawPoint, from, to int) span {
	pts := make([]spatial.Point, 0, to-from+1)
	for _, p := range run[from : to+1] {
		pts = append(pts, spatial.Point{Lat: p.Latitude, Lon: p.Longitude})
	}
	c := spatial.Centroid(pts)
	return span{stay: true, from: from, to: to, lat: c.Lat, lon: c.Lon, weight: len(pts)}
}

func joinStays(a, b span) span {
	w := a.weight + b.weight
	if w == 0 {
		w = 1
	}
	return span{
		stay:   true,
		from:   a.from,
		to:     b.to,
		lat:    (a.lat*float64(a.weight) + b.lat*float64(b.weight)) / float64(w),
		lon:    (a.lon*float64(a.weight) + b.lon*float64(b.weight)) / float64(w),
		weight: a.weight + b.weight,
	}
}

func tripDetails(path []models.RawPoint, cfg Config) models.TripDetails {
	first, last := path[0], path[len(path)-1]
	dist := pathLength(path)
	secs := last.Timestamp.Sub(first.Timestamp).Seconds()
	avg := spatial.SpeedKmh(dist, secs)

	var maxSpeed float64
	for i := 1; i < len(path); i++ {
		dt := path[i].Timestamp.Sub(path[i-1].Timestamp).Seconds()
		if v := spatial.SpeedKmh(distance(path[i-1], path[i]), dt); v > maxSpeed {
			maxSpeed = v
		}
	}

	return models.TripDetails{
		StartLat:       first.Latitude,
		StartLon:       first.Longitude,
		EndLat:         last.Latitude,
		EndLon:         last.Longitude,
		DistanceMeters: dist,
		MovementType:   classifyMovement(avg, cfg),
		AvgSpeedKmh:    avg,
		MaxSpeedKmh:    maxSpeed,
	}
}

func classifyMovement(avgSpeedKmh float64, cfg Config) models.MovementType {
	if avgSpeedKmh <= cfg.WalkingMaxAvgSpeedKmh {
		return models.MovementWalk
	}
	return models.MovementCar
}

func distance(a, b models.RawPoint) float64 {
	return spatial.HaversineDistance(a.Latitude, a.Longitude, b.Latitude, b.Longitude)
}

func pathLength(path []models.RawPoint) float64 {
	pts := make([]spatial.Point, len(path))
	for i, p := range path {
		pts[i] = spatial.Point{Lat: p.Latitude, Lon: p.Longitude}
	}
	return spatial.PathLength(pts)
}
