package aggregation

import (
	"sort"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/stats"
)

// Dashboard summarizes the segments starting in [from, to). Daily averages
// divide by the number of local calendar days the window covers in loc.
func Dashboard(segs []models.Segment, from, to time.Time, loc *time.Location) models.DashboardSummary {
	in := InRange(segs, from, to)
	stays, trips, gaps := Counts(in)
	total := TotalDistance(in, nil)

	return models.DashboardSummary{
		From:                  from,
		To:                    to,
		TotalDistanceMeters:   total,
		DistanceByMovement:    DistanceByMovement(in),
		DailyAverageDistanceM: stats.SafeDivide(total, float64(CalendarDays(from, to, loc))),
		TimeMovingSeconds:     TimeMoving(in),
		AverageSpeedKmh:       AverageSpeed(in),
		StayCount:             stays,
		TripCount:             trips,
		DataGapCount:          gaps,
		UniquePlaces:          UniquePlaces(in),
		TopPlaces:             TopPlaces(in, DefaultTopPlaces),
		ActivityPatterns:      ActivityPatterns(in, loc),
		HasData:               stays+trips > 0,
	}
}

// JourneyInsights summarizes all segments of a user
func JourneyInsights(segs []models.Segment, loc *time.Location) models.JourneyInsights {
	return models.JourneyInsights{
		Countries:           Countries(segs),
		Cities:              Cities(segs),
		TotalDistanceMeters: TotalDistance(segs, nil),
		DistanceByMovement:  DistanceByMovement(segs),
		TimeMovingSeconds:   TimeMoving(segs),
		AverageSpeedKmh:     AverageSpeed(segs),
		TrackedDays:         TrackedDays(segs, loc),
		ActivityPatterns:    ActivityPatterns(segs, loc),
		Milestones:          Milestones(segs),
	}
}

// CalendarDays counts the local dates touched by [from, to), at least one
func CalendarDays(from, to time.Time, loc *time.Location) int {
	if !to.After(from) {
		return 1
	}
	first := civil.DateOf(from.In(loc))
	last := civil.DateOf(to.Add(-time.Nanosecond).In(loc))
	return last.DaysSince(first) + 1
}

// TrackedDays counts the local dates on which a stay or trip starts
func TrackedDays(segs []models.Segment, loc *time.Location) int {
	seen := make(map[civil.Date]struct{})
	for _, s := range segs {
		if s.Kind == models.KindGap {
			continue
		}
		seen[civil.DateOf(s.StartTime.In(loc))] = struct{}{}
	}
	return len(seen)
}

// Countries lists the distinct countries of stays, sorted
func Countries(segs []models.Segment) []string {
	return distinctStayField(segs, func(d *models.StayDetails) string { return d.Country })
}

// Cities lists the distinct cities of stays, sorted
func Cities(segs []models.Segment) []string {
	return distinctStayField(segs, func(d *models.StayDetails) string { return d.City })
}

func distinctStayField(segs []models.Segment, field func(*models.StayDetails) string) []string {
	seen := make(map[string]struct{})
	out := []string{}
	for _, s := range segs {
		if s.Kind != models.KindStay || s.Stay == nil {
			continue
		}
		v := strings.TrimSpace(field(s.Stay))
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
