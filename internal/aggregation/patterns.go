package aggregation

import (
	"time"

	"cloud.google.com/go/civil"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/stats"
)

// weekdays in bucket order, Monday first
var weekdays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday, time.Saturday, time.Sunday,
}

// ActivityPatterns buckets trip start times in loc by month, weekday and hour
// and reports the bucket with the most trips in each, the earliest bucket
// winning ties. The busiest date is the local date with the most trip distance.
// Without trips every field is empty.
func ActivityPatterns(segs []models.Segment, loc *time.Location) models.ActivityPatterns {
	months := make([]float64, 12)
	days := make([]float64, 7)
	hours := make([]float64, 24)
	distanceByDate := make(map[civil.Date]float64)

	for _, s := range segs {
		if !isTrip(s) {
			continue
		}
		local := s.StartTime.In(loc)
		months[local.Month()-1]++
		days[(int(local.Weekday())+6)%7]++
		hours[local.Hour()]++
		distanceByDate[civil.DateOf(local)] += s.Trip.DistanceMeters
	}

	var p models.ActivityPatterns
	if i := stats.ArgMax(months); i >= 0 {
		p.MostActiveMonth = time.Month(i + 1).String()
	}
	if i := stats.ArgMax(days); i >= 0 {
		p.BusiestDayOfWeek = weekdays[i].String()
	}
	if i := stats.ArgMax(hours); i >= 0 {
		hour := i
		p.MostActiveHour = &hour
		p.MostActiveTimeOfDay = TimeOfDay(hour)
	}

	var best *civil.Date
	for d, dist := range distanceByDate {
		d := d // per-iteration copy; go.mod targets go 1.21 loop semantics
		if dist <= 0 {
			continue
		}
		if best == nil || dist > p.BusiestDateDistanceM || (dist == p.BusiestDateDistanceM && d.Before(*best)) {
			best = &d
			p.BusiestDateDistanceM = dist
		}
	}
	p.BusiestDate = best

	return p
}

// TimeOfDay labels an hour of the day
func TimeOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "Morning"
	case hour >= 12 && hour < 17:
		return "Afternoon"
	case hour >= 17 && hour < 21:
		return "Evening"
	default:
		return "Night"
	}
}
