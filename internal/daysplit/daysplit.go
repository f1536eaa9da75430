// Package daysplit projects UTC-anchored segments onto calendar days of an
// explicit IANA timezone.
package daysplit

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // zone data must not depend on the host

	"cloud.google.com/go/civil"
	"github.com/jengzang/geopulse-go/internal/models"
)

// ContinuedFromLayout formats the origin of a multi-day segment, e.g. "Sep 20, 23:00"
const ContinuedFromLayout = "Jan 2, 15:04"

// LoadLocation resolves an IANA zone name. The empty string and "Local" are
// rejected: the zone always comes from the user profile, never from the host.
func LoadLocation(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "Local" {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidTimezone, name)
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", models.ErrInvalidTimezone, name)
	}
	return loc, nil
}

// StartOfLocalDay returns local midnight of date in loc. When midnight does not
// exist because of a DST jump, time.Date normalizes to the first valid instant.
func StartOfLocalDay(date civil.Date, loc *time.Location) time.Time {
	return time.Date(date.Year, date.Month, date.Day, 0, 0, 0, 0, loc)
}

// EndOfLocalDay returns the exclusive end of date in loc (the next local midnight)
func EndOfLocalDay(date civil.Date, loc *time.Location) time.Time {
	return StartOfLocalDay(date.AddDays(1), loc)
}

// DisplayWindow returns the inclusive [00:00:00, 23:59:59] window of date in loc
func DisplayWindow(date civil.Date, loc *time.Location) (time.Time, time.Time) {
	return StartOfLocalDay(date, loc), EndOfLocalDay(date, loc).Add(-time.Second)
}

// LocalDate returns the calendar date of t in loc
func LocalDate(t time.Time, loc *time.Location) civil.Date {
	return civil.DateOf(t.In(loc))
}

// SplitByLocalDay returns one view per local calendar date the segment touches.
// A view cut at local midnight ends at 23:59:59 of its day, and the second
// lost at each cut is carried into the next day's duration, so the per-day
// durations sum to the segment duration exactly. A segment ending exactly at
// local midnight does not produce an empty view for the following day.
func SplitByLocalDay(seg models.Segment, loc *time.Location) []models.DayLocalView {
	total := seg.DurationSeconds()
	if total < 0 {
		total = 0
	}

	origin := seg.StartTime.In(loc)
	label := origin.Format(ContinuedFromLayout)
	day := civil.DateOf(origin)
	cursor := seg.StartTime

	var views []models.DayLocalView
	var assigned, carry int64
	segRef := seg

	for {
		next := EndOfLocalDay(day, loc)
		last := !next.Before(seg.EndTime)

		var viewEnd time.Time
		var secs int64
		if last {
			viewEnd = seg.EndTime
			// absorbs carried seconds and sub-second truncation
			secs = total - assigned
		} else {
			viewEnd = next.Add(-time.Second)
			if viewEnd.Before(cursor) {
				viewEnd = cursor
			}
			secs = int64(viewEnd.Sub(cursor)/time.Second) + carry
			carry = int64(next.Sub(viewEnd) / time.Second)
		}
		assigned += secs

		v := models.DayLocalView{
			SegmentID:                seg.ID,
			Kind:                     seg.Kind,
			CalendarDate:             day,
			OnThisDayStart:           cursor.In(loc),
			OnThisDayEnd:             viewEnd.In(loc),
			OnThisDayDurationSeconds: secs,
			IsContinuation:           len(views) > 0,
			SegmentDurationSeconds:   total,
			Segment:                  &segRef,
		}
		if v.IsContinuation {
			v.ContinuedFromLabel = label
		}
		views = append(views, v)

		if last {
			return views
		}
		cursor = next
		day = day.AddDays(1)
	}
}

// DisplayEnd returns the end to show for a view in loc
func DisplayEnd(v models.DayLocalView, loc *time.Location) time.Time {
	return v.OnThisDayEnd.In(loc)
}

// FormatDuration renders seconds the way timeline cards do: "9h", "59m", "2h 05m"
func FormatDuration(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	h := seconds / 3600
	m := (seconds % 3600) / 60
	switch {
	case h == 0:
		return fmt.Sprintf("%dm", m)
	case m == 0:
		return fmt.Sprintf("%dh", h)
	default:
		return fmt.Sprintf("%dh %02dm", h, m)
	}
}
