package timeline

import (
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jengzang/geopulse-go/internal/daysplit"
	"github.com/jengzang/geopulse-go/internal/models"
)

// MaxRangeDays bounds a requested date range
const MaxRangeDays = 366

// DateRange is an inclusive range of calendar dates
type DateRange struct {
	Start civil.Date `json:"startDate"`
	End   civil.Date `json:"endDate"`
}

// ParseDateRange parses two YYYY-MM-DD dates and validates the range
func ParseDateRange(start, end string) (DateRange, error) {
	start, end = strings.TrimSpace(start), strings.TrimSpace(end)
	if start == "" || end == "" {
		return DateRange{}, fmt.Errorf("%w: startDate and endDate are required", models.ErrInvalidDateRange)
	}

	s, err := civil.ParseDate(start)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid startDate %q", models.ErrInvalidDateRange, start)
	}
	e, err := civil.ParseDate(end)
	if err != nil {
		return DateRange{}, fmt.Errorf("%w: invalid endDate %q", models.ErrInvalidDateRange, end)
	}

	r := DateRange{Start: s, End: e}
	if err := r.Validate(MaxRangeDays); err != nil {
		return DateRange{}, err
	}
	return r, nil
}

// SingleDay is the range covering only d
func SingleDay(d civil.Date) DateRange {
	return DateRange{Start: d, End: d}
}

// Validate checks ordering and that the range spans at most maxDays dates
func (r DateRange) Validate(maxDays int) error {
	if !r.Start.IsValid() || !r.End.IsValid() {
		return fmt.Errorf("%w: invalid date", models.ErrInvalidDateRange)
	}
	if r.End.Before(r.Start) {
		return fmt.Errorf("%w: endDate %s is before startDate %s", models.ErrInvalidDateRange, r.End, r.Start)
	}
	if maxDays > 0 && r.Days() > maxDays {
		return fmt.Errorf("%w: range spans %d days, at most %d allowed", models.ErrInvalidDateRange, r.Days(), maxDays)
	}
	return nil
}

// Days returns the number of dates in the range
func (r DateRange) Days() int {
	return r.End.DaysSince(r.Start) + 1
}

// Contains reports whether d lies in the range
func (r DateRange) Contains(d civil.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Bounds returns the half-open instant window [start of Start, end of End) in loc
func (r DateRange) Bounds(loc *time.Location) (time.Time, time.Time) {
	return daysplit.StartOfLocalDay(r.Start, loc), daysplit.EndOfLocalDay(r.End, loc)
}

func (r DateRange) String() string {
	return r.Start.String() + ".." + r.End.String()
}
