package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// DayLocalView is the portion of a segment that falls on one local calendar date
type DayLocalView struct {
	SegmentID                int64       `json:"segmentId"`
	Kind                     SegmentKind `json:"kind"`
	CalendarDate             civil.Date  `json:"calendarDate"`
	OnThisDayStart           time.Time   `json:"onThisDayStart"`
	OnThisDayEnd             time.Time   `json:"onThisDayEnd"`
	OnThisDayDurationSeconds int64       `json:"onThisDayDurationSeconds"`
	IsContinuation           bool        `json:"isContinuation"`
	ContinuedFromLabel       string      `json:"continuedFromLabel,omitempty"`
	SegmentDurationSeconds   int64       `json:"segmentDurationSeconds"`
	Segment                  *Segment    `json:"segment"`
}

// IsOvernight reports whether the underlying segment covers more than this day
func (v DayLocalView) IsOvernight() bool {
	return v.IsContinuation || v.OnThisDayDurationSeconds != v.SegmentDurationSeconds
}

// DayGroup is one date of the assembled timeline
type DayGroup struct {
	CalendarDate civil.Date     `json:"calendarDate"`
	Items        []DayLocalView `json:"items"`
	Tags         []PeriodTag    `json:"tags,omitempty"`
}

// TimelineStatus distinguishes an empty result from a populated one
type TimelineStatus string

const (
	TimelineEmpty TimelineStatus = "empty"
	TimelineReady TimelineStatus = "ready"
)

// Timeline is the assembled, date-grouped feed for a date range
type Timeline struct {
	UserID    string         `json:"userId"`
	Timezone  string         `json:"timezone"`
	StartDate civil.Date     `json:"startDate"`
	EndDate   civil.Date     `json:"endDate"`
	Status    TimelineStatus `json:"status"`
	Version   int64          `json:"version"`
	ItemCount int            `json:"itemCount"`
	Groups    []DayGroup     `json:"groups"`
}

// Counts returns the number of views per kind
func (t *Timeline) Counts() map[SegmentKind]int {
	counts := make(map[SegmentKind]int)
	for _, g := range t.Groups {
		for _, it := range g.Items {
			counts[it.Kind]++
		}
	}
	return counts
}
