package models

import "time"

// PeriodTag source values
const (
	TagSourceManual    = "manual"
	TagSourceOwnTracks = "owntracks"
)

// PeriodTag labels a time range independently of segmentation
type PeriodTag struct {
	ID        int64      `json:"id" db:"id"`
	UserID    string     `json:"userId" db:"user_id"`
	TagName   string     `json:"tagName" db:"tag_name"`
	StartTime time.Time  `json:"startTime" db:"start_time"`
	EndTime   *time.Time `json:"endTime,omitempty" db:"end_time"` // nil means ongoing
	Source    string     `json:"source" db:"source"`
	Color     string     `json:"color,omitempty" db:"color"`
}

// Overlaps reports whether the tag intersects [from, to)
func (t PeriodTag) Overlaps(from, to time.Time) bool {
	if !t.StartTime.Before(to) {
		return false
	}
	return t.EndTime == nil || t.EndTime.After(from)
}

// PeriodTagInput is the create/update payload
type PeriodTagInput struct {
	TagName   string     `json:"tagName" binding:"required"`
	StartTime time.Time  `json:"startTime" binding:"required"`
	EndTime   *time.Time `json:"endTime"`
	Source    string     `json:"source"`
	Color     string     `json:"color"`
}
