package models

import (
	"strings"
	"time"
)

// SegmentKind discriminates the segment variants
type SegmentKind string

const (
	KindStay SegmentKind = "stay"
	KindTrip SegmentKind = "trip"
	KindGap  SegmentKind = "gap"
)

// Valid reports whether k is a known kind
func (k SegmentKind) Valid() bool {
	switch k {
	case KindStay, KindTrip, KindGap:
		return true
	}
	return false
}

// MovementType classifies a trip
type MovementType string

const (
	MovementCar     MovementType = "CAR"
	MovementWalk    MovementType = "WALK"
	MovementUnknown MovementType = "UNKNOWN"
)

// ParseMovementType accepts case-insensitive names
func ParseMovementType(s string) (MovementType, bool) {
	switch MovementType(strings.ToUpper(strings.TrimSpace(s))) {
	case MovementCar:
		return MovementCar, true
	case MovementWalk:
		return MovementWalk, true
	case MovementUnknown:
		return MovementUnknown, true
	}
	return "", false
}

// Segment is one classified, time-bounded unit of a user's movement history.
// Exactly one of Stay/Trip is set for KindStay/KindTrip; both are nil for KindGap.
type Segment struct {
	ID        int64        `json:"id"`
	Kind      SegmentKind  `json:"kind"`
	UserID    string       `json:"userId"`
	StartTime time.Time    `json:"startTime"` // UTC
	EndTime   time.Time    `json:"endTime"`   // UTC, >= StartTime
	Stay      *StayDetails `json:"stay,omitempty"`
	Trip      *TripDetails `json:"trip,omitempty"`
}

// Duration returns EndTime - StartTime
func (s Segment) Duration() time.Duration {
	return s.EndTime.Sub(s.StartTime)
}

// DurationSeconds returns the whole-second duration
func (s Segment) DurationSeconds() int64 {
	return int64(s.Duration() / time.Second)
}

// Overlaps reports whether the segment intersects [from, to)
func (s Segment) Overlaps(from, to time.Time) bool {
	if s.StartTime.Equal(s.EndTime) {
		return !s.StartTime.Before(from) && s.StartTime.Before(to)
	}
	return s.StartTime.Before(to) && s.EndTime.After(from)
}

// NewStay builds a stay segment
func NewStay(userID string, start, end time.Time, d StayDetails) Segment {
	return Segment{Kind: KindStay, UserID: userID, StartTime: start, EndTime: end, Stay: &d}
}

// NewTrip builds a trip segment
func NewTrip(userID string, start, end time.Time, d TripDetails) Segment {
	return Segment{Kind: KindTrip, UserID: userID, StartTime: start, EndTime: end, Trip: &d}
}

// NewGap builds a data gap segment
func NewGap(userID string, start, end time.Time) Segment {
	return Segment{Kind: KindGap, UserID: userID, StartTime: start, EndTime: end}
}
