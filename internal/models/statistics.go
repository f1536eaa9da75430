package models

import (
	"time"

	"cloud.google.com/go/civil"
)

// PlaceVisit is one ranked entry of the top places list
type PlaceVisit struct {
	Key                  string  `json:"key"`
	Name                 string  `json:"name"`
	VisitCount           int     `json:"visitCount"`
	TotalDurationSeconds int64   `json:"totalDurationSeconds"`
	Latitude             float64 `json:"latitude"`
	Longitude            float64 `json:"longitude"`
	FavoriteID           *int64  `json:"favoriteId,omitempty"`
}

// ActivityPatterns summarizes when movement happens, in the user's timezone
type ActivityPatterns struct {
	MostActiveMonth      string      `json:"mostActiveMonth,omitempty"`
	BusiestDayOfWeek     string      `json:"busiestDayOfWeek,omitempty"`
	MostActiveHour       *int        `json:"mostActiveHour,omitempty"`
	MostActiveTimeOfDay  string      `json:"mostActiveTimeOfDay,omitempty"`
	BusiestDate          *civil.Date `json:"busiestDate,omitempty"`
	BusiestDateDistanceM float64     `json:"busiestDateDistanceMeters,omitempty"`
}

// Milestone is an achievement with progress toward a fixed threshold
type Milestone struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Category        string  `json:"category"`
	Threshold       float64 `json:"threshold"`
	Current         float64 `json:"current"`
	Earned          bool    `json:"earned"`
	ProgressPercent float64 `json:"progressPercent"`
}

// DashboardSummary is the rollup shown for a selected period
type DashboardSummary struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`

	TotalDistanceMeters   float64                  `json:"totalDistanceMeters"`
	DistanceByMovement    map[MovementType]float64 `json:"distanceByMovement"`
	DailyAverageDistanceM float64                  `json:"dailyAverageDistanceMeters"`
	TimeMovingSeconds     int64                    `json:"timeMovingSeconds"`
	AverageSpeedKmh       float64                  `json:"averageSpeedKmh"`
	StayCount             int                      `json:"stayCount"`
	TripCount             int                      `json:"tripCount"`
	DataGapCount          int                      `json:"dataGapCount"`
	UniquePlaces          int                      `json:"uniquePlaces"`
	TopPlaces             []PlaceVisit             `json:"topPlaces"`
	ActivityPatterns      ActivityPatterns         `json:"activityPatterns"`
	HasData               bool                     `json:"hasData"`
}

// JourneyInsights is the all-time exploration summary
type JourneyInsights struct {
	Countries           []string                 `json:"countries"`
	Cities              []string                 `json:"cities"`
	TotalDistanceMeters float64                  `json:"totalDistanceMeters"`
	DistanceByMovement  map[MovementType]float64 `json:"distanceByMovement"`
	TimeMovingSeconds   int64                    `json:"timeMovingSeconds"`
	AverageSpeedKmh     float64                  `json:"averageSpeedKmh"`
	TrackedDays         int                      `json:"trackedDays"`
	ActivityPatterns    ActivityPatterns         `json:"activityPatterns"`
	Milestones          []Milestone              `json:"milestones"`
}
