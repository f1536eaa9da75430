package report

import (
	"strconv"
	"strings"
	"time"

	"github.com/jengzang/geopulse-go/internal/daysplit"
	"github.com/jengzang/geopulse-go/internal/models"
)

// StayRow is one line of the stays table
type StayRow struct {
	SegmentID       int64     `json:"segmentId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationSeconds int64     `json:"durationSeconds"`
	LocationName    string    `json:"locationName"`
	City            string    `json:"city,omitempty"`
	Country         string    `json:"country,omitempty"`
	Latitude        float64   `json:"latitude"`
	Longitude       float64   `json:"longitude"`
	FavoriteID      *int64    `json:"favoriteId,omitempty"`
}

// TripRow is one line of the trips table
type TripRow struct {
	SegmentID       int64               `json:"segmentId"`
	StartTime       time.Time           `json:"startTime"`
	EndTime         time.Time           `json:"endTime"`
	DurationSeconds int64               `json:"durationSeconds"`
	DistanceMeters  float64             `json:"distanceMeters"`
	MovementType    models.MovementType `json:"movementType"`
	AvgSpeedKmh     float64             `json:"avgSpeedKmh"`
	OriginName      string              `json:"originName,omitempty"`
	DestinationName string              `json:"destinationName,omitempty"`
}

// GapRow is one line of the data gaps table
type GapRow struct {
	SegmentID       int64     `json:"segmentId"`
	StartTime       time.Time `json:"startTime"`
	EndTime         time.Time `json:"endTime"`
	DurationSeconds int64     `json:"durationSeconds"`
}

// StayRows projects the stays of segs
func StayRows(segs []models.Segment) []StayRow {
	var rows []StayRow
	for _, s := range segs {
		if s.Kind != models.KindStay || s.Stay == nil {
			continue
		}
		rows = append(rows, StayRow{
			SegmentID:       s.ID,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationSeconds: s.DurationSeconds(),
			LocationName:    s.Stay.LocationName,
			City:            s.Stay.City,
			Country:         s.Stay.Country,
			Latitude:        s.Stay.Latitude,
			Longitude:       s.Stay.Longitude,
			FavoriteID:      s.Stay.FavoriteID,
		})
	}
	return rows
}

// TripRows projects the trips of segs
func TripRows(segs []models.Segment) []TripRow {
	var rows []TripRow
	for _, s := range segs {
		if s.Kind != models.KindTrip || s.Trip == nil {
			continue
		}
		rows = append(rows, TripRow{
			SegmentID:       s.ID,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationSeconds: s.DurationSeconds(),
			DistanceMeters:  s.Trip.DistanceMeters,
			MovementType:    s.Trip.MovementType,
			AvgSpeedKmh:     s.Trip.AvgSpeedKmh,
			OriginName:      s.Trip.OriginName,
			DestinationName: s.Trip.DestinationName,
		})
	}
	return rows
}

// GapRows projects the data gaps of segs
func GapRows(segs []models.Segment) []GapRow {
	var rows []GapRow
	for _, s := range segs {
		if s.Kind != models.KindGap {
			continue
		}
		rows = append(rows, GapRow{
			SegmentID:       s.ID,
			StartTime:       s.StartTime,
			EndTime:         s.EndTime,
			DurationSeconds: s.DurationSeconds(),
		})
	}
	return rows
}

const timeLayout = "2006-01-02 15:04:05"

func localTime(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(timeLayout)
}

func id(v int64) string { return strconv.FormatInt(v, 10) }

func float(v float64, prec int) string { return strconv.FormatFloat(v, 'f', prec, 64) }

var stayTable = table[StayRow]{
	defaultSort: "startTime",
	search: func(r StayRow, needle string) bool {
		return contains(r.LocationName, needle)
	},
	columns: []column[StayRow]{
		{"segmentId", "Segment ID", func(a, b StayRow) bool { return a.SegmentID < b.SegmentID },
			func(r StayRow, _ *time.Location) string { return id(r.SegmentID) }},
		{"startTime", "Start", func(a, b StayRow) bool { return a.StartTime.Before(b.StartTime) },
			func(r StayRow, loc *time.Location) string { return localTime(r.StartTime, loc) }},
		{"endTime", "End", func(a, b StayRow) bool { return a.EndTime.Before(b.EndTime) },
			func(r StayRow, loc *time.Location) string { return localTime(r.EndTime, loc) }},
		{"duration", "Duration", func(a, b StayRow) bool { return a.DurationSeconds < b.DurationSeconds },
			func(r StayRow, _ *time.Location) string { return daysplit.FormatDuration(r.DurationSeconds) }},
		{"locationName", "Location", func(a, b StayRow) bool {
			return strings.ToLower(a.LocationName) < strings.ToLower(b.LocationName)
		}, func(r StayRow, _ *time.Location) string { return r.LocationName }},
		{"city", "City", func(a, b StayRow) bool { return a.City < b.City },
			func(r StayRow, _ *time.Location) string { return r.City }},
		{"country", "Country", func(a, b StayRow) bool { return a.Country < b.Country },
			func(r StayRow, _ *time.Location) string { return r.Country }},
		{"latitude", "Latitude", nil, func(r StayRow, _ *time.Location) string { return float(r.Latitude, 6) }},
		{"longitude", "Longitude", nil, func(r StayRow, _ *time.Location) string { return float(r.Longitude, 6) }},
	},
}

var tripTable = table[TripRow]{
	defaultSort: "startTime",
	search: func(r TripRow, needle string) bool {
		return contains(r.OriginName, needle) || contains(r.DestinationName, needle) ||
			contains(string(r.MovementType), needle)
	},
	columns: []column[TripRow]{
		{"segmentId", "Segment ID", func(a, b TripRow) bool { return a.SegmentID < b.SegmentID },
			func(r TripRow, _ *time.Location) string { return id(r.SegmentID) }},
		{"startTime", "Start", func(a, b TripRow) bool { return a.StartTime.Before(b.StartTime) },
			func(r TripRow, loc *time.Location) string { return localTime(r.StartTime, loc) }},
		{"endTime", "End", func(a, b TripRow) bool { return a.EndTime.Before(b.EndTime) },
			func(r TripRow, loc *time.Location) string { return localTime(r.EndTime, loc) }},
		{"duration", "Duration", func(a, b TripRow) bool { return a.DurationSeconds < b.DurationSeconds },
			func(r TripRow, _ *time.Location) string { return daysplit.FormatDuration(r.DurationSeconds) }},
		{"distance", "Distance (km)", func(a, b TripRow) bool { return a.DistanceMeters < b.DistanceMeters },
			func(r TripRow, _ *time.Location) string { return float(r.DistanceMeters/1000, 2) }},
		{"movementType", "Movement", func(a, b TripRow) bool { return a.MovementType < b.MovementType },
			func(r TripRow, _ *time.Location) string { return string(r.MovementType) }},
		{"avgSpeed", "Avg Speed (km/h)", func(a, b TripRow) bool { return a.AvgSpeedKmh < b.AvgSpeedKmh },
			func(r TripRow, _ *time.Location) string { return float(r.AvgSpeedKmh, 1) }},
		{"origin", "From", func(a, b TripRow) bool { return a.OriginName < b.OriginName },
			func(r TripRow, _ *time.Location) string { return r.OriginName }},
		{"destination", "To", func(a, b TripRow) bool { return a.DestinationName < b.DestinationName },
			func(r TripRow, _ *time.Location) string { return r.DestinationName }},
	},
}

var gapTable = table[GapRow]{
	defaultSort: "startTime",
	columns: []column[GapRow]{
		{"segmentId", "Segment ID", func(a, b GapRow) bool { return a.SegmentID < b.SegmentID },
			func(r GapRow, _ *time.Location) string { return id(r.SegmentID) }},
		{"startTime", "Start", func(a, b GapRow) bool { return a.StartTime.Before(b.StartTime) },
			func(r GapRow, loc *time.Location) string { return localTime(r.StartTime, loc) }},
		{"endTime", "End", func(a, b GapRow) bool { return a.EndTime.Before(b.EndTime) },
			func(r GapRow, loc *time.Location) string { return localTime(r.EndTime, loc) }},
		{"duration", "Duration", func(a, b GapRow) bool { return a.DurationSeconds < b.DurationSeconds },
			func(r GapRow, _ *time.Location) string { return daysplit.FormatDuration(r.DurationSeconds) }},
	},
}

// Stays returns one page of the stays table
func Stays(segs []models.Segment, q Query) (*models.PageResponse[StayRow], error) {
	return stayTable.page(StayRows(segs), q)
}

// Trips returns one page of the trips table
func Trips(segs []models.Segment, q Query) (*models.PageResponse[TripRow], error) {
	return tripTable.page(TripRows(segs), q)
}

// Gaps returns one page of the data gaps table. Search does not apply to gaps.
func Gaps(segs []models.Segment, q Query) (*models.PageResponse[GapRow], error) {
	return gapTable.page(GapRows(segs), q)
}
