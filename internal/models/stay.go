package models

import (
	"strconv"
	"strings"
)

// StayDetails holds the stay-specific fields of a segment
type StayDetails struct {
	Latitude     float64 `json:"latitude" db:"latitude"`
	Longitude    float64 `json:"longitude" db:"longitude"`
	LocationName string  `json:"locationName" db:"location_name"`
	City         string  `json:"city,omitempty" db:"city"`
	Country      string  `json:"country,omitempty" db:"country"`

	// Weak references into favorites / the geocoding cache
	FavoriteID  *int64 `json:"favoriteId,omitempty" db:"favorite_id"`
	GeocodingID *int64 `json:"geocodingId,omitempty" db:"geocoding_id"`

	PointCount int `json:"pointCount,omitempty" db:"point_count"`
}

// PlaceKey identifies the resolved place behind a stay: favorite first, then
// geocoding result, then the display name. Unnamed stays fall back to their
// coordinates rounded to about 10 meters.
func (d StayDetails) PlaceKey() string {
	switch {
	case d.FavoriteID != nil:
		return "favorite:" + strconv.FormatInt(*d.FavoriteID, 10)
	case d.GeocodingID != nil:
		return "geocoding:" + strconv.FormatInt(*d.GeocodingID, 10)
	case strings.TrimSpace(d.LocationName) != "":
		return "name:" + strings.ToLower(strings.TrimSpace(d.LocationName))
	default:
		return "coords:" + strconv.FormatFloat(d.Latitude, 'f', 4, 64) + "," + strconv.FormatFloat(d.Longitude, 'f', 4, 64)
	}
}

// ResolvedLocation is the outcome of favorite matching / reverse geocoding
type ResolvedLocation struct {
	DisplayName string `json:"displayName"`
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	FavoriteID  *int64 `json:"favoriteId,omitempty"`
	GeocodingID *int64 `json:"geocodingId,omitempty"`
}
