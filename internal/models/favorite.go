package models

import "time"

// FavoriteType is the geometry of a favorite location
type FavoriteType string

const (
	FavoritePoint FavoriteType = "POINT"
	FavoriteArea  FavoriteType = "AREA"
)

// LatLng is a plain coordinate pair
type LatLng struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FavoriteLocation is a named point or area designated by the user
type FavoriteLocation struct {
	ID        int64        `json:"id" db:"id"`
	UserID    string       `json:"userId" db:"user_id"`
	Name      string       `json:"name" db:"name"`
	Type      FavoriteType `json:"type" db:"type"`
	Latitude  float64      `json:"latitude" db:"latitude"`   // POINT, or AREA centroid
	Longitude float64      `json:"longitude" db:"longitude"` // POINT, or AREA centroid
	Polygon   []LatLng     `json:"polygon,omitempty" db:"polygon_json"`
	City      string       `json:"city,omitempty" db:"city"`
	Country   string       `json:"country,omitempty" db:"country"`
	CreatedAt time.Time    `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time    `json:"updatedAt" db:"updated_at"`
}

// FavoriteInput is the create/update payload
type FavoriteInput struct {
	Name      string       `json:"name" binding:"required"`
	Type      FavoriteType `json:"type"`
	Latitude  float64      `json:"latitude"`
	Longitude float64      `json:"longitude"`
	Polygon   []LatLng     `json:"polygon"`
	City      string       `json:"city"`
	Country   string       `json:"country"`
}
