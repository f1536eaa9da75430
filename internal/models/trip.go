package models

// TripDetails holds the trip-specific fields of a segment
type TripDetails struct {
	StartLat float64 `json:"startLat" db:"start_lat"`
	StartLon float64 `json:"startLon" db:"start_lon"`
	EndLat   float64 `json:"endLat" db:"end_lat"`
	EndLon   float64 `json:"endLon" db:"end_lon"`

	DistanceMeters float64      `json:"distanceMeters" db:"distance_meters"`
	MovementType   MovementType `json:"movementType" db:"movement_type"`
	AvgSpeedKmh    float64      `json:"avgSpeedKmh,omitempty" db:"avg_speed_kmh"`
	MaxSpeedKmh    float64      `json:"maxSpeedKmh,omitempty" db:"max_speed_kmh"`

	// Names of the stays the trip connects, filled in during enrichment
	OriginName      string `json:"originName,omitempty" db:"origin_name"`
	DestinationName string `json:"destinationName,omitempty" db:"destination_name"`
}
