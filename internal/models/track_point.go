package models

import "time"

// RawPoint represents a GPS sample as delivered by an ingestion source
type RawPoint struct {
	ID         int64     `json:"id" db:"id"`
	UserID     string    `json:"userId" db:"user_id"`
	Timestamp  time.Time `json:"timestamp" db:"timestamp"` // UTC
	Latitude   float64   `json:"latitude" db:"latitude"`
	Longitude  float64   `json:"longitude" db:"longitude"`
	Accuracy   *float64  `json:"accuracy,omitempty" db:"accuracy"` // meters
	Altitude   *float64  `json:"altitude,omitempty" db:"altitude"` // meters
	Battery    *float64  `json:"battery,omitempty" db:"battery"`   // percent
	Velocity   *float64  `json:"velocity,omitempty" db:"velocity"` // km/h
	DeviceID   string    `json:"deviceId,omitempty" db:"device_id"`
	SourceType string    `json:"sourceType,omitempty" db:"source_type"` // OWNTRACKS, OVERLAND, DAWARICH, HOME_ASSISTANT, ...
}

// RawPointInput is the ingestion shape accepted by the points endpoint
type RawPointInput struct {
	Timestamp  time.Time `json:"timestamp" binding:"required"`
	Latitude   float64   `json:"lat" binding:"min=-90,max=90"`
	Longitude  float64   `json:"lon" binding:"min=-180,max=180"`
	Accuracy   *float64  `json:"accuracy"`
	Altitude   *float64  `json:"altitude"`
	Battery    *float64  `json:"battery"`
	Velocity   *float64  `json:"velocity"`
	DeviceID   string    `json:"deviceId"`
	SourceType string    `json:"sourceType"`
}

// ToRawPoint converts the input into a stored point for userID
func (in RawPointInput) ToRawPoint(userID string) RawPoint {
	return RawPoint{
		UserID:     userID,
		Timestamp:  in.Timestamp.UTC(),
		Latitude:   in.Latitude,
		Longitude:  in.Longitude,
		Accuracy:   in.Accuracy,
		Altitude:   in.Altitude,
		Battery:    in.Battery,
		Velocity:   in.Velocity,
		DeviceID:   in.DeviceID,
		SourceType: in.SourceType,
	}
}
