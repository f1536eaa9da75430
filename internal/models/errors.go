package models

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrValidation       = errors.New("validation error")
	ErrInvalidTimezone  = errors.New("invalid timezone")
	ErrInvalidDateRange = errors.New("invalid date range")
	ErrUnauthorized     = errors.New("unauthorized")
)
