package models

import "time"

// DefaultTimezone is assigned to users created without an explicit profile
const DefaultTimezone = "UTC"

// User is the slice of the user profile the timeline needs
type User struct {
	ID        string    `json:"id" db:"id"`
	Timezone  string    `json:"timezone" db:"timezone"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
