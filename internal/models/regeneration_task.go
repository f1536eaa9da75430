package models

import "time"

// RegenerationTask tracks one rebuild of a user's segments
type RegenerationTask struct {
	ID     string `json:"id" db:"id"`
	UserID string `json:"userId" db:"user_id"`

	Trigger string `json:"trigger" db:"trigger_source"` // MANUAL, FAVORITE_CREATED, POINTS_IMPORTED, ...

	Status          string `json:"status" db:"status"`
	ProgressPercent int    `json:"progressPercent" db:"progress_percent"`

	TotalPoints int `json:"totalPoints" db:"total_points"`
	Stays       int `json:"stays" db:"stays"`
	Trips       int `json:"trips" db:"trips"`
	DataGaps    int `json:"dataGaps" db:"data_gaps"`

	ErrorMessage string     `json:"errorMessage,omitempty" db:"error_message"`
	CreatedAt    time.Time  `json:"createdAt" db:"created_at"`
	StartedAt    *time.Time `json:"startedAt,omitempty" db:"started_at"`
	CompletedAt  *time.Time `json:"completedAt,omitempty" db:"completed_at"`
}

// TaskStatus constants
const (
	TaskStatusPending    = "pending"
	TaskStatusProcessing = "processing"
	TaskStatusCompleted  = "completed"
	TaskStatusFailed     = "failed"
)

// Trigger constants
const (
	TriggerManual          = "MANUAL"
	TriggerFavoriteCreated = "FAVORITE_CREATED"
	TriggerFavoriteUpdated = "FAVORITE_UPDATED"
	TriggerFavoriteDeleted = "FAVORITE_DELETED"
	TriggerPointsImported  = "POINTS_IMPORTED"
)

// IsTerminal returns true if the task is in a terminal state
func (t *RegenerationTask) IsTerminal() bool {
	return t.Status == TaskStatusCompleted || t.Status == TaskStatusFailed
}
