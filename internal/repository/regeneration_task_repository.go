package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jengzang/geopulse-go/internal/models"
)

// RegenerationTaskRepository handles database operations for regeneration tasks
type RegenerationTaskRepository struct {
	db *sql.DB
}

// NewRegenerationTaskRepository creates a new regeneration task repository
func NewRegenerationTaskRepository(db *sql.DB) *RegenerationTaskRepository {
	return &RegenerationTaskRepository{db: db}
}

// Create creates a new pending task, assigning a random ID when none is set
func (r *RegenerationTaskRepository) Create(ctx context.Context, task *models.RegenerationTask) error {
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.CreatedAt = fromMillis(toMillis(task.CreatedAt))

	query := `
		INSERT INTO regeneration_tasks (
			id, user_id, trigger_source, status, progress_percent, total_points,
			stays, trips, data_gaps, error_message, created_at, started_at, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Trigger,
		task.Status,
		task.ProgressPercent,
		task.TotalPoints,
		task.Stays,
		task.Trips,
		task.DataGaps,
		task.ErrorMessage,
		toMillis(task.CreatedAt),
		nullMillis(task.StartedAt),
		nullMillis(task.CompletedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create regeneration task: %w", err)
	}
	return nil
}

// MarkProcessing records the start of a task and its input size
func (r *RegenerationTaskRepository) MarkProcessing(ctx context.Context, id string, totalPoints int) error {
	query := `
		UPDATE regeneration_tasks
		SET status = ?, total_points = ?, progress_percent = 10, started_at = ?
		WHERE id = ?
	`
	return r.exec(ctx, "mark task processing", id, query,
		models.TaskStatusProcessing, totalPoints, toMillis(time.Now()), id)
}

// UpdateProgress updates the progress percentage of a running task
func (r *RegenerationTaskRepository) UpdateProgress(ctx context.Context, id string, percent int) error {
	return r.exec(ctx, "update task progress", id,
		"UPDATE regeneration_tasks SET progress_percent = ? WHERE id = ?", percent, id)
}

// MarkCompleted finishes a task with the produced segment counts
func (r *RegenerationTaskRepository) MarkCompleted(ctx context.Context, id string, stays, trips, gaps int) error {
	query := `
		UPDATE regeneration_tasks
		SET status = ?, progress_percent = 100, stays = ?, trips = ?, data_gaps = ?, completed_at = ?
		WHERE id = ?
	`
	return r.exec(ctx, "mark task completed", id, query,
		models.TaskStatusCompleted, stays, trips, gaps, toMillis(time.Now()), id)
}

// MarkFailed finishes a task with an error message
func (r *RegenerationTaskRepository) MarkFailed(ctx context.Context, id string, errorMessage string) error {
	query := `
		UPDATE regeneration_tasks
		SET status = ?, error_message = ?, completed_at = ?
		WHERE id = ?
	`
	return r.exec(ctx, "mark task failed", id, query,
		models.TaskStatusFailed, errorMessage, toMillis(time.Now()), id)
}

// GetByID retrieves a task of the user
func (r *RegenerationTaskRepository) GetByID(ctx context.Context, userID, id string) (*models.RegenerationTask, error) {
	tasks, err := r.query(ctx, "WHERE id = ? AND user_id = ?", 1, id, userID)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("regeneration task %s: %w", id, models.ErrNotFound)
	}
	return tasks[0], nil
}

// ListByUser returns the most recent tasks of the user, optionally
// filtered by status
func (r *RegenerationTaskRepository) ListByUser(ctx context.Context, userID, status string, limit int) ([]*models.RegenerationTask, error) {
	conditions := []string{"user_id = ?"}
	args := []interface{}{userID}
	if status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, status)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return r.query(ctx, "WHERE "+strings.Join(conditions, " AND "), limit, args...)
}

func (r *RegenerationTaskRepository) exec(ctx context.Context, action, id, query string, args ...interface{}) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to %s: %w", action, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("regeneration task %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *RegenerationTaskRepository) query(ctx context.Context, where string, limit int, args ...interface{}) ([]*models.RegenerationTask, error) {
	query := `
		SELECT id, user_id, trigger_source, status, progress_percent, total_points,
			   stays, trips, data_gaps, error_message, created_at, started_at, completed_at
		FROM regeneration_tasks
		` + where + `
		ORDER BY created_at DESC, id
		LIMIT ?
	`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query regeneration tasks: %w", err)
	}
	defer rows.Close()

	tasks := []*models.RegenerationTask{}
	for rows.Next() {
		task := &models.RegenerationTask{}
		var createdAt int64
		var startedAt, completedAt sql.NullInt64
		if err := rows.Scan(
			&task.ID,
			&task.UserID,
			&task.Trigger,
			&task.Status,
			&task.ProgressPercent,
			&task.TotalPoints,
			&task.Stays,
			&task.Trips,
			&task.DataGaps,
			&task.ErrorMessage,
			&createdAt,
			&startedAt,
			&completedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan regeneration task: %w", err)
		}
		task.CreatedAt = fromMillis(createdAt)
		task.StartedAt = timePtr(startedAt)
		task.CompletedAt = timePtr(completedAt)
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tasks, nil
}
