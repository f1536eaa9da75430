package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
)

// TagRepository handles database operations for period tags
type TagRepository struct {
	db *sql.DB
}

// NewTagRepository creates a new tag repository
func NewTagRepository(db *sql.DB) *TagRepository {
	return &TagRepository{db: db}
}

// Create inserts tag and sets its ID
func (r *TagRepository) Create(ctx context.Context, tag *models.PeriodTag) error {
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO period_tags (user_id, tag_name, start_ms, end_ms, source, color)
		VALUES (?, ?, ?, ?, ?, ?)
	`, tag.UserID, tag.TagName, toMillis(tag.StartTime), nullMillis(tag.EndTime), tag.Source, tag.Color)
	if err != nil {
		return fmt.Errorf("failed to create period tag: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get period tag id: %w", err)
	}
	tag.ID = id
	return nil
}

// Update overwrites an existing tag
func (r *TagRepository) Update(ctx context.Context, tag *models.PeriodTag) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE period_tags SET tag_name = ?, start_ms = ?, end_ms = ?, source = ?, color = ?
		WHERE id = ? AND user_id = ?
	`, tag.TagName, toMillis(tag.StartTime), nullMillis(tag.EndTime), tag.Source, tag.Color, tag.ID, tag.UserID)
	if err != nil {
		return fmt.Errorf("failed to update period tag: %w", err)
	}
	return requireRow(res, "period tag", tag.ID)
}

// Delete removes a tag
func (r *TagRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM period_tags WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete period tag: %w", err)
	}
	return requireRow(res, "period tag", id)
}

// GetByID retrieves a tag of the user
func (r *TagRepository) GetByID(ctx context.Context, userID string, id int64) (*models.PeriodTag, error) {
	tags, err := r.query(ctx, "WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return nil, err
	}
	if len(tags) == 0 {
		return nil, fmt.Errorf("period tag %d: %w", id, models.ErrNotFound)
	}
	return &tags[0], nil
}

// ListByUser returns all tags of the user ordered by start time
func (r *TagRepository) ListByUser(ctx context.Context, userID string) ([]models.PeriodTag, error) {
	return r.query(ctx, "WHERE user_id = ?", userID)
}

// TagsInRange returns the tags intersecting [from, to); open-ended tags
// intersect everything after their start.
func (r *TagRepository) TagsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.PeriodTag, error) {
	return r.query(ctx, "WHERE user_id = ? AND start_ms < ? AND (end_ms IS NULL OR end_ms > ?)",
		userID, toMillis(to), toMillis(from))
}

func (r *TagRepository) query(ctx context.Context, where string, args ...interface{}) ([]models.PeriodTag, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, tag_name, start_ms, end_ms, source, color
		FROM period_tags `+where+` ORDER BY start_ms, id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query period tags: %w", err)
	}
	defer rows.Close()

	tags := []models.PeriodTag{}
	for rows.Next() {
		var tag models.PeriodTag
		var startMs int64
		var endMs sql.NullInt64
		if err := rows.Scan(&tag.ID, &tag.UserID, &tag.TagName, &startMs, &endMs, &tag.Source, &tag.Color); err != nil {
			return nil, fmt.Errorf("failed to scan period tag: %w", err)
		}
		tag.StartTime = fromMillis(startMs)
		tag.EndTime = timePtr(endMs)
		tags = append(tags, tag)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return tags, nil
}
