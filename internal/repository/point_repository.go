package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jengzang/geopulse-go/internal/database"
	"github.com/jengzang/geopulse-go/internal/models"
)

// PointRepository handles database operations for raw GPS points
type PointRepository struct {
	db *sql.DB
}

// NewPointRepository creates a new point repository
func NewPointRepository(db *sql.DB) *PointRepository {
	return &PointRepository{db: db}
}

// InsertPoints stores points, skipping duplicates of an already stored
// (user, timestamp, device) sample. It returns the number of new rows.
func (r *PointRepository) InsertPoints(ctx context.Context, points []models.RawPoint) (int, error) {
	if len(points) == 0 {
		return 0, nil
	}

	inserted := 0
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR IGNORE INTO gps_points (
				user_id, ts_ms, latitude, longitude, accuracy, altitude,
				battery, velocity, device_id, source_type
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for _, p := range points {
			res, err := stmt.ExecContext(ctx,
				p.UserID, toMillis(p.Timestamp), p.Latitude, p.Longitude,
				nullFloat(p.Accuracy), nullFloat(p.Altitude), nullFloat(p.Battery), nullFloat(p.Velocity),
				p.DeviceID, p.SourceType,
			)
			if err != nil {
				return fmt.Errorf("failed to insert point: %w", err)
			}
			if n, err := res.RowsAffected(); err == nil {
				inserted += int(n)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// PointsForUser returns every point of a user in ascending time order
func (r *PointRepository) PointsForUser(ctx context.Context, userID string) ([]models.RawPoint, error) {
	return r.query(ctx, `WHERE user_id = ?`, userID)
}

// PointsInRange returns the points of a user with timestamp in [from, to)
func (r *PointRepository) PointsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.RawPoint, error) {
	return r.query(ctx, `WHERE user_id = ? AND ts_ms >= ? AND ts_ms < ?`, userID, toMillis(from), toMillis(to))
}

// CountPoints returns the number of stored points of a user
func (r *PointRepository) CountPoints(ctx context.Context, userID string) (int64, error) {
	var total int64
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM gps_points WHERE user_id = ?", userID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return total, nil
}

func (r *PointRepository) query(ctx context.Context, where string, args ...interface{}) ([]models.RawPoint, error) {
	query := `SELECT id, user_id, ts_ms, latitude, longitude, accuracy, altitude,
		battery, velocity, device_id, source_type
		FROM gps_points ` + where + ` ORDER BY ts_ms, id`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer rows.Close()

	var points []models.RawPoint
	for rows.Next() {
		var p models.RawPoint
		var ts int64
		var accuracy, altitude, battery, velocity sql.NullFloat64
		if err := rows.Scan(
			&p.ID, &p.UserID, &ts, &p.Latitude, &p.Longitude,
			&accuracy, &altitude, &battery, &velocity, &p.DeviceID, &p.SourceType,
		); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		p.Timestamp = fromMillis(ts)
		p.Accuracy = floatPtr(accuracy)
		p.Altitude = floatPtr(altitude)
		p.Battery = floatPtr(battery)
		p.Velocity = floatPtr(velocity)
		points = append(points, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return points, nil
}
