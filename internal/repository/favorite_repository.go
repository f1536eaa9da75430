package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
)

// FavoriteRepository handles database operations for favorite locations
type FavoriteRepository struct {
	db *sql.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *sql.DB) *FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// Create inserts fav and sets its ID and timestamps
func (r *FavoriteRepository) Create(ctx context.Context, fav *models.FavoriteLocation) error {
	polygon, err := encodePolygon(fav.Polygon)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO favorite_locations (
			user_id, name, type, latitude, longitude, polygon_json, city, country, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, fav.UserID, fav.Name, string(fav.Type), fav.Latitude, fav.Longitude, polygon,
		fav.City, fav.Country, toMillis(now), toMillis(now))
	if err != nil {
		return fmt.Errorf("failed to create favorite: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get favorite id: %w", err)
	}
	fav.ID = id
	fav.CreatedAt = fromMillis(toMillis(now))
	fav.UpdatedAt = fav.CreatedAt
	return nil
}

// Update overwrites the mutable fields of an existing favorite
func (r *FavoriteRepository) Update(ctx context.Context, fav *models.FavoriteLocation) error {
	polygon, err := encodePolygon(fav.Polygon)
	if err != nil {
		return err
	}

	now := fromMillis(toMillis(time.Now()))
	res, err := r.db.ExecContext(ctx, `
		UPDATE favorite_locations
		SET name = ?, type = ?, latitude = ?, longitude = ?, polygon_json = ?,
			city = ?, country = ?, updated_at = ?
		WHERE id = ? AND user_id = ?
	`, fav.Name, string(fav.Type), fav.Latitude, fav.Longitude, polygon,
		fav.City, fav.Country, toMillis(now), fav.ID, fav.UserID)
	if err != nil {
		return fmt.Errorf("failed to update favorite: %w", err)
	}
	if err := requireRow(res, "favorite", fav.ID); err != nil {
		return err
	}
	fav.UpdatedAt = now
	return nil
}

// Delete removes a favorite
func (r *FavoriteRepository) Delete(ctx context.Context, userID string, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM favorite_locations WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete favorite: %w", err)
	}
	return requireRow(res, "favorite", id)
}

// GetByID retrieves a favorite of the user
func (r *FavoriteRepository) GetByID(ctx context.Context, userID string, id int64) (*models.FavoriteLocation, error) {
	favs, err := r.query(ctx, "WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return nil, err
	}
	if len(favs) == 0 {
		return nil, fmt.Errorf("favorite %d: %w", id, models.ErrNotFound)
	}
	return &favs[0], nil
}

// ListByUser returns all favorites of the user ordered by id
func (r *FavoriteRepository) ListByUser(ctx context.Context, userID string) ([]models.FavoriteLocation, error) {
	return r.query(ctx, "WHERE user_id = ?", userID)
}

func (r *FavoriteRepository) query(ctx context.Context, where string, args ...interface{}) ([]models.FavoriteLocation, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, name, type, latitude, longitude, polygon_json, city, country, created_at, updated_at
		FROM favorite_locations `+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	favs := []models.FavoriteLocation{}
	for rows.Next() {
		var fav models.FavoriteLocation
		var favType string
		var polygon sql.NullString
		var createdAt, updatedAt int64
		if err := rows.Scan(
			&fav.ID, &fav.UserID, &fav.Name, &favType, &fav.Latitude, &fav.Longitude,
			&polygon, &fav.City, &fav.Country, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}
		fav.Type = models.FavoriteType(favType)
		fav.CreatedAt = fromMillis(createdAt)
		fav.UpdatedAt = fromMillis(updatedAt)
		if polygon.Valid && polygon.String != "" {
			if err := json.Unmarshal([]byte(polygon.String), &fav.Polygon); err != nil {
				return nil, fmt.Errorf("failed to decode polygon of favorite %d: %w", fav.ID, err)
			}
		}
		favs = append(favs, fav)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return favs, nil
}

func encodePolygon(polygon []models.LatLng) (sql.NullString, error) {
	if len(polygon) == 0 {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(polygon)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode polygon: %w", err)
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func requireRow(res sql.Result, what string, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %d: %w", what, id, models.ErrNotFound)
	}
	return nil
}
