package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
)

// GeocodingRepository is the persistent reverse geocoding cache
type GeocodingRepository struct {
	db *sql.DB
}

// NewGeocodingRepository creates a new geocoding repository
func NewGeocodingRepository(db *sql.DB) *GeocodingRepository {
	return &GeocodingRepository{db: db}
}

// Get returns the cached location for key; ok is false on a miss
func (r *GeocodingRepository) Get(ctx context.Context, key string) (*models.ResolvedLocation, bool, error) {
	var id int64
	loc := &models.ResolvedLocation{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, display_name, city, country FROM reverse_geocoding_cache WHERE coord_key = ?
	`, key).Scan(&id, &loc.DisplayName, &loc.City, &loc.Country)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to query geocoding cache: %w", err)
	}
	loc.GeocodingID = &id
	return loc, true, nil
}

// Put stores loc under key, keeping the first stored result if the key is
// already cached. The returned location carries the cache row id.
func (r *GeocodingRepository) Put(ctx context.Context, key string, loc models.ResolvedLocation) (*models.ResolvedLocation, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO reverse_geocoding_cache (coord_key, display_name, city, country, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, key, loc.DisplayName, loc.City, loc.Country, toMillis(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to store geocoding result: %w", err)
	}

	stored, ok, err := r.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("geocoding result for %s vanished after insert", key)
	}
	return stored, nil
}

// Count returns the number of cached results
func (r *GeocodingRepository) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM reverse_geocoding_cache").Scan(&total); err != nil {
		return 0, fmt.Errorf("failed to count geocoding cache: %w", err)
	}
	return total, nil
}
