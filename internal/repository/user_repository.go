package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
)

// UserRepository handles the user profile rows
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

// GetOrCreate returns the user, creating it with the default timezone on first use
func (r *UserRepository) GetOrCreate(ctx context.Context, userID string) (*models.User, error) {
	_, err := r.db.ExecContext(ctx,
		"INSERT OR IGNORE INTO users (id, timezone, created_at) VALUES (?, ?, ?)",
		userID, models.DefaultTimezone, toMillis(time.Now()))
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return r.Get(ctx, userID)
}

// Get retrieves a user by ID
func (r *UserRepository) Get(ctx context.Context, userID string) (*models.User, error) {
	var user models.User
	var createdAt int64
	err := r.db.QueryRowContext(ctx, "SELECT id, timezone, created_at FROM users WHERE id = ?", userID).
		Scan(&user.ID, &user.Timezone, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("user %s: %w", userID, models.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	user.CreatedAt = fromMillis(createdAt)
	return &user, nil
}

// SetTimezone stores the user's IANA timezone name
func (r *UserRepository) SetTimezone(ctx context.Context, userID, timezone string) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO users (id, timezone, created_at) VALUES (?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET timezone = excluded.timezone
	`, userID, timezone, toMillis(time.Now()))
	if err != nil {
		return fmt.Errorf("failed to set timezone: %w", err)
	}
	return nil
}
