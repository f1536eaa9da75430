package service

import (
	"context"

	"github.com/jengzang/geopulse-go/internal/daysplit"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/repository"
)

// UserService manages the user profile
type UserService struct {
	repo *repository.UserRepository
}

// NewUserService creates a new user service
func NewUserService(repo *repository.UserRepository) *UserService {
	return &UserService{repo: repo}
}

// Profile returns the user, creating it on first access
func (s *UserService) Profile(ctx context.Context, userID string) (*models.User, error) {
	return s.repo.GetOrCreate(ctx, userID)
}

// SetTimezone validates and stores an IANA timezone for the user
func (s *UserService) SetTimezone(ctx context.Context, userID, timezone string) (*models.User, error) {
	loc, err := daysplit.LoadLocation(timezone)
	if err != nil {
		return nil, err
	}
	if err := s.repo.SetTimezone(ctx, userID, loc.String()); err != nil {
		return nil, err
	}
	return s.repo.GetOrCreate(ctx, userID)
}
