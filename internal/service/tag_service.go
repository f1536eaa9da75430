package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/repository"
)

// TagService handles period tags
type TagService struct {
	repo *repository.TagRepository
}

// NewTagService creates a new tag service
func NewTagService(repo *repository.TagRepository) *TagService {
	return &TagService{repo: repo}
}

// List returns the user's tags
func (s *TagService) List(ctx context.Context, userID string) ([]models.PeriodTag, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one tag
func (s *TagService) Get(ctx context.Context, userID string, id int64) (*models.PeriodTag, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates and stores a tag
func (s *TagService) Create(ctx context.Context, userID string, in models.PeriodTagInput) (*models.PeriodTag, error) {
	tag, err := tagFromInput(in)
	if err != nil {
		return nil, err
	}
	tag.UserID = userID
	if err := s.repo.Create(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Update replaces a tag
func (s *TagService) Update(ctx context.Context, userID string, id int64, in models.PeriodTagInput) (*models.PeriodTag, error) {
	tag, err := tagFromInput(in)
	if err != nil {
		return nil, err
	}
	tag.ID = id
	tag.UserID = userID
	if err := s.repo.Update(ctx, tag); err != nil {
		return nil, err
	}
	return tag, nil
}

// Delete removes a tag
func (s *TagService) Delete(ctx context.Context, userID string, id int64) error {
	return s.repo.Delete(ctx, userID, id)
}

func tagFromInput(in models.PeriodTagInput) (*models.PeriodTag, error) {
	name := strings.TrimSpace(in.TagName)
	if name == "" {
		return nil, fmt.Errorf("%w: tagName is required", models.ErrValidation)
	}
	if in.StartTime.IsZero() {
		return nil, fmt.Errorf("%w: startTime is required", models.ErrValidation)
	}

	tag := &models.PeriodTag{
		TagName:   name,
		StartTime: in.StartTime.UTC(),
		Source:    in.Source,
		Color:     in.Color,
	}
	if tag.Source == "" {
		tag.Source = models.TagSourceManual
	}
	if in.EndTime != nil {
		if in.EndTime.Before(in.StartTime) {
			return nil, fmt.Errorf("%w: endTime is before startTime", models.ErrValidation)
		}
		end := in.EndTime.UTC()
		tag.EndTime = &end
	}
	return tag, nil
}
