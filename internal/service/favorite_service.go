package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/repository"
	"github.com/jengzang/geopulse-go/internal/spatial"
)

// FavoriteService handles favorite locations. Every mutation regenerates
// the user's timeline before returning, so stay names never lag behind. A
// stored mutation whose regeneration failed is returned with the failed task.
type FavoriteService struct {
	repo     *repository.FavoriteRepository
	timeline *TimelineService
}

// NewFavoriteService creates a new favorite service
func NewFavoriteService(repo *repository.FavoriteRepository, timeline *TimelineService) *FavoriteService {
	return &FavoriteService{repo: repo, timeline: timeline}
}

// FavoriteResult is a favorite together with the regeneration it triggered
type FavoriteResult struct {
	Favorite     *models.FavoriteLocation `json:"favorite,omitempty"`
	Regeneration *models.RegenerationTask `json:"regeneration"`
}

// List returns the user's favorites
func (s *FavoriteService) List(ctx context.Context, userID string) ([]models.FavoriteLocation, error) {
	return s.repo.ListByUser(ctx, userID)
}

// Get returns one favorite
func (s *FavoriteService) Get(ctx context.Context, userID string, id int64) (*models.FavoriteLocation, error) {
	return s.repo.GetByID(ctx, userID, id)
}

// Create validates and stores a favorite, then regenerates
func (s *FavoriteService) Create(ctx context.Context, userID string, in models.FavoriteInput) (*FavoriteResult, error) {
	fav, err := favoriteFromInput(in)
	if err != nil {
		return nil, err
	}
	fav.UserID = userID

	if err := s.repo.Create(ctx, fav); err != nil {
		return nil, err
	}
	task := s.timeline.regenerateAfterCommit(ctx, userID, models.TriggerFavoriteCreated)
	return &FavoriteResult{Favorite: fav, Regeneration: task}, nil
}

// Update replaces a favorite's fields, then regenerates
func (s *FavoriteService) Update(ctx context.Context, userID string, id int64, in models.FavoriteInput) (*FavoriteResult, error) {
	existing, err := s.repo.GetByID(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	fav, err := favoriteFromInput(in)
	if err != nil {
		return nil, err
	}
	fav.ID = id
	fav.UserID = userID
	fav.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, fav); err != nil {
		return nil, err
	}
	task := s.timeline.regenerateAfterCommit(ctx, userID, models.TriggerFavoriteUpdated)
	return &FavoriteResult{Favorite: fav, Regeneration: task}, nil
}

// Delete removes a favorite, then regenerates
func (s *FavoriteService) Delete(ctx context.Context, userID string, id int64) (*FavoriteResult, error) {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return nil, err
	}
	task := s.timeline.regenerateAfterCommit(ctx, userID, models.TriggerFavoriteDeleted)
	return &FavoriteResult{Regeneration: task}, nil
}

func favoriteFromInput(in models.FavoriteInput) (*models.FavoriteLocation, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", models.ErrValidation)
	}
	favType := models.FavoriteType(strings.ToUpper(string(in.Type)))
	if favType == "" {
		favType = models.FavoritePoint
	}

	fav := &models.FavoriteLocation{
		Name:    name,
		Type:    favType,
		City:    in.City,
		Country: in.Country,
	}

	switch favType {
	case models.FavoritePoint:
		if err := validateCoordinate(in.Latitude, in.Longitude); err != nil {
			return nil, err
		}
		fav.Latitude, fav.Longitude = in.Latitude, in.Longitude
	case models.FavoriteArea:
		vertices := make([]spatial.Point, 0, len(in.Polygon))
		for _, v := range in.Polygon {
			if err := validateCoordinate(v.Lat, v.Lon); err != nil {
				return nil, err
			}
			vertices = append(vertices, spatial.Point{Lat: v.Lat, Lon: v.Lon})
		}
		poly := spatial.NewPolygon(vertices)
		if poly == nil {
			return nil, fmt.Errorf("%w: an area needs at least three distinct vertices", models.ErrValidation)
		}
		center := poly.Center()
		fav.Latitude, fav.Longitude = center.Lat, center.Lon
		fav.Polygon = in.Polygon
	default:
		return nil, fmt.Errorf("%w: unknown favorite type %q", models.ErrValidation, in.Type)
	}
	return fav, nil
}

func validateCoordinate(lat, lon float64) error {
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return fmt.Errorf("%w: coordinate %.6f, %.6f out of range", models.ErrValidation, lat, lon)
	}
	return nil
}
