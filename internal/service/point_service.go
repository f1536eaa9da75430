package service

import (
	"context"
	"fmt"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/repository"
)

// MaxIngestBatch caps the points accepted by one ingest call
const MaxIngestBatch = 10000

// PointService ingests raw GPS points
type PointService struct {
	repo     *repository.PointRepository
	timeline *TimelineService
}

// NewPointService creates a new point service
func NewPointService(repo *repository.PointRepository, timeline *TimelineService) *PointService {
	return &PointService{repo: repo, timeline: timeline}
}

// IngestResult reports the outcome of an ingest call
type IngestResult struct {
	Received     int                      `json:"received"`
	Inserted     int                      `json:"inserted"`
	Regeneration *models.RegenerationTask `json:"regeneration,omitempty"`
}

// Ingest stores the points and regenerates the timeline when anything new
// arrived. Duplicate samples are ignored.
func (s *PointService) Ingest(ctx context.Context, userID string, inputs []models.RawPointInput) (*IngestResult, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no points given", models.ErrValidation)
	}
	if len(inputs) > MaxIngestBatch {
		return nil, fmt.Errorf("%w: at most %d points per batch", models.ErrValidation, MaxIngestBatch)
	}

	points := make([]models.RawPoint, 0, len(inputs))
	for i, in := range inputs {
		if in.Timestamp.IsZero() {
			return nil, fmt.Errorf("%w: point %d has no timestamp", models.ErrValidation, i)
		}
		if err := validateCoordinate(in.Latitude, in.Longitude); err != nil {
			return nil, fmt.Errorf("point %d: %w", i, err)
		}
		points = append(points, in.ToRawPoint(userID))
	}

	inserted, err := s.repo.InsertPoints(ctx, points)
	if err != nil {
		return nil, err
	}

	result := &IngestResult{Received: len(inputs), Inserted: inserted}
	if inserted == 0 {
		return result, nil
	}
	result.Regeneration = s.timeline.regenerateAfterCommit(ctx, userID, models.TriggerPointsImported)
	return result, nil
}

// Count returns the number of stored points of the user
func (s *PointService) Count(ctx context.Context, userID string) (int64, error) {
	return s.repo.CountPoints(ctx, userID)
}
