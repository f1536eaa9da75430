package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jengzang/geopulse-go/internal/aggregation"
	"github.com/jengzang/geopulse-go/internal/daysplit"
	"github.com/jengzang/geopulse-go/internal/geocoding"
	"github.com/jengzang/geopulse-go/internal/metrics"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/report"
	"github.com/jengzang/geopulse-go/internal/repository"
	"github.com/jengzang/geopulse-go/internal/segmentation"
	"github.com/jengzang/geopulse-go/internal/timeline"
)

// TimelineOptions configures a TimelineService
type TimelineOptions struct {
	Segmentation         segmentation.Config
	GeocodingCache       geocoding.Cache
	GeocodingProvider    geocoding.Provider
	FavoriteRadiusMeters float64
}

// TimelineService owns each user's segmentation: it rebuilds it from raw
// points and serves every read view derived from it.
type TimelineService struct {
	points    *repository.PointRepository
	segments  *repository.SegmentRepository
	favorites *repository.FavoriteRepository
	tags      *repository.TagRepository
	tasks     *repository.RegenerationTaskRepository
	users     *repository.UserRepository

	opts       TimelineOptions
	assembler  *timeline.Assembler
	superseder *timeline.Superseder
	locks      *userLocks
}

// NewTimelineService creates a new timeline service
func NewTimelineService(
	points *repository.PointRepository,
	segments *repository.SegmentRepository,
	favorites *repository.FavoriteRepository,
	tags *repository.TagRepository,
	tasks *repository.RegenerationTaskRepository,
	users *repository.UserRepository,
	opts TimelineOptions,
) *TimelineService {
	if opts.GeocodingProvider == nil {
		opts.GeocodingProvider = geocoding.NoopProvider{}
	}
	return &TimelineService{
		points:     points,
		segments:   segments,
		favorites:  favorites,
		tags:       tags,
		tasks:      tasks,
		users:      users,
		opts:       opts,
		assembler:  timeline.NewAssembler(segments, tags),
		superseder: timeline.NewSuperseder(),
		locks:      newUserLocks(),
	}
}

// Location returns the timezone views are computed in: the validated
// override when given, otherwise the user's profile timezone.
func (s *TimelineService) Location(ctx context.Context, userID, override string) (*time.Location, error) {
	if override != "" {
		return daysplit.LoadLocation(override)
	}
	user, err := s.users.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return daysplit.LoadLocation(user.Timezone)
}

// Regenerate rebuilds the user's segmentation from all stored points and
// returns the finished task. It holds the user's write lock throughout, so
// reads issued after it returns see the new segmentation. On failure the
// previous segmentation stays in place and the failed task is returned with
// the error when it could be recorded.
func (s *TimelineService) Regenerate(ctx context.Context, userID, trigger string) (*models.RegenerationTask, error) {
	lock := s.locks.get(userID)
	lock.Lock()
	defer lock.Unlock()

	start := time.Now()
	task := &models.RegenerationTask{UserID: userID, Trigger: trigger}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	logger := log.With().
		Str("component", "regeneration").
		Str("user_id", userID).
		Str("task_id", task.ID).
		Str("trigger", trigger).
		Logger()

	counts, err := s.regenerate(ctx, userID, task.ID)
	if err != nil {
		// record the failure even when the caller has gone away
		if markErr := s.tasks.MarkFailed(context.WithoutCancel(ctx), task.ID, err.Error()); markErr != nil {
			logger.Error().Err(markErr).Msg("failed to mark task failed")
		}
		metrics.ObserveRegeneration(models.TaskStatusFailed, start)
		logger.Error().Err(err).Msg("regeneration failed")
		failed, getErr := s.tasks.GetByID(context.WithoutCancel(ctx), userID, task.ID)
		if getErr != nil {
			return nil, err
		}
		return failed, err
	}

	metrics.ObserveRegeneration(models.TaskStatusCompleted, start)
	logger.Info().
		Int("stays", counts.stays).
		Int("trips", counts.trips).
		Int("data_gaps", counts.gaps).
		Dur("took", time.Since(start)).
		Msg("regeneration completed")

	return s.tasks.GetByID(ctx, userID, task.ID)
}

// regenerateAfterCommit regenerates after a mutation that is already stored.
// The mutation is not undone when regeneration fails; the returned task then
// has status failed and the caller reports a partial success.
func (s *TimelineService) regenerateAfterCommit(ctx context.Context, userID, trigger string) *models.RegenerationTask {
	task, err := s.Regenerate(ctx, userID, trigger)
	if err == nil {
		return task
	}
	if task == nil {
		now := time.Now().UTC()
		task = &models.RegenerationTask{
			UserID:      userID,
			Trigger:     trigger,
			Status:      models.TaskStatusFailed,
			CreatedAt:   now,
			CompletedAt: &now,
		}
	}
	if task.ErrorMessage == "" {
		task.ErrorMessage = err.Error()
	}
	return task
}

type segmentCounts struct {
	stays, trips, gaps int
}

func (s *TimelineService) regenerate(ctx context.Context, userID, taskID string) (segmentCounts, error) {
	points, err := s.points.PointsForUser(ctx, userID)
	if err != nil {
		return segmentCounts{}, err
	}
	if err := s.tasks.MarkProcessing(ctx, taskID, len(points)); err != nil {
		return segmentCounts{}, err
	}

	segs := segmentation.Segment(points, s.opts.Segmentation)
	if err := s.tasks.UpdateProgress(ctx, taskID, 40); err != nil {
		return segmentCounts{}, err
	}

	favs, err := s.favorites.ListByUser(ctx, userID)
	if err != nil {
		return segmentCounts{}, err
	}
	resolver := geocoding.NewFavoriteResolver(favs, s.opts.FavoriteRadiusMeters,
		geocoding.NewCachingResolver(s.opts.GeocodingCache, s.opts.GeocodingProvider))
	if err := segmentation.Enrich(ctx, segs, resolver); err != nil {
		return segmentCounts{}, fmt.Errorf("failed to enrich segments: %w", err)
	}
	if err := s.tasks.UpdateProgress(ctx, taskID, 80); err != nil {
		return segmentCounts{}, err
	}

	if _, err := s.segments.ReplaceAll(ctx, userID, segs); err != nil {
		return segmentCounts{}, err
	}

	var c segmentCounts
	c.stays, c.trips, c.gaps = aggregation.Counts(segs)
	metrics.AddSegments(string(models.KindStay), c.stays)
	metrics.AddSegments(string(models.KindTrip), c.trips)
	metrics.AddSegments(string(models.KindGap), c.gaps)

	if err := s.tasks.MarkCompleted(ctx, taskID, c.stays, c.trips, c.gaps); err != nil {
		return segmentCounts{}, err
	}
	return c, nil
}

// Task returns a regeneration task of the user
func (s *TimelineService) Task(ctx context.Context, userID, id string) (*models.RegenerationTask, error) {
	return s.tasks.GetByID(ctx, userID, id)
}

// Tasks lists the user's recent regeneration tasks
func (s *TimelineService) Tasks(ctx context.Context, userID, status string, limit int) ([]*models.RegenerationTask, error) {
	return s.tasks.ListByUser(ctx, userID, status, limit)
}

// Timeline returns the day-grouped timeline for r. When clientKey is set, a
// newer request with the same key supersedes this one, which then fails with
// timeline.ErrSuperseded instead of returning a stale view.
func (s *TimelineService) Timeline(ctx context.Context, userID string, r timeline.DateRange, loc *time.Location, clientKey string) (*models.Timeline, error) {
	return latestOnly(ctx, s.superseder, viewKey(userID, "timeline", clientKey), func(ctx context.Context) (*models.Timeline, error) {
		return s.timeline(ctx, userID, r, loc)
	})
}

func viewKey(userID, view, clientKey string) string {
	if clientKey == "" {
		return ""
	}
	return userID + "|" + view + "|" + clientKey
}

// latestOnly runs read under a superseder ticket for key. A read overtaken by
// a newer one with the same key fails with timeline.ErrSuperseded. An empty
// key runs read unguarded.
func latestOnly[T any](ctx context.Context, sup *timeline.Superseder, key string, read func(context.Context) (T, error)) (T, error) {
	if key == "" {
		return read(ctx)
	}

	ctx, ticket := sup.Begin(ctx, key)
	defer ticket.Done()

	v, err := read(ctx)
	if cause := context.Cause(ctx); errors.Is(cause, timeline.ErrSuperseded) || !ticket.Current() {
		var zero T
		return zero, timeline.ErrSuperseded
	}
	return v, err
}

func (s *TimelineService) timeline(ctx context.Context, userID string, r timeline.DateRange, loc *time.Location) (*models.Timeline, error) {
	lock := s.locks.get(userID)
	lock.RLock()
	defer lock.RUnlock()
	return s.assembler.Assemble(ctx, userID, r, loc)
}

// rangeSegments reads the segments overlapping r in loc under the read lock
func (s *TimelineService) rangeSegments(ctx context.Context, userID string, r timeline.DateRange, loc *time.Location) ([]models.Segment, time.Time, time.Time, error) {
	if loc == nil {
		return nil, time.Time{}, time.Time{}, fmt.Errorf("%w: missing timezone", models.ErrInvalidTimezone)
	}
	if err := r.Validate(0); err != nil {
		return nil, time.Time{}, time.Time{}, err
	}
	from, to := r.Bounds(loc)

	lock := s.locks.get(userID)
	lock.RLock()
	defer lock.RUnlock()

	segs, _, err := s.segments.SegmentsInRange(ctx, userID, from, to)
	if err != nil {
		return nil, from, to, err
	}
	return aggregation.InRange(segs, from, to), from, to, nil
}

// Dashboard returns the summary of the segments starting within r. clientKey
// behaves as in Timeline.
func (s *TimelineService) Dashboard(ctx context.Context, userID string, r timeline.DateRange, loc *time.Location, clientKey string) (*models.DashboardSummary, error) {
	return latestOnly(ctx, s.superseder, viewKey(userID, "dashboard", clientKey), func(ctx context.Context) (*models.DashboardSummary, error) {
		segs, from, to, err := s.rangeSegments(ctx, userID, r, loc)
		if err != nil {
			return nil, err
		}
		summary := aggregation.Dashboard(segs, from, to, loc)
		return &summary, nil
	})
}

// JourneyInsights summarizes the segments starting within r, or the whole
// history when r is nil. clientKey behaves as in Timeline.
func (s *TimelineService) JourneyInsights(ctx context.Context, userID string, r *timeline.DateRange, loc *time.Location, clientKey string) (*models.JourneyInsights, error) {
	return latestOnly(ctx, s.superseder, viewKey(userID, "insights", clientKey), func(ctx context.Context) (*models.JourneyInsights, error) {
		return s.journeyInsights(ctx, userID, r, loc)
	})
}

func (s *TimelineService) journeyInsights(ctx context.Context, userID string, r *timeline.DateRange, loc *time.Location) (*models.JourneyInsights, error) {
	var segs []models.Segment
	if r != nil {
		var err error
		if segs, _, _, err = s.rangeSegments(ctx, userID, *r, loc); err != nil {
			return nil, err
		}
	} else {
		lock := s.locks.get(userID)
		lock.RLock()
		all, _, err := s.segments.AllSegments(ctx, userID)
		lock.RUnlock()
		if err != nil {
			return nil, err
		}
		segs = all
	}
	insights := aggregation.JourneyInsights(segs, loc)
	return &insights, nil
}

// Report returns one page of the kind's table over the segments starting in r.
// clientKey behaves as in Timeline, keyed per table kind.
func (s *TimelineService) Report(ctx context.Context, userID string, kind report.Kind, r timeline.DateRange, loc *time.Location, q report.Query, clientKey string) (interface{}, error) {
	return latestOnly(ctx, s.superseder, viewKey(userID, "report:"+string(kind), clientKey), func(ctx context.Context) (interface{}, error) {
		return s.report(ctx, userID, kind, r, loc, q)
	})
}

func (s *TimelineService) report(ctx context.Context, userID string, kind report.Kind, r timeline.DateRange, loc *time.Location, q report.Query) (interface{}, error) {
	segs, _, _, err := s.rangeSegments(ctx, userID, r, loc)
	if err != nil {
		return nil, err
	}
	switch kind {
	case report.KindStays:
		return report.Stays(segs, q)
	case report.KindTrips:
		return report.Trips(segs, q)
	case report.KindGaps:
		return report.Gaps(segs, q)
	}
	return nil, fmt.Errorf("%w: unknown report %q", models.ErrValidation, kind)
}

// ExportCSV writes the filtered and sorted kind table, all pages, as CSV
func (s *TimelineService) ExportCSV(ctx context.Context, w io.Writer, userID string, kind report.Kind, r timeline.DateRange, loc *time.Location, q report.Query) error {
	segs, _, _, err := s.rangeSegments(ctx, userID, r, loc)
	if err != nil {
		return err
	}
	return report.WriteCSV(w, kind, segs, q, loc)
}

// ExportAll writes a ZIP archive with every table for r
func (s *TimelineService) ExportAll(ctx context.Context, w io.Writer, userID string, r timeline.DateRange, loc *time.Location) error {
	segs, _, _, err := s.rangeSegments(ctx, userID, r, loc)
	if err != nil {
		return err
	}
	return report.ExportAll(w, segs, loc)
}

// Segment returns one segment with its day-local views in loc
func (s *TimelineService) Segment(ctx context.Context, userID string, id int64, loc *time.Location) (*SegmentDetail, error) {
	lock := s.locks.get(userID)
	lock.RLock()
	seg, err := s.segments.SegmentByID(ctx, userID, id)
	lock.RUnlock()
	if err != nil {
		return nil, err
	}
	return &SegmentDetail{Segment: *seg, Views: daysplit.SplitByLocalDay(*seg, loc)}, nil
}

// SegmentDetail is a segment together with its per-day pieces
type SegmentDetail struct {
	models.Segment
	Views []models.DayLocalView `json:"views"`
}
