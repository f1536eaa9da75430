// Package timeline assembles the date-grouped feed of day-local segment views.
package timeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jengzang/geopulse-go/internal/daysplit"
	"github.com/jengzang/geopulse-go/internal/metrics"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/singleflight"
)

// SegmentSource returns every segment of a user intersecting [from, to) together
// with the version of the segmentation it was read from.
type SegmentSource interface {
	SegmentsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Segment, int64, error)
}

// TagSource returns the period tags of a user overlapping [from, to)
type TagSource interface {
	TagsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.PeriodTag, error)
}

// Assembler builds timelines. Identical concurrent requests share one upstream
// fetch; nothing is cached once a request completes, so a read issued after a
// regeneration always sees the new segmentation.
type Assembler struct {
	segments SegmentSource
	tags     TagSource
	group    singleflight.Group
}

// NewAssembler creates an assembler. tags may be nil.
func NewAssembler(segments SegmentSource, tags TagSource) *Assembler {
	return &Assembler{segments: segments, tags: tags}
}

// Assemble returns the timeline of userID for the dates of r in loc. The
// returned timeline may be shared with concurrent callers and must not be
// modified.
func (a *Assembler) Assemble(ctx context.Context, userID string, r DateRange, loc *time.Location) (*models.Timeline, error) {
	if loc == nil {
		return nil, fmt.Errorf("%w: missing timezone", models.ErrInvalidTimezone)
	}
	if err := r.Validate(0); err != nil {
		return nil, err
	}

	key := userID + "|" + r.String() + "|" + loc.String()
	ch := a.group.DoChan(key, func() (interface{}, error) {
		// the fetch is shared, so one caller going away must not fail the others
		return a.assemble(context.WithoutCancel(ctx), userID, r, loc)
	})

	select {
	case <-ctx.Done():
		// the fetch keeps running for callers already waiting on it, but once
		// this caller releases its read barrier a regeneration may commit, so
		// later requests must start a fresh fetch instead of joining this one
		a.group.Forget(key)
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			metrics.IncTimelineCoalesced()
		}
		return res.Val.(*models.Timeline), nil
	}
}

func (a *Assembler) assemble(ctx context.Context, userID string, r DateRange, loc *time.Location) (*models.Timeline, error) {
	from, to := r.Bounds(loc)
	// one extra day each side picks up overnight spillover
	fetchFrom := from.AddDate(0, 0, -1)
	fetchTo := to.AddDate(0, 0, 1)

	metrics.IncTimelineFetch()
	segs, version, err := a.segments.SegmentsInRange(ctx, userID, fetchFrom, fetchTo)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch segments: %w", err)
	}

	tl := Build(userID, r, loc, segs)
	tl.Version = version

	if a.tags != nil && len(tl.Groups) > 0 {
		tags, err := a.tags.TagsInRange(ctx, userID, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch period tags: %w", err)
		}
		AttachTags(tl, tags, loc)
	}

	log.Debug().
		Str("component", "timeline").
		Str("user_id", userID).
		Str("range", r.String()).
		Str("timezone", loc.String()).
		Int("segments", len(segs)).
		Int("items", tl.ItemCount).
		Msg("timeline assembled")

	return tl, nil
}

// Build splits segs into day-local views, keeps those dated inside r, groups
// them by date ascending and orders each day by the view start.
func Build(userID string, r DateRange, loc *time.Location, segs []models.Segment) *models.Timeline {
	byDate := make(map[string]*models.DayGroup)
	var groups []*models.DayGroup
	count := 0

	for _, seg := range segs {
		for _, v := range daysplit.SplitByLocalDay(seg, loc) {
			if !r.Contains(v.CalendarDate) {
				continue
			}
			key := v.CalendarDate.String()
			g, ok := byDate[key]
			if !ok {
				g = &models.DayGroup{CalendarDate: v.CalendarDate}
				byDate[key] = g
				groups = append(groups, g)
			}
			g.Items = append(g.Items, v)
			count++
		}
	}

	sort.Slice(groups, func(i, j int) bool {
		return groups[i].CalendarDate.Before(groups[j].CalendarDate)
	})

	tl := &models.Timeline{
		UserID:    userID,
		Timezone:  loc.String(),
		StartDate: r.Start,
		EndDate:   r.End,
		Status:    models.TimelineEmpty,
		ItemCount: count,
		Groups:    make([]models.DayGroup, 0, len(groups)),
	}
	for _, g := range groups {
		sort.SliceStable(g.Items, func(i, j int) bool {
			a, b := g.Items[i], g.Items[j]
			if !a.OnThisDayStart.Equal(b.OnThisDayStart) {
				return a.OnThisDayStart.Before(b.OnThisDayStart)
			}
			return a.OnThisDayEnd.Before(b.OnThisDayEnd)
		})
		tl.Groups = append(tl.Groups, *g)
	}
	if count > 0 {
		tl.Status = models.TimelineReady
	}
	return tl
}

// AttachTags adds to every day group the tags overlapping that local day.
// An open-ended tag overlaps every day from its start on.
func AttachTags(tl *models.Timeline, tags []models.PeriodTag, loc *time.Location) {
	for i := range tl.Groups {
		dayStart := daysplit.StartOfLocalDay(tl.Groups[i].CalendarDate, loc)
		dayEnd := daysplit.EndOfLocalDay(tl.Groups[i].CalendarDate, loc)
		for _, tag := range tags {
			if tag.Overlaps(dayStart, dayEnd) {
				tl.Groups[i].Tags = append(tl.Groups[i].Tags, tag)
			}
		}
	}
}
