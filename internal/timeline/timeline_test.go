package timeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jengzang/geopulse-go/internal/daysplit"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSegments struct {
	mu      sync.Mutex
	segs    []models.Segment
	version int64
	err     error
	calls   atomic.Int32
	windows [][2]time.Time

	entered chan struct{}
	release chan struct{}
}

func (f *fakeSegments) SegmentsInRange(_ context.Context, _ string, from, to time.Time) ([]models.Segment, int64, error) {
	f.calls.Add(1)
	if f.entered != nil {
		f.entered <- struct{}{}
		<-f.release
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.windows = append(f.windows, [2]time.Time{from, to})
	if f.err != nil {
		return nil, 0, f.err
	}
	var out []models.Segment
	for _, s := range f.segs {
		if s.Overlaps(from, to) {
			out = append(out, s)
		}
	}
	return out, f.version, nil
}

type fakeTags struct {
	tags  []models.PeriodTag
	calls int
}

func (f *fakeTags) TagsInRange(_ context.Context, _ string, from, to time.Time) ([]models.PeriodTag, error) {
	f.calls++
	var out []models.PeriodTag
	for _, t := range f.tags {
		if t.Overlaps(from, to) {
			out = append(out, t)
		}
	}
	return out, nil
}

func utc(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := daysplit.LoadLocation(name)
	require.NoError(t, err)
	return loc
}

func stay(id int64, start, end string) models.Segment {
	s := models.NewStay("u1", utc(start), utc(end), models.StayDetails{LocationName: "Home"})
	s.ID = id
	return s
}

func totalSeconds(tl *models.Timeline) int64 {
	var total int64
	for _, g := range tl.Groups {
		for _, it := range g.Items {
			total += it.OnThisDayDurationSeconds
		}
	}
	return total
}

func overnightCount(tl *models.Timeline) int {
	n := 0
	for _, g := range tl.Groups {
		for _, it := range g.Items {
			if it.IsOvernight() {
				n++
			}
		}
	}
	return n
}

func TestBuild_GroupsAndOrders(t *testing.T) {
	kyiv := mustLoc(t, "Europe/Kyiv")
	segs := []models.Segment{
		stay(3, "2025-09-21T10:00:00Z", "2025-09-21T12:00:00Z"),
		stay(1, "2025-09-20T05:00:00Z", "2025-09-20T20:00:00Z"),
		{ID: 2, Kind: models.KindTrip, UserID: "u1", StartTime: utc("2025-09-20T20:00:00Z"), EndTime: utc("2025-09-21T06:00:00Z"),
			Trip: &models.TripDetails{MovementType: models.MovementCar}},
	}

	tl := Build("u1", DateRange{Start: date(2025, 9, 20), End: date(2025, 9, 21)}, kyiv, segs)
	require.Equal(t, models.TimelineReady, tl.Status)
	require.Len(t, tl.Groups, 2)
	assert.Equal(t, 4, tl.ItemCount)

	day1, day2 := tl.Groups[0], tl.Groups[1]
	assert.Equal(t, date(2025, 9, 20), day1.CalendarDate)
	require.Len(t, day1.Items, 2)
	assert.Equal(t, int64(1), day1.Items[0].SegmentID)
	assert.Equal(t, int64(2), day1.Items[1].SegmentID)
	assert.Equal(t, "23:00", day1.Items[1].OnThisDayStart.Format("15:04"))

	assert.Equal(t, date(2025, 9, 21), day2.CalendarDate)
	require.Len(t, day2.Items, 2)
	assert.Equal(t, int64(2), day2.Items[0].SegmentID)
	assert.True(t, day2.Items[0].IsContinuation)
	assert.Equal(t, "Sep 20, 23:00", day2.Items[0].ContinuedFromLabel)
	assert.Equal(t, int64(3), day2.Items[1].SegmentID)

	counts := tl.Counts()
	assert.Equal(t, 2, counts[models.KindStay])
	assert.Equal(t, 2, counts[models.KindTrip])
}

func TestBuild_DropsViewsOutsideRange(t *testing.T) {
	loc := mustLoc(t, "UTC")
	segs := []models.Segment{stay(1, "2025-09-19T12:00:00Z", "2025-09-21T12:00:00Z")}

	tl := Build("u1", SingleDay(date(2025, 9, 20)), loc, segs)
	require.Len(t, tl.Groups, 1)
	require.Len(t, tl.Groups[0].Items, 1)
	item := tl.Groups[0].Items[0]
	assert.True(t, item.IsContinuation)
	assert.Equal(t, int64(86400), item.OnThisDayDurationSeconds)
	assert.Equal(t, int64(2*86400), item.SegmentDurationSeconds)
}

func TestBuild_Empty(t *testing.T) {
	tl := Build("u1", SingleDay(date(2025, 1, 1)), time.UTC, nil)
	assert.Equal(t, models.TimelineEmpty, tl.Status)
	assert.NotNil(t, tl.Groups)
	assert.Empty(t, tl.Groups)
	assert.Zero(t, tl.ItemCount)
}

// Same stays rendered in two zones: the day grouping changes, the total does not.
func TestBuild_TimezoneSwitch(t *testing.T) {
	segs := []models.Segment{
		stay(1, "2025-09-20T18:00:00Z", "2025-09-20T23:00:00Z"),
		stay(2, "2025-09-20T08:00:00Z", "2025-09-20T12:00:00Z"),
	}
	r := DateRange{Start: date(2025, 9, 20), End: date(2025, 9, 21)}

	kyiv := Build("u1", r, mustLoc(t, "Europe/Kyiv"), segs)
	ny := Build("u1", r, mustLoc(t, "America/New_York"), segs)

	assert.Len(t, kyiv.Groups, 2)
	assert.Len(t, ny.Groups, 1)
	assert.Equal(t, 2, overnightCount(kyiv))
	assert.Zero(t, overnightCount(ny))
	assert.Equal(t, int64(9*3600), totalSeconds(kyiv))
	assert.Equal(t, totalSeconds(kyiv), totalSeconds(ny))
}

func TestAttachTags(t *testing.T) {
	loc := mustLoc(t, "UTC")
	end := utc("2025-09-20T18:00:00Z")
	tags := []models.PeriodTag{
		{ID: 1, TagName: "Trip to Lviv", StartTime: utc("2025-09-20T10:00:00Z"), EndTime: &end},
		{ID: 2, TagName: "Living abroad", StartTime: utc("2025-09-01T00:00:00Z")},
	}
	segs := []models.Segment{
		stay(1, "2025-09-20T08:00:00Z", "2025-09-20T12:00:00Z"),
		stay(2, "2025-09-21T08:00:00Z", "2025-09-21T12:00:00Z"),
	}

	tl := Build("u1", DateRange{Start: date(2025, 9, 20), End: date(2025, 9, 21)}, loc, segs)
	AttachTags(tl, tags, loc)

	require.Len(t, tl.Groups, 2)
	assert.Len(t, tl.Groups[0].Tags, 2)
	require.Len(t, tl.Groups[1].Tags, 1)
	assert.Equal(t, "Living abroad", tl.Groups[1].Tags[0].TagName)
}

func TestAssembler_OneFetchPerRequest(t *testing.T) {
	kyiv := mustLoc(t, "Europe/Kyiv")
	src := &fakeSegments{
		segs:    []models.Segment{stay(1, "2025-09-20T18:00:00Z", "2025-09-20T23:00:00Z")},
		version: 4,
	}
	tags := &fakeTags{}
	a := NewAssembler(src, tags)
	r := DateRange{Start: date(2025, 9, 20), End: date(2025, 9, 21)}

	tl, err := a.Assemble(context.Background(), "u1", r, kyiv)
	require.NoError(t, err)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1, tags.calls)
	assert.Equal(t, int64(4), tl.Version)
	assert.Equal(t, "Europe/Kyiv", tl.Timezone)

	// fetch window is the range widened by a day on each side
	from, to := r.Bounds(kyiv)
	require.Len(t, src.windows, 1)
	assert.True(t, src.windows[0][0].Equal(from.AddDate(0, 0, -1)))
	assert.True(t, src.windows[0][1].Equal(to.AddDate(0, 0, 1)))
}

func TestAssembler_Idempotent(t *testing.T) {
	src := &fakeSegments{segs: []models.Segment{stay(1, "2025-09-20T18:00:00Z", "2025-09-20T23:00:00Z")}}
	a := NewAssembler(src, nil)
	r := SingleDay(date(2025, 9, 20))
	loc := mustLoc(t, "Asia/Kolkata")

	first, err := a.Assemble(context.Background(), "u1", r, loc)
	require.NoError(t, err)
	second, err := a.Assemble(context.Background(), "u1", r, loc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestAssembler_ReflectsMutationOnNextRead(t *testing.T) {
	src := &fakeSegments{segs: []models.Segment{stay(1, "2025-09-20T08:00:00Z", "2025-09-20T12:00:00Z")}}
	a := NewAssembler(src, nil)
	r := SingleDay(date(2025, 9, 20))

	tl, err := a.Assemble(context.Background(), "u1", r, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 1, tl.ItemCount)

	src.mu.Lock()
	src.segs = append(src.segs, stay(2, "2025-09-20T13:00:00Z", "2025-09-20T14:00:00Z"))
	src.version++
	src.mu.Unlock()

	tl, err = a.Assemble(context.Background(), "u1", r, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, 2, tl.ItemCount)
	assert.Equal(t, int64(1), tl.Version)
}

func TestAssembler_CoalescesConcurrentIdenticalRequests(t *testing.T) {
	src := &fakeSegments{
		segs:    []models.Segment{stay(1, "2025-09-20T08:00:00Z", "2025-09-20T12:00:00Z")},
		entered: make(chan struct{}, 8),
		release: make(chan struct{}),
	}
	a := NewAssembler(src, nil)
	r := SingleDay(date(2025, 9, 20))

	const callers = 5
	var wg sync.WaitGroup
	results := make([]*models.Timeline, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tl, err := a.Assemble(context.Background(), "u1", r, time.UTC)
			assert.NoError(t, err)
			results[i] = tl
		}(i)
	}

	<-src.entered
	time.Sleep(50 * time.Millisecond)
	close(src.release)
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, tl := range results {
		require.NotNil(t, tl)
		assert.Equal(t, 1, tl.ItemCount)
	}
}

func TestAssembler_EmptyRangeSkipsTags(t *testing.T) {
	tags := &fakeTags{}
	a := NewAssembler(&fakeSegments{}, tags)

	tl, err := a.Assemble(context.Background(), "u1", SingleDay(date(2025, 9, 20)), time.UTC)
	require.NoError(t, err)
	assert.Equal(t, models.TimelineEmpty, tl.Status)
	assert.Zero(t, tags.calls)
}

func TestAssembler_Errors(t *testing.T) {
	a := NewAssembler(&fakeSegments{err: errors.New("disk on fire")}, nil)
	r := SingleDay(date(2025, 9, 20))

	_, err := a.Assemble(context.Background(), "u1", r, nil)
	assert.ErrorIs(t, err, models.ErrInvalidTimezone)

	_, err = a.Assemble(context.Background(), "u1", DateRange{Start: date(2025, 9, 21), End: date(2025, 9, 20)}, time.UTC)
	assert.ErrorIs(t, err, models.ErrInvalidDateRange)

	_, err = a.Assemble(context.Background(), "u1", r, time.UTC)
	assert.ErrorContains(t, err, "disk on fire")
}

func TestAssembler_CallerCancellation(t *testing.T) {
	src := &fakeSegments{entered: make(chan struct{}, 1), release: make(chan struct{})}
	a := NewAssembler(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.Assemble(ctx, "u1", SingleDay(date(2025, 9, 20)), time.UTC)
		done <- err
	}()

	<-src.entered
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	close(src.release)
}

// versionedSource reports the version current when the read starts; only the
// first read blocks
type versionedSource struct {
	version atomic.Int64
	calls   atomic.Int32
	entered chan struct{}
	release chan struct{}
}

func (v *versionedSource) SegmentsInRange(_ context.Context, _ string, _, _ time.Time) ([]models.Segment, int64, error) {
	snapshot := v.version.Load()
	if v.calls.Add(1) == 1 {
		v.entered <- struct{}{}
		<-v.release
	}
	return []models.Segment{stay(1, "2025-09-20T08:00:00Z", "2025-09-20T12:00:00Z")}, snapshot, nil
}

func TestAssembler_CancelledFetchIsNotJoinedLater(t *testing.T) {
	src := &versionedSource{entered: make(chan struct{}, 1), release: make(chan struct{})}
	src.version.Store(1)
	a := NewAssembler(src, nil)
	r := SingleDay(date(2025, 9, 20))
	defer close(src.release)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := a.Assemble(ctx, "u1", r, time.UTC)
		done <- err
	}()

	<-src.entered
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	// a regeneration commits while the first read is still in flight
	src.version.Store(2)

	tl, err := a.Assemble(context.Background(), "u1", r, time.UTC)
	require.NoError(t, err)
	assert.Equal(t, int64(2), tl.Version)
	assert.Equal(t, int32(2), src.calls.Load())
}
