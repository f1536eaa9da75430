package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jengzang/geopulse-go/internal/database"
	"github.com/jengzang/geopulse-go/internal/models"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	conn, err := database.Open(filepath.Join(t.TempDir(), "geopulse.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(conn))
	t.Cleanup(func() { conn.Close() })
	return conn
}

var base = time.Date(2025, 9, 20, 8, 0, 0, 0, time.UTC)

func ptr[T any](v T) *T { return &v }

func TestPointRepository_InsertSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	repo := NewPointRepository(openTestDB(t))

	points := []models.RawPoint{
		{UserID: "u1", Timestamp: base.Add(time.Minute), Latitude: 50.45, Longitude: 30.52, Accuracy: ptr(5.0)},
		{UserID: "u1", Timestamp: base, Latitude: 50.44, Longitude: 30.51},
		{UserID: "u2", Timestamp: base, Latitude: 1, Longitude: 2},
	}
	n, err := repo.InsertPoints(ctx, points)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = repo.InsertPoints(ctx, points[:2])
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	got, err := repo.PointsForUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.True(t, got[0].Timestamp.Equal(base))
	assert.Nil(t, got[0].Accuracy)
	require.NotNil(t, got[1].Accuracy)
	assert.Equal(t, 5.0, *got[1].Accuracy)
	assert.Equal(t, time.UTC, got[1].Timestamp.Location())

	inRange, err := repo.PointsInRange(ctx, "u1", base, base.Add(time.Minute))
	require.NoError(t, err)
	assert.Len(t, inRange, 1)

	total, err := repo.CountPoints(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func sampleTimeline() []models.Segment {
	return []models.Segment{
		models.NewStay("", base, base.Add(time.Hour), models.StayDetails{
			Latitude: 50.45, Longitude: 30.52, LocationName: "Home", City: "Kyiv", Country: "Ukraine",
			FavoriteID: ptr(int64(7)), PointCount: 12,
		}),
		models.NewTrip("", base.Add(time.Hour), base.Add(2*time.Hour), models.TripDetails{
			StartLat: 50.45, StartLon: 30.52, EndLat: 50.1, EndLon: 30.9,
			DistanceMeters: 41000, MovementType: models.MovementCar, AvgSpeedKmh: 41, MaxSpeedKmh: 90,
			OriginName: "Home", DestinationName: "Office",
		}),
		models.NewGap("", base.Add(2*time.Hour), base.Add(6*time.Hour)),
	}
}

func TestSegmentRepository_ReplaceAllRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewSegmentRepository(openTestDB(t))

	v, err := repo.Version(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, v)

	segs := sampleTimeline()
	v, err = repo.ReplaceAll(ctx, "u1", segs)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)
	for _, s := range segs {
		assert.NotZero(t, s.ID)
		assert.Equal(t, "u1", s.UserID)
	}

	got, version, err := repo.AllSegments(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	require.Len(t, got, 3)

	assert.Equal(t, models.KindStay, got[0].Kind)
	require.NotNil(t, got[0].Stay)
	assert.Equal(t, "Home", got[0].Stay.LocationName)
	assert.Equal(t, int64(7), *got[0].Stay.FavoriteID)
	assert.Nil(t, got[0].Stay.GeocodingID)
	assert.Equal(t, 12, got[0].Stay.PointCount)
	assert.Nil(t, got[0].Trip)

	require.NotNil(t, got[1].Trip)
	assert.Equal(t, models.MovementCar, got[1].Trip.MovementType)
	assert.Equal(t, 41000.0, got[1].Trip.DistanceMeters)
	assert.Equal(t, "Office", got[1].Trip.DestinationName)

	assert.Equal(t, models.KindGap, got[2].Kind)
	assert.Nil(t, got[2].Stay)
	assert.Nil(t, got[2].Trip)
	assert.Equal(t, 4*time.Hour, got[2].Duration())
}

func TestSegmentRepository_ReplaceAllDropsPreviousTimeline(t *testing.T) {
	ctx := context.Background()
	conn := openTestDB(t)
	repo := NewSegmentRepository(conn)

	_, err := repo.ReplaceAll(ctx, "u1", sampleTimeline())
	require.NoError(t, err)
	_, err = repo.ReplaceAll(ctx, "u2", sampleTimeline()[:1])
	require.NoError(t, err)

	v, err := repo.ReplaceAll(ctx, "u1", sampleTimeline()[2:])
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	got, _, err := repo.AllSegments(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.KindGap, got[0].Kind)

	var details int
	require.NoError(t, conn.QueryRow("SELECT COUNT(*) FROM timeline_stays").Scan(&details))
	assert.Equal(t, 1, details, "only u2's stay remains")

	other, _, err := repo.AllSegments(ctx, "u2")
	require.NoError(t, err)
	assert.Len(t, other, 1)
}

func TestSegmentRepository_SegmentsInRange(t *testing.T) {
	ctx := context.Background()
	repo := NewSegmentRepository(openTestDB(t))

	segs := append(sampleTimeline(),
		models.NewStay("", base.Add(6*time.Hour), base.Add(6*time.Hour), models.StayDetails{LocationName: "Blip"}))
	_, err := repo.ReplaceAll(ctx, "u1", segs)
	require.NoError(t, err)

	tests := []struct {
		name     string
		from, to time.Time
		want     []models.SegmentKind
	}{
		{"everything", base, base.Add(7 * time.Hour), []models.SegmentKind{models.KindStay, models.KindTrip, models.KindGap, models.KindStay}},
		{"partial overlap", base.Add(30 * time.Minute), base.Add(90 * time.Minute), []models.SegmentKind{models.KindStay, models.KindTrip}},
		{"touching end excluded", base.Add(time.Hour), base.Add(2 * time.Hour), []models.SegmentKind{models.KindTrip}},
		{"zero duration at from", base.Add(6 * time.Hour), base.Add(7 * time.Hour), []models.SegmentKind{models.KindStay}},
		{"zero duration at to", base.Add(5 * time.Hour), base.Add(6 * time.Hour), []models.SegmentKind{models.KindGap}},
		{"before", base.Add(-time.Hour), base, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, version, err := repo.SegmentsInRange(ctx, "u1", tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, int64(1), version)
			var kinds []models.SegmentKind
			for _, s := range got {
				kinds = append(kinds, s.Kind)
			}
			assert.Equal(t, tt.want, kinds)
		})
	}
}

func TestSegmentRepository_SegmentByID(t *testing.T) {
	ctx := context.Background()
	repo := NewSegmentRepository(openTestDB(t))

	segs := sampleTimeline()
	_, err := repo.ReplaceAll(ctx, "u1", segs)
	require.NoError(t, err)

	got, err := repo.SegmentByID(ctx, "u1", segs[1].ID)
	require.NoError(t, err)
	assert.Equal(t, models.KindTrip, got.Kind)

	_, err = repo.SegmentByID(ctx, "someone-else", segs[1].ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestFavoriteRepository_CRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewFavoriteRepository(openTestDB(t))

	area := &models.FavoriteLocation{
		UserID: "u1", Name: "Park", Type: models.FavoriteArea, Latitude: 1.5, Longitude: 1.5,
		Polygon: []models.LatLng{{Lat: 1, Lon: 1}, {Lat: 1, Lon: 2}, {Lat: 2, Lon: 2}, {Lat: 2, Lon: 1}},
	}
	require.NoError(t, repo.Create(ctx, area))
	assert.NotZero(t, area.ID)

	point := &models.FavoriteLocation{UserID: "u1", Name: "Home", Type: models.FavoritePoint, Latitude: 3, Longitude: 4}
	require.NoError(t, repo.Create(ctx, point))

	got, err := repo.GetByID(ctx, "u1", area.ID)
	require.NoError(t, err)
	assert.Equal(t, area.Polygon, got.Polygon)

	point.Name = "Home sweet home"
	require.NoError(t, repo.Update(ctx, point))
	list, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Home sweet home", list[1].Name)
	assert.Nil(t, list[1].Polygon)

	require.NoError(t, repo.Delete(ctx, "u1", area.ID))
	assert.ErrorIs(t, repo.Delete(ctx, "u1", area.ID), models.ErrNotFound)
	_, err = repo.GetByID(ctx, "u2", point.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
}

func TestTagRepository_TagsInRange(t *testing.T) {
	ctx := context.Background()
	repo := NewTagRepository(openTestDB(t))

	closed := &models.PeriodTag{UserID: "u1", TagName: "Trip to Lviv", StartTime: base, EndTime: ptr(base.Add(48 * time.Hour)), Source: models.TagSourceManual}
	ongoing := &models.PeriodTag{UserID: "u1", TagName: "Sabbatical", StartTime: base.Add(72 * time.Hour), Source: models.TagSourceManual}
	require.NoError(t, repo.Create(ctx, closed))
	require.NoError(t, repo.Create(ctx, ongoing))

	got, err := repo.TagsInRange(ctx, "u1", base.Add(24*time.Hour), base.Add(25*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Trip to Lviv", got[0].TagName)

	got, err = repo.TagsInRange(ctx, "u1", base.Add(1000*time.Hour), base.Add(1001*time.Hour))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Nil(t, got[0].EndTime)

	got, err = repo.TagsInRange(ctx, "u1", base.Add(48*time.Hour), base.Add(72*time.Hour))
	require.NoError(t, err)
	assert.Empty(t, got)

	closed.Color = "#ff0000"
	require.NoError(t, repo.Update(ctx, closed))
	stored, err := repo.GetByID(ctx, "u1", closed.ID)
	require.NoError(t, err)
	assert.Equal(t, "#ff0000", stored.Color)

	require.NoError(t, repo.Delete(ctx, "u1", closed.ID))
	all, err := repo.ListByUser(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestGeocodingRepository_PutKeepsFirstResult(t *testing.T) {
	ctx := context.Background()
	repo := NewGeocodingRepository(openTestDB(t))

	_, ok, err := repo.Get(ctx, "50.4500,30.5200")
	require.NoError(t, err)
	assert.False(t, ok)

	first, err := repo.Put(ctx, "50.4500,30.5200", models.ResolvedLocation{DisplayName: "Khreshchatyk", City: "Kyiv"})
	require.NoError(t, err)
	require.NotNil(t, first.GeocodingID)

	second, err := repo.Put(ctx, "50.4500,30.5200", models.ResolvedLocation{DisplayName: "Other"})
	require.NoError(t, err)
	assert.Equal(t, "Khreshchatyk", second.DisplayName)
	assert.Equal(t, *first.GeocodingID, *second.GeocodingID)

	total, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
}

func TestUserRepository_Timezone(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(openTestDB(t))

	_, err := repo.Get(ctx, "u1")
	assert.ErrorIs(t, err, models.ErrNotFound)

	user, err := repo.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, models.DefaultTimezone, user.Timezone)

	require.NoError(t, repo.SetTimezone(ctx, "u1", "Europe/Kyiv"))
	user, err = repo.GetOrCreate(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "Europe/Kyiv", user.Timezone)

	require.NoError(t, repo.SetTimezone(ctx, "u2", "Asia/Tokyo"))
	user, err = repo.Get(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "Asia/Tokyo", user.Timezone)
}

func TestRegenerationTaskRepository_Lifecycle(t *testing.T) {
	ctx := context.Background()
	repo := NewRegenerationTaskRepository(openTestDB(t))

	task := &models.RegenerationTask{UserID: "u1", Trigger: models.TriggerManual}
	require.NoError(t, repo.Create(ctx, task))
	assert.NotEmpty(t, task.ID)
	assert.Equal(t, models.TaskStatusPending, task.Status)

	require.NoError(t, repo.MarkProcessing(ctx, task.ID, 120))
	require.NoError(t, repo.UpdateProgress(ctx, task.ID, 60))
	require.NoError(t, repo.MarkCompleted(ctx, task.ID, 3, 2, 1))

	got, err := repo.GetByID(ctx, "u1", task.ID)
	require.NoError(t, err)
	assert.Equal(t, models.TaskStatusCompleted, got.Status)
	assert.True(t, got.IsTerminal())
	assert.Equal(t, 100, got.ProgressPercent)
	assert.Equal(t, 120, got.TotalPoints)
	assert.Equal(t, 3, got.Stays)
	assert.Equal(t, 2, got.Trips)
	assert.Equal(t, 1, got.DataGaps)
	assert.NotNil(t, got.StartedAt)
	assert.NotNil(t, got.CompletedAt)

	failed := &models.RegenerationTask{UserID: "u1", Trigger: models.TriggerPointsImported}
	require.NoError(t, repo.Create(ctx, failed))
	require.NoError(t, repo.MarkFailed(ctx, failed.ID, "boom"))

	list, err := repo.ListByUser(ctx, "u1", models.TaskStatusFailed, 0)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "boom", list[0].ErrorMessage)

	_, err = repo.GetByID(ctx, "u2", task.ID)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.ErrorIs(t, repo.MarkFailed(ctx, "missing", "x"), models.ErrNotFound)
}
