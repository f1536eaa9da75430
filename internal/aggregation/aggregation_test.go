package aggregation

import (
	"fmt"
	"math"
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC) // a Monday

func trip(start time.Time, dur time.Duration, km float64, mt models.MovementType) models.Segment {
	return models.NewTrip("u1", start, start.Add(dur), models.TripDetails{
		DistanceMeters: km * 1000,
		MovementType:   mt,
	})
}

func stayAt(start time.Time, dur time.Duration, d models.StayDetails) models.Segment {
	return models.NewStay("u1", start, start.Add(dur), d)
}

func named(name string) models.StayDetails {
	return models.StayDetails{LocationName: name}
}

func mt(m models.MovementType) *models.MovementType { return &m }

// trips of 5, 10, 15 and 11 km taking two hours in total
func speedFixture() []models.Segment {
	return []models.Segment{
		trip(t0, 15*time.Minute, 5, models.MovementCar),
		trip(t0.Add(time.Hour), 30*time.Minute, 10, models.MovementCar),
		trip(t0.Add(2*time.Hour), 45*time.Minute, 15, models.MovementCar),
		trip(t0.Add(3*time.Hour), 30*time.Minute, 11, models.MovementCar),
		stayAt(t0.Add(4*time.Hour), time.Hour, named("Home")),
	}
}

func TestAverageSpeed(t *testing.T) {
	segs := speedFixture()
	assert.InDelta(t, 41000, TotalDistance(segs, nil), 1e-9)
	assert.Equal(t, int64(7200), TimeMoving(segs))
	assert.InDelta(t, 20.5, AverageSpeed(segs), 1e-9)
}

func TestAverageSpeed_NoTrips(t *testing.T) {
	segs := []models.Segment{stayAt(t0, time.Hour, named("Home"))}

	speed := AverageSpeed(segs)
	assert.Zero(t, speed)
	assert.False(t, math.IsNaN(speed))
	assert.Zero(t, AverageSpeed(nil))
	assert.Zero(t, TotalDistance(segs, nil))
	assert.Zero(t, TimeMoving(segs))
}

func TestTotalDistance_ModesAddUp(t *testing.T) {
	segs := []models.Segment{
		trip(t0, time.Hour, 40, models.MovementCar),
		trip(t0.Add(2*time.Hour), time.Hour, 4.2, models.MovementWalk),
		trip(t0.Add(4*time.Hour), time.Hour, 12.5, models.MovementCar),
		models.NewGap("u1", t0.Add(5*time.Hour), t0.Add(9*time.Hour)),
		trip(t0.Add(9*time.Hour), 20*time.Minute, 1.3, models.MovementWalk),
	}

	car := TotalDistance(segs, mt(models.MovementCar))
	walk := TotalDistance(segs, mt(models.MovementWalk))
	assert.InDelta(t, 52500, car, 1e-6)
	assert.InDelta(t, 5500, walk, 1e-6)
	assert.InDelta(t, TotalDistance(segs, nil), car+walk, 1e-6)

	byMode := DistanceByMovement(segs)
	assert.InDelta(t, car, byMode[models.MovementCar], 1e-6)
	assert.InDelta(t, walk, byMode[models.MovementWalk], 1e-6)
}

func TestInRange_FiltersByStart(t *testing.T) {
	segs := []models.Segment{
		trip(t0.Add(-time.Hour), 2*time.Hour, 1, models.MovementWalk),
		trip(t0, time.Hour, 2, models.MovementWalk),
		trip(t0.Add(23*time.Hour), 2*time.Hour, 3, models.MovementWalk),
		trip(t0.Add(24*time.Hour), time.Hour, 4, models.MovementWalk),
	}

	in := InRange(segs, t0, t0.Add(24*time.Hour))
	require.Len(t, in, 2)
	assert.InDelta(t, 5000, TotalDistance(in, nil), 1e-9)
}

// The dashboard total for today equals the direct sum over today's trips.
func TestDashboard_TodayMatchesDirectSum(t *testing.T) {
	kyiv, err := time.LoadLocation("Europe/Kyiv")
	require.NoError(t, err)
	todayStart := time.Date(2025, 9, 20, 0, 0, 0, 0, kyiv)
	todayEnd := todayStart.AddDate(0, 0, 1)

	segs := []models.Segment{
		stayAt(todayStart.Add(-2*time.Hour), 9*time.Hour, named("Home")),
		trip(todayStart.Add(7*time.Hour), 20*time.Minute, 5, models.MovementCar),
		stayAt(todayStart.Add(7*time.Hour+20*time.Minute), 8*time.Hour, named("Office")),
		trip(todayStart.Add(15*time.Hour+20*time.Minute), 25*time.Minute, 10, models.MovementCar),
		stayAt(todayStart.Add(15*time.Hour+45*time.Minute), time.Hour, named("Gym")),
		trip(todayStart.Add(16*time.Hour+45*time.Minute), 40*time.Minute, 15, models.MovementCar),
		stayAt(todayStart.Add(17*time.Hour+25*time.Minute), 5*time.Hour, named("Home")),
		trip(todayEnd.Add(time.Hour), time.Hour, 20, models.MovementCar),
	}

	var direct float64
	for _, s := range segs {
		if s.Kind == models.KindTrip && !s.StartTime.Before(todayStart) && s.StartTime.Before(todayEnd) {
			direct += s.Trip.DistanceMeters
		}
	}

	d := Dashboard(segs, todayStart, todayEnd, kyiv)
	assert.InDelta(t, direct/1000, d.TotalDistanceMeters/1000, math.Max(1, 0.1*direct/1000))
	assert.InDelta(t, 30000, d.TotalDistanceMeters, 1e-6)
	assert.InDelta(t, 30000, d.DailyAverageDistanceM, 1e-6)
	assert.Equal(t, 3, d.TripCount)
	assert.Equal(t, 3, d.StayCount)
	assert.Equal(t, 3, d.UniquePlaces)
	assert.Equal(t, int64(85*60), d.TimeMovingSeconds)
	assert.True(t, d.HasData)
}

func TestDashboard_Empty(t *testing.T) {
	d := Dashboard(nil, t0, t0.AddDate(0, 0, 7), time.UTC)
	assert.False(t, d.HasData)
	assert.Zero(t, d.TotalDistanceMeters)
	assert.Zero(t, d.AverageSpeedKmh)
	assert.Zero(t, d.DailyAverageDistanceM)
	assert.Empty(t, d.TopPlaces)
	assert.Empty(t, d.ActivityPatterns.MostActiveMonth)
	assert.Nil(t, d.ActivityPatterns.BusiestDate)
}

func TestDashboard_OnlyStays(t *testing.T) {
	segs := []models.Segment{
		stayAt(t0, time.Hour, named("Home")),
		stayAt(t0.Add(2*time.Hour), time.Hour, named("Cafe")),
	}

	d := Dashboard(segs, t0, t0.AddDate(0, 0, 1), time.UTC)
	assert.True(t, d.HasData)
	assert.Zero(t, d.TotalDistanceMeters)
	assert.Zero(t, d.AverageSpeedKmh)
	assert.Equal(t, 2, d.UniquePlaces)
	assert.Len(t, d.TopPlaces, 2)
}

func TestTopPlaces_CappedAndConsistentWithFullList(t *testing.T) {
	var segs []models.Segment
	start := t0
	for i := 0; i < 9; i++ {
		for v := 0; v <= i%4; v++ {
			segs = append(segs, stayAt(start, time.Hour, named(fmt.Sprintf("Place %d", i))))
			start = start.Add(2 * time.Hour)
		}
	}

	top := TopPlaces(segs, DefaultTopPlaces)
	all := Places(segs)
	require.Len(t, top, 5)
	require.Len(t, all, 9)

	names := make(map[string]bool)
	for _, p := range all {
		names[p.Name] = true
	}
	for i, p := range top {
		assert.True(t, names[p.Name], p.Name)
		assert.Equal(t, all[i], p)
	}

	// four visits each for Place 3 and Place 7, name ascending breaks the tie
	assert.Equal(t, "Place 3", top[0].Name)
	assert.Equal(t, "Place 7", top[1].Name)
	assert.Equal(t, 4, top[0].VisitCount)
	assert.Equal(t, "Place 2", top[2].Name)
}

func TestPlaces_IdentityPrefersFavorite(t *testing.T) {
	fav, geo := int64(1), int64(9)
	segs := []models.Segment{
		stayAt(t0, time.Hour, models.StayDetails{LocationName: "Home", FavoriteID: &fav}),
		stayAt(t0.Add(2*time.Hour), time.Hour, models.StayDetails{LocationName: "12 Main St", FavoriteID: &fav, GeocodingID: &geo}),
		stayAt(t0.Add(4*time.Hour), time.Hour, models.StayDetails{LocationName: "12 Main St", GeocodingID: &geo}),
		stayAt(t0.Add(6*time.Hour), time.Hour, models.StayDetails{LocationName: "home"}),
	}

	places := Places(segs)
	require.Len(t, places, 3)
	assert.Equal(t, "favorite:1", places[0].Key)
	assert.Equal(t, 2, places[0].VisitCount)
	assert.Equal(t, int64(7200), places[0].TotalDurationSeconds)
	assert.Equal(t, "Home", places[0].Name)
}

func TestTopPlaces_NonPositiveLimitReturnsAll(t *testing.T) {
	segs := []models.Segment{
		stayAt(t0, time.Hour, named("A")),
		stayAt(t0.Add(2*time.Hour), time.Hour, named("B")),
	}
	assert.Len(t, TopPlaces(segs, 0), 2)
	assert.Len(t, TopPlaces(segs, 1), 1)
}

func TestActivityPatterns(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	segs := []models.Segment{
		// Monday 17:00 Tokyo
		trip(time.Date(2025, 9, 15, 8, 0, 0, 0, time.UTC), time.Hour, 5, models.MovementCar),
		// Monday 18:00 Tokyo
		trip(time.Date(2025, 9, 15, 9, 0, 0, 0, time.UTC), time.Hour, 8, models.MovementCar),
		// Wednesday 07:00 Tokyo
		trip(time.Date(2025, 9, 16, 22, 0, 0, 0, time.UTC), time.Hour, 30, models.MovementCar),
		// October, Friday 07:00 Tokyo
		trip(time.Date(2025, 10, 2, 22, 0, 0, 0, time.UTC), time.Hour, 2, models.MovementWalk),
		stayAt(time.Date(2025, 11, 1, 0, 0, 0, 0, time.UTC), time.Hour, named("Home")),
	}

	p := ActivityPatterns(segs, loc)
	assert.Equal(t, "September", p.MostActiveMonth)
	assert.Equal(t, "Monday", p.BusiestDayOfWeek)
	require.NotNil(t, p.MostActiveHour)
	// 07:00 has two trips
	assert.Equal(t, 7, *p.MostActiveHour)
	assert.Equal(t, "Morning", p.MostActiveTimeOfDay)
	require.NotNil(t, p.BusiestDate)
	assert.Equal(t, civil.Date{Year: 2025, Month: 9, Day: 17}, *p.BusiestDate)
	assert.InDelta(t, 30000, p.BusiestDateDistanceM, 1e-9)
}

func TestActivityPatterns_TiesPickEarliestBucket(t *testing.T) {
	segs := []models.Segment{
		// Sunday 23:00 in March, Monday 01:00 in April
		trip(time.Date(2025, 3, 30, 23, 0, 0, 0, time.UTC), 30*time.Minute, 3, models.MovementCar),
		trip(time.Date(2025, 4, 7, 1, 0, 0, 0, time.UTC), 30*time.Minute, 3, models.MovementCar),
	}

	p := ActivityPatterns(segs, time.UTC)
	assert.Equal(t, "March", p.MostActiveMonth)
	assert.Equal(t, "Monday", p.BusiestDayOfWeek)
	assert.Equal(t, 1, *p.MostActiveHour)
	assert.Equal(t, "Night", p.MostActiveTimeOfDay)
	assert.Equal(t, civil.Date{Year: 2025, Month: 3, Day: 30}, *p.BusiestDate)
}

func TestTimeOfDay(t *testing.T) {
	assert.Equal(t, "Night", TimeOfDay(4))
	assert.Equal(t, "Morning", TimeOfDay(5))
	assert.Equal(t, "Afternoon", TimeOfDay(12))
	assert.Equal(t, "Evening", TimeOfDay(20))
	assert.Equal(t, "Night", TimeOfDay(21))
}

func TestMilestones(t *testing.T) {
	segs := []models.Segment{
		trip(t0, 10*time.Hour, 1500, models.MovementCar),
		stayAt(t0.Add(10*time.Hour), time.Hour, models.StayDetails{LocationName: "Hotel", City: "Lviv", Country: "Ukraine"}),
		stayAt(t0.Add(12*time.Hour), time.Hour, models.StayDetails{LocationName: "Museum", City: "Krakow", Country: "Poland"}),
	}

	byID := make(map[string]models.Milestone)
	for _, m := range Milestones(segs) {
		byID[m.ID] = m
		assert.GreaterOrEqual(t, m.ProgressPercent, 0.0)
		assert.LessOrEqual(t, m.ProgressPercent, 100.0)
	}

	assert.True(t, byID["distance_1000km"].Earned)
	assert.Equal(t, 100.0, byID["distance_1000km"].ProgressPercent)
	assert.False(t, byID["distance_10000km"].Earned)
	assert.InDelta(t, 15, byID["distance_10000km"].ProgressPercent, 1e-9)
	assert.InDelta(t, 40, byID["countries_5"].ProgressPercent, 1e-9)
	assert.True(t, byID["countries_1"].Earned)
	assert.Equal(t, 2.0, byID["cities_5"].Current)
}

func TestMilestones_NoData(t *testing.T) {
	for _, m := range Milestones(nil) {
		assert.False(t, m.Earned)
		assert.Zero(t, m.ProgressPercent)
	}
}

func TestJourneyInsights(t *testing.T) {
	segs := []models.Segment{
		stayAt(t0, time.Hour, models.StayDetails{LocationName: "A", City: "Lviv", Country: "Ukraine"}),
		trip(t0.Add(time.Hour), 5*time.Hour, 400, models.MovementCar),
		stayAt(t0.Add(6*time.Hour), time.Hour, models.StayDetails{LocationName: "B", City: "Kyiv", Country: "Ukraine"}),
		models.NewGap("u1", t0.Add(7*time.Hour), t0.Add(60*time.Hour)),
		stayAt(t0.Add(60*time.Hour), time.Hour, models.StayDetails{LocationName: "C", City: "Warsaw", Country: "Poland"}),
	}

	j := JourneyInsights(segs, time.UTC)
	assert.Equal(t, []string{"Poland", "Ukraine"}, j.Countries)
	assert.Equal(t, []string{"Kyiv", "Lviv", "Warsaw"}, j.Cities)
	assert.Equal(t, 2, j.TrackedDays)
	assert.InDelta(t, 80, j.AverageSpeedKmh, 1e-9)
	assert.NotEmpty(t, j.Milestones)
}

func TestCalendarDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	from := time.Date(2025, 3, 8, 0, 0, 0, 0, ny)
	to := time.Date(2025, 3, 11, 0, 0, 0, 0, ny)
	assert.Equal(t, 3, CalendarDays(from, to, ny))
	assert.Equal(t, 1, CalendarDays(from, from, ny))
}
