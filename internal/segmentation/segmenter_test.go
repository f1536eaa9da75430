package segmentation

import (
	"math/rand"
	"testing"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	baseLat = 50.45
	baseLon = 30.52
	// meters per degree of latitude on the mean sphere
	metersPerDegree = 111194.93
)

var day = time.Date(2025, 9, 20, 8, 0, 0, 0, time.UTC)

// at returns a point northMeters north of the base coordinate, minutes after 08:00
func at(minutes float64, northMeters float64) models.RawPoint {
	return models.RawPoint{
		UserID:    "u1",
		Timestamp: day.Add(time.Duration(minutes * float64(time.Minute))),
		Latitude:  baseLat + northMeters/metersPerDegree,
		Longitude: baseLon,
	}
}

// stationary emits one point per minute in [fromMin, toMin] at the given offset
func stationary(fromMin, toMin int, northMeters float64) []models.RawPoint {
	var pts []models.RawPoint
	for m := fromMin; m <= toMin; m++ {
		pts = append(pts, at(float64(m), northMeters))
	}
	return pts
}

func kinds(segs []models.Segment) []models.SegmentKind {
	out := make([]models.SegmentKind, len(segs))
	for i, s := range segs {
		out[i] = s.Kind
	}
	return out
}

func assertTiles(t *testing.T, points []models.RawPoint, segs []models.Segment) {
	t.Helper()
	require.NotEmpty(t, segs)

	first, last := points[0].Timestamp, points[0].Timestamp
	for _, p := range points {
		if p.Timestamp.Before(first) {
			first = p.Timestamp
		}
		if p.Timestamp.After(last) {
			last = p.Timestamp
		}
	}
	assert.True(t, segs[0].StartTime.Equal(first), "first segment starts at first point")
	assert.True(t, segs[len(segs)-1].EndTime.Equal(last), "last segment ends at last point")

	for i, s := range segs {
		assert.False(t, s.EndTime.Before(s.StartTime), "segment %d has negative duration", i)
		if s.Kind == models.KindTrip {
			assert.True(t, s.EndTime.After(s.StartTime), "trip %d has zero duration", i)
		}
		if i > 0 {
			assert.True(t, segs[i-1].EndTime.Equal(s.StartTime), "segments %d and %d do not touch", i-1, i)
		}
	}
}

func TestSegment_Empty(t *testing.T) {
	assert.Empty(t, Segment(nil, DefaultConfig()))
}

func TestSegment_SinglePoint(t *testing.T) {
	segs := Segment([]models.RawPoint{at(0, 0)}, DefaultConfig())
	require.Len(t, segs, 1)
	assert.Equal(t, models.KindStay, segs[0].Kind)
	assert.Zero(t, segs[0].Duration())
	assert.Equal(t, "u1", segs[0].UserID)
}

func TestSegment_SinglePointWithoutTripDistance(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTripDistanceMeters = 0

	segs := Segment([]models.RawPoint{at(0, 0)}, cfg)
	require.Len(t, segs, 1)
	assert.Equal(t, models.KindStay, segs[0].Kind)
}

func TestSegment_StayWalkStay(t *testing.T) {
	var pts []models.RawPoint
	pts = append(pts, stationary(0, 19, 0)...)
	for i := 1; i <= 9; i++ {
		pts = append(pts, at(float64(19+i), float64(i)*100))
	}
	pts = append(pts, stationary(30, 49, 1000)...)

	segs := Segment(pts, DefaultConfig())
	require.Equal(t, []models.SegmentKind{models.KindStay, models.KindTrip, models.KindStay}, kinds(segs))
	assertTiles(t, pts, segs)

	home, trip, office := segs[0], segs[1], segs[2]
	assert.Equal(t, day, home.StartTime)
	assert.Equal(t, day.Add(19*time.Minute), home.EndTime)
	assert.Equal(t, 20, home.Stay.PointCount)
	assert.InDelta(t, baseLat, home.Stay.Latitude, 1e-9)

	assert.Equal(t, day.Add(19*time.Minute), trip.StartTime)
	assert.Equal(t, day.Add(30*time.Minute), trip.EndTime)
	assert.InDelta(t, 1000, trip.Trip.DistanceMeters, 1)
	assert.Equal(t, models.MovementWalk, trip.Trip.MovementType)
	assert.InDelta(t, 1000.0/660*3.6, trip.Trip.AvgSpeedKmh, 0.01)

	assert.InDelta(t, baseLat+1000/metersPerDegree, office.Stay.Latitude, 1e-6)
}

func TestSegment_CarTrip(t *testing.T) {
	var pts []models.RawPoint
	pts = append(pts, stationary(0, 19, 0)...)
	for i := 1; i <= 9; i++ {
		pts = append(pts, at(float64(19+i), float64(i)*1000))
	}
	pts = append(pts, stationary(29, 49, 10000)...)

	segs := Segment(pts, DefaultConfig())
	require.Equal(t, []models.SegmentKind{models.KindStay, models.KindTrip, models.KindStay}, kinds(segs))
	assert.Equal(t, models.MovementCar, segs[1].Trip.MovementType)
	assert.InDelta(t, 60, segs[1].Trip.AvgSpeedKmh, 0.5)
	assert.InDelta(t, 60, segs[1].Trip.MaxSpeedKmh, 0.5)
	assertTiles(t, pts, segs)
}

func TestSegment_LeadingMovementIsTrip(t *testing.T) {
	var pts []models.RawPoint
	for i := 0; i < 5; i++ {
		pts = append(pts, at(float64(i), float64(i-5)*1000))
	}
	pts = append(pts, stationary(5, 30, 0)...)

	segs := Segment(pts, DefaultConfig())
	require.Equal(t, []models.SegmentKind{models.KindTrip, models.KindStay}, kinds(segs))
	assertTiles(t, pts, segs)
}

func TestSegment_DataGap(t *testing.T) {
	var pts []models.RawPoint
	pts = append(pts, stationary(0, 19, 0)...)
	pts = append(pts, stationary(240, 259, 0)...)

	segs := Segment(pts, DefaultConfig())
	require.Equal(t, []models.SegmentKind{models.KindStay, models.KindGap, models.KindStay}, kinds(segs))
	assert.Equal(t, day.Add(19*time.Minute), segs[1].StartTime)
	assert.Equal(t, day.Add(240*time.Minute), segs[1].EndTime)
	assert.Nil(t, segs[1].Stay)
	assert.Nil(t, segs[1].Trip)
	assertTiles(t, pts, segs)
}

func TestSegment_GapStayInference(t *testing.T) {
	var pts []models.RawPoint
	pts = append(pts, stationary(0, 19, 0)...)
	pts = append(pts, stationary(240, 259, 10)...)

	cfg := DefaultConfig()
	cfg.GapStayInference = true

	segs := Segment(pts, cfg)
	require.Len(t, segs, 1)
	assert.Equal(t, models.KindStay, segs[0].Kind)
	assertTiles(t, pts, segs)

	// too far apart to be the same place
	moved := append(stationary(0, 19, 0), stationary(240, 259, 500)...)
	segs = Segment(moved, cfg)
	assert.Equal(t, []models.SegmentKind{models.KindStay, models.KindGap, models.KindStay}, kinds(segs))
}

func TestSegment_ShortMovementIsAbsorbed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MinTripDistanceMeters = 200
	cfg.StayMergeDistanceMeters = 0

	pts := append(stationary(0, 19, 0), stationary(20, 39, 150)...)
	segs := Segment(pts, cfg)
	require.Len(t, segs, 1)
	assert.Equal(t, models.KindStay, segs[0].Kind)
	assert.Equal(t, day.Add(39*time.Minute), segs[0].EndTime)
	assert.InDelta(t, baseLat+75/metersPerDegree, segs[0].Stay.Latitude, 1e-6)
}

func TestSegment_NearbyStaysMerge(t *testing.T) {
	pts := append(stationary(0, 19, 0), stationary(20, 39, 80)...)

	segs := Segment(pts, DefaultConfig())
	require.Len(t, segs, 1)
	assert.Equal(t, models.KindStay, segs[0].Kind)

	cfg := DefaultConfig()
	cfg.StayMergeDistanceMeters = 60
	segs = Segment(pts, cfg)
	assert.Equal(t, []models.SegmentKind{models.KindStay, models.KindTrip, models.KindStay}, kinds(segs))
}

func TestSegment_ShortStationaryPeriodIsNotAStay(t *testing.T) {
	// 5 minutes is below the 7 minute minimum
	pts := stationary(0, 5, 0)
	for i := 1; i <= 5; i++ {
		pts = append(pts, at(float64(5+i), float64(i)*500))
	}

	segs := Segment(pts, DefaultConfig())
	require.Len(t, segs, 1)
	assert.Equal(t, models.KindTrip, segs[0].Kind)
	assertTiles(t, pts, segs)
}

func TestSegment_UnsortedInputFromSeveralDevices(t *testing.T) {
	var pts []models.RawPoint
	pts = append(pts, stationary(0, 19, 0)...)
	for i := 1; i <= 9; i++ {
		pts = append(pts, at(float64(19+i), float64(i)*100))
	}
	pts = append(pts, stationary(30, 49, 1000)...)

	want := Segment(pts, DefaultConfig())

	shuffled := make([]models.RawPoint, len(pts))
	copy(shuffled, pts)
	r := rand.New(rand.NewSource(7))
	r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	for i := range shuffled {
		if i%2 == 0 {
			shuffled[i].DeviceID = "phone"
		} else {
			shuffled[i].DeviceID = "watch"
		}
	}

	assert.Equal(t, want, Segment(shuffled, DefaultConfig()))
}

func TestSegment_RandomTracksTile(t *testing.T) {
	r := rand.New(rand.NewSource(99))
	cfg := DefaultConfig()

	for trial := 0; trial < 50; trial++ {
		var pts []models.RawPoint
		minutes, north := 0.0, 0.0
		for i := 0; i < 300; i++ {
			switch r.Intn(10) {
			case 0:
				minutes += 200 + r.Float64()*600 // data gap
			case 1, 2, 3:
				north += r.Float64() * 1500
				minutes += 1
			default:
				north += r.Float64()*10 - 5
				minutes += r.Float64() * 3
			}
			pts = append(pts, at(minutes, north))
		}

		segs := Segment(pts, cfg)
		assertTiles(t, pts, segs)
	}
}
