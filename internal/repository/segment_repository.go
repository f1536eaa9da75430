package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jengzang/geopulse-go/internal/database"
	"github.com/jengzang/geopulse-go/internal/models"
)

// SegmentRepository persists the segmented timeline of each user.
// Stays and trips keep their variant fields in detail tables keyed by the
// base segment id; data gaps live only in timeline_segments.
type SegmentRepository struct {
	db *sql.DB
}

// NewSegmentRepository creates a new segment repository
func NewSegmentRepository(db *sql.DB) *SegmentRepository {
	return &SegmentRepository{db: db}
}

const segmentColumns = `
	s.id, s.user_id, s.kind, s.start_ms, s.end_ms,
	st.latitude, st.longitude, st.location_name, st.city, st.country,
	st.favorite_id, st.geocoding_id, st.point_count,
	tr.start_lat, tr.start_lon, tr.end_lat, tr.end_lon, tr.distance_meters,
	tr.movement_type, tr.avg_speed_kmh, tr.max_speed_kmh,
	tr.origin_name, tr.destination_name
	FROM timeline_segments s
	LEFT JOIN timeline_stays st ON st.segment_id = s.id
	LEFT JOIN timeline_trips tr ON tr.segment_id = s.id`

// ReplaceAll swaps the user's whole timeline for segs in one transaction and
// bumps the timeline version. Segment IDs are assigned in place.
func (r *SegmentRepository) ReplaceAll(ctx context.Context, userID string, segs []models.Segment) (int64, error) {
	var version int64
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM timeline_segments WHERE user_id = ?", userID); err != nil {
			return fmt.Errorf("failed to delete segments: %w", err)
		}

		segStmt, err := tx.PrepareContext(ctx,
			"INSERT INTO timeline_segments (user_id, kind, start_ms, end_ms) VALUES (?, ?, ?, ?)")
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer segStmt.Close()

		stayStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO timeline_stays (
				segment_id, latitude, longitude, location_name, city, country,
				favorite_id, geocoding_id, point_count
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stayStmt.Close()

		tripStmt, err := tx.PrepareContext(ctx, `
			INSERT INTO timeline_trips (
				segment_id, start_lat, start_lon, end_lat, end_lon, distance_meters,
				movement_type, avg_speed_kmh, max_speed_kmh, origin_name, destination_name
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer tripStmt.Close()

		for i := range segs {
			seg := &segs[i]
			seg.UserID = userID
			res, err := segStmt.ExecContext(ctx, userID, string(seg.Kind), toMillis(seg.StartTime), toMillis(seg.EndTime))
			if err != nil {
				return fmt.Errorf("failed to insert segment: %w", err)
			}
			id, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("failed to get segment id: %w", err)
			}
			seg.ID = id

			switch {
			case seg.Kind == models.KindStay && seg.Stay != nil:
				d := seg.Stay
				if _, err := stayStmt.ExecContext(ctx, id, d.Latitude, d.Longitude, d.LocationName, d.City, d.Country,
					nullInt(d.FavoriteID), nullInt(d.GeocodingID), d.PointCount); err != nil {
					return fmt.Errorf("failed to insert stay: %w", err)
				}
			case seg.Kind == models.KindTrip && seg.Trip != nil:
				d := seg.Trip
				if _, err := tripStmt.ExecContext(ctx, id, d.StartLat, d.StartLon, d.EndLat, d.EndLon, d.DistanceMeters,
					string(d.MovementType), d.AvgSpeedKmh, d.MaxSpeedKmh, d.OriginName, d.DestinationName); err != nil {
					return fmt.Errorf("failed to insert trip: %w", err)
				}
			}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO timeline_versions (user_id, version, regenerated_at) VALUES (?, 1, ?)
			ON CONFLICT (user_id) DO UPDATE SET version = version + 1, regenerated_at = excluded.regenerated_at
		`, userID, toMillis(time.Now()))
		if err != nil {
			return fmt.Errorf("failed to bump timeline version: %w", err)
		}

		if err := tx.QueryRowContext(ctx, "SELECT version FROM timeline_versions WHERE user_id = ?", userID).Scan(&version); err != nil {
			return fmt.Errorf("failed to read timeline version: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return version, nil
}

// SegmentsInRange returns the segments overlapping [from, to) ordered by
// start time, together with the timeline version they were read at.
func (r *SegmentRepository) SegmentsInRange(ctx context.Context, userID string, from, to time.Time) ([]models.Segment, int64, error) {
	return r.readVersioned(ctx, userID, `
		WHERE s.user_id = ? AND s.start_ms < ?
		AND (s.end_ms > ? OR (s.end_ms = s.start_ms AND s.start_ms >= ?))
		ORDER BY s.start_ms, s.id`,
		userID, toMillis(to), toMillis(from), toMillis(from))
}

// AllSegments returns the user's whole timeline
func (r *SegmentRepository) AllSegments(ctx context.Context, userID string) ([]models.Segment, int64, error) {
	return r.readVersioned(ctx, userID, `WHERE s.user_id = ? ORDER BY s.start_ms, s.id`, userID)
}

// SegmentByID returns a single segment of the user
func (r *SegmentRepository) SegmentByID(ctx context.Context, userID string, id int64) (*models.Segment, error) {
	rows, err := r.db.QueryContext(ctx, "SELECT "+segmentColumns+" WHERE s.user_id = ? AND s.id = ?", userID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to query segment: %w", err)
	}
	defer rows.Close()

	segs, err := scanSegments(rows)
	if err != nil {
		return nil, err
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("segment %d: %w", id, models.ErrNotFound)
	}
	return &segs[0], nil
}

// Version returns the user's timeline version, 0 if never generated
func (r *SegmentRepository) Version(ctx context.Context, userID string) (int64, error) {
	return version(ctx, r.db, userID)
}

type queryRower interface {
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

func version(ctx context.Context, q queryRower, userID string) (int64, error) {
	var v int64
	err := q.QueryRowContext(ctx, "SELECT version FROM timeline_versions WHERE user_id = ?", userID).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to read timeline version: %w", err)
	}
	return v, nil
}

func (r *SegmentRepository) readVersioned(ctx context.Context, userID, where string, args ...interface{}) ([]models.Segment, int64, error) {
	var segs []models.Segment
	var v int64
	err := database.Transaction(ctx, r.db, func(tx *sql.Tx) error {
		var err error
		if v, err = version(ctx, tx, userID); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, "SELECT "+segmentColumns+" "+where, args...)
		if err != nil {
			return fmt.Errorf("failed to query segments: %w", err)
		}
		defer rows.Close()

		segs, err = scanSegments(rows)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return segs, v, nil
}

func scanSegments(rows *sql.Rows) ([]models.Segment, error) {
	var segs []models.Segment
	for rows.Next() {
		var seg models.Segment
		var kind string
		var startMs, endMs int64
		var (
			stLat, stLon                         sql.NullFloat64
			stName, stCity, stCountry            sql.NullString
			stFavorite, stGeocoding, stPoints    sql.NullInt64
			trStartLat, trStartLon, trEndLat     sql.NullFloat64
			trEndLon, trDistance, trAvg, trMax   sql.NullFloat64
			trMovement, trOriginName, trDestName sql.NullString
		)

		if err := rows.Scan(
			&seg.ID, &seg.UserID, &kind, &startMs, &endMs,
			&stLat, &stLon, &stName, &stCity, &stCountry,
			&stFavorite, &stGeocoding, &stPoints,
			&trStartLat, &trStartLon, &trEndLat, &trEndLon, &trDistance,
			&trMovement, &trAvg, &trMax,
			&trOriginName, &trDestName,
		); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}

		seg.Kind = models.SegmentKind(kind)
		seg.StartTime = fromMillis(startMs)
		seg.EndTime = fromMillis(endMs)

		switch seg.Kind {
		case models.KindStay:
			if stLat.Valid {
				seg.Stay = &models.StayDetails{
					Latitude:     stLat.Float64,
					Longitude:    stLon.Float64,
					LocationName: stName.String,
					City:         stCity.String,
					Country:      stCountry.String,
					FavoriteID:   intPtr(stFavorite),
					GeocodingID:  intPtr(stGeocoding),
					PointCount:   int(stPoints.Int64),
				}
			}
		case models.KindTrip:
			if trStartLat.Valid {
				seg.Trip = &models.TripDetails{
					StartLat:        trStartLat.Float64,
					StartLon:        trStartLon.Float64,
					EndLat:          trEndLat.Float64,
					EndLon:          trEndLon.Float64,
					DistanceMeters:  trDistance.Float64,
					MovementType:    models.MovementType(trMovement.String),
					AvgSpeedKmh:     trAvg.Float64,
					MaxSpeedKmh:     trMax.Float64,
					OriginName:      trOriginName.String,
					DestinationName: trDestName.String,
				}
			}
		}
		segs = append(segs, seg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating rows: %w", err)
	}
	return segs, nil
}
