package segmentation

import (
	"context"
	"fmt"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/rs/zerolog/log"
)

// LocationResolver names the place at a coordinate
type LocationResolver interface {
	Resolve(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error)
}

// Enrich fills stay names from resolver and labels every trip with the names of
// the stays it connects. A failed lookup is logged and the stay falls back to
// its coordinates; only context cancellation aborts enrichment.
func Enrich(ctx context.Context, segs []models.Segment, resolver LocationResolver) error {
	for i := range segs {
		stay := segs[i].Stay
		if segs[i].Kind != models.KindStay || stay == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		loc, err := resolver.Resolve(ctx, stay.Latitude, stay.Longitude)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).
				Str("component", "segmentation").
				Float64("lat", stay.Latitude).
				Float64("lon", stay.Longitude).
				Msg("location lookup failed")
		}
		if loc == nil {
			loc = &models.ResolvedLocation{DisplayName: FormatCoordinates(stay.Latitude, stay.Longitude)}
		}

		stay.LocationName = loc.DisplayName
		stay.City = loc.City
		stay.Country = loc.Country
		stay.FavoriteID = loc.FavoriteID
		stay.GeocodingID = loc.GeocodingID
	}

	LabelTrips(segs)
	return nil
}

// LabelTrips sets trip origin and destination to the names of the stays that
// directly precede and follow each trip.
func LabelTrips(segs []models.Segment) {
	for i := range segs {
		if segs[i].Kind != models.KindTrip || segs[i].Trip == nil {
			continue
		}
		if i > 0 && segs[i-1].Kind == models.KindStay && segs[i-1].Stay != nil {
			segs[i].Trip.OriginName = segs[i-1].Stay.LocationName
		}
		if i+1 < len(segs) && segs[i+1].Kind == models.KindStay && segs[i+1].Stay != nil {
			segs[i].Trip.DestinationName = segs[i+1].Stay.LocationName
		}
	}
}

// FormatCoordinates is the display name of an unresolved place
func FormatCoordinates(lat, lon float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lon)
}
