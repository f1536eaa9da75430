package geocoding

import (
	"context"
	"math"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/spatial"
)

// DefaultFavoriteRadiusMeters is how close a stay must be to a point
// favorite to take its name
const DefaultFavoriteRadiusMeters = 75.0

type areaFavorite struct {
	fav     models.FavoriteLocation
	polygon *spatial.Polygon
}

// FavoriteResolver matches coordinates against the user's favorites before
// falling through to next. Areas containing the point win over nearby
// points; among points the closest within the radius wins.
type FavoriteResolver struct {
	areas  []areaFavorite
	points []models.FavoriteLocation
	radius float64
	next   Resolver
}

// NewFavoriteResolver builds a resolver over favs. next may be nil.
func NewFavoriteResolver(favs []models.FavoriteLocation, radiusMeters float64, next Resolver) *FavoriteResolver {
	if radiusMeters <= 0 {
		radiusMeters = DefaultFavoriteRadiusMeters
	}
	r := &FavoriteResolver{radius: radiusMeters, next: next}
	for _, fav := range favs {
		if fav.Type == models.FavoriteArea {
			vertices := make([]spatial.Point, 0, len(fav.Polygon))
			for _, v := range fav.Polygon {
				vertices = append(vertices, spatial.Point{Lat: v.Lat, Lon: v.Lon})
			}
			if poly := spatial.NewPolygon(vertices); poly != nil {
				r.areas = append(r.areas, areaFavorite{fav: fav, polygon: poly})
				continue
			}
		}
		// Degenerate areas behave like points at their centroid
		r.points = append(r.points, fav)
	}
	return r
}

// Resolve implements Resolver
func (r *FavoriteResolver) Resolve(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error) {
	if fav := r.Match(lat, lon); fav != nil {
		id := fav.ID
		return &models.ResolvedLocation{
			DisplayName: fav.Name,
			City:        fav.City,
			Country:     fav.Country,
			FavoriteID:  &id,
		}, nil
	}
	if r.next == nil {
		return nil, nil
	}
	return r.next.Resolve(ctx, lat, lon)
}

// Match returns the favorite covering the coordinate, if any
func (r *FavoriteResolver) Match(lat, lon float64) *models.FavoriteLocation {
	pt := spatial.Point{Lat: lat, Lon: lon}
	for i := range r.areas {
		if r.areas[i].polygon.Contains(pt) {
			return &r.areas[i].fav
		}
	}

	var best *models.FavoriteLocation
	bestDist := math.Inf(1)
	for i := range r.points {
		d := spatial.Distance(pt, spatial.Point{Lat: r.points[i].Latitude, Lon: r.points[i].Longitude})
		if d <= r.radius && d < bestDist {
			best = &r.points[i]
			bestDist = d
		}
	}
	return best
}
