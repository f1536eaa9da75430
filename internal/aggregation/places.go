package aggregation

import (
	"sort"

	"github.com/jengzang/geopulse-go/internal/models"
)

// DefaultTopPlaces is the length of the dashboard top places list
const DefaultTopPlaces = 5

// Places groups stays by resolved place and ranks them by visit count, ties
// broken by name ascending.
func Places(segs []models.Segment) []models.PlaceVisit {
	byKey := make(map[string]*models.PlaceVisit)
	var order []*models.PlaceVisit

	for _, s := range segs {
		if s.Kind != models.KindStay || s.Stay == nil {
			continue
		}
		key := s.Stay.PlaceKey()
		p, ok := byKey[key]
		if !ok {
			p = &models.PlaceVisit{
				Key:        key,
				Name:       s.Stay.LocationName,
				Latitude:   s.Stay.Latitude,
				Longitude:  s.Stay.Longitude,
				FavoriteID: s.Stay.FavoriteID,
			}
			byKey[key] = p
			order = append(order, p)
		}
		if p.Name == "" {
			p.Name = s.Stay.LocationName
		}
		p.VisitCount++
		p.TotalDurationSeconds += s.DurationSeconds()
	}

	out := make([]models.PlaceVisit, 0, len(order))
	for _, p := range order {
		out = append(out, *p)
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.VisitCount != b.VisitCount {
			return a.VisitCount > b.VisitCount
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Key < b.Key
	})
	return out
}

// TopPlaces returns the first limit entries of Places. A non-positive limit
// returns every place.
func TopPlaces(segs []models.Segment, limit int) []models.PlaceVisit {
	places := Places(segs)
	if limit > 0 && len(places) > limit {
		places = places[:limit]
	}
	return places
}

// UniquePlaces counts distinct stay places
func UniquePlaces(segs []models.Segment) int {
	seen := make(map[string]struct{})
	for _, s := range segs {
		if s.Kind == models.KindStay && s.Stay != nil {
			seen[s.Stay.PlaceKey()] = struct{}{}
		}
	}
	return len(seen)
}
