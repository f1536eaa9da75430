package aggregation

import (
	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/jengzang/geopulse-go/internal/stats"
)

type milestoneDef struct {
	id        string
	title     string
	category  string
	threshold float64
	measure   func(t totals) float64
}

type totals struct {
	distanceKm float64
	countries  int
	cities     int
	places     int
	trips      int
}

var milestoneDefs = []milestoneDef{
	{"distance_100km", "First 100 km", "distance", 100, func(t totals) float64 { return t.distanceKm }},
	{"distance_1000km", "1,000 km traveled", "distance", 1000, func(t totals) float64 { return t.distanceKm }},
	{"distance_10000km", "10,000 km traveled", "distance", 10000, func(t totals) float64 { return t.distanceKm }},
	{"distance_40075km", "Around the world", "distance", 40075, func(t totals) float64 { return t.distanceKm }},
	{"countries_1", "First country", "countries", 1, func(t totals) float64 { return float64(t.countries) }},
	{"countries_5", "5 countries visited", "countries", 5, func(t totals) float64 { return float64(t.countries) }},
	{"countries_10", "10 countries visited", "countries", 10, func(t totals) float64 { return float64(t.countries) }},
	{"cities_5", "5 cities visited", "cities", 5, func(t totals) float64 { return float64(t.cities) }},
	{"cities_25", "25 cities visited", "cities", 25, func(t totals) float64 { return float64(t.cities) }},
	{"places_10", "10 places discovered", "places", 10, func(t totals) float64 { return float64(t.places) }},
	{"places_50", "50 places discovered", "places", 50, func(t totals) float64 { return float64(t.places) }},
	{"trips_100", "100 trips", "trips", 100, func(t totals) float64 { return float64(t.trips) }},
}

// Milestones reports progress toward the fixed achievements over all-time
// segments. Progress is clamped to [0, 100].
func Milestones(segs []models.Segment) []models.Milestone {
	_, trips, _ := Counts(segs)
	t := totals{
		distanceKm: TotalDistance(segs, nil) / 1000,
		countries:  len(Countries(segs)),
		cities:     len(Cities(segs)),
		places:     UniquePlaces(segs),
		trips:      trips,
	}

	out := make([]models.Milestone, 0, len(milestoneDefs))
	for _, def := range milestoneDefs {
		current := def.measure(t)
		out = append(out, models.Milestone{
			ID:              def.id,
			Title:           def.title,
			Category:        def.category,
			Threshold:       def.threshold,
			Current:         current,
			Earned:          current >= def.threshold,
			ProgressPercent: stats.Clamp(stats.SafeDivide(current, def.threshold)*100, 0, 100),
		})
	}
	return out
}
