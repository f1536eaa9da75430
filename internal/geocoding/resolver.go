// Package geocoding names the places behind stay coordinates: user favorites
// first, then a cached reverse geocoding provider.
package geocoding

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/jengzang/geopulse-go/internal/models"
)

// Resolver names the place at a coordinate. A nil location with a nil error
// means nothing is known about the place.
type Resolver interface {
	Resolve(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error)
}

// Provider performs an uncached reverse geocoding lookup
type Provider interface {
	Lookup(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error)
}

// Cache stores provider results by coordinate key. Stored results carry
// the cache's GeocodingID.
type Cache interface {
	Get(ctx context.Context, key string) (*models.ResolvedLocation, bool, error)
	Put(ctx context.Context, key string, loc models.ResolvedLocation) (*models.ResolvedLocation, error)
}

// CoordKey rounds a coordinate to four decimals, about 11 meters
func CoordKey(lat, lon float64) string {
	return fmt.Sprintf("%.4f,%.4f", lat, lon)
}

// NoopProvider never knows a place
type NoopProvider struct{}

// Lookup implements Provider
func (NoopProvider) Lookup(context.Context, float64, float64) (*models.ResolvedLocation, error) {
	return nil, nil
}

// CachingResolver consults the cache before the provider and stores every
// provider hit
type CachingResolver struct {
	cache    Cache
	provider Provider
}

// NewCachingResolver creates a resolver backed by cache and provider
func NewCachingResolver(cache Cache, provider Provider) *CachingResolver {
	if provider == nil {
		provider = NoopProvider{}
	}
	return &CachingResolver{cache: cache, provider: provider}
}

// Resolve implements Resolver
func (r *CachingResolver) Resolve(ctx context.Context, lat, lon float64) (*models.ResolvedLocation, error) {
	key := CoordKey(lat, lon)

	if r.cache != nil {
		loc, ok, err := r.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("component", "geocoding").Str("key", key).Msg("cache lookup failed")
		} else if ok {
			return loc, nil
		}
	}

	loc, err := r.provider.Lookup(ctx, lat, lon)
	if err != nil {
		return nil, fmt.Errorf("reverse geocoding %s: %w", key, err)
	}
	if loc == nil {
		return nil, nil
	}

	if r.cache == nil {
		return loc, nil
	}
	stored, err := r.cache.Put(ctx, key, *loc)
	if err != nil {
		log.Warn().Err(err).Str("component", "geocoding").Str("key", key).Msg("cache store failed")
		return loc, nil
	}
	return stored, nil
}
