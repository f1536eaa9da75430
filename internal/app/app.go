// Package app wires configuration into a running set of services.
package app

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/jengzang/geopulse-go/internal/api"
	"github.com/jengzang/geopulse-go/internal/config"
	"github.com/jengzang/geopulse-go/internal/database"
	"github.com/jengzang/geopulse-go/internal/geocoding"
	"github.com/jengzang/geopulse-go/internal/middleware"
	"github.com/jengzang/geopulse-go/internal/repository"
	"github.com/jengzang/geopulse-go/internal/segmentation"
	"github.com/jengzang/geopulse-go/internal/service"
)

// App owns the database, the geocoding cache and every service built on them
type App struct {
	Config   *config.Config
	DB       *sql.DB
	Services api.Services

	closers []func() error
}

// New opens and migrates the database and builds the services for cfg
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	segCfg, err := segmentation.LoadProfile(cfg.SegmentationProfile)
	if err != nil {
		return nil, err
	}

	if dir := filepath.Dir(cfg.DBPath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	if err := database.Init(database.Config{Path: cfg.DBPath}); err != nil {
		return nil, err
	}
	conn := database.GetDB()
	a := &App{Config: cfg, DB: conn, closers: []func() error{database.Close}}

	if err := database.Migrate(conn); err != nil {
		a.Close()
		return nil, err
	}

	var cache geocoding.Cache = repository.NewGeocodingRepository(conn)
	if cfg.RedisAddr != "" {
		rc, err := geocoding.NewRedisCache(ctx, cfg.RedisAddr, cfg.GeocodeCacheTTL)
		if err != nil {
			a.Close()
			return nil, err
		}
		cache = rc
		a.closers = append(a.closers, rc.Close)
	}

	var provider geocoding.Provider = geocoding.NoopProvider{}
	if cfg.GeocodingProvider == "nominatim" {
		provider = geocoding.NewNominatimProvider(cfg.NominatimURL, cfg.NominatimUserAgent)
	}

	points := repository.NewPointRepository(conn)
	favorites := repository.NewFavoriteRepository(conn)
	tags := repository.NewTagRepository(conn)
	users := repository.NewUserRepository(conn)

	tl := service.NewTimelineService(
		points,
		repository.NewSegmentRepository(conn),
		favorites,
		tags,
		repository.NewRegenerationTaskRepository(conn),
		users,
		service.TimelineOptions{
			Segmentation:         segCfg,
			GeocodingCache:       cache,
			GeocodingProvider:    provider,
			FavoriteRadiusMeters: cfg.FavoriteMatchRadiusMeters,
		},
	)

	a.Services = api.Services{
		Timeline:  tl,
		Favorites: service.NewFavoriteService(favorites, tl),
		Tags:      service.NewTagService(tags),
		Points:    service.NewPointService(points, tl),
		Users:     service.NewUserService(users),
	}
	return a, nil
}

// RouterOptions maps the configuration onto the HTTP layer
func (a *App) RouterOptions() api.Options {
	return api.Options{
		Auth: middleware.AuthConfig{
			Secret:      []byte(a.Config.JWTSecret),
			Disabled:    a.Config.AuthDisabled,
			DefaultUser: a.Config.DefaultUser,
		},
		RateLimit:  a.Config.RateLimit,
		RateWindow: a.Config.RateWindow,
	}
}

// Close releases resources in reverse order of acquisition
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			log.Warn().Err(err).Str("component", "app").Msg("close failed")
		}
	}
}
