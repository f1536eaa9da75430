package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Prefix of every environment variable, e.g. GEOPULSE_PORT
const Prefix = "GEOPULSE"

// Config holds the service configuration, parsed from GEOPULSE_* variables
type Config struct {
	Port      string `envconfig:"PORT" default:":8080"`
	DBPath    string `envconfig:"DB_PATH" default:"./data/geopulse.db"`
	JWTSecret string `envconfig:"JWT_SECRET" default:""`
	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`

	// Without auth every request acts as DefaultUser
	AuthDisabled bool   `envconfig:"AUTH_DISABLED" default:"false"`
	DefaultUser  string `envconfig:"DEFAULT_USER" default:"default"`

	RateLimit  int           `envconfig:"RATE_LIMIT" default:"120"`
	RateWindow time.Duration `envconfig:"RATE_WINDOW" default:"1m"`

	// Path of a YAML segmentation profile; empty uses the built-in thresholds
	SegmentationProfile string `envconfig:"SEGMENTATION_PROFILE" default:""`

	GeocodingProvider         string        `envconfig:"GEOCODING_PROVIDER" default:"none"` // none, nominatim
	NominatimURL              string        `envconfig:"NOMINATIM_URL" default:"https://nominatim.openstreetmap.org"`
	NominatimUserAgent        string        `envconfig:"NOMINATIM_USER_AGENT" default:"GeoPulse/1.0 (timeline-engine)"`
	RedisAddr                 string        `envconfig:"REDIS_ADDR" default:""`
	GeocodeCacheTTL           time.Duration `envconfig:"GEOCODE_CACHE_TTL" default:"720h"`
	FavoriteMatchRadiusMeters float64       `envconfig:"FAVORITE_MATCH_RADIUS_METERS" default:"75"`

	ShutdownTimeout time.Duration `envconfig:"SHUTDOWN_TIMEOUT" default:"15s"`
}

// Validate checks the combinations envconfig cannot express
func (c *Config) Validate() error {
	if err := c.validateCommon(); err != nil {
		return err
	}
	if !c.AuthDisabled && c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required unless AUTH_DISABLED is set")
	}
	return nil
}

func (c *Config) validateCommon() error {
	if !strings.HasPrefix(c.Port, ":") {
		c.Port = ":" + c.Port
	}
	switch c.GeocodingProvider {
	case "none", "nominatim":
	default:
		return fmt.Errorf("unsupported GEOCODING_PROVIDER: %s", c.GeocodingProvider)
	}
	if c.AuthDisabled && c.DefaultUser == "" {
		return fmt.Errorf("DEFAULT_USER is required when AUTH_DISABLED is set")
	}
	if c.RateLimit <= 0 || c.RateWindow <= 0 {
		return fmt.Errorf("RATE_LIMIT and RATE_WINDOW must be positive")
	}
	if c.FavoriteMatchRadiusMeters <= 0 {
		return fmt.Errorf("FAVORITE_MATCH_RADIUS_METERS must be positive")
	}
	return nil
}

// LoadOffline is Load for tools that never serve HTTP; the JWT secret is optional
func LoadOffline() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}
	if err := cfg.validateCommon(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load parses and validates the environment configuration
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process(Prefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment variables: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Info().
		Str("port", cfg.Port).
		Str("db_path", cfg.DBPath).
		Bool("auth_disabled", cfg.AuthDisabled).
		Str("geocoding_provider", cfg.GeocodingProvider).
		Bool("redis_cache", cfg.RedisAddr != "").
		Str("segmentation_profile", cfg.SegmentationProfile).
		Msg("configuration loaded")

	return &cfg, nil
}
