package segmentation

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
	"gopkg.in/yaml.v3"
)

// Config holds the thresholds used to classify points into stays, trips and gaps.
// Durations are written in YAML as Go duration strings ("7m", "3h").
type Config struct {
	// A stay is a run of points that stays within this radius of its centroid
	StayRadiusMeters float64 `yaml:"stay_radius_meters"`
	// and lasts at least this long.
	MinStayDuration time.Duration `yaml:"min_stay_duration"`

	// Consecutive points further apart in time than this are split by a data gap.
	DataGapThreshold time.Duration `yaml:"data_gap_threshold"`

	// Movement shorter than this (path length) is folded into the neighboring stay.
	MinTripDistanceMeters float64 `yaml:"min_trip_distance_meters"`

	// Two stays whose centroids are this close and whose connecting trip is no
	// longer than StayMergeMaxGap are merged into one.
	StayMergeDistanceMeters float64       `yaml:"stay_merge_distance_meters"`
	StayMergeMaxGap         time.Duration `yaml:"stay_merge_max_gap"`

	// Trips with average speed at or below this are WALK, everything else CAR.
	WalkingMaxAvgSpeedKmh float64 `yaml:"walking_max_avg_speed_kmh"`

	// When enabled, a data gap whose two sides lie within StayRadiusMeters of each
	// other and which is no longer than GapStayInferenceMaxGap is treated as
	// continuous presence at that place instead of a gap.
	GapStayInference       bool          `yaml:"gap_stay_inference"`
	GapStayInferenceMaxGap time.Duration `yaml:"gap_stay_inference_max_gap"`
}

// DefaultConfig returns the built-in profile
func DefaultConfig() Config {
	return Config{
		StayRadiusMeters:        50,
		MinStayDuration:         7 * time.Minute,
		DataGapThreshold:        3 * time.Hour,
		MinTripDistanceMeters:   50,
		StayMergeDistanceMeters: 100,
		StayMergeMaxGap:         10 * time.Minute,
		WalkingMaxAvgSpeedKmh:   6.5,
		GapStayInference:        false,
		GapStayInferenceMaxGap:  24 * time.Hour,
	}
}

// LoadProfile reads a YAML threshold profile. Fields missing from the file keep
// their default values. An empty path or a missing file yields DefaultConfig.
func LoadProfile(path string) (Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("failed to read segmentation profile: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse segmentation profile %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that every threshold is usable
func (c Config) Validate() error {
	switch {
	case c.StayRadiusMeters <= 0:
		return fmt.Errorf("%w: stay_radius_meters must be positive", models.ErrValidation)
	case c.MinStayDuration <= 0:
		return fmt.Errorf("%w: min_stay_duration must be positive", models.ErrValidation)
	case c.DataGapThreshold <= c.MinStayDuration:
		return fmt.Errorf("%w: data_gap_threshold must exceed min_stay_duration", models.ErrValidation)
	case c.MinTripDistanceMeters < 0:
		return fmt.Errorf("%w: min_trip_distance_meters must not be negative", models.ErrValidation)
	case c.StayMergeDistanceMeters < 0 || c.StayMergeMaxGap < 0:
		return fmt.Errorf("%w: stay merge thresholds must not be negative", models.ErrValidation)
	case c.WalkingMaxAvgSpeedKmh <= 0:
		return fmt.Errorf("%w: walking_max_avg_speed_kmh must be positive", models.ErrValidation)
	case c.GapStayInference && c.GapStayInferenceMaxGap <= 0:
		return fmt.Errorf("%w: gap_stay_inference_max_gap must be positive", models.ErrValidation)
	}
	return nil
}
