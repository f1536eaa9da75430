package segmentation

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jengzang/geopulse-go/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())
}

func TestLoadProfile_Defaults(t *testing.T) {
	cfg, err := LoadProfile("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	cfg, err = LoadProfile(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoadProfile_OverridesSomeFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profile.yaml")
	yml := "stay_radius_meters: 80\nmin_stay_duration: 10m\ngap_stay_inference: true\n"
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	cfg, err := LoadProfile(path)
	require.NoError(t, err)
	assert.Equal(t, 80.0, cfg.StayRadiusMeters)
	assert.Equal(t, 10*time.Minute, cfg.MinStayDuration)
	assert.True(t, cfg.GapStayInference)
	assert.Equal(t, 3*time.Hour, cfg.DataGapThreshold)
	assert.Equal(t, 6.5, cfg.WalkingMaxAvgSpeedKmh)
}

func TestLoadProfile_Invalid(t *testing.T) {
	dir := t.TempDir()

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("stay_radius_meters: [1, 2"), 0o644))
	_, err := LoadProfile(bad)
	assert.Error(t, err)

	negative := filepath.Join(dir, "negative.yaml")
	require.NoError(t, os.WriteFile(negative, []byte("stay_radius_meters: -5\n"), 0o644))
	_, err = LoadProfile(negative)
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero radius", func(c *Config) { c.StayRadiusMeters = 0 }},
		{"zero stay duration", func(c *Config) { c.MinStayDuration = 0 }},
		{"gap below stay duration", func(c *Config) { c.DataGapThreshold = time.Minute }},
		{"negative trip distance", func(c *Config) { c.MinTripDistanceMeters = -1 }},
		{"negative merge distance", func(c *Config) { c.StayMergeDistanceMeters = -1 }},
		{"zero walking speed", func(c *Config) { c.WalkingMaxAvgSpeedKmh = 0 }},
		{"inference without max gap", func(c *Config) {
			c.GapStayInference = true
			c.GapStayInferenceMaxGap = 0
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), models.ErrValidation)
		})
	}
}
