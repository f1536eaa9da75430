package stats

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeDivide_NeverNaN(t *testing.T) {
	v := SafeDivide(10, 0)
	assert.Zero(t, v)
	assert.False(t, math.IsNaN(SafeDivide(0, 0)))
	assert.Equal(t, 5.0, SafeDivide(10, 2))
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-5, 0, 100))
	assert.Equal(t, 100.0, Clamp(250, 0, 100))
	assert.Equal(t, 42.0, Clamp(42, 0, 100))
}

func TestArgMax_TieBreaksEarliest(t *testing.T) {
	assert.Equal(t, -1, ArgMax(nil))
	assert.Equal(t, -1, ArgMax([]float64{0, 0}))
	assert.Equal(t, 1, ArgMax([]float64{0, 5, 5, 2}))
	assert.Equal(t, 3, ArgMax([]float64{1, 2, 3, 4}))
}
