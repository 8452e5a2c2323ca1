package distance

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	est := NewEstimator(DefaultFocalLengthPx, DefaultLaserRadiusCm)

	tests := []struct {
		radius   float32
		expected float64
	}{
		{1, 520.869},
		{2, 260.4345},
		{5.20869, 100},
		{10, 52.0869},
		{0.5, 1041.738},
	}

	for _, tt := range tests {
		got, ok := est.Distance(tt.radius)
		assert.True(t, ok)
		assert.InDelta(t, tt.expected, got, 1e-3, "radius %v", tt.radius)
		assert.InDelta(t, 520.869*1.0/float64(tt.radius), got, 1e-9)
	}
}

func TestDistanceMonotonic(t *testing.T) {
	est := NewEstimator(DefaultFocalLengthPx, DefaultLaserRadiusCm)

	prev, ok := est.Distance(0.25)
	assert.True(t, ok)
	for r := float32(0.5); r <= 50; r += 0.25 {
		d, ok := est.Distance(r)
		assert.True(t, ok)
		assert.Less(t, d, prev, "radius %v", r)
		prev = d
	}
}

func TestDistanceDegenerateRadius(t *testing.T) {
	est := NewEstimator(DefaultFocalLengthPx, DefaultLaserRadiusCm)

	for _, r := range []float32{0, -1, -0.001, math32.NaN(), math32.Inf(1), math32.Inf(-1)} {
		d, ok := est.Distance(r)
		assert.False(t, ok, "radius %v", r)
		assert.Zero(t, d)
	}
}

func TestDistanceCalibration(t *testing.T) {
	est := NewEstimator(800, 2.135)
	d, ok := est.Distance(10)
	assert.True(t, ok)
	assert.InDelta(t, 170.8, d, 1e-9)
}
