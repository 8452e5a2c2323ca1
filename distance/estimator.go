// Package distance converts a laser-dot radius into a range using the pinhole
// camera model.
package distance

import "github.com/chewxy/math32"

const (
	// DefaultFocalLengthPx is the calibrated focal length of the reference camera.
	DefaultFocalLengthPx = 520.869
	// DefaultLaserRadiusCm is the physical radius of the projected laser dot.
	DefaultLaserRadiusCm = 1.0
)

// Estimator holds the calibration constants.
type Estimator struct {
	FocalLengthPx float64
	LaserRadiusCm float64
}

// NewEstimator returns an estimator for the given calibration.
func NewEstimator(focalLengthPx, laserRadiusCm float64) Estimator {
	return Estimator{FocalLengthPx: focalLengthPx, LaserRadiusCm: laserRadiusCm}
}

// Distance returns the range in centimeters for a dot of radiusPx pixels.
//
// The relationship is inverse: distance = focal * laserRadius / radius.
//
// Arguments:
//   - radiusPx: Enclosing-circle radius in pixels.
//
// Returns:
//   - float64: Distance in centimeters.
//   - bool: false when the radius is not a positive finite number and no sample exists.
//
// @example
// est := distance.NewEstimator(distance.DefaultFocalLengthPx, distance.DefaultLaserRadiusCm)
// cm, ok := est.Distance(5.2) // ~100.17, true
func (e Estimator) Distance(radiusPx float32) (float64, bool) {
	if math32.IsNaN(radiusPx) || math32.IsInf(radiusPx, 0) || radiusPx <= 0 {
		return 0, false
	}
	return (e.FocalLengthPx * e.LaserRadiusCm) / float64(radiusPx), true
}
