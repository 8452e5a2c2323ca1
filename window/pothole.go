package window

import "gonum.org/v1/gonum/floats"

const (
	// DefaultPotholeSize is the number of raw samples inspected for a drop.
	DefaultPotholeSize = 5
	// DefaultDropThresholdCm is the spread above which a drop is reported.
	DefaultDropThresholdCm = 90.0
)

// PotholeDetector flags a large spread between raw samples in a short window.
//
// The detector looks at max-min over the whole window, not at consecutive
// deltas: a single spike and a gradual ramp with the same spread are equivalent.
type PotholeDetector struct {
	*Ring
	threshold float64
}

// NewPotholeDetector creates a detector over capacity samples that reports a
// drop when the spread strictly exceeds thresholdCm.
func NewPotholeDetector(capacity int, thresholdCm float64) *PotholeDetector {
	return &PotholeDetector{Ring: NewRing(capacity), threshold: thresholdCm}
}

// Threshold returns the configured spread threshold.
func (p *PotholeDetector) Threshold() float64 { return p.threshold }

// Spread returns max-min of the held samples, or 0 when empty.
func (p *PotholeDetector) Spread() float64 {
	if p.Len() == 0 {
		return 0
	}
	values := p.Values()
	return floats.Max(values) - floats.Min(values)
}

// IsDrop reports whether the full window spreads more than the threshold.
// A partially filled window never reports a drop.
func (p *PotholeDetector) IsDrop() bool {
	if !p.Full() {
		return false
	}
	return p.Spread() > p.threshold
}
