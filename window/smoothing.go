package window

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// DefaultSmoothingSize is the number of samples averaged for the proximity check.
const DefaultSmoothingSize = 30

// Smoothing is the long moving-average window.
type Smoothing struct {
	*Ring
}

// NewSmoothing creates a moving-average window of the given capacity.
func NewSmoothing(capacity int) *Smoothing {
	return &Smoothing{Ring: NewRing(capacity)}
}

// Average returns the arithmetic mean of the held samples, or NaN when the
// window is empty. Callers push before averaging, so NaN signals a caller bug.
func (s *Smoothing) Average() float64 {
	if s.Len() == 0 {
		return math.NaN()
	}
	return stat.Mean(s.Values(), nil)
}
