// Package alert decides which warnings a distance measurement raises and
// delivers them to the audible alert device.
package alert

import (
	"time"

	"github.com/pkg/errors"
)

// Kind tags an alert event.
type Kind int

const (
	// Proximity fires when the smoothed distance is below the safety threshold.
	Proximity Kind = iota + 1
	// PotholeDrop fires when the short raw window spreads more than the drop threshold.
	PotholeDrop
)

// String returns the wire name of the kind.
func (k Kind) String() string {
	switch k {
	case Proximity:
		return "proximity"
	case PotholeDrop:
		return "pothole_drop"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k != Proximity && k != PotholeDrop {
		return nil, errors.Errorf("unknown alert kind %d", int(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(b []byte) error {
	switch string(b) {
	case "proximity":
		*k = Proximity
	case "pothole_drop":
		*k = PotholeDrop
	default:
		return errors.Errorf("unknown alert kind %q", string(b))
	}
	return nil
}

// Event is one alert request. Only Kind drives the decision; the remaining
// fields let downstream devices correlate tones with frames.
type Event struct {
	Kind     Kind          `json:"kind"`
	Session  string        `json:"session"`
	Frame    uint64        `json:"frame"`
	Duration time.Duration `json:"duration"`
	Time     time.Time     `json:"time"`
}

// Tones holds the tone length requested for each kind.
type Tones struct {
	Proximity time.Duration `yaml:"proximity"`
	Pothole   time.Duration `yaml:"pothole"`
}

// DefaultTones returns 300ms for both kinds.
func DefaultTones() Tones {
	return Tones{Proximity: 300 * time.Millisecond, Pothole: 300 * time.Millisecond}
}

// For returns the tone duration for kind.
func (t Tones) For(kind Kind) time.Duration {
	if kind == PotholeDrop {
		return t.Pothole
	}
	return t.Proximity
}

// DefaultProximityThresholdCm is the distance under which a proximity alert fires.
const DefaultProximityThresholdCm = 100.0

// Policy combines the smoothed distance and the drop flag into alert kinds.
type Policy struct {
	ProximityThresholdCm float64
}

// Evaluate returns the kinds raised by one measurement.
//
// Both checks are independent and may fire together. There is no debounce:
// every call that satisfies a condition yields the corresponding kind.
//
// Arguments:
//   - average: Smoothed distance in centimeters.
//   - drop: Whether the pothole detector reported a drop for this sample.
//
// Returns:
//   - []Kind: PotholeDrop (if any) followed by Proximity (if any).
func (p Policy) Evaluate(average float64, drop bool) []Kind {
	var kinds []Kind
	if drop {
		kinds = append(kinds, PotholeDrop)
	}
	if average < p.ProximityThresholdCm {
		kinds = append(kinds, Proximity)
	}
	return kinds
}
