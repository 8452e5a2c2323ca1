package pipeline

import (
	"os"
	"strconv"

	"github.com/nvr-ai/go-laserrange/alert"
	"github.com/nvr-ai/go-laserrange/distance"
	"github.com/nvr-ai/go-laserrange/geometry"
	"github.com/nvr-ai/go-laserrange/window"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// ROIConfig is the size of the centered region of interest.
type ROIConfig struct {
	Width  int `json:"width" yaml:"width"`
	Height int `json:"height" yaml:"height"`
}

// AreaConfig bounds the accepted contour area in pixels², inclusive.
type AreaConfig struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// OverlayConfig controls the annotations drawn onto processed frames.
type OverlayConfig struct {
	// Enabled toggles circle and distance text drawing.
	Enabled bool `json:"enabled" yaml:"enabled"`
	// RotateText draws the distance text on a 90° rotated frame, for portrait-mounted displays.
	RotateText bool `json:"rotate_text" yaml:"rotate_text"`
}

// Config holds every tunable of the frame pipeline.
type Config struct {
	ROI        ROIConfig           `json:"roi" yaml:"roi"`
	Color      geometry.ColorRange `json:"color" yaml:"color"`
	ColorOrder geometry.ColorOrder `json:"color_order" yaml:"color_order"`
	Area       AreaConfig          `json:"area" yaml:"area"`

	ProximityThresholdCm   float64 `json:"proximity_threshold_cm" yaml:"proximity_threshold_cm"`
	PotholeDropThresholdCm float64 `json:"pothole_drop_threshold_cm" yaml:"pothole_drop_threshold_cm"`
	PotholeWindowSize      int     `json:"pothole_window_size" yaml:"pothole_window_size"`
	SmoothingWindowSize    int     `json:"smoothing_window_size" yaml:"smoothing_window_size"`

	FocalLengthPx float64 `json:"focal_length_px" yaml:"focal_length_px"`
	LaserRadiusCm float64 `json:"laser_radius_cm" yaml:"laser_radius_cm"`

	Tone    alert.Tones   `json:"tone" yaml:"tone"`
	Overlay OverlayConfig `json:"overlay" yaml:"overlay"`
}

// DefaultConfig returns the calibrated defaults for the reference camera and a red laser.
//
// Returns:
//   - Config: Ready-to-use configuration
//
// @example
// config := pipeline.DefaultConfig()
// config.ProximityThresholdCm = 150
// p, err := pipeline.New(config)
func DefaultConfig() Config {
	return Config{
		ROI: ROIConfig{Width: 280, Height: 80},
		Color: geometry.ColorRange{
			Lower: geometry.HSV{160, 60, 100},
			Upper: geometry.HSV{173, 255, 255},
		},
		ColorOrder:             geometry.OrderBGR,
		Area:                   AreaConfig{Min: 10, Max: 90},
		ProximityThresholdCm:   alert.DefaultProximityThresholdCm,
		PotholeDropThresholdCm: window.DefaultDropThresholdCm,
		PotholeWindowSize:      window.DefaultPotholeSize,
		SmoothingWindowSize:    window.DefaultSmoothingSize,
		FocalLengthPx:          distance.DefaultFocalLengthPx,
		LaserRadiusCm:          distance.DefaultLaserRadiusCm,
		Tone:                   alert.DefaultTones(),
		Overlay:                OverlayConfig{Enabled: true, RotateText: true},
	}
}

// LoadConfig reads a YAML file on top of DefaultConfig. Keys missing from the
// file keep their default value.
//
// Arguments:
//   - path: Path to the YAML file.
//
// Returns:
//   - Config: The merged, validated configuration.
//   - error: An error if the file cannot be read, parsed or validated.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML bytes on top of DefaultConfig and validates the result.
func ParseConfig(data []byte) (Config, error) {
	config := DefaultConfig()
	if err := yaml.Unmarshal(data, &config); err != nil {
		return Config{}, errors.Wrap(err, "parse config")
	}
	if err := config.Validate(); err != nil {
		return Config{}, err
	}
	return config, nil
}

// ApplyEnv overrides thresholds from LASERRANGE_* environment variables.
// Unset or unparsable values leave the field unchanged.
func (c *Config) ApplyEnv() {
	c.ProximityThresholdCm = getEnvAsFloat("LASERRANGE_PROXIMITY_CM", c.ProximityThresholdCm)
	c.PotholeDropThresholdCm = getEnvAsFloat("LASERRANGE_POTHOLE_DROP_CM", c.PotholeDropThresholdCm)
	c.FocalLengthPx = getEnvAsFloat("LASERRANGE_FOCAL_LENGTH_PX", c.FocalLengthPx)
	c.LaserRadiusCm = getEnvAsFloat("LASERRANGE_LASER_RADIUS_CM", c.LaserRadiusCm)
	c.SmoothingWindowSize = getEnvAsInt("LASERRANGE_SMOOTHING_WINDOW", c.SmoothingWindowSize)
	c.PotholeWindowSize = getEnvAsInt("LASERRANGE_POTHOLE_WINDOW", c.PotholeWindowSize)
	if v := os.Getenv("LASERRANGE_COLOR_ORDER"); v != "" {
		c.ColorOrder = geometry.ColorOrder(v)
	}
}

// Validate checks the configuration for values the pipeline cannot work with.
func (c Config) Validate() error {
	switch {
	case c.ROI.Width <= 0 || c.ROI.Height <= 0:
		return errors.Errorf("roi must be positive, got %dx%d", c.ROI.Width, c.ROI.Height)
	case c.Area.Min < 0 || c.Area.Max < c.Area.Min:
		return errors.Errorf("invalid area bounds [%v, %v]", c.Area.Min, c.Area.Max)
	case c.SmoothingWindowSize <= 0:
		return errors.Errorf("smoothing window size must be positive, got %d", c.SmoothingWindowSize)
	case c.PotholeWindowSize <= 0:
		return errors.Errorf("pothole window size must be positive, got %d", c.PotholeWindowSize)
	case c.FocalLengthPx <= 0:
		return errors.Errorf("focal length must be positive, got %v", c.FocalLengthPx)
	case c.LaserRadiusCm <= 0:
		return errors.Errorf("laser radius must be positive, got %v", c.LaserRadiusCm)
	case c.ProximityThresholdCm < 0 || c.PotholeDropThresholdCm < 0:
		return errors.New("thresholds must not be negative")
	case c.Tone.Proximity < 0 || c.Tone.Pothole < 0:
		return errors.New("tone durations must not be negative")
	case c.ColorOrder != geometry.OrderBGR && c.ColorOrder != geometry.OrderRGB:
		return errors.Errorf("unknown color order %q", c.ColorOrder)
	}
	for i := range c.Color.Lower {
		if c.Color.Lower[i] > c.Color.Upper[i] {
			return errors.Errorf("color lower bound %v exceeds upper bound %v", c.Color.Lower, c.Color.Upper)
		}
	}
	return nil
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}
