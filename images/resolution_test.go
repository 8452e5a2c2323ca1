package images

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLookupResolution(t *testing.T) {
	tests := []struct {
		name       string
		cols, rows int
		expected   string
		known      bool
	}{
		{"VGA", 640, 480, "VGA", true},
		{"Portrait VGA", 480, 640, "VGA", true},
		{"HD", 1280, 720, "HD 720p", true},
		{"Odd size", 700, 500, "custom", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, ok := LookupResolution(tt.cols, tt.rows)
			assert.Equal(t, tt.known, ok)
			assert.Equal(t, tt.expected, r.Name)
			assert.Equal(t, tt.cols, r.Width)
			assert.Equal(t, tt.rows, r.Height)
		})
	}
}

func TestResolutionString(t *testing.T) {
	r, _ := LookupResolution(1920, 1080)
	assert.Equal(t, 2.07, r.MegaPixels())
	assert.Equal(t, "Full HD 1080p (1920x1080, 2.07MP)", r.String())
	assert.Zero(t, Resolution{}.MegaPixels())
}
