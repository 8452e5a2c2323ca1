package geometry

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/nvr-ai/go-laserrange/images"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocv.io/x/gocv"
)

// laser is BGR(119, 0, 255), which converts to HSV(166, 255, 255).
var laser = color.RGBA{R: 255, G: 0, B: 119, A: 0}

var defaultRange = ColorRange{
	Lower: HSV{160, 60, 100},
	Upper: HSV{173, 255, 255},
}

func newTestExtractor() *Extractor {
	return NewExtractor(Config{
		Color:   defaultRange,
		Order:   OrderBGR,
		MinArea: 10,
		MaxArea: 90,
	})
}

func blankFrame(t *testing.T) gocv.Mat {
	t.Helper()
	frame := images.NewBlankFrame(640, 480)
	require.False(t, frame.Empty())
	return frame
}

func TestCenteredROI(t *testing.T) {
	tests := []struct {
		name       string
		cols, rows int
		expected   image.Rectangle
	}{
		{"VGA", 640, 480, image.Rect(180, 200, 460, 280)},
		{"HD", 1280, 720, image.Rect(500, 320, 780, 400)},
		{"Exact fit", 280, 80, image.Rect(0, 0, 280, 80)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			roi := CenteredROI(tt.cols, tt.rows, 280, 80)
			assert.Equal(t, tt.expected, roi)
			assert.Equal(t, 280, roi.Dx())
			assert.Equal(t, 80, roi.Dy())
		})
	}
}

func TestAcceptsBoundaries(t *testing.T) {
	ex := newTestExtractor()
	defer ex.Close()

	tests := []struct {
		area     float64
		expected bool
	}{
		{9.999, false},
		{10, true},
		{50, true},
		{90, true},
		{90.001, false},
		{0, false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, ex.Accepts(tt.area), "area %v", tt.area)
	}
}

func TestColorRangeContains(t *testing.T) {
	assert.True(t, defaultRange.Contains(HSV{166, 255, 255}))
	assert.True(t, defaultRange.Contains(HSV{160, 60, 100}))
	assert.True(t, defaultRange.Contains(HSV{173, 255, 255}))
	assert.False(t, defaultRange.Contains(HSV{159, 255, 255}))
	assert.False(t, defaultRange.Contains(HSV{166, 59, 255}))
	assert.False(t, defaultRange.Contains(HSV{174, 255, 255}))
}

func TestExtractSingleBlob(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	// 6x6 square: contour corners 5px apart, area 25, enclosing radius 2.5*sqrt(2).
	gocv.Rectangle(&frame, image.Rect(300, 230, 306, 236), laser, -1)

	ex := newTestExtractor()
	defer ex.Close()

	roi := CenteredROI(frame.Cols(), frame.Rows(), 280, 80)
	blobs, err := ex.Extract(frame, roi)
	require.NoError(t, err)
	require.Len(t, blobs, 1)

	blob := blobs[0]
	assert.InDelta(t, 25.0, blob.Area, 1e-6)
	assert.InDelta(t, 2.5*math.Sqrt2, float64(blob.Radius), 0.01)
	assert.InDelta(t, 122.5, float64(blob.Center.X), 0.01)
	assert.InDelta(t, 32.5, float64(blob.Center.Y), 0.01)
	assert.Equal(t, image.Pt(302, 232), blob.Global(roi))
	assert.Greater(t, gocv.CountNonZero(ex.Mask()), 0)
}

func TestExtractFiltering(t *testing.T) {
	tests := []struct {
		name     string
		rects    []image.Rectangle
		expected int
	}{
		{
			name:     "No laser color",
			expected: 0,
		},
		{
			name:     "Blob outside ROI",
			rects:    []image.Rectangle{image.Rect(10, 10, 16, 16)},
			expected: 0,
		},
		{
			name:     "Blob too large",
			rects:    []image.Rectangle{image.Rect(300, 230, 320, 250)},
			expected: 0,
		},
		{
			name:     "Single pixel too small",
			rects:    []image.Rectangle{image.Rect(300, 230, 301, 231)},
			expected: 0,
		},
		{
			name: "Two blobs",
			rects: []image.Rectangle{
				image.Rect(220, 230, 226, 236),
				image.Rect(400, 230, 409, 239),
			},
			expected: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := blankFrame(t)
			defer frame.Close()
			for _, r := range tt.rects {
				gocv.Rectangle(&frame, r, laser, -1)
			}

			ex := newTestExtractor()
			defer ex.Close()

			blobs, err := ex.Extract(frame, CenteredROI(frame.Cols(), frame.Rows(), 280, 80))
			require.NoError(t, err)
			assert.Len(t, blobs, tt.expected)
			for _, b := range blobs {
				assert.True(t, ex.Accepts(b.Area))
			}
		})
	}
}

func TestExtractRGBOrder(t *testing.T) {
	frame := blankFrame(t)
	defer frame.Close()

	// The same pixel bytes read as RGB have hue 134, well outside the range.
	gocv.Rectangle(&frame, image.Rect(300, 230, 306, 236), laser, -1)

	ex := NewExtractor(Config{Color: defaultRange, Order: OrderRGB, MinArea: 10, MaxArea: 90})
	defer ex.Close()

	blobs, err := ex.Extract(frame, CenteredROI(frame.Cols(), frame.Rows(), 280, 80))
	require.NoError(t, err)
	assert.Empty(t, blobs)
}
