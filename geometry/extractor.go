// Package geometry isolates laser-colored blobs inside a region of interest
// using OpenCV (via gocv).
//
// Pipeline Overview:
//
// ┌──────────────┐
// │ Input Frame  │
// └──────┬───────┘
// ┌────────────────────────────┐
// │ ROI view (no pixel copy)   │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Color conversion (HSV)     │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ In-range mask              │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ External contours          │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Enclosing circle + area    │
// └──────┬─────────────────────┘
// ┌────────────────────────────┐
// │ Area filter → []Blob       │
// └────────────────────────────┘
//
// Note: You must call Close() when finished to release native resources.
package geometry

import (
	"image"

	"github.com/pkg/errors"
	"gocv.io/x/gocv"
)

// ColorOrder is the channel order of incoming frames.
type ColorOrder string

const (
	// OrderBGR is the native OpenCV capture order.
	OrderBGR ColorOrder = "bgr"
	// OrderRGB is used by camera bridges that deliver RGB(A) buffers.
	OrderRGB ColorOrder = "rgb"
)

// HSV is a hue-saturation-value triple on the OpenCV 8-bit scale (hue 0-180).
type HSV [3]float64

// ColorRange defines what counts as "laser-colored".
type ColorRange struct {
	Lower HSV `json:"lower" yaml:"lower"`
	Upper HSV `json:"upper" yaml:"upper"`
}

// Contains reports whether the given HSV value lies inside the range, bounds inclusive.
func (c ColorRange) Contains(v HSV) bool {
	for i := range v {
		if v[i] < c.Lower[i] || v[i] > c.Upper[i] {
			return false
		}
	}
	return true
}

// Point is a sub-pixel position.
type Point struct {
	X, Y float32
}

// Blob is a laser-dot candidate found in one frame.
type Blob struct {
	// Center of the minimal enclosing circle, in ROI-local coordinates.
	Center Point
	// Radius of the minimal enclosing circle in pixels.
	Radius float32
	// Area enclosed by the contour in pixels².
	Area float64
}

// Global translates the blob center into frame coordinates.
func (b Blob) Global(roi image.Rectangle) image.Point {
	return image.Pt(int(b.Center.X)+roi.Min.X, int(b.Center.Y)+roi.Min.Y)
}

// Config configures the extractor.
type Config struct {
	Color   ColorRange
	Order   ColorOrder
	MinArea float64
	MaxArea float64
}

// Extractor runs the segmentation pipeline on a frame's ROI.
//
// It keeps its intermediate matrices between calls and is therefore not safe
// for concurrent use; give each stream its own Extractor.
type Extractor struct {
	config Config
	lower  gocv.Scalar
	upper  gocv.Scalar
	hsv    gocv.Mat
	mask   gocv.Mat
}

// NewExtractor creates an extractor for the given color range and area bounds.
//
// Arguments:
//   - config: Color range, channel order and accepted contour area bounds.
//
// Returns:
//   - *Extractor: The initialized extractor. Always call Close().
//
// @example
// ex := geometry.NewExtractor(geometry.Config{Color: rng, MinArea: 10, MaxArea: 90})
// defer ex.Close()
// blobs, err := ex.Extract(frame, geometry.CenteredROI(frame.Cols(), frame.Rows(), 280, 80))
func NewExtractor(config Config) *Extractor {
	if config.Order == "" {
		config.Order = OrderBGR
	}
	return &Extractor{
		config: config,
		lower:  gocv.NewScalar(config.Color.Lower[0], config.Color.Lower[1], config.Color.Lower[2], 0),
		upper:  gocv.NewScalar(config.Color.Upper[0], config.Color.Upper[1], config.Color.Upper[2], 0),
		hsv:    gocv.NewMat(),
		mask:   gocv.NewMat(),
	}
}

// CenteredROI returns the width×height rectangle centered in a cols×rows frame.
func CenteredROI(cols, rows, width, height int) image.Rectangle {
	x := cols/2 - width/2
	y := rows/2 - height/2
	return image.Rect(x, y, x+width, y+height)
}

// Accepts reports whether a contour area passes the area filter. Both bounds are inclusive.
func (e *Extractor) Accepts(area float64) bool {
	return area >= e.config.MinArea && area <= e.config.MaxArea
}

// Extract finds the accepted blobs inside roi.
//
// Contours outside the area bounds are dropped silently. The returned blobs are
// in contour discovery order.
//
// Arguments:
//   - frame: 3-channel 8-bit frame in the configured channel order.
//   - roi: Region of interest, must lie inside the frame.
//
// Returns:
//   - []Blob: Accepted blobs, possibly empty.
//   - error: An error if the color conversion fails.
func (e *Extractor) Extract(frame gocv.Mat, roi image.Rectangle) ([]Blob, error) {
	region := frame.Region(roi)
	defer region.Close()

	code := gocv.ColorBGRToHSV
	if e.config.Order == OrderRGB {
		code = gocv.ColorRGBToHSV
	}
	if err := gocv.CvtColor(region, &e.hsv, code); err != nil {
		return nil, errors.Wrap(err, "hsv conversion failed")
	}

	gocv.InRangeWithScalar(e.hsv, e.lower, e.upper, &e.mask)

	contours := gocv.FindContours(e.mask, gocv.RetrievalExternal, gocv.ChainApproxSimple)
	defer contours.Close()

	var blobs []Blob
	for i := 0; i < contours.Size(); i++ {
		contour := contours.At(i)
		area := gocv.ContourArea(contour)
		if !e.Accepts(area) {
			continue
		}

		x, y, radius := gocv.MinEnclosingCircle(contour)
		blobs = append(blobs, Blob{
			Center: Point{X: x, Y: y},
			Radius: radius,
			Area:   area,
		})
	}

	return blobs, nil
}

// Mask returns the binary mask produced by the last Extract call.
// The Mat is owned by the extractor and is overwritten on the next call.
func (e *Extractor) Mask() gocv.Mat {
	return e.mask
}

// Close releases the native matrices held by the extractor.
func (e *Extractor) Close() {
	e.hsv.Close()
	e.mask.Close()
}
