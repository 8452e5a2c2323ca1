package pipeline

import (
	"image"
	"image/color"

	"gocv.io/x/gocv"
)

// Overlay draws measurement annotations onto a frame in place.
type Overlay interface {
	// Circle marks a detected dot at frame coordinates.
	Circle(frame *gocv.Mat, center image.Point, radius int)
	// Label writes the distance readout with its baseline at origin.
	Label(frame *gocv.Mat, text string, origin image.Point)
}

var (
	circleColor = color.RGBA{0, 255, 0, 0}
	labelColor  = color.RGBA{255, 255, 255, 0}
)

// gocvOverlay draws with OpenCV primitives.
type gocvOverlay struct {
	rotateText bool
}

// NewOverlay returns the default OpenCV overlay.
//
// OpenCV cannot draw rotated text, so with rotateText the frame is turned 90°
// clockwise, the label drawn, and the frame turned back.
func NewOverlay(rotateText bool) Overlay {
	return gocvOverlay{rotateText: rotateText}
}

func (o gocvOverlay) Circle(frame *gocv.Mat, center image.Point, radius int) {
	gocv.Circle(frame, center, radius, circleColor, 3)
}

func (o gocvOverlay) Label(frame *gocv.Mat, text string, origin image.Point) {
	if !o.rotateText {
		gocv.PutText(frame, text, origin, gocv.FontHersheySimplex, 1, labelColor, 2)
		return
	}

	rotated := gocv.NewMat()
	defer rotated.Close()

	gocv.Rotate(*frame, &rotated, gocv.Rotate90Clockwise)
	gocv.PutText(&rotated, text, origin, gocv.FontHersheySimplex, 1, labelColor, 2)
	gocv.Rotate(rotated, frame, gocv.Rotate90CounterClockwise)
}

// nopOverlay leaves frames untouched.
type nopOverlay struct{}

func (nopOverlay) Circle(*gocv.Mat, image.Point, int) {}
func (nopOverlay) Label(*gocv.Mat, string, image.Point) {}
