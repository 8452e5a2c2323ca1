package images

import (
	"fmt"
	"math"
)

// Resolution is a named camera capture mode.
type Resolution struct {
	Name   string `json:"name"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// MegaPixels returns the pixel count in millions, rounded to two decimals.
func (r Resolution) MegaPixels() float64 {
	if r.Width <= 0 || r.Height <= 0 {
		return 0
	}
	return math.Round(float64(r.Width*r.Height)/1_000_000.0*100) / 100
}

func (r Resolution) String() string {
	return fmt.Sprintf("%s (%dx%d, %.2fMP)", r.Name, r.Width, r.Height, r.MegaPixels())
}

// captureModes lists the modes USB and Pi cameras commonly deliver, smallest first.
var captureModes = []Resolution{
	{Name: "QVGA", Width: 320, Height: 240},
	{Name: "nHD", Width: 640, Height: 360},
	{Name: "VGA", Width: 640, Height: 480},
	{Name: "SVGA", Width: 800, Height: 600},
	{Name: "HD 720p", Width: 1280, Height: 720},
	{Name: "Full HD 1080p", Width: 1920, Height: 1080},
	{Name: "4K UHD", Width: 3840, Height: 2160},
}

// LookupResolution names the capture mode of a cols×rows frame. Portrait frames
// match their landscape mode. Unknown sizes are returned with the name "custom".
func LookupResolution(cols, rows int) (Resolution, bool) {
	w, h := cols, rows
	if h > w {
		w, h = h, w
	}
	for _, r := range captureModes {
		if r.Width == w && r.Height == h {
			return Resolution{Name: r.Name, Width: cols, Height: rows}, true
		}
	}
	return Resolution{Name: "custom", Width: cols, Height: rows}, false
}
