// Command roiview shows the laser mask of the region of interest next to the
// annotated camera image, for tuning the HSV range and area bounds of a config.
package main

import (
	"flag"
	"fmt"
	"image"
	"image/color"
	"os"
	"time"

	"github.com/nvr-ai/go-laserrange/geometry"
	"github.com/nvr-ai/go-laserrange/pipeline"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

func main() {
	deviceID := flag.Int("device", 0, "Video capture device ID")
	configPath := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	zapLogger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log := zapLogger.Sugar()

	config := pipeline.DefaultConfig()
	if *configPath != "" {
		if config, err = pipeline.LoadConfig(*configPath); err != nil {
			log.Fatalf("load config: %+v", err)
		}
	}
	config.ApplyEnv()

	webcam, err := gocv.OpenVideoCapture(*deviceID)
	if err != nil {
		log.Fatalf("open video capture %d: %v", *deviceID, err)
	}
	defer webcam.Close()

	frameWindow := gocv.NewWindow("Laser Range")
	defer frameWindow.Close()
	maskWindow := gocv.NewWindow("Laser Mask")
	defer maskWindow.Close()

	ex := geometry.NewExtractor(geometry.Config{
		Color:   config.Color,
		Order:   config.ColorOrder,
		MinArea: config.Area.Min,
		MaxArea: config.Area.Max,
	})
	defer ex.Close()

	img := gocv.NewMat()
	defer img.Close()

	roiColor := color.RGBA{0, 0, 255, 0}
	dotColor := color.RGBA{0, 255, 0, 0}

	fps := 0.0
	frameCount := 0
	lastTime := time.Now()

	log.Infow("start reading camera device", "device", *deviceID, "lower", config.Color.Lower, "upper", config.Color.Upper)
	for {
		if ok := webcam.Read(&img); !ok {
			log.Warnw("cannot read device", "device", *deviceID)
			return
		}
		if img.Empty() {
			continue
		}
		if img.Cols() < config.ROI.Width || img.Rows() < config.ROI.Height {
			log.Fatalw("frame smaller than region of interest", "cols", img.Cols(), "rows", img.Rows())
		}

		frameCount++
		if elapsed := time.Since(lastTime).Seconds(); elapsed >= 1.0 {
			fps = float64(frameCount) / elapsed
			frameCount = 0
			lastTime = time.Now()
		}

		roi := geometry.CenteredROI(img.Cols(), img.Rows(), config.ROI.Width, config.ROI.Height)
		blobs, err := ex.Extract(img, roi)
		if err != nil {
			log.Errorw("extract", "error", err)
			continue
		}

		gocv.Rectangle(&img, roi, roiColor, 1)
		for _, b := range blobs {
			gocv.Circle(&img, b.Global(roi), int(b.Radius)+2, dotColor, 1)
		}
		status := fmt.Sprintf("blobs: %d | FPS: %.1f", len(blobs), fps)
		gocv.PutText(&img, status, image.Pt(10, 30), gocv.FontHersheyPlain, 1.2, dotColor, 2)

		frameWindow.IMShow(img)
		maskWindow.IMShow(ex.Mask())
		if frameWindow.WaitKey(1) == 'q' {
			return
		}
	}
}
