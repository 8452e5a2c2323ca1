package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nvr-ai/go-laserrange/alert"
	"github.com/nvr-ai/go-laserrange/images"
	"github.com/nvr-ai/go-laserrange/pipeline"
	"github.com/nvr-ai/go-laserrange/profiler"
	"github.com/nvr-ai/go-laserrange/util"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

// Supported file extensions
var (
	supportedVideoExtensions = []string{".mp4", ".avi", ".mov"}
	supportedImageExtensions = []string{".jpg", ".jpeg", ".png", ".bmp"}
)

// InputType represents the type of input being processed
type InputType int

const (
	InputCamera InputType = iota
	InputVideo
	InputImage
	InputFrames
)

// InputConfig holds the input configuration
type InputConfig struct {
	Type     InputType
	Path     string
	DeviceID int
}

var log *zap.SugaredLogger

func main() {
	var (
		configPath string
		videoPath  string
		imagePath  string
		framesDir  string
		outputPath string
		natsURL    string
		natsSubj   string
		deviceID   int
		showWindow bool
		debug      bool
	)
	flag.StringVar(&configPath, "config", "", "Path to YAML config file (defaults are used when empty)")
	flag.StringVar(&videoPath, "video", "", "Path to video file (.mp4, .avi, .mov)")
	flag.StringVar(&imagePath, "image", "", "Path to image file (.jpg, .jpeg, .png, .bmp)")
	flag.StringVar(&framesDir, "frames", "", "Directory of recorded frame-<n> images")
	flag.StringVar(&outputPath, "output", "", "Write the annotated frame here in -image mode")
	flag.StringVar(&natsURL, "nats-url", "", "NATS server URL for alert tone requests (disabled when empty)")
	flag.StringVar(&natsSubj, "nats-subject", alert.DefaultSubject, "NATS subject prefix for alerts")
	flag.IntVar(&deviceID, "device", 0, "Video capture device ID")
	flag.BoolVar(&showWindow, "show-window", false, "Show visualization window")
	flag.BoolVar(&debug, "debug", false, "Turn on debugging output")
	flag.Parse()

	// .env is optional; LASERRANGE_* variables may also come from the environment.
	_ = godotenv.Load()

	var (
		zapLogger *zap.Logger
		err       error
	)
	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		fmt.Printf("can't initialize zap logger: %v\n", err)
		os.Exit(1)
	}
	defer zapLogger.Sync()
	log = zapLogger.Sugar()

	if err := run(configPath, videoPath, imagePath, framesDir, outputPath, natsURL, natsSubj, deviceID, showWindow); err != nil {
		log.Errorf("laserrange: %+v", err)
		os.Exit(1)
	}
}

func run(configPath, videoPath, imagePath, framesDir, outputPath, natsURL, natsSubj string, deviceID int, showWindow bool) error {
	input, err := validateInputFlags(videoPath, imagePath, framesDir, deviceID)
	if err != nil {
		return err
	}

	config := pipeline.DefaultConfig()
	if configPath != "" {
		filename, _ := filepath.Abs(configPath)
		if config, err = pipeline.LoadConfig(filename); err != nil {
			return err
		}
	}
	config.ApplyEnv()

	sinks := alert.MultiSink{alert.NewLogSink(log)}
	if natsURL != "" {
		nc, err := alert.ConnectNATS(natsURL, log)
		if err != nil {
			return err
		}
		defer nc.Drain()
		sinks = append(sinks, alert.NewNATSSink(nc, natsSubj, log))
	}

	p, err := pipeline.New(config, pipeline.WithSink(sinks), pipeline.WithLogger(log))
	if err != nil {
		return err
	}
	defer p.Close()

	log.Infow("laserrange starting",
		"input", input.Type.String(),
		"path", input.Path,
		"device", input.DeviceID,
		"session", p.Snapshot().Session,
		"proximity_threshold_cm", config.ProximityThresholdCm,
		"pothole_drop_threshold_cm", config.PotholeDropThresholdCm,
		"smoothing_window", config.SmoothingWindowSize,
		"pothole_window", config.PotholeWindowSize,
	)

	if input.Type == InputImage {
		return processImage(p, input.Path, outputPath)
	}

	prof := profiler.NewRuntimeProfiler(profiler.ProfilingOptions{
		ReportInterval: 10 * time.Second,
		SampleInterval: 500 * time.Millisecond,
		Logger:         log,
	})
	prof.AddMetricsCollector(p)
	prof.Start()
	defer prof.Stop()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var window *gocv.Window
	if showWindow {
		window = gocv.NewWindow("Laser Range")
		defer window.Close()
	}

	var source frameSource
	switch input.Type {
	case InputFrames:
		source, err = newDirectorySource(input.Path)
	case InputVideo:
		source, err = newCaptureSource(input.Path)
	default:
		source, err = newCaptureSource(input.DeviceID)
	}
	if err != nil {
		return err
	}
	defer source.Close()

	// A new capture is a new drive: start from empty windows.
	p.Reset()

	return processStream(ctx, p, prof, source, window)
}

// processStream feeds frames from source through the pipeline until the
// source is exhausted or ctx is cancelled.
func processStream(ctx context.Context, p *pipeline.Pipeline, prof *profiler.RuntimeProfiler, source frameSource, window *gocv.Window) error {
	img := gocv.NewMat()
	defer img.Close()

	logged := false
	for {
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			return nil
		default:
		}

		ok, err := source.Read(&img)
		if err != nil {
			return err
		}
		if !ok {
			log.Infow("end of input", "frames", p.Snapshot().Frames)
			return nil
		}
		if img.Empty() {
			continue
		}
		if !logged {
			res, known := images.LookupResolution(img.Cols(), img.Rows())
			log.Infow("capture resolution", "resolution", res.String(), "known", known)
			logged = true
		}

		stopTiming := prof.StartOperation("process_frame")
		result, err := p.ProcessFrame(&img)
		stopTiming()
		if err != nil {
			log.Warnw("frame rejected", "error", err)
			continue
		}

		for _, m := range result.Measurements {
			prof.RecordMetric("distance_cm", m.DistanceCm)
		}

		if window != nil {
			window.IMShow(img)
			if window.WaitKey(1) == 'q' {
				return nil
			}
		}
	}
}

// processImage runs a single image through the pipeline.
func processImage(p *pipeline.Pipeline, imagePath, outputPath string) error {
	img := gocv.IMRead(imagePath, gocv.IMReadColor)
	if img.Empty() {
		return errors.Errorf("failed to load image: %s", imagePath)
	}
	defer img.Close()

	result, err := p.ProcessFrame(&img)
	if err != nil {
		return errors.Wrapf(err, "process %s", imagePath)
	}

	for _, m := range result.Measurements {
		log.Infow("laser dot",
			"x", m.Center.X,
			"y", m.Center.Y,
			"radius_px", m.Blob.Radius,
			"distance_cm", m.DistanceCm,
		)
	}
	if len(result.Measurements) == 0 {
		log.Info("no laser dot found in region of interest")
	}

	if outputPath != "" {
		if !gocv.IMWrite(outputPath, img) {
			return errors.Errorf("failed to write %s", outputPath)
		}
		log.Infow("annotated frame written", "path", outputPath)
	}
	return nil
}

func (t InputType) String() string {
	switch t {
	case InputCamera:
		return "camera"
	case InputVideo:
		return "video"
	case InputImage:
		return "image"
	case InputFrames:
		return "frames"
	default:
		return "unknown"
	}
}

// validateInputFlags validates the input flags and returns the input configuration
func validateInputFlags(videoPath, imagePath, framesDir string, deviceID int) (*InputConfig, error) {
	set := 0
	for _, v := range []string{videoPath, imagePath, framesDir} {
		if v != "" {
			set++
		}
	}
	if set > 1 {
		return nil, errors.New("only one of -video, -image and -frames may be given")
	}

	switch {
	case videoPath != "":
		if err := validateFile(videoPath, supportedVideoExtensions); err != nil {
			return nil, errors.Wrap(err, "video validation error")
		}
		return &InputConfig{Type: InputVideo, Path: videoPath}, nil
	case imagePath != "":
		if err := validateFile(imagePath, supportedImageExtensions); err != nil {
			return nil, errors.Wrap(err, "image validation error")
		}
		return &InputConfig{Type: InputImage, Path: imagePath}, nil
	case framesDir != "":
		info, err := os.Stat(framesDir)
		if err != nil {
			return nil, errors.Wrap(err, "frames directory")
		}
		if !info.IsDir() {
			return nil, errors.Errorf("not a directory: %s", framesDir)
		}
		return &InputConfig{Type: InputFrames, Path: framesDir}, nil
	default:
		return &InputConfig{Type: InputCamera, DeviceID: deviceID}, nil
	}
}

// validateFile checks if the file exists and has a supported extension
func validateFile(filePath string, supportedExtensions []string) error {
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		return errors.Errorf("file not found: %s", filePath)
	}

	ext := strings.ToLower(filepath.Ext(filePath))
	for _, supportedExt := range supportedExtensions {
		if ext == supportedExt {
			return nil
		}
	}

	return errors.Errorf("unsupported file extension: %s. Supported extensions: %v", ext, supportedExtensions)
}

// frameSource yields frames one at a time. Read returns false once exhausted.
type frameSource interface {
	Read(dst *gocv.Mat) (bool, error)
	Close() error
}

type captureSource struct {
	capture *gocv.VideoCapture
}

func newCaptureSource(device interface{}) (*captureSource, error) {
	capture, err := gocv.OpenVideoCapture(device)
	if err != nil {
		return nil, errors.Wrapf(err, "open video capture %v", device)
	}
	return &captureSource{capture: capture}, nil
}

func (s *captureSource) Read(dst *gocv.Mat) (bool, error) {
	return s.capture.Read(dst), nil
}

func (s *captureSource) Close() error {
	return s.capture.Close()
}

type directorySource struct {
	frames []util.FrameFile
	next   int
}

func newDirectorySource(dir string) (*directorySource, error) {
	frames, err := util.ListFrameFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, errors.Errorf("no frame-<n> images in %s", dir)
	}
	return &directorySource{frames: frames}, nil
}

func (s *directorySource) Read(dst *gocv.Mat) (bool, error) {
	if s.next >= len(s.frames) {
		return false, nil
	}
	f := s.frames[s.next]
	s.next++

	mat, err := f.Read()
	if err != nil {
		return false, err
	}
	defer mat.Close()
	mat.CopyTo(dst)
	return true, nil
}

func (s *directorySource) Close() error { return nil }
