// Package pipeline turns camera frames into laser distance measurements and
// proximity / pothole alerts.
//
// Each frame runs synchronously through:
//
//	frame → ROI → HSV mask → contours → blobs
//	     → per blob: distance → windows → alert policy → overlay + events
//
// The smoothing and pothole windows are the only state carried across frames.
// They belong to one Pipeline, so every camera stream needs its own instance.
package pipeline

import (
	"fmt"
	"image"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nvr-ai/go-laserrange/alert"
	"github.com/nvr-ai/go-laserrange/distance"
	"github.com/nvr-ai/go-laserrange/geometry"
	"github.com/nvr-ai/go-laserrange/window"
	"github.com/pkg/errors"
	"go.uber.org/zap"
	"gocv.io/x/gocv"
)

var (
	// ErrEmptyFrame is returned for nil or empty frames.
	ErrEmptyFrame = errors.New("empty frame")
	// ErrFrameTooSmall is returned when the frame cannot contain the ROI.
	ErrFrameTooSmall = errors.New("frame smaller than region of interest")
	// ErrUnsupportedFrame is returned for frames that are not 3-channel.
	ErrUnsupportedFrame = errors.New("frame must have 3 channels")
)

// Measurement is the outcome of one accepted blob.
type Measurement struct {
	// Blob is the geometry in ROI-local coordinates.
	Blob geometry.Blob
	// Center is the blob center in frame coordinates.
	Center image.Point
	// DistanceCm is the raw distance for this blob.
	DistanceCm float64
	// AverageCm is the smoothing window mean after this sample was pushed.
	AverageCm float64
	// SpreadCm is max-min of the pothole window after this sample was pushed.
	SpreadCm float64
	// Drop reports whether the pothole detector fired for this sample.
	Drop bool
}

// Result describes what one ProcessFrame call did.
type Result struct {
	Frame        uint64
	ROI          image.Rectangle
	Measurements []Measurement
	Alerts       []alert.Event
}

// State is a snapshot of the pipeline's cross-frame state.
type State struct {
	Session   string
	Frames    uint64
	Smoothing []float64
	Pothole   []float64
}

// Segmenter finds accepted laser blobs inside a frame region.
type Segmenter interface {
	Extract(frame gocv.Mat, roi image.Rectangle) ([]geometry.Blob, error)
	Mask() gocv.Mat
	Close()
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithSink delivers alert events to s as soon as they are raised.
func WithSink(s alert.Sink) Option {
	return func(p *Pipeline) { p.sink = s }
}

// WithLogger sets the logger.
func WithLogger(l *zap.SugaredLogger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithSegmenter replaces the HSV extractor built from the config.
func WithSegmenter(s Segmenter) Option {
	return func(p *Pipeline) { p.segmenter = s }
}

// WithOverlay replaces the OpenCV overlay.
func WithOverlay(o Overlay) Option {
	return func(p *Pipeline) { p.overlay = o }
}

// Pipeline is the per-stream frame processor.
type Pipeline struct {
	config    Config
	segmenter Segmenter
	estimator distance.Estimator
	smoothing *window.Smoothing
	pothole   *window.PotholeDetector
	policy    alert.Policy
	overlay   Overlay
	sink      alert.Sink
	log       *zap.SugaredLogger

	mu      sync.Mutex
	session string
	frames  uint64
	stats   stats
}

type stats struct {
	frames         uint64
	blobs          uint64
	skipped        uint64
	samples        uint64
	proximity      uint64
	potholes       uint64
	lastFrameTime  time.Duration
	lastAverageCm  float64
	lastDistanceCm float64
}

// New creates a pipeline for one camera stream.
//
// Arguments:
//   - config: Pipeline configuration, validated here.
//   - opts: Optional sink, logger, segmenter and overlay.
//
// Returns:
//   - *Pipeline: The pipeline. Always call Close().
//   - error: An error if the configuration is invalid.
//
// @example
// p, err := pipeline.New(pipeline.DefaultConfig(), pipeline.WithSink(alert.NewLogSink(log)))
// if err != nil {
//     return err
// }
// defer p.Close()
// result, err := p.ProcessFrame(&frame)
func New(config Config, opts ...Option) (*Pipeline, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid pipeline config")
	}

	p := &Pipeline{
		config:    config,
		estimator: distance.NewEstimator(config.FocalLengthPx, config.LaserRadiusCm),
		smoothing: window.NewSmoothing(config.SmoothingWindowSize),
		pothole:   window.NewPotholeDetector(config.PotholeWindowSize, config.PotholeDropThresholdCm),
		policy:    alert.Policy{ProximityThresholdCm: config.ProximityThresholdCm},
		session:   uuid.NewString(),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.log == nil {
		p.log = zap.NewNop().Sugar()
	}
	if p.segmenter == nil {
		p.segmenter = geometry.NewExtractor(geometry.Config{
			Color:   config.Color,
			Order:   config.ColorOrder,
			MinArea: config.Area.Min,
			MaxArea: config.Area.Max,
		})
	}
	if p.sink == nil {
		p.sink = alert.NopSink{}
	}
	if p.overlay == nil {
		if config.Overlay.Enabled {
			p.overlay = NewOverlay(config.Overlay.RotateText)
		} else {
			p.overlay = nopOverlay{}
		}
	}

	return p, nil
}

// ProcessFrame measures every accepted laser dot in frame, annotates frame in
// place and emits the resulting alerts.
//
// Each accepted blob is handled independently and pushes one sample to both
// windows, so two dots in one frame advance the windows twice. A frame without
// accepted blobs is returned untouched and leaves the windows unchanged.
//
// Arguments:
//   - frame: 3-channel frame at least as large as the ROI.
//
// Returns:
//   - Result: Measurements and alerts for this frame.
//   - error: ErrEmptyFrame, ErrFrameTooSmall or ErrUnsupportedFrame (wrapped), or a segmentation failure.
func (p *Pipeline) ProcessFrame(frame *gocv.Mat) (Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	start := time.Now()

	if frame == nil || frame.Empty() {
		return Result{}, ErrEmptyFrame
	}
	if frame.Cols() < p.config.ROI.Width || frame.Rows() < p.config.ROI.Height {
		return Result{}, errors.Wrapf(ErrFrameTooSmall, "frame %dx%d, roi %dx%d",
			frame.Cols(), frame.Rows(), p.config.ROI.Width, p.config.ROI.Height)
	}
	if frame.Channels() != 3 {
		return Result{}, errors.Wrapf(ErrUnsupportedFrame, "got %d channels", frame.Channels())
	}

	p.frames++
	result := Result{
		Frame: p.frames,
		ROI:   geometry.CenteredROI(frame.Cols(), frame.Rows(), p.config.ROI.Width, p.config.ROI.Height),
	}

	blobs, err := p.segmenter.Extract(*frame, result.ROI)
	if err != nil {
		return result, errors.Wrapf(err, "segment frame %d", p.frames)
	}

	labelOrigin := image.Pt(frame.Cols()/2-100, frame.Rows()/2-75)

	for _, blob := range blobs {
		p.stats.blobs++

		cm, ok := p.estimator.Distance(blob.Radius)
		if !ok {
			p.stats.skipped++
			p.log.Debugw("skipping degenerate blob", "frame", p.frames, "radius", blob.Radius)
			continue
		}

		p.smoothing.Push(cm)
		p.pothole.Push(cm)
		p.stats.samples++

		m := Measurement{
			Blob:       blob,
			Center:     blob.Global(result.ROI),
			DistanceCm: cm,
			AverageCm:  p.smoothing.Average(),
			SpreadCm:   p.pothole.Spread(),
			Drop:       p.pothole.IsDrop(),
		}
		result.Measurements = append(result.Measurements, m)
		p.stats.lastDistanceCm = m.DistanceCm
		p.stats.lastAverageCm = m.AverageCm

		p.overlay.Circle(frame, m.Center, int(blob.Radius))
		p.overlay.Label(frame, fmt.Sprintf("Distance: %d cm", int(m.AverageCm)), labelOrigin)

		p.log.Debugw("measurement",
			"frame", p.frames,
			"radius", blob.Radius,
			"area", blob.Area,
			"distance_cm", m.DistanceCm,
			"average_cm", m.AverageCm,
			"spread_cm", m.SpreadCm,
		)

		for _, kind := range p.policy.Evaluate(m.AverageCm, m.Drop) {
			ev := alert.Event{
				Kind:     kind,
				Session:  p.session,
				Frame:    p.frames,
				Duration: p.config.Tone.For(kind),
				Time:     time.Now(),
			}
			if kind == alert.Proximity {
				p.stats.proximity++
			} else {
				p.stats.potholes++
			}
			p.sink.Alert(ev)
			result.Alerts = append(result.Alerts, ev)
		}
	}

	p.stats.frames++
	p.stats.lastFrameTime = time.Since(start)
	return result, nil
}

// Reset clears both windows and starts a new session. Call it when a camera
// session starts so history from a previous drive does not leak into the next.
func (p *Pipeline) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.smoothing.Reset()
	p.pothole.Reset()
	p.frames = 0
	p.session = uuid.NewString()
	p.log.Infow("pipeline reset", "session", p.session)
}

// Snapshot returns a copy of the cross-frame state.
func (p *Pipeline) Snapshot() State {
	p.mu.Lock()
	defer p.mu.Unlock()

	return State{
		Session:   p.session,
		Frames:    p.frames,
		Smoothing: p.smoothing.Values(),
		Pothole:   p.pothole.Values(),
	}
}

// Config returns the configuration the pipeline was built with.
func (p *Pipeline) Config() Config {
	return p.config
}

// Mask returns the ROI mask of the last processed frame. The Mat is owned by
// the pipeline and is only valid until the next ProcessFrame call.
func (p *Pipeline) Mask() gocv.Mat {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.segmenter.Mask()
}

// CollectMetrics reports counters since creation, for the runtime profiler.
func (p *Pipeline) CollectMetrics() map[string]float64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return map[string]float64{
		"frames":              float64(p.stats.frames),
		"blobs":               float64(p.stats.blobs),
		"blobs_skipped":       float64(p.stats.skipped),
		"samples":             float64(p.stats.samples),
		"alerts_proximity":    float64(p.stats.proximity),
		"alerts_pothole":      float64(p.stats.potholes),
		"frame_processing_ms": float64(p.stats.lastFrameTime.Microseconds()) / 1000.0,
		"last_distance_cm":    p.stats.lastDistanceCm,
		"last_average_cm":     p.stats.lastAverageCm,
	}
}

// Close releases native resources.
func (p *Pipeline) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.segmenter.Close()
}
