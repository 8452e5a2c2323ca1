// Package profiler samples runtime and pipeline metrics in the background and
// logs a periodic status report.
package profiler

import (
	"context"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/nvr-ai/go-laserrange/window"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// MetricsCollector defines the interface for collecting custom metrics.
type MetricsCollector interface {
	CollectMetrics() map[string]float64
}

// ProfilingOptions configures the runtime profiler.
type ProfilingOptions struct {
	// ReportInterval specifies how often to log status reports (default: 10s)
	ReportInterval time.Duration
	// SampleInterval specifies how often collectors are polled (default: 500ms)
	SampleInterval time.Duration
	// MaxSamples specifies how many samples each metric keeps (default: 120)
	MaxSamples int
	// Logger receives the reports. Defaults to a no-op logger.
	Logger *zap.SugaredLogger
}

// Summary aggregates the retained samples of one metric or operation.
type Summary struct {
	Avg     float64 `json:"avg"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Samples int     `json:"samples"`
	Count   int64   `json:"count"`
}

type tracker struct {
	samples *window.Ring
	count   int64
}

func (t *tracker) summary() Summary {
	values := t.samples.Values()
	if len(values) == 0 {
		return Summary{Count: t.count}
	}
	return Summary{
		Avg:     stat.Mean(values, nil),
		Min:     floats.Min(values),
		Max:     floats.Max(values),
		Samples: len(values),
		Count:   t.count,
	}
}

// RuntimeProfiler tracks goroutines, memory, custom metrics and operation
// timings. It is safe for concurrent use.
type RuntimeProfiler struct {
	reportInterval time.Duration
	sampleInterval time.Duration
	maxSamples     int
	log            *zap.SugaredLogger

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	mu      sync.Mutex
	running bool
	started time.Time

	memStats    runtime.MemStats
	lastGCCount uint32
	collectors  []MetricsCollector
	metrics     map[string]*tracker
	operations  map[string]*tracker
}

// NewRuntimeProfiler creates a new runtime profiler with the specified options.
//
// Arguments:
// - opts: Configuration options for the profiler
//
// Returns:
// - A configured RuntimeProfiler instance
func NewRuntimeProfiler(opts ProfilingOptions) *RuntimeProfiler {
	if opts.ReportInterval <= 0 {
		opts.ReportInterval = 10 * time.Second
	}
	if opts.SampleInterval <= 0 {
		opts.SampleInterval = 500 * time.Millisecond
	}
	if opts.MaxSamples <= 0 {
		opts.MaxSamples = 120
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop().Sugar()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &RuntimeProfiler{
		reportInterval: opts.ReportInterval,
		sampleInterval: opts.SampleInterval,
		maxSamples:     opts.MaxSamples,
		log:            opts.Logger,
		ctx:            ctx,
		cancel:         cancel,
		started:        time.Now(),
		metrics:        make(map[string]*tracker),
		operations:     make(map[string]*tracker),
	}
}

// Start launches the sampling and reporting goroutines. Calling it twice is a no-op.
func (rp *RuntimeProfiler) Start() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	if rp.running {
		return
	}
	rp.running = true
	rp.started = time.Now()

	rp.wg.Add(2)
	go rp.loop(rp.sampleInterval, rp.Sample)
	go rp.loop(rp.reportInterval, rp.Report)
}

// Stop cancels the background goroutines and waits for them to exit.
func (rp *RuntimeProfiler) Stop() {
	rp.mu.Lock()
	if !rp.running {
		rp.mu.Unlock()
		return
	}
	rp.running = false
	rp.mu.Unlock()

	rp.cancel()
	rp.wg.Wait()
}

func (rp *RuntimeProfiler) loop(interval time.Duration, fn func()) {
	defer rp.wg.Done()

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-rp.ctx.Done():
			return
		case <-ticker.C:
			fn()
		}
	}
}

// AddMetricsCollector registers a collector polled on every sample.
//
// Arguments:
// - collector: An implementation of MetricsCollector interface
func (rp *RuntimeProfiler) AddMetricsCollector(collector MetricsCollector) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.collectors = append(rp.collectors, collector)
}

// RecordMetric records a custom metric value.
//
// Arguments:
// - name: The name of the metric
// - value: The metric value to record
func (rp *RuntimeProfiler) RecordMetric(name string, value float64) {
	rp.mu.Lock()
	defer rp.mu.Unlock()
	rp.record(rp.metrics, name, value)
}

// StartOperation begins timing an operation.
//
// Arguments:
// - name: The name of the operation to track
//
// Returns:
// - A function to call when the operation completes
//
// @example
// done := prof.StartOperation("process_frame")
// result, err := p.ProcessFrame(&frame)
// done()
func (rp *RuntimeProfiler) StartOperation(name string) func() {
	start := time.Now()
	return func() {
		ms := float64(time.Since(start).Microseconds()) / 1000.0
		rp.mu.Lock()
		defer rp.mu.Unlock()
		rp.record(rp.operations, name, ms)
	}
}

// record must be called with rp.mu held.
func (rp *RuntimeProfiler) record(set map[string]*tracker, name string, value float64) {
	t, ok := set[name]
	if !ok {
		t = &tracker{samples: window.NewRing(rp.maxSamples)}
		set[name] = t
	}
	t.samples.Push(value)
	t.count++
}

// Sample reads memory statistics and polls every registered collector once.
func (rp *RuntimeProfiler) Sample() {
	rp.mu.Lock()
	collectors := append([]MetricsCollector(nil), rp.collectors...)
	rp.mu.Unlock()

	// Collectors take their own locks; poll them without holding ours.
	collected := make([]map[string]float64, 0, len(collectors))
	for _, c := range collectors {
		collected = append(collected, c.CollectMetrics())
	}

	rp.mu.Lock()
	defer rp.mu.Unlock()

	runtime.ReadMemStats(&rp.memStats)
	rp.record(rp.metrics, "goroutines", float64(runtime.NumGoroutine()))
	for _, m := range collected {
		for name, value := range m {
			rp.record(rp.metrics, name, value)
		}
	}
}

// Report logs the current status at info level.
func (rp *RuntimeProfiler) Report() {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	fields := []interface{}{
		"uptime", time.Since(rp.started).Truncate(time.Millisecond),
		"goroutines", runtime.NumGoroutine(),
		"cgo_calls", runtime.NumCgoCall(),
		"heap_alloc", formatBytes(rp.memStats.HeapAlloc),
		"sys", formatBytes(rp.memStats.Sys),
	}
	if rp.memStats.NumGC > rp.lastGCCount {
		fields = append(fields, "gc_new", rp.memStats.NumGC-rp.lastGCCount)
		rp.lastGCCount = rp.memStats.NumGC
	}
	rp.log.Infow("runtime status", fields...)

	for _, name := range sortedKeys(rp.metrics) {
		s := rp.metrics[name].summary()
		rp.log.Infow("metric", "name", name, "avg", s.Avg, "min", s.Min, "max", s.Max, "samples", s.Samples)
	}
	for _, name := range sortedKeys(rp.operations) {
		s := rp.operations[name].summary()
		rp.log.Infow("operation", "name", name, "avg_ms", s.Avg, "min_ms", s.Min, "max_ms", s.Max, "count", s.Count)
	}
}

// GetCurrentStats returns summaries of every custom metric and operation.
//
// Returns:
// - Metric summaries keyed by name
// - Operation summaries keyed by name, in milliseconds
func (rp *RuntimeProfiler) GetCurrentStats() (map[string]Summary, map[string]Summary) {
	rp.mu.Lock()
	defer rp.mu.Unlock()

	metrics := make(map[string]Summary, len(rp.metrics))
	for name, t := range rp.metrics {
		metrics[name] = t.summary()
	}
	operations := make(map[string]Summary, len(rp.operations))
	for name, t := range rp.operations {
		operations[name] = t.summary()
	}
	return metrics, operations
}

func sortedKeys(m map[string]*tracker) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// formatBytes formats byte counts in human-readable format.
func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
