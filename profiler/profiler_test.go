package profiler

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// MockCollector returns fixed metrics and counts how often it was polled.
type MockCollector struct {
	mu      sync.Mutex
	metrics map[string]float64
	calls   int
}

func (m *MockCollector) CollectMetrics() map[string]float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	return m.metrics
}

func (m *MockCollector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func TestRecordMetricSummary(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{MaxSamples: 3})

	for _, v := range []float64{10, 20, 30, 40} {
		rp.RecordMetric("distance_cm", v)
	}

	metrics, _ := rp.GetCurrentStats()
	s, ok := metrics["distance_cm"]
	require.True(t, ok)
	assert.Equal(t, 3, s.Samples)
	assert.Equal(t, int64(4), s.Count)
	assert.InDelta(t, 30.0, s.Avg, 1e-9)
	assert.Equal(t, 20.0, s.Min)
	assert.Equal(t, 40.0, s.Max)
}

func TestStartOperation(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})

	done := rp.StartOperation("process_frame")
	time.Sleep(2 * time.Millisecond)
	done()
	rp.StartOperation("process_frame")()

	_, operations := rp.GetCurrentStats()
	s, ok := operations["process_frame"]
	require.True(t, ok)
	assert.Equal(t, int64(2), s.Count)
	assert.GreaterOrEqual(t, s.Max, 2.0)
	assert.LessOrEqual(t, s.Min, s.Max)
}

func TestSamplePollsCollectors(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{})
	collector := &MockCollector{metrics: map[string]float64{"frames": 12, "alerts_proximity": 1}}
	rp.AddMetricsCollector(collector)

	rp.Sample()
	rp.Sample()

	metrics, _ := rp.GetCurrentStats()
	assert.Equal(t, 2, collector.Calls())
	assert.Equal(t, 12.0, metrics["frames"].Avg)
	assert.Equal(t, 2, metrics["alerts_proximity"].Samples)
	assert.Contains(t, metrics, "goroutines")
}

func TestReportLogs(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	rp := NewRuntimeProfiler(ProfilingOptions{Logger: zap.New(core).Sugar()})

	rp.RecordMetric("last_average_cm", 140)
	rp.StartOperation("process_frame")()
	rp.Report()

	assert.Equal(t, 1, logs.FilterMessage("runtime status").Len())
	metric := logs.FilterMessage("metric").All()
	require.Len(t, metric, 1)
	assert.Equal(t, "last_average_cm", metric[0].ContextMap()["name"])
	assert.Equal(t, 1, logs.FilterMessage("operation").Len())
}

func TestStartStop(t *testing.T) {
	rp := NewRuntimeProfiler(ProfilingOptions{
		SampleInterval: time.Millisecond,
		ReportInterval: time.Hour,
	})
	collector := &MockCollector{metrics: map[string]float64{"frames": 1}}
	rp.AddMetricsCollector(collector)

	rp.Start()
	rp.Start()
	assert.Eventually(t, func() bool { return collector.Calls() >= 2 }, time.Second, time.Millisecond)
	rp.Stop()
	rp.Stop()

	calls := collector.Calls()
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, calls, collector.Calls())
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		in       uint64
		expected string
	}{
		{512, "512 B"},
		{2048, "2.0 KB"},
		{5 * 1024 * 1024, "5.0 MB"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, formatBytes(tt.in))
	}
}
