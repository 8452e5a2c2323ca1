package alert

import "go.uber.org/zap"

// Sink receives alert events. Alert is fire-and-forget: implementations must
// not block frame processing and report their own failures.
type Sink interface {
	Alert(Event)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Event)

// Alert calls f(ev).
func (f SinkFunc) Alert(ev Event) { f(ev) }

// NopSink drops every event.
type NopSink struct{}

// Alert does nothing.
func (NopSink) Alert(Event) {}

// MultiSink fans each event out to every sink, in order.
type MultiSink []Sink

// Alert forwards ev to all sinks.
func (m MultiSink) Alert(ev Event) {
	for _, s := range m {
		s.Alert(ev)
	}
}

// LogSink writes events to a zap logger. It stands in for the tone generator
// when no audio device is attached.
type LogSink struct {
	log *zap.SugaredLogger
}

// NewLogSink returns a sink logging at warn level.
func NewLogSink(log *zap.SugaredLogger) *LogSink {
	return &LogSink{log: log}
}

// Alert logs ev.
func (s *LogSink) Alert(ev Event) {
	s.log.Warnw("alert",
		"kind", ev.Kind.String(),
		"session", ev.Session,
		"frame", ev.Frame,
		"tone", ev.Duration,
	)
}
