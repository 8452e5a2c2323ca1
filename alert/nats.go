package alert

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// DefaultSubject is the subject prefix tone requests are published under.
const DefaultSubject = "laserrange.alerts"

// Publisher is the subset of *nats.Conn used by NATSSink.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// toneRequest is the JSON payload consumed by the alert device.
type toneRequest struct {
	Kind       Kind      `json:"kind"`
	Session    string    `json:"session"`
	Frame      uint64    `json:"frame"`
	DurationMs int64     `json:"duration_ms"`
	Time       time.Time `json:"time"`
}

// NATSSink publishes each event as a tone request on <subject>.<kind>.
type NATSSink struct {
	pub     Publisher
	subject string
	log     *zap.SugaredLogger
	mu      sync.Mutex
	failed  uint64
}

// NewNATSSink creates a sink publishing through pub.
//
// Arguments:
//   - pub: Usually a *nats.Conn.
//   - subject: Subject prefix; DefaultSubject when empty.
//   - log: Logger for publish failures.
//
// Returns:
//   - *NATSSink: The sink.
func NewNATSSink(pub Publisher, subject string, log *zap.SugaredLogger) *NATSSink {
	if subject == "" {
		subject = DefaultSubject
	}
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &NATSSink{pub: pub, subject: subject, log: log}
}

// Alert publishes ev. Failures are logged and counted, never returned.
func (s *NATSSink) Alert(ev Event) {
	data, err := json.Marshal(toneRequest{
		Kind:       ev.Kind,
		Session:    ev.Session,
		Frame:      ev.Frame,
		DurationMs: ev.Duration.Milliseconds(),
		Time:       ev.Time,
	})
	if err == nil {
		err = s.pub.Publish(s.subject+"."+ev.Kind.String(), data)
	}
	if err != nil {
		s.mu.Lock()
		s.failed++
		s.mu.Unlock()
		s.log.Warnw("failed to publish alert", "kind", ev.Kind.String(), "error", err)
	}
}

// Failed returns the number of events that could not be published.
func (s *NATSSink) Failed() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.failed
}

// ConnectNATS dials a NATS server with unlimited reconnects.
//
// Arguments:
//   - url: Server URL, e.g. nats://127.0.0.1:4222.
//   - log: Logger for connection state changes.
//
// Returns:
//   - *nats.Conn: The connection. Close it on shutdown.
//   - error: An error if the initial connect fails.
func ConnectNATS(url string, log *zap.SugaredLogger) (*nats.Conn, error) {
	opts := []nats.Option{
		nats.Name("laserrange-alerts"),
		nats.ReconnectWait(2 * time.Second),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			log.Warnw("nats disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Infow("nats reconnected", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			log.Info("nats connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to nats at %s", url)
	}
	log.Infow("nats connected", "url", url)
	return nc, nil
}
