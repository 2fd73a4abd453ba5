package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"marguerite.stanford.edu/internal/logging"
	"marguerite.stanford.edu/internal/realtime"
)

const (
	SubjectPrefix  = "marguerite.shuttles"
	RemovedSubject = SubjectPrefix + ".removed"
)

// Conn is the part of *nats.Conn the publisher uses.
type Conn interface {
	Publish(subject string, data []byte) error
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// NATSPublisher mirrors every applied poll cycle onto NATS subjects.
type NATSPublisher struct {
	conn    Conn
	nc      *nats.Conn
	logger  *slog.Logger
	metrics PublisherMetrics
}

func NewNATSPublisher(url string, logger *slog.Logger, m PublisherMetrics) (*NATSPublisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logging.Component(logger, "nats_publisher")

	nc, err := nats.Connect(url,
		nats.Name("marguerite"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logging.LogOperation(logger, "nats_disconnected", slog.Any("error", err))
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			logging.LogOperation(logger, "nats_reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			logging.LogOperation(logger, "nats_closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}

	p := NewPublisher(nc, logger, m)
	p.nc = nc
	return p, nil
}

// NewPublisher publishes on an existing connection.
func NewPublisher(conn Conn, logger *slog.Logger, m PublisherMetrics) *NATSPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &NATSPublisher{conn: conn, logger: logger, metrics: m}
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		if err := p.nc.Drain(); err != nil {
			logging.LogError(p.logger, "nats_drain_failed", err)
		}
		p.nc.Close()
	}
}

type RemovedMessage struct {
	Title     string    `json:"title"`
	Timestamp time.Time `json:"timestamp"`
}

// PublishChanges sends each active shuttle on its route and vehicle subject
// and each removed title on RemovedSubject.
func (p *NATSPublisher) PublishChanges(ctx context.Context, shuttles []realtime.Shuttle, changes realtime.Changes) error {
	var errs []error

	for _, s := range shuttles {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := p.publishJSON(ShuttleSubject(s), s); err != nil {
			errs = append(errs, err)
		}
	}

	now := time.Now()
	for _, title := range changes.Removed {
		if err := ctx.Err(); err != nil {
			return errors.Join(append(errs, err)...)
		}
		if err := p.publishJSON(RemovedSubject, RemovedMessage{Title: title, Timestamp: now}); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (p *NATSPublisher) publishJSON(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}

	start := time.Now()
	err = p.conn.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	if err != nil {
		logging.LogError(p.logger, "nats_publish_failed", err, slog.String("subject", subject))
	}
	return err
}

// ShuttleSubject is marguerite.shuttles.<route short name>.<vehicle id>.
func ShuttleSubject(s realtime.Shuttle) string {
	return SubjectPrefix + "." + subjectToken(s.Route.ShortName) + "." + subjectToken(s.VehicleID)
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// NATS token cannot contain spaces, '>', '*', or trailing '.'
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
