package publisher

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog/log"

	"bus-tracker/internal/sim"
)

// NATSPublisher fans tracking emissions and notifications out over NATS.
// It implements sim.Sink and notify.Notifier.
type NATSPublisher struct {
	nc          *nats.Conn
	prefix      string
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

func NewNATSPublisher(url, prefix string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	nc, err := nats.Connect(url,
		nats.Name("bus-tracker"),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Warn().Err(err).Msg("nats disconnected")
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(true)
			}
			log.Info().Msg("nats reconnected")
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			if m != nil {
				m.NATSSetConnected(false)
			}
			log.Info().Msg("nats closed")
		}),
	)
	if err != nil {
		return nil, err
	}
	if m != nil {
		m.NATSSetConnected(true)
	}
	return &NATSPublisher{nc: nc, prefix: subjectToken(prefix), logSubjects: logSubjects, metrics: m}, nil
}

func (p *NATSPublisher) Close() {
	if p.nc != nil {
		p.nc.Drain()
		p.nc.Close()
	}
}

type PositionMessage struct {
	BusID     string    `json:"busId"`
	Timestamp time.Time `json:"timestamp"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	Heading   float64   `json:"heading"`
}

type StatusMessage struct {
	BusID            string    `json:"busId"`
	NextStop         string    `json:"nextStop"`
	EstimatedArrival string    `json:"estimatedArrival"`
	Speed            int       `json:"speed"`
	Distance         string    `json:"distance"`
	LastUpdated      time.Time `json:"lastUpdated"`
}

type NotificationMessage struct {
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func (p *NATSPublisher) PublishPosition(busID string, pos sim.Position) error {
	return p.publish(PositionSubject(p.prefix, busID), PositionMessage{
		BusID:     busID,
		Timestamp: time.Now().UTC(),
		Lat:       pos.Lat,
		Lng:       pos.Lng,
		Heading:   pos.Heading,
	})
}

func (p *NATSPublisher) PublishStatus(busID string, st sim.TrackingStatus) error {
	return p.publish(StatusSubject(p.prefix, busID), StatusMessage{
		BusID:            busID,
		NextStop:         st.NextStop,
		EstimatedArrival: st.EstimatedArrival,
		Speed:            st.Speed,
		Distance:         st.Distance,
		LastUpdated:      st.LastUpdated,
	})
}

// Notify publishes a notification; failures are logged, never returned.
func (p *NATSPublisher) Notify(title, description string) {
	msg := NotificationMessage{Title: title, Description: description, Timestamp: time.Now().UTC()}
	if err := p.publish(NotificationSubject(p.prefix), msg); err != nil {
		log.Warn().Err(err).Str("title", title).Msg("publish notification")
	}
}

func (p *NATSPublisher) publish(subject string, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if p.logSubjects {
		log.Debug().Str("subject", subject).Msg("nats publish")
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

func PositionSubject(prefix, busID string) string {
	return subjectToken(prefix) + "." + subjectToken(busID) + ".position"
}

func StatusSubject(prefix, busID string) string {
	return subjectToken(prefix) + "." + subjectToken(busID) + ".status"
}

func NotificationSubject(prefix string) string {
	return subjectToken(prefix) + ".notifications"
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
