package metrics

import (
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

type Collector struct {
	reg *prometheus.Registry

	ActiveSessions prometheus.Gauge

	SessionsStarted prometheus.Counter
	SessionsStopped prometheus.Counter
	LookupMisses    prometheus.Counter
	ManualRefreshes prometheus.Counter

	Ticks *prometheus.CounterVec // kind label: position|status

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge

	TickDuration    *prometheus.HistogramVec
	PublishDuration prometheus.Histogram

	PositionInterval prometheus.Gauge // seconds
	StatusInterval   prometheus.Gauge // seconds
}

func NewCollector(positionInterval, statusInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bustracker_active_sessions",
			Help: "Number of tracking sessions with running simulators.",
		}),
		SessionsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustracker_sessions_started_total",
			Help: "Total tracking sessions started.",
		}),
		SessionsStopped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustracker_sessions_stopped_total",
			Help: "Total tracking sessions torn down.",
		}),
		LookupMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustracker_lookup_misses_total",
			Help: "Tracking requests for unknown bus identifiers.",
		}),
		ManualRefreshes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustracker_manual_refreshes_total",
			Help: "Total user-initiated ETA refreshes.",
		}),
		Ticks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "bustracker_ticks_total",
			Help: "Simulator ticks by kind.",
		}, []string{"kind"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustracker_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "bustracker_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bustracker_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		TickDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bustracker_tick_duration_seconds",
			Help:    "Duration of simulator tick computations including listeners.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
		}, []string{"kind"}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "bustracker_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		PositionInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bustracker_position_interval_seconds",
			Help: "Position simulator tick interval in seconds.",
		}),
		StatusInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "bustracker_status_interval_seconds",
			Help: "Status simulator tick interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.ActiveSessions,
		c.SessionsStarted, c.SessionsStopped, c.LookupMisses, c.ManualRefreshes,
		c.Ticks,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected,
		c.TickDuration, c.PublishDuration,
		c.PositionInterval, c.StatusInterval,
	)

	c.PositionInterval.Set(positionInterval.Seconds())
	c.StatusInterval.Set(statusInterval.Seconds())

	return c
}

func (c *Collector) Registry() *prometheus.Registry { return c.reg }

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()
	log.Info().Str("addr", addr).Msg("metrics listening")
	return srv
}

// The methods below let a nil *Collector be passed around when metrics are disabled.

func (c *Collector) SessionStarted(active int) {
	if c == nil {
		return
	}
	c.SessionsStarted.Inc()
	c.ActiveSessions.Set(float64(active))
}

func (c *Collector) SessionStopped(active int) {
	if c == nil {
		return
	}
	c.SessionsStopped.Inc()
	c.ActiveSessions.Set(float64(active))
}

func (c *Collector) LookupMiss() {
	if c == nil {
		return
	}
	c.LookupMisses.Inc()
}

func (c *Collector) Refreshed() {
	if c == nil {
		return
	}
	c.ManualRefreshes.Inc()
}

func (c *Collector) Tick(kind string, took time.Duration) {
	if c == nil {
		return
	}
	c.Ticks.WithLabelValues(kind).Inc()
	c.TickDuration.WithLabelValues(kind).Observe(took.Seconds())
}
