package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector holds the service metrics on a private registry.
type Collector struct {
	reg *prometheus.Registry

	PollCycles     *prometheus.CounterVec // result label: succeeded|failed|discarded
	PollRetries    prometheus.Counter
	CycleDuration  prometheus.Histogram
	ActiveShuttles prometheus.Gauge
	DroppedRecords *prometheus.CounterVec // reason label: bad_gps|malformed|depot|unresolved

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	PollInterval prometheus.Gauge // seconds
}

func NewCollector(pollInterval time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		PollCycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marguerite_poll_cycles_total",
			Help: "Completed shuttle poll cycles by result.",
		}, []string{"result"}),
		PollRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marguerite_poll_retries_total",
			Help: "Silent retries of a failed poll cycle.",
		}),
		CycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marguerite_poll_cycle_duration_seconds",
			Help:    "Duration of a poll cycle including retries.",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		ActiveShuttles: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marguerite_active_shuttles",
			Help: "Shuttles in the current active set.",
		}),
		DroppedRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "marguerite_dropped_records_total",
			Help: "Vehicle records dropped before reconciliation.",
		}, []string{"reason"}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marguerite_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "marguerite_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marguerite_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "marguerite_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		PollInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "marguerite_poll_interval_seconds",
			Help: "Configured poll interval in seconds.",
		}),
	}

	reg.MustRegister(
		c.PollCycles, c.PollRetries, c.CycleDuration, c.ActiveShuttles, c.DroppedRecords,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.PollInterval,
	)

	c.PollInterval.Set(pollInterval.Seconds())

	return c
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

func (c *Collector) RecordCycle(result string, d time.Duration) {
	c.PollCycles.WithLabelValues(result).Inc()
	c.CycleDuration.Observe(d.Seconds())
}

func (c *Collector) RecordRetry() { c.PollRetries.Inc() }

func (c *Collector) RecordDropped(reason string, n int) {
	if n <= 0 {
		return
	}
	c.DroppedRecords.WithLabelValues(reason).Add(float64(n))
}

func (c *Collector) SetActiveShuttles(n int) { c.ActiveShuttles.Set(float64(n)) }

func (c *Collector) NATSPublishedInc()              { c.NATSPublished.Inc() }
func (c *Collector) NATSPublishErrInc()             { c.NATSPublishErrs.Inc() }
func (c *Collector) PublishObserve(d time.Duration) { c.PublishDuration.Observe(d.Seconds()) }

func (c *Collector) NATSSetConnected(connected bool) {
	if connected {
		c.NATSConnected.Set(1)
		return
	}
	c.NATSConnected.Set(0)
}
