package monitoring

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Poll fallback metrics
	pollFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediq_poll_fetches_total",
			Help: "Total number of poll fallback fetches",
		},
		[]string{"slice", "outcome", "view"},
	)

	// Push channel metrics
	pushEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediq_push_events_total",
			Help: "Total number of push events received",
		},
		[]string{"topic"},
	)

	pushReconnectsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "mediq_push_reconnects_total",
			Help: "Total number of push channel reconnect attempts",
		},
	)

	pushConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mediq_push_connected",
			Help: "Whether the push channel is currently connected (1 or 0)",
		},
	)

	// Command layer metrics
	commandsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mediq_commands_total",
			Help: "Total number of dispatched commands",
		},
		[]string{"entity", "action", "outcome"},
	)

	commandDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "mediq_command_duration_seconds",
			Help:    "Duration of command round trips in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
		},
		[]string{"entity", "action"},
	)

	// Canonical state metrics
	canonicalEntities = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "mediq_canonical_entities",
			Help: "Number of entities currently held in canonical state",
		},
		[]string{"kind", "view"},
	)
)

var registerOnce sync.Once

// MetricsCollector handles Prometheus metrics collection for one view
type MetricsCollector struct {
	view string
}

// NewMetricsCollector creates a new metrics collector
func NewMetricsCollector(view string) *MetricsCollector {
	// Register metrics once per process
	registerOnce.Do(func() {
		prometheus.MustRegister(
			pollFetchesTotal,
			pushEventsTotal,
			pushReconnectsTotal,
			pushConnected,
			commandsTotal,
			commandDuration,
			canonicalEntities,
		)
	})

	return &MetricsCollector{view: view}
}

// RecordPollFetch records the outcome of one poll fetch for one slice
func (m *MetricsCollector) RecordPollFetch(slice, outcome string) {
	pollFetchesTotal.WithLabelValues(slice, outcome, m.view).Inc()
}

// RecordPushEvent records a delivered push event
func (m *MetricsCollector) RecordPushEvent(topic string) {
	pushEventsTotal.WithLabelValues(topic).Inc()
}

// RecordReconnectAttempt records a push channel reconnect attempt
func (m *MetricsCollector) RecordReconnectAttempt() {
	pushReconnectsTotal.Inc()
}

// SetConnected records the push channel connection state
func (m *MetricsCollector) SetConnected(connected bool) {
	if connected {
		pushConnected.Set(1)
	} else {
		pushConnected.Set(0)
	}
}

// RecordCommand records a command dispatch outcome and its duration
func (m *MetricsCollector) RecordCommand(entity, action, outcome string, duration time.Duration) {
	commandsTotal.WithLabelValues(entity, action, outcome).Inc()
	commandDuration.WithLabelValues(entity, action).Observe(duration.Seconds())
}

// SetCanonicalCount records the size of one canonical state slice
func (m *MetricsCollector) SetCanonicalCount(kind string, count int) {
	canonicalEntities.WithLabelValues(kind, m.view).Set(float64(count))
}

// Handler returns the Prometheus metrics HTTP handler
func (m *MetricsCollector) Handler() http.Handler {
	return promhttp.Handler()
}
