package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the process-wide HTTP and deferred task metrics. Domain
// packages register their own collectors against the same Registerer.
type Metrics struct {
	HTTPDuration  *prometheus.HistogramVec
	DeferredTasks *prometheus.CounterVec
	DeferredLive  prometheus.Gauge
}

// New creates and registers the platform metrics on reg.
func New(reg prometheus.Registerer, participant string) *Metrics {
	f := promauto.With(reg)
	labels := prometheus.Labels{"participant": participant}
	return &Metrics{
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:        "idsim_http_request_duration_seconds",
			Help:        "Duration of HTTP requests by method, route and status",
			ConstLabels: labels,
			Buckets:     []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		}, []string{"method", "route", "status"}),
		DeferredTasks: f.NewCounterVec(prometheus.CounterOpts{
			Name:        "idsim_deferred_tasks_total",
			Help:        "Deferred tasks finished, by task name and outcome",
			ConstLabels: labels,
		}, []string{"task", "outcome"}),
		DeferredLive: f.NewGauge(prometheus.GaugeOpts{
			Name:        "idsim_deferred_tasks_in_flight",
			Help:        "Deferred tasks currently running",
			ConstLabels: labels,
		}),
	}
}

// ObserveHTTPRequest records one request duration.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}

// TaskStarted increments the in-flight gauge.
func (m *Metrics) TaskStarted() {
	if m != nil {
		m.DeferredLive.Inc()
	}
}

// TaskFinished decrements the in-flight gauge and counts the outcome.
func (m *Metrics) TaskFinished(task string, err error) {
	if m == nil {
		return
	}
	m.DeferredLive.Dec()
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.DeferredTasks.WithLabelValues(task, outcome).Inc()
}
