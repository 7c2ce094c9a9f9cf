package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Pending      prometheus.Gauge
	Begun        *prometheus.CounterVec
	Ended        *prometheus.CounterVec
	AwaitRetries prometheus.Counter
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Pending: f.NewGauge(prometheus.GaugeOpts{
			Name: "idsim_correlation_pending_operations",
			Help: "Pending operations awaiting a terminal callback",
		}),
		Begun: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idsim_correlation_operations_begun_total",
			Help: "Pending operations recorded, by kind",
		}, []string{"kind"}),
		Ended: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idsim_correlation_operations_ended_total",
			Help: "Pending operations removed, by kind",
		}, []string{"kind"}),
		AwaitRetries: f.NewCounter(prometheus.CounterOpts{
			Name: "idsim_correlation_await_retries_total",
			Help: "Lookups retried because a callback arrived before its record",
		}),
	}
}

func (m *Metrics) IncrementBegun(kind string) {
	if m == nil {
		return
	}
	m.Begun.WithLabelValues(kind).Inc()
	m.Pending.Inc()
}

func (m *Metrics) IncrementEnded(kind string) {
	if m == nil {
		return
	}
	m.Ended.WithLabelValues(kind).Inc()
	m.Pending.Dec()
}

func (m *Metrics) IncrementAwaitRetries() {
	if m != nil {
		m.AwaitRetries.Inc()
	}
}

func (m *Metrics) SetPending(n int) {
	if m != nil {
		m.Pending.Set(float64(n))
	}
}
