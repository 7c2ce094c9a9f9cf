package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	Policies prometheus.Gauge
	Actions  *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Policies: f.NewGauge(prometheus.GaugeOpts{
			Name: "idsim_rp_request_policies",
			Help: "Request policies held for requests not yet closed or timed out",
		}),
		Actions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "idsim_rp_policy_actions_total",
			Help: "Automatic actions triggered by status updates, by action and outcome",
		}, []string{"action", "outcome"}),
	}
}

func (m *Metrics) PolicyStored() {
	if m != nil {
		m.Policies.Inc()
	}
}

func (m *Metrics) PolicyDisposed() {
	if m != nil {
		m.Policies.Dec()
	}
}

func (m *Metrics) SetPolicies(n int) {
	if m != nil {
		m.Policies.Set(float64(n))
	}
}

func (m *Metrics) IncrementAction(action string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Actions.WithLabelValues(action, outcome).Inc()
}
