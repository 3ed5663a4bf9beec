package daemon

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Cycle outcomes recorded by Metrics.
const (
	outcomeOK      = "ok"
	outcomeSkipped = "skipped"
	outcomeFailed  = "failed"
)

// Metrics holds operational metrics of the scheduling loop. Compliance
// metrics are exported by the Prometheus publisher.
type Metrics struct {
	cycles   *prometheus.CounterVec
	duration prometheus.Histogram
}

// NewMetrics creates the loop metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		cycles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "secmon_daemon_cycles_total",
			Help: "Scheduled check cycles, by outcome.",
		}, []string{"outcome"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "secmon_daemon_cycle_duration_seconds",
			Help:    "Wall time of scheduled check cycles.",
			Buckets: prometheus.ExponentialBuckets(1, 2, 10),
		}),
	}
	for _, c := range []prometheus.Collector{m.cycles, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register daemon metric: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) observe(outcome string, seconds float64) {
	m.cycles.WithLabelValues(outcome).Inc()
	m.duration.Observe(seconds)
}
