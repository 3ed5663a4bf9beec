package publisher

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// PrometheusPublisher exposes the latest report as gauges for scraping.
type PrometheusPublisher struct {
	failures *prometheus.GaugeVec
	errors   prometheus.Gauge
	verdicts *prometheus.GaugeVec
	runs     prometheus.Counter
	lastRun  prometheus.Gauge
}

// NewPrometheusPublisher creates the collectors and registers them with reg.
func NewPrometheusPublisher(reg prometheus.Registerer) (*PrometheusPublisher, error) {
	p := &PrometheusPublisher{
		failures: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "secmon_check_failures",
			Help: "FAIL verdicts in the latest check, by rule severity.",
		}, []string{"severity"}),
		errors: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "secmon_check_errors",
			Help: "ERROR verdicts in the latest check.",
		}),
		verdicts: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "secmon_check_verdicts",
			Help: "Verdicts in the latest check, by status.",
		}, []string{"status"}),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "secmon_check_runs_total",
			Help: "Completed checks.",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "secmon_check_last_run_timestamp_seconds",
			Help: "Generation time of the latest report.",
		}),
	}

	for _, c := range []prometheus.Collector{p.failures, p.errors, p.verdicts, p.runs, p.lastRun} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metric: %w", err)
		}
	}
	return p, nil
}

func (p *PrometheusPublisher) Publish(_ context.Context, report *models.Report) error {
	for _, sev := range models.Severities {
		p.failures.WithLabelValues(string(sev)).Set(float64(report.FailureCountsBySeverity[sev]))
	}
	p.errors.Set(float64(report.ErrorCount))

	p.verdicts.WithLabelValues(string(models.StatusPass)).Set(float64(report.PassCount))
	p.verdicts.WithLabelValues(string(models.StatusFail)).Set(float64(report.TotalFailures()))
	p.verdicts.WithLabelValues(string(models.StatusError)).Set(float64(report.ErrorCount))

	p.runs.Inc()
	p.lastRun.Set(float64(report.GeneratedAt.Unix()))
	return nil
}
