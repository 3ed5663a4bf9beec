// Package daemon runs check cycles on a fixed schedule and serves the
// Prometheus endpoint.
package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"syscall"
	"time"

	"github.com/oklog/run"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/harness"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// CycleRunner executes one check cycle.
type CycleRunner interface {
	RunOnce(ctx context.Context) (*models.Report, error)
}

// Config holds daemon configuration.
type Config struct {
	Interval time.Duration

	// Addr serves /metrics and /healthz. Empty disables the listener.
	Addr string

	Gatherer prometheus.Gatherer
	Metrics  *Metrics
	Logger   zerolog.Logger
}

// Daemon runs a cycle immediately and then once per interval. A skipped or
// failed cycle is logged and the next tick retries.
type Daemon struct {
	runner CycleRunner
	cfg    Config

	mu     sync.RWMutex
	health HealthStatus
}

// HealthStatus is the body of /healthz.
type HealthStatus struct {
	Status     string    `json:"status"`
	Cycles     int64     `json:"cycles"`
	LastRun    time.Time `json:"last_run,omitempty"`
	LastReport string    `json:"last_report_id,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// Health states.
const (
	StatusStarting = "starting"
	StatusHealthy  = "healthy"
	StatusFailing  = "failing"
)

// NewDaemon creates a daemon instance.
func NewDaemon(runner CycleRunner, cfg Config) (*Daemon, error) {
	if cfg.Interval <= 0 {
		return nil, fmt.Errorf("daemon interval must be positive, got %s", cfg.Interval)
	}
	if cfg.Gatherer == nil {
		cfg.Gatherer = prometheus.DefaultGatherer
	}
	return &Daemon{
		runner: runner,
		cfg:    cfg,
		health: HealthStatus{Status: StatusStarting},
	}, nil
}

// Run blocks until ctx is cancelled, SIGINT or SIGTERM arrives, or the
// HTTP listener fails.
func (d *Daemon) Run(ctx context.Context) error {
	var g run.Group

	{
		ctx, cancel := context.WithCancel(ctx)
		g.Add(func() error {
			return d.Start(ctx)
		}, func(error) {
			cancel()
		})
	}

	if d.cfg.Addr != "" {
		ln, err := net.Listen("tcp", d.cfg.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", d.cfg.Addr, err)
		}
		srv := &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
		g.Add(func() error {
			d.cfg.Logger.Info().Str("addr", ln.Addr().String()).Msg("serving metrics")
			if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		}, func(error) {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		})
	}

	g.Add(run.SignalHandler(ctx, syscall.SIGINT, syscall.SIGTERM))

	err := g.Run()
	var sigErr run.SignalError
	if errors.As(err, &sigErr) {
		d.cfg.Logger.Info().Str("signal", sigErr.Signal.String()).Msg("shutting down")
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Start runs the scheduling loop until ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	d.cfg.Logger.Info().Dur("interval", d.cfg.Interval).Msg("daemon started")

	d.runCycle(ctx)

	ticker := time.NewTicker(d.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.cfg.Logger.Info().Msg("daemon stopped")
			return nil
		case <-ticker.C:
			d.runCycle(ctx)
		}
	}
}

func (d *Daemon) runCycle(ctx context.Context) {
	start := time.Now()
	report, err := d.runner.RunOnce(ctx)
	if ctx.Err() != nil {
		return
	}

	outcome := outcomeOK
	switch {
	case errors.Is(err, harness.ErrCycleSkipped):
		outcome = outcomeSkipped
	case err != nil:
		outcome = outcomeFailed
		d.cfg.Logger.Error().Err(err).Msg("check cycle failed")
	}
	if d.cfg.Metrics != nil {
		d.cfg.Metrics.observe(outcome, time.Since(start).Seconds())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.health.Cycles++
	d.health.LastRun = start.UTC()
	switch outcome {
	case outcomeFailed:
		d.health.Status = StatusFailing
		d.health.LastError = err.Error()
	case outcomeSkipped:
		d.health.LastError = err.Error()
	default:
		d.health.Status = StatusHealthy
		d.health.LastError = ""
	}
	if report != nil {
		d.health.LastReport = report.ReportID
	}
}

// Health returns the current health status.
func (d *Daemon) Health() HealthStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.health
}

// Handler serves /metrics and /healthz.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(d.cfg.Gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		h := d.Health()
		w.Header().Set("Content-Type", "application/json")
		if h.Status == StatusFailing {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		_ = json.NewEncoder(w).Encode(h)
	})
	return mux
}
