package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/secmon/internal/harness"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// scriptedRunner returns errs[i] on the i-th call and nil afterwards.
type scriptedRunner struct {
	mu    sync.Mutex
	calls int
	errs  []error
}

func (s *scriptedRunner) RunOnce(_ context.Context) (*models.Report, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return nil, s.errs[i]
	}
	return &models.Report{ReportID: "r-" + string(rune('a'+i))}, nil
}

func (s *scriptedRunner) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func TestNewDaemon_RejectsZeroInterval(t *testing.T) {
	_, err := NewDaemon(&scriptedRunner{}, Config{})
	assert.Error(t, err)
}

func TestDaemon_RunsImmediatelyThenOnTicks(t *testing.T) {
	runner := &scriptedRunner{}
	d, err := NewDaemon(runner, Config{Interval: 20 * time.Millisecond, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Start(ctx) }()

	require.Eventually(t, func() bool { return runner.count() >= 3 }, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.NoError(t, <-errCh)
}

func TestDaemon_FailedAndSkippedCyclesContinue(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	runner := &scriptedRunner{errs: []error{
		&harness.RunFailure{Stage: harness.StagePublish, Err: errors.New("throttled")},
		harness.ErrCycleSkipped,
	}}
	d, err := NewDaemon(runner, Config{Interval: 10 * time.Millisecond, Metrics: metrics, Logger: zerolog.Nop()})
	require.NoError(t, err)

	ctx := context.Background()
	d.runCycle(ctx)
	assert.Equal(t, StatusFailing, d.Health().Status)
	assert.Contains(t, d.Health().LastError, "throttled")

	d.runCycle(ctx)
	assert.Equal(t, StatusFailing, d.Health().Status, "a skipped cycle keeps the previous status")

	d.runCycle(ctx)
	h := d.Health()
	assert.Equal(t, StatusHealthy, h.Status)
	assert.Empty(t, h.LastError)
	assert.Equal(t, int64(3), h.Cycles)
	assert.Equal(t, "r-c", h.LastReport)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cycles.WithLabelValues(outcomeFailed)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cycles.WithLabelValues(outcomeSkipped)))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cycles.WithLabelValues(outcomeOK)))
}

func TestDaemon_Handler(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := NewMetrics(reg)
	require.NoError(t, err)

	runner := &scriptedRunner{errs: []error{errors.New("boom")}}
	d, err := NewDaemon(runner, Config{Interval: time.Minute, Gatherer: reg, Metrics: metrics, Logger: zerolog.Nop()})
	require.NoError(t, err)

	srv := httptest.NewServer(d.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	var h HealthStatus
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&h))
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, StatusStarting, h.Status)

	d.runCycle(context.Background())

	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `secmon_daemon_cycles_total{outcome="failed"} 1`)
}

func TestDaemon_RunStopsOnContextCancel(t *testing.T) {
	runner := &scriptedRunner{}
	d, err := NewDaemon(runner, Config{
		Interval: time.Hour,
		Addr:     "127.0.0.1:0",
		Gatherer: prometheus.NewRegistry(),
		Logger:   zerolog.Nop(),
	})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- d.Run(ctx) }()

	require.Eventually(t, func() bool { return runner.count() == 1 }, 2*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
}
