// Package harness runs one complete check cycle: fetch descriptors, run the
// engine, publish the report and archive it.
package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/engine"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	awssecurity "github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/secmon/internal/publisher"
)

// ErrCycleSkipped is returned when a cycle hits its timeout. No report is
// produced and the next scheduled cycle proceeds normally.
var ErrCycleSkipped = errors.New("check cycle skipped: timeout exceeded")

// Cycle stages reported by RunFailure.
const (
	StageFetch   = "fetch"
	StagePublish = "publish"
)

// RunFailure reports a cycle that could not complete a stage.
type RunFailure struct {
	Stage string
	Err   error
}

func (e *RunFailure) Error() string {
	return fmt.Sprintf("check cycle failed at %s: %v", e.Stage, e.Err)
}

func (e *RunFailure) Unwrap() error { return e.Err }

// Archiver stores finished reports.
type Archiver interface {
	Save(report *models.Report) error
}

// Options configures a Runner.
type Options struct {
	// Kinds to fetch; empty means every kind.
	Kinds []models.Kind

	// Timeout bounds one cycle. Zero means no bound beyond ctx.
	Timeout time.Duration

	// Archive is optional.
	Archive Archiver

	Logger zerolog.Logger
}

// Runner wires a collector, a checker and a publisher into a cycle.
type Runner struct {
	collector awssecurity.Collector
	checker   engine.Checker
	publisher publisher.Publisher
	opts      Options
}

// NewRunner returns a Runner. pub may be nil for dry runs.
func NewRunner(collector awssecurity.Collector, checker engine.Checker, pub publisher.Publisher, opts Options) *Runner {
	if len(opts.Kinds) == 0 {
		opts.Kinds = models.Kinds
	}
	return &Runner{collector: collector, checker: checker, publisher: pub, opts: opts}
}

// RunOnce executes a single cycle. The report is returned whenever the
// engine ran, including when publishing failed afterwards.
func (r *Runner) RunOnce(ctx context.Context) (*models.Report, error) {
	logger := r.opts.Logger
	start := time.Now()

	cctx := ctx
	if r.opts.Timeout > 0 {
		var cancel context.CancelFunc
		cctx, cancel = context.WithTimeout(ctx, r.opts.Timeout)
		defer cancel()
	}

	logger.Info().Int("kinds", len(r.opts.Kinds)).Msg("check cycle started")

	batch, err := r.collector.Collect(cctx, r.opts.Kinds)
	if err != nil {
		if skipped := r.skipped(ctx, cctx); skipped != nil {
			return nil, skipped
		}
		logger.Error().Err(err).Msg("fetch failed")
		return nil, &RunFailure{Stage: StageFetch, Err: err}
	}
	if batch.Failed(len(r.opts.Kinds)) {
		var errs []error
		for _, k := range r.opts.Kinds {
			errs = append(errs, batch.Errors[k])
		}
		err := errors.Join(errs...)
		logger.Error().Err(err).Msg("fetch failed for every kind")
		return nil, &RunFailure{Stage: StageFetch, Err: err}
	}

	report := r.checker.RunCheck(batch.Descriptors)

	if skipped := r.skipped(ctx, cctx); skipped != nil {
		return nil, skipped
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(cctx, report); err != nil {
			if skipped := r.skipped(ctx, cctx); skipped != nil {
				return nil, skipped
			}
			logger.Error().Err(err).Str("report_id", report.ReportID).Msg("publish failed")
			return report, &RunFailure{Stage: StagePublish, Err: err}
		}
	}

	if r.opts.Archive != nil {
		if err := r.opts.Archive.Save(report); err != nil {
			logger.Warn().Err(err).Str("report_id", report.ReportID).Msg("archive report failed")
		}
	}

	logger.Info().
		Str("report_id", report.ReportID).
		Int("descriptors", len(batch.Descriptors)).
		Int("failures", report.TotalFailures()).
		Int("errors", report.ErrorCount).
		Int("fetch_errors", len(batch.Errors)).
		Dur("duration", time.Since(start)).
		Msg("check cycle finished")
	return report, nil
}

// skipped maps an expired cycle deadline to ErrCycleSkipped and a cancelled
// parent to its own error.
func (r *Runner) skipped(parent, cycle context.Context) error {
	if err := parent.Err(); err != nil {
		return err
	}
	if errors.Is(cycle.Err(), context.DeadlineExceeded) {
		r.opts.Logger.Warn().Dur("timeout", r.opts.Timeout).Msg("check cycle skipped")
		return ErrCycleSkipped
	}
	return nil
}
