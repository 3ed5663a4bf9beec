// Command secmon-lambda runs one compliance check per invocation. It is
// meant to be triggered by an EventBridge schedule; configuration comes
// from SECMON_* environment variables.
package main

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/app"
	"github.com/pankaj-dahiya-devops/secmon/internal/config"
	"github.com/pankaj-dahiya-devops/secmon/internal/logging"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
)

// Response is returned to the invoker.
type Response struct {
	ReportID                string                  `json:"report_id"`
	FailureCountsBySeverity map[models.Severity]int `json:"failure_counts_by_severity"`
	ErrorCount              int                     `json:"error_count"`
}

type cycleRunner interface {
	RunOnce(ctx context.Context) (*models.Report, error)
}

// handler builds the pipeline on first use and reuses it across warm
// invocations. A failed build is retried on the next invocation.
type handler struct {
	build  func(ctx context.Context) (cycleRunner, error)
	logger zerolog.Logger

	mu     sync.Mutex
	runner cycleRunner
}

func (h *handler) Handle(ctx context.Context, event events.CloudWatchEvent) (Response, error) {
	h.logger.Info().Str("event_id", event.ID).Str("source", event.Source).Msg("invocation")

	runner, err := h.pipeline(ctx)
	if err != nil {
		return Response{}, err
	}
	report, err := runner.RunOnce(ctx)
	if err != nil {
		return Response{}, err
	}
	return Response{
		ReportID:                report.ReportID,
		FailureCountsBySeverity: report.FailureCountsBySeverity,
		ErrorCount:              report.ErrorCount,
	}, nil
}

func (h *handler) pipeline(ctx context.Context) (cycleRunner, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.runner != nil {
		return h.runner, nil
	}
	r, err := h.build(ctx)
	if err != nil {
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	h.runner = r
	return r, nil
}

func main() {
	cfg, err := config.NewFileLoader(os.Getenv("SECMON_CONFIG")).Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	logger, err := logging.New("secmon-lambda", logging.Options{Level: cfg.Log.Level, Out: os.Stdout})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	h := &handler{
		logger: logger,
		build: func(ctx context.Context) (cycleRunner, error) {
			pipeline, err := app.Build(ctx, cfg, common.NewDefaultAWSClientProvider(), logger, app.Options{
				CloudWatch:  true,
				Alerts:      true,
				LogVerdicts: true,
			})
			if err != nil {
				return nil, err
			}
			return pipeline.Runner, nil
		},
	}
	lambda.Start(h.Handle)
}
