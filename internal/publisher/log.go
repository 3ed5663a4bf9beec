package publisher

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// LogPublisher writes one line per FAIL verdict, then one per ERROR verdict,
// then a summary line.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(_ context.Context, report *models.Report) error {
	for _, v := range report.Failures() {
		p.verdict(p.logger.Warn(), report.ReportID, v)
	}
	for _, v := range report.Errors() {
		p.verdict(p.logger.Error(), report.ReportID, v)
	}

	counts := zerolog.Dict()
	for _, sev := range models.Severities {
		counts.Int(string(sev), report.FailureCountsBySeverity[sev])
	}
	p.logger.Info().
		Str("report_id", report.ReportID).
		Time("generated_at", report.GeneratedAt).
		Int("verdicts", len(report.Verdicts)).
		Int("failures", report.TotalFailures()).
		Int("errors", report.ErrorCount).
		Int("passed", report.PassCount).
		Dict("failures_by_severity", counts).
		Msg("check complete")
	return nil
}

func (p *LogPublisher) verdict(ev *zerolog.Event, reportID string, v models.Verdict) {
	ev.Str("report_id", reportID).
		Str("kind", string(v.Kind)).
		Str("rule_id", v.RuleID).
		Str("resource_id", v.ResourceID).
		Str("severity", string(v.Severity)).
		Str("status", string(v.Status)).
		Str("detail", v.Detail).
		Msg("check verdict")
}
