package engine

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
)

// reportNamespace scopes report IDs derived from the report timestamp.
var reportNamespace = uuid.MustParse("6f1c8f5e-3f0a-4c43-9a43-0b7a1f6e2d11")

// DefaultEngine is the production Checker.
// It is a pure batch transform over its registry; it performs no I/O.
type DefaultEngine struct {
	registry rules.Registry
	now      func() time.Time
}

// Option customises a DefaultEngine.
type Option func(*DefaultEngine)

// WithClock overrides the clock used to stamp reports. Tests use it to make
// whole reports comparable.
func WithClock(now func() time.Time) Option {
	return func(e *DefaultEngine) { e.now = now }
}

// NewDefaultEngine constructs a DefaultEngine wired to registry.
func NewDefaultEngine(registry rules.Registry, opts ...Option) *DefaultEngine {
	e := &DefaultEngine{
		registry: registry,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// RunCheck implements Checker. Verdicts are appended in descriptor order,
// then rule registration order. Descriptors whose kind has no rules
// contribute nothing.
func (e *DefaultEngine) RunCheck(descriptors []models.ResourceDescriptor) *models.Report {
	var verdicts []models.Verdict
	for _, d := range descriptors {
		for _, rule := range e.registry.RulesFor(d.Kind) {
			mustMatch(rule, d)
			verdicts = append(verdicts, rules.Evaluate(rule, d))
		}
	}
	return buildReport(e.now(), verdicts)
}

// mustMatch panics when the registry hands back a rule that cannot be
// evaluated against d. That only happens with a broken Registry
// implementation.
func mustMatch(rule rules.Rule, d models.ResourceDescriptor) {
	if rule.Kind != d.Kind {
		panic(fmt.Sprintf("registry returned rule %s for descriptor kind %s", rule.Key(), d.Kind))
	}
	if rule.Predicate == nil {
		panic(fmt.Sprintf("registry returned rule %s without a predicate", rule.Key()))
	}
}

// buildReport aggregates verdicts into a Report. Only FAIL verdicts are
// counted by severity; ERROR verdicts are counted separately.
func buildReport(at time.Time, verdicts []models.Verdict) *models.Report {
	if verdicts == nil {
		verdicts = []models.Verdict{}
	}
	report := &models.Report{
		ReportID:                uuid.NewSHA1(reportNamespace, []byte(at.Format(time.RFC3339Nano))).String(),
		GeneratedAt:             at,
		Verdicts:                verdicts,
		FailureCountsBySeverity: make(map[models.Severity]int, len(models.Severities)),
	}
	for _, sev := range models.Severities {
		report.FailureCountsBySeverity[sev] = 0
	}
	for _, v := range verdicts {
		switch v.Status {
		case models.StatusFail:
			report.FailureCountsBySeverity[v.Severity]++
		case models.StatusError:
			report.ErrorCount++
		case models.StatusPass:
			report.PassCount++
		}
	}
	return report
}
