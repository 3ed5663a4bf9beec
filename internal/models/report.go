package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the ordinal compliance impact attached to a rule.
type Severity string

const (
	SeverityCritical Severity = "CRITICAL"
	SeverityHigh     Severity = "HIGH"
	SeverityMedium   Severity = "MEDIUM"
	SeverityLow      Severity = "LOW"
)

// Severities lists every severity from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityHigh, SeverityMedium, SeverityLow}

// severityRank orders severities: CRITICAL (4) > HIGH (3) > MEDIUM (2) > LOW (1).
var severityRank = map[Severity]int{
	SeverityCritical: 4,
	SeverityHigh:     3,
	SeverityMedium:   2,
	SeverityLow:      1,
}

// ParseSeverity returns the Severity named by s, case-insensitively.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(strings.ToUpper(strings.TrimSpace(s)))
	if _, ok := severityRank[sev]; !ok {
		return "", fmt.Errorf("invalid severity %q; valid values: CRITICAL, HIGH, MEDIUM, LOW", s)
	}
	return sev, nil
}

// Rank returns the ordinal weight of s; 0 for unknown values.
func (s Severity) Rank() int { return severityRank[s] }

// AtLeast reports whether s is as severe as or more severe than min.
func (s Severity) AtLeast(min Severity) bool {
	return s.Rank() > 0 && s.Rank() >= min.Rank()
}

// Status is the outcome of one rule against one descriptor.
type Status string

const (
	StatusPass  Status = "PASS"
	StatusFail  Status = "FAIL"
	StatusError Status = "ERROR"
)

// Verdict is the immutable result of evaluating one rule against one
// resource. Kind and Severity are copied from the rule so a Report can be
// consumed without access to the registry.
type Verdict struct {
	RuleID     string   `json:"rule_id"`
	ResourceID string   `json:"resource_id"`
	Kind       Kind     `json:"kind"`
	Severity   Severity `json:"severity"`
	Status     Status   `json:"status"`
	Detail     string   `json:"detail,omitempty"`
}

// Report aggregates the verdicts of a single check run.
// It is built once by the engine and is read-only afterwards.
type Report struct {
	ReportID    string    `json:"report_id"`
	GeneratedAt time.Time `json:"generated_at"`
	Verdicts    []Verdict `json:"verdicts"`

	// FailureCountsBySeverity counts FAIL verdicts only; every severity is
	// present, zero-filled.
	FailureCountsBySeverity map[Severity]int `json:"failure_counts_by_severity"`

	// ErrorCount counts ERROR verdicts. They are never folded into
	// FailureCountsBySeverity.
	ErrorCount int `json:"error_count"`
	PassCount  int `json:"pass_count"`
}

// TotalFailures returns the number of FAIL verdicts across all severities.
func (r *Report) TotalFailures() int {
	total := 0
	for _, n := range r.FailureCountsBySeverity {
		total += n
	}
	return total
}

// HighestFailingSeverity returns the most severe severity with at least one
// FAIL verdict. ok is false when the report has no failures.
func (r *Report) HighestFailingSeverity() (sev Severity, ok bool) {
	for _, s := range Severities {
		if r.FailureCountsBySeverity[s] > 0 {
			return s, true
		}
	}
	return "", false
}

// Failures returns the FAIL verdicts in report order.
func (r *Report) Failures() []Verdict {
	return r.filter(StatusFail)
}

// Errors returns the ERROR verdicts in report order.
func (r *Report) Errors() []Verdict {
	return r.filter(StatusError)
}

func (r *Report) filter(status Status) []Verdict {
	var out []Verdict
	for _, v := range r.Verdicts {
		if v.Status == status {
			out = append(out, v)
		}
	}
	return out
}
