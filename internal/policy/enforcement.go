package policy

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// ShouldFail reports whether report contains a FAIL verdict at or above the
// configured fail_on_severity. ERROR verdicts never trigger enforcement.
//
// It returns false when cfg is nil, when no threshold is configured, or when
// the threshold is not a valid severity.
func ShouldFail(report *models.Report, cfg *PolicyConfig) bool {
	if cfg == nil || report == nil || cfg.Enforcement.FailOnSeverity == "" {
		return false
	}
	threshold, err := models.ParseSeverity(cfg.Enforcement.FailOnSeverity)
	if err != nil {
		return false
	}
	return FailsAt(report, threshold)
}

// FailsAt reports whether report has any FAIL verdict at or above threshold.
func FailsAt(report *models.Report, threshold models.Severity) bool {
	for sev, n := range report.FailureCountsBySeverity {
		if n > 0 && sev.AtLeast(threshold) {
			return true
		}
	}
	return false
}
