package policy

import (
	"testing"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

func reportWith(counts map[models.Severity]int, errorCount int) *models.Report {
	full := map[models.Severity]int{}
	for _, s := range models.Severities {
		full[s] = counts[s]
	}
	return &models.Report{FailureCountsBySeverity: full, ErrorCount: errorCount}
}

func TestShouldFail_NilConfig(t *testing.T) {
	if ShouldFail(reportWith(map[models.Severity]int{models.SeverityCritical: 1}, 0), nil) {
		t.Error("nil cfg must return false")
	}
}

func TestShouldFail_NoThreshold(t *testing.T) {
	if ShouldFail(reportWith(map[models.Severity]int{models.SeverityCritical: 1}, 0), &PolicyConfig{}) {
		t.Error("empty threshold must return false")
	}
}

func TestShouldFail_InvalidSeverityIgnored(t *testing.T) {
	cfg := &PolicyConfig{Enforcement: EnforcementConfig{FailOnSeverity: "BOGUS"}}
	if ShouldFail(reportWith(map[models.Severity]int{models.SeverityCritical: 1}, 0), cfg) {
		t.Error("invalid threshold must return false")
	}
}

func TestShouldFail_Thresholds(t *testing.T) {
	tests := []struct {
		name      string
		threshold string
		counts    map[models.Severity]int
		want      bool
	}{
		{"medium failure below HIGH", "HIGH", map[models.Severity]int{models.SeverityMedium: 2}, false},
		{"high failure at HIGH", "HIGH", map[models.Severity]int{models.SeverityHigh: 1}, true},
		{"critical failure above HIGH", "high", map[models.Severity]int{models.SeverityCritical: 1}, true},
		{"low failure at LOW", "LOW", map[models.Severity]int{models.SeverityLow: 1}, true},
		{"no failures", "LOW", nil, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &PolicyConfig{Enforcement: EnforcementConfig{FailOnSeverity: tc.threshold}}
			if got := ShouldFail(reportWith(tc.counts, 0), cfg); got != tc.want {
				t.Errorf("got %v; want %v", got, tc.want)
			}
		})
	}
}

// TestShouldFail_ErrorsDoNotEnforce keeps ERROR verdicts out of enforcement,
// consistent with the failure metric.
func TestShouldFail_ErrorsDoNotEnforce(t *testing.T) {
	cfg := &PolicyConfig{Enforcement: EnforcementConfig{FailOnSeverity: "LOW"}}
	if ShouldFail(reportWith(nil, 5), cfg) {
		t.Error("ERROR verdicts must not trigger enforcement")
	}
}
