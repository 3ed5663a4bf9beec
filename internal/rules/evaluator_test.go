package rules

import (
	"errors"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

func TestEvaluate_PassAndFail(t *testing.T) {
	d := models.ResourceDescriptor{Kind: models.KindRole, ID: "role-1", Fields: models.Fields{}}

	pass := Evaluate(testRule(models.KindRole, "ok"), d)
	if pass.Status != models.StatusPass || pass.Detail != "" {
		t.Errorf("want PASS with no detail, got %+v", pass)
	}

	failing := Rule{
		ID: "nope", Kind: models.KindRole, Severity: models.SeverityHigh,
		Description: "always fails",
		Predicate:   func(models.Fields) (bool, error) { return false, nil },
	}
	v := Evaluate(failing, d)
	if v.Status != models.StatusFail {
		t.Fatalf("status: got %s; want FAIL", v.Status)
	}
	if v.Detail != "always fails" {
		t.Errorf("detail: got %q; want rule description", v.Detail)
	}
	if v.RuleID != "nope" || v.ResourceID != "role-1" || v.Severity != models.SeverityHigh || v.Kind != models.KindRole {
		t.Errorf("verdict does not reference rule and resource: %+v", v)
	}
}

func TestEvaluate_ErrorBecomesErrorVerdict(t *testing.T) {
	r := Rule{
		ID: "broken", Kind: models.KindBucket, Severity: models.SeverityLow,
		Predicate: func(models.Fields) (bool, error) { return true, errors.New("boom") },
	}
	v := Evaluate(r, models.ResourceDescriptor{Kind: models.KindBucket, ID: "b"})
	if v.Status != models.StatusError || v.Detail != "boom" {
		t.Errorf("want ERROR/boom, got %+v", v)
	}
}

func TestEvaluate_PanicBecomesErrorVerdict(t *testing.T) {
	r := Rule{
		ID: "panics", Kind: models.KindBucket, Severity: models.SeverityLow,
		Predicate: func(f models.Fields) (bool, error) {
			var m map[string]int
			m["x"] = 1 // assignment to nil map
			return true, nil
		},
	}
	v := Evaluate(r, models.ResourceDescriptor{Kind: models.KindBucket, ID: "b"})
	if v.Status != models.StatusError {
		t.Fatalf("status: got %s; want ERROR", v.Status)
	}
	if !strings.Contains(v.Detail, "predicate panicked") {
		t.Errorf("detail: got %q", v.Detail)
	}
}

func TestEvaluate_Idempotent(t *testing.T) {
	d := models.ResourceDescriptor{
		Kind: models.KindCluster, ID: "c",
		Fields: models.Fields{"logging": map[string]any{"clusterLogging": []any{
			map[string]any{"types": []any{"api"}, "enabled": true},
		}}},
	}
	first := Evaluate(EKSLoggingRule(), d)
	second := Evaluate(EKSLoggingRule(), d)
	if first != second {
		t.Errorf("verdicts differ: %+v vs %+v", first, second)
	}
}
