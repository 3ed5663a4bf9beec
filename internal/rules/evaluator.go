package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// Evaluate applies rule to d and returns exactly one verdict. It never
// propagates a predicate failure: returned errors and panics both become an
// ERROR verdict whose Detail carries the failure message.
//
// The caller is responsible for matching rule.Kind to d.Kind.
func Evaluate(rule Rule, d models.ResourceDescriptor) (v models.Verdict) {
	v = models.Verdict{
		RuleID:     rule.ID,
		ResourceID: d.ID,
		Kind:       rule.Kind,
		Severity:   rule.Severity,
	}

	defer func() {
		if rec := recover(); rec != nil {
			v.Status = models.StatusError
			v.Detail = fmt.Sprintf("predicate panicked: %v", rec)
		}
	}()

	ok, err := rule.Predicate(d.Fields)
	switch {
	case err != nil:
		v.Status = models.StatusError
		v.Detail = err.Error()
	case ok:
		v.Status = models.StatusPass
	default:
		v.Status = models.StatusFail
		v.Detail = rule.Description
	}
	return v
}
