package rules

import (
	"fmt"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// DuplicateRuleError is returned by Register when a rule with the same kind
// and ID is already registered.
type DuplicateRuleError struct {
	Kind models.Kind
	ID   string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("duplicate rule %q for kind %s", e.ID, e.Kind)
}

// ConfigurationError describes a malformed rule definition: an unknown kind,
// a missing ID or predicate, an invalid severity, or a custom expression that
// does not compile. It indicates a deployment defect and must abort startup.
type ConfigurationError struct {
	RuleID string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.RuleID == "" {
		return "rule configuration: " + e.Reason
	}
	return fmt.Sprintf("rule %q: %s", e.RuleID, e.Reason)
}
