package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// Predicate inspects one descriptor's fields and reports whether the
// resource is compliant. A returned error (typically from package fields
// when an expected field is absent) becomes an ERROR verdict.
//
// Predicates must be pure: no network calls, no mutation of f, no hidden
// state between calls.
type Predicate func(f models.Fields) (bool, error)

// Rule is a named, severity-tagged compliance predicate scoped to a single
// resource kind. Rules are defined at registry construction and never
// mutated afterwards.
type Rule struct {
	// ID is unique within Kind (e.g. "encryption" exists for both Bucket and
	// Cluster).
	ID       string
	Kind     models.Kind
	Severity models.Severity

	// Description is a one-line statement of the compliant state. It is used
	// as the verdict detail when the rule fails.
	Description string

	Predicate Predicate
}

// Key returns the registry key of r in the form "<kind>/<id>".
func (r Rule) Key() string {
	return string(r.Kind) + "/" + r.ID
}

// Registry holds the canonical rules per resource kind in a fixed
// evaluation order.
type Registry interface {
	// Register adds rule. It returns a *DuplicateRuleError when (kind, id) is
	// already present and a *ConfigurationError when the rule is malformed.
	Register(rule Rule) error

	// RulesFor returns the rules for kind in registration order. An unknown
	// or empty kind yields an empty slice, never an error.
	RulesFor(kind models.Kind) []Rule

	// All returns every registered rule in registration order.
	All() []Rule
}
