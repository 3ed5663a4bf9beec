package rules

import (
	"errors"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// DefaultRegistry is a simple, ordered, in-memory registry.
// Rules are evaluated in registration order within each kind.
type DefaultRegistry struct {
	all    []Rule
	byKind map[models.Kind][]Rule
	index  map[string]struct{}
}

// NewDefaultRegistry returns an empty registry ready for rule registration.
func NewDefaultRegistry() *DefaultRegistry {
	return &DefaultRegistry{
		byKind: make(map[models.Kind][]Rule),
		index:  make(map[string]struct{}),
	}
}

// NewRegistryFrom registers every rule in order and returns the registry.
// All registration errors are collected and returned together.
func NewRegistryFrom(rules []Rule) (*DefaultRegistry, error) {
	reg := NewDefaultRegistry()
	var errs []error
	for _, r := range rules {
		if err := reg.Register(r); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

// Register implements Registry.
func (r *DefaultRegistry) Register(rule Rule) error {
	if err := validateRule(rule); err != nil {
		return err
	}
	key := rule.Key()
	if _, exists := r.index[key]; exists {
		return &DuplicateRuleError{Kind: rule.Kind, ID: rule.ID}
	}
	r.index[key] = struct{}{}
	r.all = append(r.all, rule)
	r.byKind[rule.Kind] = append(r.byKind[rule.Kind], rule)
	return nil
}

// MustRegister registers each rule and panics on the first error, so wiring
// mistakes surface at startup.
func (r *DefaultRegistry) MustRegister(rules ...Rule) {
	for _, rule := range rules {
		if err := r.Register(rule); err != nil {
			panic(err)
		}
	}
}

// RulesFor implements Registry. The returned slice is a copy.
func (r *DefaultRegistry) RulesFor(kind models.Kind) []Rule {
	src := r.byKind[kind]
	out := make([]Rule, len(src))
	copy(out, src)
	return out
}

// All implements Registry. The returned slice is a copy.
func (r *DefaultRegistry) All() []Rule {
	out := make([]Rule, len(r.all))
	copy(out, r.all)
	return out
}

func validateRule(rule Rule) error {
	switch {
	case rule.ID == "":
		return &ConfigurationError{Reason: "rule ID is empty"}
	case !rule.Kind.Valid():
		return &ConfigurationError{RuleID: rule.ID, Reason: "unknown resource kind " + string(rule.Kind)}
	case rule.Severity.Rank() == 0:
		return &ConfigurationError{RuleID: rule.ID, Reason: "invalid severity " + string(rule.Severity)}
	case rule.Predicate == nil:
		return &ConfigurationError{RuleID: rule.ID, Reason: "predicate is nil"}
	}
	return nil
}
