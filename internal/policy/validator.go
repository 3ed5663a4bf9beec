package policy

import (
	"fmt"
	"sort"
	"strings"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
)

// Validate checks cfg against the available rule keys ("<Kind>/<id>") and
// returns every problem found. An empty slice means the config is valid.
//
// Checks performed:
//   - version must be 1
//   - rule keys must name an available rule
//   - severity overrides must be valid severities
//   - custom rules need an id, a known kind, a valid severity and an
//     expression that compiles to bool, and must not collide with another
//     rule of the same kind
//   - enforcement.fail_on_severity must be a valid severity if set
func Validate(cfg *PolicyConfig, availableRuleKeys []string) []error {
	if cfg == nil {
		return []error{fmt.Errorf("policy config is nil")}
	}

	known := make(map[string]struct{}, len(availableRuleKeys))
	for _, k := range availableRuleKeys {
		known[k] = struct{}{}
	}

	var errs []error

	if cfg.Version != 1 {
		errs = append(errs, fmt.Errorf("version: unsupported value %d; must be 1", cfg.Version))
	}

	keys := make([]string, 0, len(cfg.Rules))
	for key := range cfg.Rules {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		rcfg := cfg.Rules[key]
		if _, ok := known[key]; !ok {
			errs = append(errs, fmt.Errorf("rules.%s: unknown rule; keys have the form <Kind>/<rule id>", key))
		}
		if rcfg.Severity != "" {
			if _, err := models.ParseSeverity(rcfg.Severity); err != nil {
				errs = append(errs, fmt.Errorf("rules.%s.severity: %w", key, err))
			}
		}
	}

	for i, cr := range cfg.CustomRules {
		if _, err := compileCustomRule(cr); err != nil {
			errs = append(errs, fmt.Errorf("custom_rules[%d]: %w", i, err))
			continue
		}
		kind, _ := models.ParseKind(cr.Kind)
		key := string(kind) + "/" + cr.ID
		if _, dup := known[key]; dup {
			errs = append(errs, fmt.Errorf("custom_rules[%d]: %w", i, &rules.DuplicateRuleError{Kind: kind, ID: cr.ID}))
		}
		known[key] = struct{}{}
	}

	if s := cfg.Enforcement.FailOnSeverity; s != "" {
		if _, err := models.ParseSeverity(s); err != nil {
			errs = append(errs, fmt.Errorf("enforcement.fail_on_severity: %w", err))
		}
	}

	return errs
}

// compileCustomRule converts a custom rule declaration into a Rule.
func compileCustomRule(cr CustomRuleConfig) (rules.Rule, error) {
	if strings.TrimSpace(cr.ID) == "" {
		return rules.Rule{}, &rules.ConfigurationError{Reason: "id is required"}
	}
	kind, err := models.ParseKind(cr.Kind)
	if err != nil {
		return rules.Rule{}, &rules.ConfigurationError{RuleID: cr.ID, Reason: err.Error()}
	}
	sev, err := models.ParseSeverity(cr.Severity)
	if err != nil {
		return rules.Rule{}, &rules.ConfigurationError{RuleID: cr.ID, Reason: err.Error()}
	}
	if strings.TrimSpace(cr.Expression) == "" {
		return rules.Rule{}, &rules.ConfigurationError{RuleID: cr.ID, Reason: "expression is required"}
	}
	return rules.NewCELRule(cr.ID, kind, sev, cr.Description, cr.Expression)
}
