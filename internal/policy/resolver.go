package policy

import (
	"errors"
	"fmt"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
)

// Resolve applies cfg to the rule pack and returns the effective rule list:
// disabled rules are removed, severity overrides applied, and custom rules
// appended after the pack in declaration order. A nil cfg returns pack
// unchanged.
//
// Resolve runs Validate first; any validation problem is returned as a
// joined error and no rules are produced.
func Resolve(pack []rules.Rule, cfg *PolicyConfig) ([]rules.Rule, error) {
	if cfg == nil {
		return pack, nil
	}

	keys := make([]string, 0, len(pack))
	for _, r := range pack {
		keys = append(keys, r.Key())
	}
	if errs := Validate(cfg, keys); len(errs) > 0 {
		return nil, fmt.Errorf("invalid policy: %w", errors.Join(errs...))
	}

	var out []rules.Rule
	for _, r := range pack {
		rc, ok := cfg.Rules[r.Key()]
		if ok && rc.Enabled != nil && !*rc.Enabled {
			continue
		}
		if ok && rc.Severity != "" {
			sev, _ := models.ParseSeverity(rc.Severity)
			r.Severity = sev
		}
		out = append(out, r)
	}

	for _, cr := range cfg.CustomRules {
		r, err := compileCustomRule(cr)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}
