package policy

// PolicyConfig is the optional rule policy file (secmon-policy.yaml).
// It tunes the canonical rule pack without code changes: disable rules,
// override severities, add custom CEL rules, and set enforcement thresholds.
type PolicyConfig struct {
	Version int `yaml:"version"`

	// Rules is keyed by "<Kind>/<rule id>", e.g. "Cluster/logging".
	Rules map[string]RuleConfig `yaml:"rules"`

	CustomRules []CustomRuleConfig `yaml:"custom_rules"`

	Enforcement EnforcementConfig `yaml:"enforcement"`
}

type RuleConfig struct {
	Enabled  *bool  `yaml:"enabled,omitempty"`
	Severity string `yaml:"severity,omitempty"`
}

// CustomRuleConfig declares a rule whose predicate is a CEL expression over
// the descriptor's `fields`.
type CustomRuleConfig struct {
	ID          string `yaml:"id"`
	Kind        string `yaml:"kind"`
	Severity    string `yaml:"severity"`
	Description string `yaml:"description,omitempty"`
	Expression  string `yaml:"expression"`
}

// EnforcementConfig controls the exit status of `secmon check`.
type EnforcementConfig struct {
	// FailOnSeverity makes the check fail when any FAIL verdict is at or
	// above this severity. Empty disables enforcement.
	FailOnSeverity string `yaml:"fail_on_severity,omitempty"`
}
