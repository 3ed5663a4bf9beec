package rules

import (
	"fmt"
	"strings"

	"github.com/google/cel-go/cel"

	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// celCostLimit bounds the work a single custom expression may perform.
const celCostLimit = 100000

// celFieldsVar is the variable custom expressions use to read descriptor
// fields, e.g. `fields.resourcesVpcConfig.endpointPublicAccess == false`.
const celFieldsVar = "fields"

// NewCELRule compiles expression into a Rule. The expression sees the
// descriptor's fields as the dynamic map `fields` and must yield a bool
// (true = compliant). Compilation problems are returned as a
// *ConfigurationError.
func NewCELRule(id string, kind models.Kind, severity models.Severity, description, expression string) (Rule, error) {
	env, err := cel.NewEnv(
		cel.Variable(celFieldsVar, cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return Rule{}, fmt.Errorf("create CEL environment: %w", err)
	}

	ast, issues := env.Compile(expression)
	if issues != nil && issues.Err() != nil {
		return Rule{}, &ConfigurationError{RuleID: id, Reason: "compile expression: " + issues.Err().Error()}
	}
	out := ast.OutputType()
	if !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return Rule{}, &ConfigurationError{RuleID: id, Reason: "expression must evaluate to bool, got " + out.String()}
	}

	prg, err := env.Program(ast, cel.CostLimit(celCostLimit))
	if err != nil {
		return Rule{}, &ConfigurationError{RuleID: id, Reason: "build program: " + err.Error()}
	}

	if description == "" {
		description = "Custom rule failed: " + expression
	}
	return Rule{
		ID:          id,
		Kind:        kind,
		Severity:    severity,
		Description: description,
		Predicate:   celPredicate(prg),
	}, nil
}

func celPredicate(prg cel.Program) Predicate {
	return func(f models.Fields) (bool, error) {
		vars, unavailable := celInput(f)
		out, _, err := prg.Eval(map[string]any{celFieldsVar: vars})
		if err != nil {
			// A missing key that the fetcher marked unavailable is reported
			// as such rather than as a plain missing field.
			if key, ok := missingKey(err.Error(), unavailable); ok {
				return false, &fields.UnavailableError{Path: key, Reason: unavailable[key]}
			}
			return false, fmt.Errorf("evaluate expression: %w", err)
		}
		b, ok := out.Value().(bool)
		if !ok {
			return false, fmt.Errorf("expression returned %T, want bool", out.Value())
		}
		return b, nil
	}
}

// celInput returns a shallow copy of f without unavailable markers, plus the
// reasons for each dropped key.
func celInput(f models.Fields) (map[string]any, map[string]string) {
	vars := make(map[string]any, len(f))
	var unavailable map[string]string
	for k, v := range f {
		if u, ok := v.(fields.Unavailable); ok {
			if unavailable == nil {
				unavailable = make(map[string]string)
			}
			unavailable[k] = u.Reason
			continue
		}
		vars[k] = v
	}
	return vars, unavailable
}

// missingKey returns the unavailable key that msg reports as missing. The key
// must appear whole, so "log" does not match a report about "logging".
func missingKey(msg string, unavailable map[string]string) (string, bool) {
	const marker = "no such key: "
	for rest := msg; ; {
		i := strings.Index(rest, marker)
		if i < 0 {
			return "", false
		}
		rest = rest[i+len(marker):]
		end := 0
		for end < len(rest) && isIdentByte(rest[end]) {
			end++
		}
		if _, ok := unavailable[rest[:end]]; ok {
			return rest[:end], true
		}
	}
}

func isIdentByte(c byte) bool {
	return c == '_' || c >= '0' && c <= '9' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}
