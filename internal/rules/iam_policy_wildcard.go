package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

const wildcardAction = "*"

// IAMPolicyWildcardRule fails a role when any of its inline policy
// documents grants Action "*". Action may be a string or a list.
func IAMPolicyWildcardRule() Rule {
	return Rule{
		ID:          "policy-wildcard",
		Kind:        models.KindRole,
		Severity:    models.SeverityCritical,
		Description: `IAM role has an inline policy statement with Action "*".`,
		Predicate:   noWildcardAction,
	}
}

func noWildcardAction(f models.Fields) (bool, error) {
	policies, err := fields.List(f, "InlinePolicies")
	if err != nil {
		return false, err
	}
	for _, p := range policies {
		doc, err := fields.ObjectIn(p, "PolicyDocument")
		if err != nil {
			return false, err
		}
		stmts, err := statements(doc)
		if err != nil {
			return false, err
		}
		for _, stmt := range stmts {
			has, err := fields.PresentIn(stmt, "Action")
			if err != nil {
				return false, err
			}
			if !has {
				continue // NotAction statements
			}
			actions, err := fields.StringsIn(stmt, "Action")
			if err != nil {
				return false, err
			}
			for _, a := range actions {
				if a == wildcardAction {
					return false, nil
				}
			}
		}
	}
	return true, nil
}

// statements returns the statements of a policy document. Statement may be
// a single object or a list; a document without Statement is read as one
// bare statement.
func statements(doc map[string]any) ([]any, error) {
	raw, ok := doc["Statement"]
	if !ok || raw == nil {
		return []any{doc}, nil
	}
	switch t := raw.(type) {
	case []any:
		return t, nil
	case map[string]any:
		return []any{t}, nil
	default:
		return nil, &fields.TypeError{Path: "PolicyDocument.Statement", Want: "object or list", Got: raw}
	}
}
