package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// EKSEncryptionRule passes a cluster with envelope encryption of secrets
// configured. An absent, null or empty encryptionConfig fails.
func EKSEncryptionRule() Rule {
	return Rule{
		ID:          "encryption",
		Kind:        models.KindCluster,
		Severity:    models.SeverityMedium,
		Description: "EKS cluster has no secrets encryption configuration.",
		Predicate:   hasEncryptionConfig,
	}
}

func hasEncryptionConfig(f models.Fields) (bool, error) {
	present, err := fields.Present(f, "encryptionConfig")
	if err != nil || !present {
		return false, err
	}
	v, _ := fields.Get(f, "encryptionConfig")
	if l, ok := v.([]any); ok {
		return len(l) > 0, nil
	}
	return true, nil
}
