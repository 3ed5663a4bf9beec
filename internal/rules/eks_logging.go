package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// EKSLoggingRule passes a cluster with at least one control-plane log type
// enabled.
func EKSLoggingRule() Rule {
	return Rule{
		ID:          "logging",
		Kind:        models.KindCluster,
		Severity:    models.SeverityLow,
		Description: "EKS cluster has no control-plane log types enabled.",
		Predicate:   anyLogTypeEnabled,
	}
}

func anyLogTypeEnabled(f models.Fields) (bool, error) {
	entries, err := fields.List(f, "logging.clusterLogging")
	if err != nil {
		return false, err
	}
	for _, e := range entries {
		enabled, err := fields.BoolIn(e, "enabled")
		if err != nil {
			return false, err
		}
		if enabled {
			return true, nil
		}
	}
	return false, nil
}
