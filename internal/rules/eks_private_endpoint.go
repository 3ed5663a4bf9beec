package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// EKSPrivateEndpointRule passes a cluster whose API server endpoint is
// reachable from inside the VPC.
func EKSPrivateEndpointRule() Rule {
	return Rule{
		ID:          "private-endpoint",
		Kind:        models.KindCluster,
		Severity:    models.SeverityHigh,
		Description: "EKS cluster private endpoint access is disabled.",
		Predicate: func(f models.Fields) (bool, error) {
			return fields.Bool(f, "resourcesVpcConfig.endpointPrivateAccess")
		},
	}
}
