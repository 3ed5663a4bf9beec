// Package security provides the canonical compliance rule pack for the
// monitored environment: security groups, S3 buckets, IAM roles and EKS
// clusters.
//
// Convention: every rule pack lives in internal/rulepacks/<domain>/pack.go
// and exposes a single New() func returning []rules.Rule in evaluation order.
package security

import "github.com/pankaj-dahiya-devops/secmon/internal/rules"

// New returns the default security rule pack.
func New() []rules.Rule {
	return []rules.Rule{
		rules.SecurityGroupOpenPortsRule(), // HIGH:     ingress open to 0.0.0.0/0
		rules.S3PublicAccessRule(),         // HIGH:     public ACLs not blocked
		rules.S3EncryptionRule(),           // MEDIUM:   no default SSE
		rules.IAMPolicyWildcardRule(),      // CRITICAL: inline policy grants Action "*"
		rules.EKSPrivateEndpointRule(),     // HIGH:     private endpoint disabled
		rules.EKSEncryptionRule(),          // MEDIUM:   secrets not envelope-encrypted
		rules.EKSLoggingRule(),             // LOW:      control-plane logging disabled
	}
}
