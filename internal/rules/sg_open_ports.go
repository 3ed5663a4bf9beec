package rules

import (
	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

const anyIPv4 = "0.0.0.0/0"

// SecurityGroupOpenPortsRule fails a security group when any ingress
// permission admits traffic from 0.0.0.0/0, regardless of port.
// IPv6 ranges are not inspected.
func SecurityGroupOpenPortsRule() Rule {
	return Rule{
		ID:          "open-ports",
		Kind:        models.KindSecurityGroup,
		Severity:    models.SeverityHigh,
		Description: "Security group has an ingress permission open to 0.0.0.0/0.",
		Predicate:   noIngressFromAnywhere,
	}
}

func noIngressFromAnywhere(f models.Fields) (bool, error) {
	perms, err := fields.List(f, "IpPermissions")
	if err != nil {
		return false, err
	}
	for _, perm := range perms {
		// A permission that only references prefix lists or other groups
		// carries no IpRanges.
		has, err := fields.PresentIn(perm, "IpRanges")
		if err != nil {
			return false, err
		}
		if !has {
			continue
		}
		ranges, err := fields.ListIn(perm, "IpRanges")
		if err != nil {
			return false, err
		}
		for _, r := range ranges {
			cidr, err := fields.StringIn(r, "CidrIp")
			if err != nil {
				return false, err
			}
			if cidr == anyIPv4 {
				return false, nil
			}
		}
	}
	return true, nil
}
