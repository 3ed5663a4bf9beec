package awssecurity

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"

	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// fetchSecurityGroups lists every security group in region. IpPermissions
// keeps the EC2 API shape (FromPort, ToPort, IpProtocol, IpRanges[].CidrIp,
// Ipv6Ranges[].CidrIpv6).
func fetchSecurityGroups(ctx context.Context, client ec2SecurityAPIClient, region string, match *regexp.Regexp) ([]models.ResourceDescriptor, error) {
	paginator := ec2svc.NewDescribeSecurityGroupsPaginator(client, &ec2svc.DescribeSecurityGroupsInput{})

	var out []models.ResourceDescriptor
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return out, fmt.Errorf("describe security groups in %s: %w", region, err)
		}
		for _, sg := range page.SecurityGroups {
			name := aws.ToString(sg.GroupName)
			if !matches(match, name) {
				continue
			}

			f := models.Fields{
				"GroupId":     aws.ToString(sg.GroupId),
				"GroupName":   name,
				"VpcId":       aws.ToString(sg.VpcId),
				"Description": aws.ToString(sg.Description),
			}
			setTree(f, "IpPermissions", sg.IpPermissions)
			setTree(f, "Tags", sg.Tags)

			out = append(out, models.ResourceDescriptor{
				Kind:   models.KindSecurityGroup,
				ID:     aws.ToString(sg.GroupId),
				Name:   name,
				Region: region,
				Fields: f,
			})
		}
	}
	return out, nil
}

// setTree stores v under key as a JSON tree. A nil slice is stored as an
// empty list; a value that cannot be converted is marked unavailable.
func setTree[T any](f models.Fields, key string, v []T) {
	if v == nil {
		f[key] = []any{}
		return
	}
	tree, err := fields.From(v)
	if err != nil {
		f[key] = fields.Unavailable{Reason: err.Error()}
		return
	}
	f[key] = tree
}
