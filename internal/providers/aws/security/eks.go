package awssecurity

import (
	"context"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	ekssvc "github.com/aws/aws-sdk-go-v2/service/eks"
	ekstypes "github.com/aws/aws-sdk-go-v2/service/eks/types"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// clusterFields are the fields cluster rules read; all are marked
// unavailable when DescribeCluster fails.
var clusterFields = []string{"resourcesVpcConfig", "encryptionConfig", "logging"}

// fetchClusters lists the EKS clusters in region and describes each one.
// Fields use the EKS REST API's camelCase names.
func fetchClusters(ctx context.Context, client eksAPIClient, region string, match *regexp.Regexp, logger zerolog.Logger) ([]models.ResourceDescriptor, error) {
	paginator := ekssvc.NewListClustersPaginator(client, &ekssvc.ListClustersInput{})

	var out []models.ResourceDescriptor
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return out, fmt.Errorf("list EKS clusters in %s: %w", region, err)
		}
		for _, name := range page.Clusters {
			if !matches(match, name) {
				continue
			}

			d := models.ResourceDescriptor{
				Kind:   models.KindCluster,
				ID:     name,
				Name:   name,
				Region: region,
			}

			resp, err := client.DescribeCluster(ctx, &ekssvc.DescribeClusterInput{Name: aws.String(name)})
			switch {
			case err != nil:
				logger.Debug().Err(err).Str("cluster", name).Str("region", region).Msg("describe cluster failed")
				d.Fields = unavailableCluster(name, err.Error())
			case resp.Cluster == nil:
				d.Fields = unavailableCluster(name, "empty DescribeCluster response")
			default:
				d.Fields = clusterTree(resp.Cluster)
			}
			out = append(out, d)
		}
	}
	return out, nil
}

func unavailableCluster(name, reason string) models.Fields {
	f := models.Fields{"name": name}
	for _, k := range clusterFields {
		f[k] = fields.Unavailable{Reason: reason}
	}
	return f
}

// clusterTree converts a described cluster. encryptionConfig is left absent
// when the cluster has none, as the EKS API does.
func clusterTree(c *ekstypes.Cluster) models.Fields {
	f := models.Fields{
		"name":    aws.ToString(c.Name),
		"arn":     aws.ToString(c.Arn),
		"version": aws.ToString(c.Version),
		"status":  string(c.Status),
	}

	if vpc := c.ResourcesVpcConfig; vpc != nil {
		f["resourcesVpcConfig"] = map[string]any{
			"vpcId":                 aws.ToString(vpc.VpcId),
			"endpointPrivateAccess": vpc.EndpointPrivateAccess,
			"endpointPublicAccess":  vpc.EndpointPublicAccess,
			"publicAccessCidrs":     stringList(vpc.PublicAccessCidrs),
			"subnetIds":             stringList(vpc.SubnetIds),
			"securityGroupIds":      stringList(vpc.SecurityGroupIds),
		}
	}

	if len(c.EncryptionConfig) > 0 {
		configs := make([]any, 0, len(c.EncryptionConfig))
		for _, ec := range c.EncryptionConfig {
			entry := map[string]any{"resources": stringList(ec.Resources)}
			if ec.Provider != nil {
				entry["provider"] = map[string]any{"keyArn": aws.ToString(ec.Provider.KeyArn)}
			}
			configs = append(configs, entry)
		}
		f["encryptionConfig"] = configs
	}

	if c.Logging != nil {
		setups := make([]any, 0, len(c.Logging.ClusterLogging))
		for _, ls := range c.Logging.ClusterLogging {
			types := make([]any, 0, len(ls.Types))
			for _, t := range ls.Types {
				types = append(types, string(t))
			}
			setups = append(setups, map[string]any{
				"types":   types,
				"enabled": aws.ToBool(ls.Enabled),
			})
		}
		f["logging"] = map[string]any{"clusterLogging": setups}
	}

	return f
}

func stringList(ss []string) []any {
	out := make([]any, 0, len(ss))
	for _, s := range ss {
		out = append(out, s)
	}
	return out
}
