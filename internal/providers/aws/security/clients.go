package awssecurity

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	ec2svc "github.com/aws/aws-sdk-go-v2/service/ec2"
	ekssvc "github.com/aws/aws-sdk-go-v2/service/eks"
	iamsvc "github.com/aws/aws-sdk-go-v2/service/iam"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3APIClient is the narrow S3 interface used by the bucket fetcher.
// It embeds ListBucketsAPIClient so the SDK paginator can be used directly.
type s3APIClient interface {
	s3svc.ListBucketsAPIClient
	GetPublicAccessBlock(ctx context.Context, params *s3svc.GetPublicAccessBlockInput, optFns ...func(*s3svc.Options)) (*s3svc.GetPublicAccessBlockOutput, error)
	GetBucketEncryption(ctx context.Context, params *s3svc.GetBucketEncryptionInput, optFns ...func(*s3svc.Options)) (*s3svc.GetBucketEncryptionOutput, error)
}

// ec2SecurityAPIClient is the narrow EC2 interface used for security group
// collection. Only DescribeSecurityGroups is required.
type ec2SecurityAPIClient interface {
	ec2svc.DescribeSecurityGroupsAPIClient
}

// iamAPIClient is the narrow IAM interface used for role and inline policy
// collection.
type iamAPIClient interface {
	iamsvc.ListRolesAPIClient
	iamsvc.ListRolePoliciesAPIClient
	GetRolePolicy(ctx context.Context, params *iamsvc.GetRolePolicyInput, optFns ...func(*iamsvc.Options)) (*iamsvc.GetRolePolicyOutput, error)
}

// eksAPIClient is the narrow EKS interface used for cluster collection.
type eksAPIClient interface {
	ekssvc.ListClustersAPIClient
	DescribeCluster(ctx context.Context, params *ekssvc.DescribeClusterInput, optFns ...func(*ekssvc.Options)) (*ekssvc.DescribeClusterOutput, error)
}

// secClients bundles all AWS service clients used by the collector.
type secClients struct {
	S3  s3APIClient
	EC2 ec2SecurityAPIClient
	IAM iamAPIClient
	EKS eksAPIClient
}

// secClientFactory creates secClients from an AWS config.
// Injection point: tests replace this with a function returning fake clients.
type secClientFactory func(cfg aws.Config) *secClients

// newDefaultSecClients creates production AWS SDK clients from the given config.
func newDefaultSecClients(cfg aws.Config) *secClients {
	return &secClients{
		S3:  s3svc.NewFromConfig(cfg),
		EC2: ec2svc.NewFromConfig(cfg),
		IAM: iamsvc.NewFromConfig(cfg),
		EKS: ekssvc.NewFromConfig(cfg),
	}
}
