package awssecurity

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3svc "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/fields"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// S3 error codes meaning "not configured" rather than a failed call.
const (
	errCodeNoPublicAccessBlock = "NoSuchPublicAccessBlockConfiguration"
	errCodeNoBucketEncryption  = "ServerSideEncryptionConfigurationNotFoundError"
)

// fetchBuckets lists every bucket in the account and reads its public
// access block and default encryption. Per-bucket calls go to the bucket's
// own region when ListBuckets reports it.
func fetchBuckets(ctx context.Context, client s3APIClient, match *regexp.Regexp, logger zerolog.Logger) ([]models.ResourceDescriptor, error) {
	paginator := s3svc.NewListBucketsPaginator(client, &s3svc.ListBucketsInput{})

	var out []models.ResourceDescriptor
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return out, fmt.Errorf("list S3 buckets: %w", err)
		}
		for _, b := range page.Buckets {
			name := aws.ToString(b.Name)
			if !matches(match, name) {
				continue
			}
			region := aws.ToString(b.BucketRegion)

			f := models.Fields{"Name": name}
			if b.CreationDate != nil {
				f["CreationDate"] = b.CreationDate.UTC().Format("2006-01-02T15:04:05Z")
			}
			readPublicAccessBlock(ctx, client, f, name, region, logger)
			readBucketEncryption(ctx, client, f, name, region, logger)

			out = append(out, models.ResourceDescriptor{
				Kind:   models.KindBucket,
				ID:     name,
				Name:   name,
				Region: region,
				Fields: f,
			})
		}
	}
	return out, nil
}

// readPublicAccessBlock sets PublicAccessBlockConfiguration. A bucket with
// no block configured has no such field.
func readPublicAccessBlock(ctx context.Context, client s3APIClient, f models.Fields, name, region string, logger zerolog.Logger) {
	const key = "PublicAccessBlockConfiguration"
	resp, err := client.GetPublicAccessBlock(ctx, &s3svc.GetPublicAccessBlockInput{
		Bucket: aws.String(name),
	}, inRegion(region))
	if err != nil {
		if hasErrorCode(err, errCodeNoPublicAccessBlock) {
			return
		}
		logger.Debug().Err(err).Str("bucket", name).Msg("get public access block failed")
		f[key] = fields.Unavailable{Reason: err.Error()}
		return
	}
	storeTree(f, key, resp.PublicAccessBlockConfiguration)
}

// readBucketEncryption sets ServerSideEncryptionConfiguration. A bucket
// without default encryption has no such field.
func readBucketEncryption(ctx context.Context, client s3APIClient, f models.Fields, name, region string, logger zerolog.Logger) {
	const key = "ServerSideEncryptionConfiguration"
	resp, err := client.GetBucketEncryption(ctx, &s3svc.GetBucketEncryptionInput{
		Bucket: aws.String(name),
	}, inRegion(region))
	if err != nil {
		if hasErrorCode(err, errCodeNoBucketEncryption) {
			return
		}
		logger.Debug().Err(err).Str("bucket", name).Msg("get bucket encryption failed")
		f[key] = fields.Unavailable{Reason: err.Error()}
		return
	}
	storeTree(f, key, resp.ServerSideEncryptionConfiguration)
}

// storeTree stores a non-nil pointer value under key as a JSON tree.
func storeTree[T any](f models.Fields, key string, v *T) {
	if v == nil {
		return
	}
	tree, err := fields.From(v)
	if err != nil {
		f[key] = fields.Unavailable{Reason: err.Error()}
		return
	}
	f[key] = tree
}

func inRegion(region string) func(*s3svc.Options) {
	return func(o *s3svc.Options) {
		if region != "" {
			o.Region = region
		}
	}
}

// hasErrorCode reports whether err carries the given AWS API error code.
func hasErrorCode(err error, code string) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == code
}
