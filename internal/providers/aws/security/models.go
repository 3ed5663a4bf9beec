// Package awssecurity fetches the resource descriptors the compliance engine
// evaluates: EC2 security groups, S3 buckets, IAM roles and EKS clusters.
//
// Fetchers never judge compliance. They translate API responses into
// descriptor field trees, leave fields the API reports as "not configured"
// absent, and store fields.Unavailable where a call failed so the affected
// rules yield ERROR verdicts instead of silently passing.
package awssecurity

import (
	"regexp"

	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// globalRegion is where account-wide services (S3 listing, IAM) are called.
const globalRegion = "us-east-1"

// CollectOptions configures a DefaultCollector.
type CollectOptions struct {
	// Regions for regional kinds (SecurityGroup, Cluster). Must be resolved
	// names; see common.AWSClientProvider.ResolveRegions.
	Regions []string

	// NamePatterns restricts each kind to resources whose name matches.
	// Kinds without a pattern are not filtered.
	NamePatterns map[models.Kind]*regexp.Regexp

	Logger zerolog.Logger
}

// Batch is the result of one fetch phase.
type Batch struct {
	// Descriptors is sorted by kind order, then ID, then region.
	Descriptors []models.ResourceDescriptor

	// Errors holds the failure of each kind that could not be fully
	// fetched. Descriptors fetched before the failure are still in the
	// batch.
	Errors map[models.Kind]error
}

// Failed reports whether every requested kind failed and nothing was fetched.
func (b *Batch) Failed(requested int) bool {
	return requested > 0 && len(b.Descriptors) == 0 && len(b.Errors) == requested
}

func matches(re *regexp.Regexp, name string) bool {
	return re == nil || re.MatchString(name)
}
