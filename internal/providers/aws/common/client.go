package common

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
)

// AllRegions in aws.regions expands to every region enabled for the account.
const AllRegions = "all"

// ProfileConfig is a resolved AWS profile with its SDK configuration and
// initialised service clients. It is the unit passed between the fetchers
// and the publishers.
type ProfileConfig struct {
	// ProfileName is the name from ~/.aws/config or "default".
	ProfileName string

	// AccountID is the resolved AWS account ID for this profile (via STS).
	AccountID string

	// Region is the home region for this profile configuration.
	Region string

	// Config is the fully loaded AWS SDK v2 configuration.
	Config aws.Config

	// Clients holds service clients scoped to the home region.
	Clients *ClientSet
}

// AWSClientProvider loads AWS configurations and resolves the regions a
// check covers.
type AWSClientProvider interface {
	// LoadProfile returns a ProfileConfig for the named profile.
	// Pass an empty string to use the default credential chain.
	LoadProfile(ctx context.Context, profile string) (*ProfileConfig, error)

	// GetActiveRegions returns all regions enabled for the account.
	GetActiveRegions(ctx context.Context, cfg *ProfileConfig) ([]string, error)

	// ResolveRegions turns the configured region list into concrete names.
	// An empty list means the home region; "all" means every active region.
	ResolveRegions(ctx context.Context, cfg *ProfileConfig, configured []string) ([]string, error)

	// ConfigForRegion clones cfg with the target region set.
	ConfigForRegion(cfg *ProfileConfig, region string) aws.Config
}
