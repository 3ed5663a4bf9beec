package awssecurity

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
)

// DefaultCollector is the production Collector. Each requested kind is
// fetched in its own goroutine. Bucket and Role are account-wide and fetched
// once against us-east-1; SecurityGroup and Cluster are fetched per region.
type DefaultCollector struct {
	profile  *common.ProfileConfig
	provider common.AWSClientProvider
	opts     CollectOptions
	factory  secClientFactory
}

// NewDefaultCollector returns a DefaultCollector wired to production AWS SDK
// clients.
func NewDefaultCollector(profile *common.ProfileConfig, provider common.AWSClientProvider, opts CollectOptions) *DefaultCollector {
	return NewDefaultCollectorWithFactory(profile, provider, opts, newDefaultSecClients)
}

// NewDefaultCollectorWithFactory returns a DefaultCollector that uses the
// supplied factory, allowing tests to inject fake clients.
func NewDefaultCollectorWithFactory(profile *common.ProfileConfig, provider common.AWSClientProvider, opts CollectOptions, f secClientFactory) *DefaultCollector {
	if len(opts.Regions) == 0 && profile != nil {
		opts.Regions = []string{profile.Region}
	}
	return &DefaultCollector{profile: profile, provider: provider, opts: opts, factory: f}
}

type kindResult struct {
	descriptors []models.ResourceDescriptor
	err         error
}

// Collect fetches every kind in kinds; a nil or empty slice means all kinds.
func (c *DefaultCollector) Collect(ctx context.Context, kinds []models.Kind) (*Batch, error) {
	if len(kinds) == 0 {
		kinds = models.Kinds
	}
	for _, k := range kinds {
		if !k.Valid() {
			return nil, fmt.Errorf("collect: unknown resource kind %q", k)
		}
	}

	results := make([]kindResult, len(kinds))
	var wg sync.WaitGroup
	for i, kind := range kinds {
		wg.Add(1)
		go func(i int, kind models.Kind) {
			defer wg.Done()
			ds, err := c.fetchKind(ctx, kind)
			results[i] = kindResult{descriptors: ds, err: err}
		}(i, kind)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	batch := &Batch{Errors: make(map[models.Kind]error)}
	for i, kind := range kinds {
		r := results[i]
		batch.Descriptors = append(batch.Descriptors, r.descriptors...)
		if r.err != nil {
			batch.Errors[kind] = r.err
			c.opts.Logger.Warn().
				Err(r.err).
				Str("kind", string(kind)).
				Int("fetched", len(r.descriptors)).
				Msg("fetch failed")
			continue
		}
		c.opts.Logger.Debug().
			Str("kind", string(kind)).
			Int("fetched", len(r.descriptors)).
			Msg("fetch complete")
	}
	sortDescriptors(batch.Descriptors)
	return batch, nil
}

func (c *DefaultCollector) fetchKind(ctx context.Context, kind models.Kind) ([]models.ResourceDescriptor, error) {
	match := c.opts.NamePatterns[kind]

	switch kind {
	case models.KindBucket:
		clients := c.factory(c.provider.ConfigForRegion(c.profile, globalRegion))
		return fetchBuckets(ctx, clients.S3, match, c.opts.Logger)
	case models.KindRole:
		clients := c.factory(c.provider.ConfigForRegion(c.profile, globalRegion))
		return fetchRoles(ctx, clients.IAM, match, c.opts.Logger)
	}

	var all []models.ResourceDescriptor
	var errs []error
	for _, region := range c.opts.Regions {
		if err := ctx.Err(); err != nil {
			return all, err
		}
		clients := c.factory(c.provider.ConfigForRegion(c.profile, region))

		var ds []models.ResourceDescriptor
		var err error
		switch kind {
		case models.KindSecurityGroup:
			ds, err = fetchSecurityGroups(ctx, clients.EC2, region, match)
		case models.KindCluster:
			ds, err = fetchClusters(ctx, clients.EKS, region, match, c.opts.Logger)
		}
		all = append(all, ds...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	return all, errors.Join(errs...)
}

// sortDescriptors orders a batch by kind, then ID, then region so repeated
// fetches of the same estate produce the same batch.
func sortDescriptors(ds []models.ResourceDescriptor) {
	sort.SliceStable(ds, func(i, j int) bool {
		a, b := ds[i], ds[j]
		if a.Kind != b.Kind {
			return a.Kind.Rank() < b.Kind.Rank()
		}
		if a.ID != b.ID {
			return a.ID < b.ID
		}
		return a.Region < b.Region
	})
}
