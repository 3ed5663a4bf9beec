// Package app assembles a check pipeline from configuration. Both the CLI
// and the Lambda entrypoint build their runner here so they evaluate the
// same rules with the same publishers.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/pankaj-dahiya-devops/secmon/internal/config"
	"github.com/pankaj-dahiya-devops/secmon/internal/engine"
	"github.com/pankaj-dahiya-devops/secmon/internal/harness"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/policy"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/secmon/internal/publisher"
	"github.com/pankaj-dahiya-devops/secmon/internal/rulepacks/security"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
	"github.com/pankaj-dahiya-devops/secmon/internal/store"
)

// CollectorFactory builds the fetch-phase collector. Tests replace it.
type CollectorFactory func(profile *common.ProfileConfig, provider common.AWSClientProvider, opts awssecurity.CollectOptions) awssecurity.Collector

// DefaultCollectorFactory builds the production AWS collector.
func DefaultCollectorFactory(profile *common.ProfileConfig, provider common.AWSClientProvider, opts awssecurity.CollectOptions) awssecurity.Collector {
	return awssecurity.NewDefaultCollector(profile, provider, opts)
}

// Options selects the optional parts of the pipeline.
type Options struct {
	Kinds []models.Kind

	// PolicyPath overrides config policy.path when set.
	PolicyPath string

	// CloudWatch publishes the failure metric.
	CloudWatch bool

	// Alerts publishes SNS alerts when publisher.sns_topic_arn is set.
	Alerts bool

	// LogVerdicts adds the structured log publisher.
	LogVerdicts bool

	// Metrics, when set, receives the Prometheus publisher's collectors.
	Metrics prometheus.Registerer

	// History archives reports when history.path is set.
	History bool

	NewCollector CollectorFactory
}

// App is an assembled pipeline.
type App struct {
	Runner   *harness.Runner
	Registry *rules.DefaultRegistry
	Policy   *policy.PolicyConfig
	Profile  *common.ProfileConfig
	Regions  []string

	archive *store.Archive
}

// Close releases the history archive.
func (a *App) Close() error {
	if a.archive == nil {
		return nil
	}
	return a.archive.Close()
}

// Build resolves credentials and regions, loads the rule set, and wires the
// collector, engine, publishers and archive into a Runner.
func Build(ctx context.Context, cfg *config.Config, provider common.AWSClientProvider, logger zerolog.Logger, opts Options) (*App, error) {
	policyPath := opts.PolicyPath
	if policyPath == "" {
		policyPath = cfg.Policy.Path
	}
	ruleSet, pol, err := LoadRules(policyPath)
	if err != nil {
		return nil, err
	}
	registry, err := rules.NewRegistryFrom(ruleSet)
	if err != nil {
		return nil, fmt.Errorf("build rule registry: %w", err)
	}

	patterns, err := cfg.NamePatterns()
	if err != nil {
		return nil, err
	}

	profile, err := provider.LoadProfile(ctx, cfg.AWS.Profile)
	if err != nil {
		return nil, err
	}
	regions, err := provider.ResolveRegions(ctx, profile, cfg.AWS.Regions)
	if err != nil {
		return nil, err
	}
	logger.Info().
		Str("profile", profile.ProfileName).
		Str("account_id", profile.AccountID).
		Strs("regions", regions).
		Int("rules", len(registry.All())).
		Msg("pipeline configured")

	newCollector := opts.NewCollector
	if newCollector == nil {
		newCollector = DefaultCollectorFactory
	}
	collector := newCollector(profile, provider, awssecurity.CollectOptions{
		Regions:      regions,
		NamePatterns: patterns,
		Logger:       logger,
	})

	pubs, err := buildPublishers(cfg, provider, profile, logger, opts)
	if err != nil {
		return nil, err
	}

	a := &App{
		Registry: registry,
		Policy:   pol,
		Profile:  profile,
		Regions:  regions,
	}

	runnerOpts := harness.Options{
		Kinds:   opts.Kinds,
		Timeout: cfg.Schedule.Timeout,
		Logger:  logger,
	}
	if opts.History && cfg.History.Path != "" {
		archive, err := store.Open(cfg.History.Path)
		if err != nil {
			logger.Warn().Err(err).Str("path", cfg.History.Path).Msg("history archive unavailable; reports will not be archived")
		} else {
			a.archive = archive
			runnerOpts.Archive = archive
		}
	}

	a.Runner = harness.NewRunner(collector, engine.NewDefaultEngine(registry), publisher.NewMultiPublisher(pubs...), runnerOpts)
	return a, nil
}

// LoadRules returns the canonical rule pack with the policy file at path
// applied. An empty path returns the pack unchanged and a nil policy.
func LoadRules(path string) ([]rules.Rule, *policy.PolicyConfig, error) {
	pack := security.New()
	if path == "" {
		return pack, nil, nil
	}
	pol, err := policy.LoadPolicy(path)
	if err != nil {
		return nil, nil, err
	}
	resolved, err := policy.Resolve(pack, pol)
	if err != nil {
		return nil, nil, err
	}
	return resolved, pol, nil
}

func buildPublishers(cfg *config.Config, provider common.AWSClientProvider, profile *common.ProfileConfig, logger zerolog.Logger, opts Options) ([]publisher.Publisher, error) {
	var pubs []publisher.Publisher

	if opts.LogVerdicts {
		pubs = append(pubs, publisher.NewLogPublisher(logger))
	}
	if opts.Metrics != nil {
		p, err := publisher.NewPrometheusPublisher(opts.Metrics)
		if err != nil {
			return nil, err
		}
		pubs = append(pubs, p)
	}
	if opts.CloudWatch {
		pubs = append(pubs, publisher.NewCloudWatchPublisher(profile.Clients.CloudWatch, cfg.Publisher.Namespace, cfg.Publisher.MetricName))
	}
	if opts.Alerts && cfg.Publisher.SNSTopicARN != "" {
		topic := cfg.Publisher.SNSTopicARN
		region, err := topicRegion(topic)
		if err != nil {
			return nil, err
		}
		client := profile.Clients.SNS
		if region != profile.Region {
			client = sns.NewFromConfig(provider.ConfigForRegion(profile, region))
		}
		pubs = append(pubs, publisher.NewSNSPublisher(client, topic, cfg.AlertMinSeverity()))
	}
	return pubs, nil
}

// topicRegion extracts the region from arn:partition:sns:region:account:name.
func topicRegion(arn string) (string, error) {
	parts := strings.Split(arn, ":")
	if len(parts) != 6 || parts[0] != "arn" || parts[2] != "sns" || parts[3] == "" {
		return "", errors.New("publisher.sns_topic_arn: not an SNS topic ARN: " + arn)
	}
	return parts[3], nil
}
