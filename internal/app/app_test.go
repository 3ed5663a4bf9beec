package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pankaj-dahiya-devops/secmon/internal/config"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/security"
	"github.com/pankaj-dahiya-devops/secmon/internal/store"
)

type fakeProvider struct {
	profileErr error
	regions    []string
}

func (f *fakeProvider) LoadProfile(_ context.Context, profile string) (*common.ProfileConfig, error) {
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	return &common.ProfileConfig{ProfileName: profile, AccountID: "123456789012", Region: "us-east-1", Clients: &common.ClientSet{}}, nil
}

func (f *fakeProvider) GetActiveRegions(context.Context, *common.ProfileConfig) ([]string, error) {
	return f.regions, nil
}

func (f *fakeProvider) ResolveRegions(context.Context, *common.ProfileConfig, []string) ([]string, error) {
	return f.regions, nil
}

func (f *fakeProvider) ConfigForRegion(_ *common.ProfileConfig, region string) aws.Config {
	return aws.Config{Region: region}
}

type fakeCollector struct {
	opts awssecurity.CollectOptions
}

func (f *fakeCollector) Collect(context.Context, []models.Kind) (*awssecurity.Batch, error) {
	return &awssecurity.Batch{
		Descriptors: []models.ResourceDescriptor{{
			Kind:   models.KindCluster,
			ID:     "demo-eks",
			Fields: models.Fields{
				"resourcesVpcConfig": map[string]any{"endpointPrivateAccess": true},
				"encryptionConfig":   []any{map[string]any{"resources": []any{"secrets"}}},
				"logging":            map[string]any{"clusterLogging": []any{map[string]any{"enabled": true}}},
			},
		}},
		Errors: map[models.Kind]error{},
	}, nil
}

func newTestConfig(t *testing.T, body string) *config.Config {
	t.Helper()
	path := filepath.Join(t.TempDir(), "secmon.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	cfg, err := config.NewFileLoader(path).Load()
	require.NoError(t, err)
	return cfg
}

func buildWith(t *testing.T, cfg *config.Config, opts Options) (*App, *fakeCollector, error) {
	t.Helper()
	col := &fakeCollector{}
	opts.NewCollector = func(_ *common.ProfileConfig, _ common.AWSClientProvider, o awssecurity.CollectOptions) awssecurity.Collector {
		col.opts = o
		return col
	}
	a, err := Build(context.Background(), cfg, &fakeProvider{regions: []string{"eu-west-1", "us-east-1"}}, zerolog.Nop(), opts)
	return a, col, err
}

func TestBuild_RunsCheck(t *testing.T) {
	cfg := newTestConfig(t, "match:\n  cluster: ^demo-\n")
	a, col, err := buildWith(t, cfg, Options{})
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []string{"eu-west-1", "us-east-1"}, a.Regions)
	assert.Equal(t, a.Regions, col.opts.Regions)
	require.Contains(t, col.opts.NamePatterns, models.KindCluster)
	assert.Len(t, a.Registry.All(), 7)
	assert.Nil(t, a.Policy)

	report, err := a.Runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, report.PassCount)
	assert.Zero(t, report.TotalFailures())
}

func TestBuild_PolicyOverride(t *testing.T) {
	cfg := newTestConfig(t, "")
	pol := filepath.Join(t.TempDir(), "policy.yaml")
	require.NoError(t, os.WriteFile(pol, []byte("version: 1\nrules:\n  Cluster/logging:\n    enabled: false\n"), 0o600))

	a, _, err := buildWith(t, cfg, Options{PolicyPath: pol})
	require.NoError(t, err)
	defer a.Close()

	assert.Len(t, a.Registry.All(), 6)
	require.NotNil(t, a.Policy)
	for _, r := range a.Registry.RulesFor(models.KindCluster) {
		assert.NotEqual(t, "logging", r.ID)
	}
}

func TestBuild_ArchivesReports(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	cfg := newTestConfig(t, "history:\n  path: "+db+"\n")

	a, _, err := buildWith(t, cfg, Options{History: true})
	require.NoError(t, err)
	report, err := a.Runner.RunOnce(context.Background())
	require.NoError(t, err)
	require.NoError(t, a.Close())

	archive, err := store.Open(db)
	require.NoError(t, err)
	defer archive.Close()
	got, err := archive.Get(report.ReportID)
	require.NoError(t, err)
	assert.Equal(t, report.ReportID, got.ReportID)
}

func TestBuild_UnavailableArchiveIsNotFatal(t *testing.T) {
	db := filepath.Join(t.TempDir(), "missing", "history.db")
	cfg := newTestConfig(t, "history:\n  path: "+db+"\n")

	a, _, err := buildWith(t, cfg, Options{History: true})
	require.NoError(t, err)
	defer a.Close()

	report, err := a.Runner.RunOnce(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.ReportID)
	assert.NoFileExists(t, db)
}

func TestBuild_PrometheusPublisher(t *testing.T) {
	cfg := newTestConfig(t, "")
	reg := prometheus.NewRegistry()

	a, _, err := buildWith(t, cfg, Options{Metrics: reg, LogVerdicts: true})
	require.NoError(t, err)
	defer a.Close()
	_, err = a.Runner.RunOnce(context.Background())
	require.NoError(t, err)

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestBuild_Errors(t *testing.T) {
	t.Run("bad topic", func(t *testing.T) {
		cfg := newTestConfig(t, "publisher:\n  sns_topic_arn: not-an-arn\n")
		_, _, err := buildWith(t, cfg, Options{Alerts: true})
		assert.ErrorContains(t, err, "not an SNS topic ARN")
	})
	t.Run("missing policy", func(t *testing.T) {
		cfg := newTestConfig(t, "")
		_, _, err := buildWith(t, cfg, Options{PolicyPath: filepath.Join(t.TempDir(), "absent.yaml")})
		assert.Error(t, err)
	})
	t.Run("credentials", func(t *testing.T) {
		cfg := newTestConfig(t, "")
		_, err := Build(context.Background(), cfg, &fakeProvider{profileErr: errors.New("no credentials")}, zerolog.Nop(), Options{})
		assert.ErrorContains(t, err, "no credentials")
	})
}

func TestTopicRegion(t *testing.T) {
	cases := []struct {
		arn     string
		want    string
		wantErr bool
	}{
		{"arn:aws:sns:eu-west-1:123456789012:alerts", "eu-west-1", false},
		{"arn:aws-us-gov:sns:us-gov-west-1:123456789012:alerts", "us-gov-west-1", false},
		{"arn:aws:sqs:eu-west-1:123456789012:queue", "", true},
		{"arn:aws:sns::123456789012:alerts", "", true},
		{"alerts", "", true},
	}
	for _, tc := range cases {
		got, err := topicRegion(tc.arn)
		if tc.wantErr {
			assert.Error(t, err, tc.arn)
			continue
		}
		require.NoError(t, err, tc.arn)
		assert.Equal(t, tc.want, got)
	}
}
