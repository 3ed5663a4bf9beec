package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
	awssecurity "github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/security"
)

// ── AWS mock ──────────────────────────────────────────────────────────────────

type mockAWSProvider struct {
	profileResult *common.ProfileConfig
	profileErr    error
	regionsResult []string
	regionsErr    error
	lastProfile   string // records the profile name passed to LoadProfile
	lastRegions   []string
}

func (m *mockAWSProvider) LoadProfile(_ context.Context, profile string) (*common.ProfileConfig, error) {
	m.lastProfile = profile
	return m.profileResult, m.profileErr
}

func (m *mockAWSProvider) GetActiveRegions(_ context.Context, _ *common.ProfileConfig) ([]string, error) {
	return m.regionsResult, m.regionsErr
}

func (m *mockAWSProvider) ResolveRegions(_ context.Context, _ *common.ProfileConfig, configured []string) ([]string, error) {
	m.lastRegions = configured
	return m.regionsResult, m.regionsErr
}

func (m *mockAWSProvider) ConfigForRegion(_ *common.ProfileConfig, _ string) aws.Config {
	return aws.Config{}
}

func goodMockAWS() *mockAWSProvider {
	return &mockAWSProvider{
		profileResult: &common.ProfileConfig{
			ProfileName: "default",
			AccountID:   "123456789012",
			Region:      "us-east-1",
		},
		regionsResult: []string{"us-east-1", "eu-west-1"},
	}
}

// ── collector stub ────────────────────────────────────────────────────────────

type stubCollector struct {
	batch *awssecurity.Batch
	err   error
	kinds []models.Kind
}

func (s *stubCollector) Collect(_ context.Context, kinds []models.Kind) (*awssecurity.Batch, error) {
	s.kinds = kinds
	return s.batch, s.err
}

func (s *stubCollector) factory() func(*common.ProfileConfig, common.AWSClientProvider, awssecurity.CollectOptions) awssecurity.Collector {
	return func(*common.ProfileConfig, common.AWSClientProvider, awssecurity.CollectOptions) awssecurity.Collector {
		return s
	}
}

func insecureEstate() *stubCollector {
	return &stubCollector{batch: &awssecurity.Batch{
		Descriptors: []models.ResourceDescriptor{{
			Kind:   models.KindCluster,
			ID:     "demo-eks",
			Region: "us-east-1",
			Fields: models.Fields{
				"resourcesVpcConfig": map[string]any{"endpointPrivateAccess": false},
				"encryptionConfig":   nil,
				"logging":            map[string]any{"clusterLogging": []any{map[string]any{"enabled": false}}},
			},
		}},
		Errors: map[models.Kind]error{},
	}}
}

// ── helpers ───────────────────────────────────────────────────────────────────

// writeFile writes content to name inside a fresh temp dir and returns the path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// quietConfig returns a config file that keeps log output to errors only.
func quietConfig(t *testing.T, extra string) string {
	t.Helper()
	return writeFile(t, "secmon.yaml", "log:\n  level: error\n"+extra)
}

// execute runs the root command built around provider and collector and
// returns stdout and the command error.
func execute(t *testing.T, provider common.AWSClientProvider, collector *stubCollector, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	root := newCLI(provider, collector.factory()).rootCmd()
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}
