package security

import (
	"testing"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
)

func TestNew_RegistersCleanly(t *testing.T) {
	reg, err := rules.NewRegistryFrom(New())
	if err != nil {
		t.Fatalf("pack must register without errors: %v", err)
	}

	want := map[models.Kind][]string{
		models.KindSecurityGroup: {"open-ports"},
		models.KindBucket:        {"public-access", "encryption"},
		models.KindRole:          {"policy-wildcard"},
		models.KindCluster:       {"private-endpoint", "encryption", "logging"},
	}
	for kind, ids := range want {
		got := reg.RulesFor(kind)
		if len(got) != len(ids) {
			t.Fatalf("%s: got %d rules; want %d", kind, len(got), len(ids))
		}
		for i, id := range ids {
			if got[i].ID != id {
				t.Errorf("%s rule[%d]: got %q; want %q", kind, i, got[i].ID, id)
			}
		}
	}
}

func TestNew_Severities(t *testing.T) {
	want := map[string]models.Severity{
		"SecurityGroup/open-ports": models.SeverityHigh,
		"Bucket/public-access":     models.SeverityHigh,
		"Bucket/encryption":        models.SeverityMedium,
		"Role/policy-wildcard":     models.SeverityCritical,
		"Cluster/private-endpoint": models.SeverityHigh,
		"Cluster/encryption":       models.SeverityMedium,
		"Cluster/logging":          models.SeverityLow,
	}
	for _, r := range New() {
		if got := r.Severity; got != want[r.Key()] {
			t.Errorf("%s: severity %s; want %s", r.Key(), got, want[r.Key()])
		}
	}
}
