package main

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

func TestHistoryCmd_ListsArchivedChecks(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	cfg := quietConfig(t, "history:\n  path: "+db+"\n")

	checkOut, err := execute(t, goodMockAWS(), insecureEstate(), "check", "--config", cfg, "--format", "json")
	if err != nil {
		t.Fatalf("check returned error: %v", err)
	}
	var checked models.Report
	if err := json.Unmarshal([]byte(checkOut), &checked); err != nil {
		t.Fatalf("decode check output: %v", err)
	}

	out, err := execute(t, goodMockAWS(), insecureEstate(), "history", "--config", cfg, "--format", "json")
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	var reports []models.Report
	if err := json.Unmarshal([]byte(out), &reports); err != nil {
		t.Fatalf("decode history output: %v\n%s", err, out)
	}
	if len(reports) != 1 || reports[0].ReportID != checked.ReportID {
		t.Fatalf("history = %+v; want the one checked report %s", reports, checked.ReportID)
	}

	show, err := execute(t, goodMockAWS(), insecureEstate(), "history", "--config", cfg, "--show", checked.ReportID)
	if err != nil {
		t.Fatalf("history --show returned error: %v", err)
	}
	if !strings.Contains(show, checked.ReportID) || !strings.Contains(show, "demo-eks") {
		t.Errorf("history --show output:\n%s", show)
	}
}

func TestHistoryCmd_EmptyArchive(t *testing.T) {
	db := filepath.Join(t.TempDir(), "history.db")
	cfg := quietConfig(t, "history:\n  path: "+db+"\n")
	out, err := execute(t, goodMockAWS(), insecureEstate(), "history", "--config", cfg)
	if err != nil {
		t.Fatalf("history returned error: %v", err)
	}
	if !strings.Contains(out, "No archived reports.") {
		t.Errorf("unexpected output:\n%s", out)
	}
}

func TestHistoryCmd_RequiresPath(t *testing.T) {
	cfg := quietConfig(t, "")
	if _, err := execute(t, goodMockAWS(), insecureEstate(), "history", "--config", cfg); err == nil {
		t.Error("expected error when history.path is unset")
	}
}
