package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/output"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
)

// printJSON writes v as indented JSON to w.
func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// printSummary renders report with the detail column and optional color.
func printSummary(w io.Writer, report *models.Report, colored bool) {
	output.RenderSummary(w, report, output.TableOptions{Colored: colored, IncludeDetail: true})
}

type ruleView struct {
	Kind        models.Kind     `json:"kind"`
	ID          string          `json:"id"`
	Severity    models.Severity `json:"severity"`
	Description string          `json:"description"`
}

func ruleViews(rs []rules.Rule) []ruleView {
	out := make([]ruleView, 0, len(rs))
	for _, r := range rs {
		out = append(out, ruleView{Kind: r.Kind, ID: r.ID, Severity: r.Severity, Description: r.Description})
	}
	return out
}

func printRulesTable(w io.Writer, rs []rules.Rule) {
	fmt.Fprintf(w, "  %-14s  %-20s  %-10s  %s\n", "KIND", "RULE", "SEVERITY", "DESCRIPTION")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 82))
	for _, r := range rs {
		fmt.Fprintf(w, "  %-14s  %-20s  %-10s  %s\n", r.Kind, r.ID, r.Severity, r.Description)
	}
}

func printHistoryTable(w io.Writer, reports []*models.Report) {
	if len(reports) == 0 {
		fmt.Fprintln(w, "No archived reports.")
		return
	}
	fmt.Fprintf(w, "  %-36s  %-20s  %-8s  %-5s  %s\n", "REPORT ID", "GENERATED", "VERDICTS", "FAIL", "ERROR")
	fmt.Fprintf(w, "  %s\n", strings.Repeat("-", 82))
	for _, r := range reports {
		fmt.Fprintf(w, "  %-36s  %-20s  %-8d  %-5d  %d\n",
			r.ReportID, r.GeneratedAt.UTC().Format("2006-01-02 15:04:05"), len(r.Verdicts), r.TotalFailures(), r.ErrorCount)
	}
}
