// Package output renders reports for terminals.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/pankaj-dahiya-devops/secmon/internal/models"
)

// ANSI color codes for severity output (used when Colored=true).
const (
	ansiReset   = "\033[0m"
	ansiBoldRed = "\033[1;31m"
	ansiRed     = "\033[0;31m"
	ansiYellow  = "\033[0;33m"
	ansiBlue    = "\033[0;34m"
)

// TableOptions controls how RenderVerdicts lays out rows.
type TableOptions struct {
	// Colored wraps severity labels with ANSI codes. Default false (CI-safe).
	Colored bool

	// IncludeDetail adds a DETAIL column with the verdict's detail text.
	IncludeDetail bool

	// IncludePass keeps PASS verdicts; by default only FAIL and ERROR rows
	// are rendered.
	IncludePass bool
}

// ColorSeverity wraps a severity string with ANSI codes when colored is true.
// When colored is false the string is returned unchanged (CI-safe default).
func ColorSeverity(sev models.Severity, colored bool) string {
	s := string(sev)
	if !colored {
		return s
	}
	if code := severityColor(sev); code != "" {
		return code + s + ansiReset
	}
	return s
}

func severityColor(sev models.Severity) string {
	switch sev {
	case models.SeverityCritical:
		return ansiBoldRed
	case models.SeverityHigh:
		return ansiRed
	case models.SeverityMedium:
		return ansiYellow
	case models.SeverityLow:
		return ansiBlue
	default:
		return ""
	}
}

// ShortenMessage truncates msg to at most max runes, appending "..." when truncated.
// max is treated as at least 4 to guarantee space for the ellipsis.
func ShortenMessage(msg string, max int) string {
	if max < 4 {
		max = 4
	}
	runes := []rune(msg)
	if len(runes) <= max {
		return msg
	}
	return string(runes[:max-3]) + "..."
}

// severityCell returns the severity padded to width characters.
// When colored, ANSI codes wrap only the text; trailing padding spaces are plain
// so subsequent columns stay aligned.
func severityCell(sev models.Severity, width int, colored bool) string {
	text := string(sev)
	code := severityColor(sev)
	if !colored || code == "" {
		return fmt.Sprintf("%-*s", width, text)
	}
	spaces := width - len(text)
	if spaces < 0 {
		spaces = 0
	}
	return code + text + ansiReset + strings.Repeat(" ", spaces)
}

// truncateField shortens s to at most max bytes for ID columns.
func truncateField(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-1] + "~"
}

// RenderVerdicts writes a verdict table to w in report order. The separator
// line width is derived from the header row.
//
// Column order:
//
//	STATUS  SEVERITY  KIND  RULE  RESOURCE  [DETAIL]
func RenderVerdicts(w io.Writer, verdicts []models.Verdict, opts TableOptions) {
	var rows []models.Verdict
	for _, v := range verdicts {
		if v.Status == models.StatusPass && !opts.IncludePass {
			continue
		}
		rows = append(rows, v)
	}
	if len(rows) == 0 {
		fmt.Fprintln(w, "No failing verdicts.")
		return
	}

	const (
		wStatus   = 6
		wSeverity = 10
		wKind     = 13
		wRule     = 18
		wResource = 40
		wDetail   = 60
	)

	header := fmt.Sprintf("%-*s  %-*s  %-*s  %-*s  %-*s",
		wStatus, "STATUS", wSeverity, "SEVERITY", wKind, "KIND", wRule, "RULE", wResource, "RESOURCE")
	if opts.IncludeDetail {
		header += "  DETAIL"
	}
	fmt.Fprintln(w, header)
	fmt.Fprintln(w, strings.Repeat("-", len(header)))

	for _, v := range rows {
		var rb strings.Builder
		rb.WriteString(fmt.Sprintf("%-*s", wStatus, v.Status))
		rb.WriteString("  " + severityCell(v.Severity, wSeverity, opts.Colored))
		rb.WriteString(fmt.Sprintf("  %-*s", wKind, v.Kind))
		rb.WriteString(fmt.Sprintf("  %-*s", wRule, truncateField(v.RuleID, wRule)))
		rb.WriteString(fmt.Sprintf("  %-*s", wResource, truncateField(v.ResourceID, wResource)))
		if opts.IncludeDetail {
			rb.WriteString("  " + ShortenMessage(v.Detail, wDetail))
		}
		fmt.Fprintln(w, strings.TrimRight(rb.String(), " "))
	}
}

// RenderSummary writes the report header, the failure counts for every
// severity, and the FAIL and ERROR verdict table.
func RenderSummary(w io.Writer, report *models.Report, opts TableOptions) {
	fmt.Fprintf(w, "Report:     %s\n", report.ReportID)
	fmt.Fprintf(w, "Generated:  %s\n", report.GeneratedAt.UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "Verdicts:   %d (pass %d, fail %d, error %d)\n",
		len(report.Verdicts), report.PassCount, report.TotalFailures(), report.ErrorCount)

	fmt.Fprintln(w, "\nFailures by Severity:")
	for _, sev := range models.Severities {
		fmt.Fprintf(w, "  %s  %d\n", severityCell(sev, 10, opts.Colored), report.FailureCountsBySeverity[sev])
	}
	fmt.Fprintln(w)
	RenderVerdicts(w, report.Verdicts, opts)
}
