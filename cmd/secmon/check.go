package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/secmon/internal/app"
	"github.com/pankaj-dahiya-devops/secmon/internal/models"
	"github.com/pankaj-dahiya-devops/secmon/internal/policy"
)

// errEnforcement is returned when FAIL verdicts reach the enforcement
// threshold. The report has already been printed.
var errEnforcement = errors.New("check failed")

func (c *cli) checkCmd() *cobra.Command {
	var (
		kinds      []string
		format     string
		publish    bool
		failOn     string
		policyPath string
		profile    string
		regions    []string
		color      bool
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Run one compliance check and print the report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if format != "summary" && format != "json" {
				return fmt.Errorf("invalid --format %q; valid values: summary, json", format)
			}
			selected, err := parseKinds(kinds)
			if err != nil {
				return err
			}
			var threshold models.Severity
			if failOn != "" {
				if threshold, err = models.ParseSeverity(failOn); err != nil {
					return fmt.Errorf("--fail-on: %w", err)
				}
			}

			cfg, logger, err := c.settings(cmd)
			if err != nil {
				return err
			}
			if profile != "" {
				cfg.AWS.Profile = profile
			}
			if len(regions) > 0 {
				cfg.AWS.Regions = regions
			}

			ctx := cmd.Context()
			pipeline, err := app.Build(ctx, cfg, c.provider, logger, app.Options{
				Kinds:        selected,
				PolicyPath:   policyPath,
				CloudWatch:   publish,
				Alerts:       publish,
				History:      true,
				NewCollector: c.newCollector,
			})
			if err != nil {
				return err
			}
			defer pipeline.Close()

			report, runErr := pipeline.Runner.RunOnce(ctx)
			if report != nil {
				out := cmd.OutOrStdout()
				if format == "json" {
					if err := printJSON(out, report); err != nil {
						return err
					}
				} else {
					printSummary(out, report, color)
				}
			}
			if runErr != nil {
				return fmt.Errorf("check failed: %w", runErr)
			}

			// --fail-on takes precedence over the policy file.
			if threshold != "" {
				if policy.FailsAt(report, threshold) {
					return fmt.Errorf("%w: FAIL verdicts at or above %s", errEnforcement, threshold)
				}
				return nil
			}
			if policy.ShouldFail(report, pipeline.Policy) {
				return fmt.Errorf("%w: FAIL verdicts at or above %s", errEnforcement, pipeline.Policy.Enforcement.FailOnSeverity)
			}
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&kinds, "kinds", nil, "Resource kinds to check (default: all): SecurityGroup, Bucket, Role, Cluster")
	cmd.Flags().StringVar(&format, "format", "summary", "Output format: summary or json")
	cmd.Flags().BoolVar(&publish, "publish", false, "Publish the CloudWatch metric and SNS alert")
	cmd.Flags().StringVar(&failOn, "fail-on", "", "Exit non-zero when a FAIL verdict is at or above this severity (overrides the policy file)")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy file (overrides policy.path)")
	cmd.Flags().StringVar(&profile, "profile", "", "AWS profile (overrides aws.profile)")
	cmd.Flags().BoolVar(&color, "color", false, "Color severities in summary output")
	cmd.Flags().StringSliceVar(&regions, "region", nil, `AWS region(s) to check, or "all" (overrides aws.regions)`)

	return cmd
}

func parseKinds(names []string) ([]models.Kind, error) {
	var kinds []models.Kind
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		k, err := models.ParseKind(n)
		if err != nil {
			return nil, err
		}
		kinds = append(kinds, k)
	}
	return kinds, nil
}
