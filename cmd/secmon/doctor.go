package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/secmon/internal/config"
	"github.com/pankaj-dahiya-devops/secmon/internal/policy"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
)

// DoctorResult is the structured output of secmon doctor. It can be
// serialised to JSON via --format=json or rendered as a table (default).
type DoctorResult struct {
	Config struct {
		Path  string `json:"path,omitempty"`
		Valid bool   `json:"valid"`
		Error string `json:"error,omitempty"`
	} `json:"config"`

	AWS struct {
		Profile     string   `json:"profile,omitempty"`
		Credentials bool     `json:"credentials_ok"`
		AccountID   string   `json:"account_id,omitempty"`
		RegionsOK   bool     `json:"regions_ok"`
		Regions     []string `json:"regions,omitempty"`
		Error       string   `json:"error,omitempty"`
	} `json:"aws"`

	Policy struct {
		Path    string   `json:"path,omitempty"`
		Present bool     `json:"present"`
		Valid   bool     `json:"valid"`
		Errors  []string `json:"errors,omitempty"`
	} `json:"policy"`

	OverallHealthy bool `json:"overall_healthy"`
}

func (c *cli) doctorCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run environment diagnostics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")
			profile, _ := cmd.Flags().GetString("profile")
			result, err := runDoctor(cmd.Context(), c.provider, config.NewFileLoader(c.configPath), cmd.OutOrStdout(), format, profile)
			if err != nil {
				return err
			}
			if !result.OverallHealthy {
				// The table already explains the failure.
				os.Exit(1)
			}
			return nil
		},
	}
	cmd.Flags().String("format", "table", `Output format: "table" or "json"`)
	cmd.Flags().String("profile", "", "AWS profile to use (overrides aws.profile)")
	return cmd
}

// runDoctor collects all diagnostic results, renders them to w in the
// requested format, and returns the result. The returned error covers only
// rendering failures; callers inspect result.OverallHealthy.
func runDoctor(ctx context.Context, provider common.AWSClientProvider, loader config.Loader, w io.Writer, format, profile string) (DoctorResult, error) {
	result := collectDoctorResult(ctx, provider, loader, profile)

	switch format {
	case "json":
		if err := json.NewEncoder(w).Encode(result); err != nil {
			return result, fmt.Errorf("encode doctor result: %w", err)
		}
	default:
		renderDoctorTable(result, w)
	}

	return result, nil
}

// collectDoctorResult runs all environment checks and populates a
// DoctorResult. It performs no rendering.
func collectDoctorResult(ctx context.Context, provider common.AWSClientProvider, loader config.Loader, profile string) DoctorResult {
	var result DoctorResult

	// Config: load and validate. Defaults are used for the AWS checks when
	// the file is broken so credentials are still reported.
	result.Config.Path = loader.ConfigPath()
	cfg, err := loader.Load()
	if err != nil {
		result.Config.Error = err.Error()
	} else {
		result.Config.Valid = true
	}

	// AWS: credentials → STS account ID → region resolution.
	var configured []string
	if cfg != nil {
		if profile == "" {
			profile = cfg.AWS.Profile
		}
		configured = cfg.AWS.Regions
	}
	result.AWS.Profile = profile
	profileCfg, err := provider.LoadProfile(ctx, profile)
	if err != nil {
		result.AWS.Error = err.Error()
	} else {
		result.AWS.Credentials = true
		result.AWS.AccountID = profileCfg.AccountID
		regions, err := provider.ResolveRegions(ctx, profileCfg, configured)
		if err != nil {
			result.AWS.Error = err.Error()
		} else {
			result.AWS.RegionsOK = true
			result.AWS.Regions = regions
		}
	}

	// Policy: optional; validated against the canonical rule keys.
	if cfg != nil && cfg.Policy.Path != "" {
		result.Policy.Path = cfg.Policy.Path
		result.Policy.Present = true
		pol, loadErr := policy.LoadPolicy(cfg.Policy.Path)
		if loadErr != nil {
			result.Policy.Errors = []string{loadErr.Error()}
		} else if errs := policy.Validate(pol, packRuleKeys()); len(errs) > 0 {
			for _, e := range errs {
				result.Policy.Errors = append(result.Policy.Errors, e.Error())
			}
		} else {
			result.Policy.Valid = true
		}
	}

	result.OverallHealthy = result.Config.Valid &&
		result.AWS.Credentials &&
		result.AWS.RegionsOK &&
		(!result.Policy.Present || result.Policy.Valid)

	return result
}

// renderDoctorTable writes the human-readable diagnostic output to w.
func renderDoctorTable(result DoctorResult, w io.Writer) {
	fmt.Fprintln(w, "Environment Diagnostics")

	fmt.Fprintln(w, "\nConfig:")
	source := result.Config.Path
	if source == "" {
		source = "defaults and environment"
	}
	if result.Config.Valid {
		doctorPrint(w, "Config valid", "OK", source)
	} else {
		doctorPrint(w, "Config valid", "FAIL", result.Config.Error)
	}

	if result.AWS.Profile != "" {
		fmt.Fprintf(w, "\nAWS (profile: %s):\n", result.AWS.Profile)
	} else {
		fmt.Fprintln(w, "\nAWS:")
	}
	if !result.AWS.Credentials {
		doctorPrint(w, "Credentials", "FAIL", result.AWS.Error)
		doctorPrint(w, "STS Identity", "FAIL", "skipped")
		doctorPrint(w, "Regions API", "FAIL", "skipped")
	} else {
		doctorPrint(w, "Credentials", "OK", "")
		doctorPrint(w, "STS Identity", "OK", "Account: "+result.AWS.AccountID)
		if result.AWS.RegionsOK {
			doctorPrint(w, "Regions API", "OK", fmt.Sprintf("%d region(s)", len(result.AWS.Regions)))
		} else {
			doctorPrint(w, "Regions API", "FAIL", result.AWS.Error)
		}
	}

	fmt.Fprintln(w, "\nPolicy:")
	if !result.Policy.Present {
		doctorPrint(w, "Policy file", "Not configured (optional)", "")
		return
	}
	doctorPrint(w, "Policy file", "YES", result.Policy.Path)
	if result.Policy.Valid {
		doctorPrint(w, "Policy valid", "OK", "")
		return
	}
	for _, e := range result.Policy.Errors {
		doctorPrint(w, "Policy valid", "FAIL", e)
	}
}

// doctorPrint writes a single diagnostic check line to w.
// When detail is non-empty it is appended in parentheses.
func doctorPrint(w io.Writer, label, status, detail string) {
	if detail != "" {
		fmt.Fprintf(w, "  %s: %s (%s)\n", label, status, detail)
	} else {
		fmt.Fprintf(w, "  %s: %s\n", label, status)
	}
}
