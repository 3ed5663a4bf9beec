package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/secmon/internal/policy"
	"github.com/pankaj-dahiya-devops/secmon/internal/rulepacks/security"
)

func (c *cli) validateCmd() *cobra.Command {
	var policyPath string

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate the config file and the policy file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.settings(cmd)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "config: OK")

			if policyPath == "" {
				policyPath = cfg.Policy.Path
			}
			if policyPath == "" {
				fmt.Fprintln(out, "policy: none configured")
				return nil
			}
			pol, err := policy.LoadPolicy(policyPath)
			if err != nil {
				return err
			}
			if errs := policy.Validate(pol, packRuleKeys()); len(errs) > 0 {
				for _, e := range errs {
					fmt.Fprintf(out, "policy: %v\n", e)
				}
				return fmt.Errorf("policy %s: %w", policyPath, errors.Join(errs...))
			}
			fmt.Fprintf(out, "policy: OK (%s)\n", policyPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy file (overrides policy.path)")
	return cmd
}

// packRuleKeys returns the "<Kind>/<id>" keys of the canonical rule pack.
func packRuleKeys() []string {
	pack := security.New()
	keys := make([]string, 0, len(pack))
	for _, r := range pack {
		keys = append(keys, r.Key())
	}
	return keys
}
