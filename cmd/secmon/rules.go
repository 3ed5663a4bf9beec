package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/secmon/internal/app"
	"github.com/pankaj-dahiya-devops/secmon/internal/rules"
)

func (c *cli) rulesCmd() *cobra.Command {
	var (
		format     string
		policyPath string
	)

	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the effective rules after the policy file is applied",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if policyPath == "" {
				cfg, _, err := c.settings(cmd)
				if err != nil {
					return err
				}
				policyPath = cfg.Policy.Path
			}
			ruleSet, _, err := app.LoadRules(policyPath)
			if err != nil {
				return err
			}
			registry, err := rules.NewRegistryFrom(ruleSet)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				return printJSON(out, ruleViews(registry.All()))
			case "table":
				printRulesTable(out, registry.All())
				return nil
			default:
				return fmt.Errorf("invalid --format %q; valid values: table, json", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().StringVar(&policyPath, "policy", "", "Policy file (overrides policy.path)")
	return cmd
}
