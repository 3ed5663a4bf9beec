package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/secmon/internal/store"
)

func (c *cli) historyCmd() *cobra.Command {
	var (
		limit  int
		format string
		show   string
		prune  int
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived reports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := c.settings(cmd)
			if err != nil {
				return err
			}
			if cfg.History.Path == "" {
				return errors.New("history.path is not configured")
			}
			archive, err := store.Open(cfg.History.Path)
			if err != nil {
				return err
			}
			defer archive.Close()

			out := cmd.OutOrStdout()
			if prune > 0 {
				n, err := archive.Prune(prune)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "pruned %d report(s)\n", n)
				return nil
			}
			if show != "" {
				report, err := archive.Get(show)
				if err != nil {
					return err
				}
				if format == "json" {
					return printJSON(out, report)
				}
				printSummary(out, report, false)
				return nil
			}

			reports, err := archive.List(limit)
			if err != nil {
				return err
			}
			switch format {
			case "json":
				return printJSON(out, reports)
			case "table":
				printHistoryTable(out, reports)
				return nil
			default:
				return fmt.Errorf("invalid --format %q; valid values: table, json", format)
			}
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 10, "Maximum number of reports to list (0 lists all)")
	cmd.Flags().StringVar(&format, "format", "table", "Output format: table or json")
	cmd.Flags().StringVar(&show, "show", "", "Print the archived report with this ID")
	cmd.Flags().IntVar(&prune, "prune", 0, "Delete all but the newest N reports")
	return cmd
}
