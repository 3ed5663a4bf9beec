package main

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/secmon/internal/app"
	"github.com/pankaj-dahiya-devops/secmon/internal/daemon"
)

func (c *cli) daemonCmd() *cobra.Command {
	var noPublish bool

	cmd := &cobra.Command{
		Use:   "daemon",
		Short: "Run checks on schedule.interval and serve /metrics and /healthz",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := c.settings(cmd)
			if err != nil {
				return err
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			metrics, err := daemon.NewMetrics(reg)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			pipeline, err := app.Build(ctx, cfg, c.provider, logger, app.Options{
				CloudWatch:   !noPublish,
				Alerts:       !noPublish,
				LogVerdicts:  true,
				Metrics:      reg,
				History:      true,
				NewCollector: c.newCollector,
			})
			if err != nil {
				return err
			}
			defer pipeline.Close()

			d, err := daemon.NewDaemon(pipeline.Runner, daemon.Config{
				Interval: cfg.Schedule.Interval,
				Addr:     cfg.Metrics.Addr,
				Gatherer: reg,
				Metrics:  metrics,
				Logger:   logger,
			})
			if err != nil {
				return err
			}
			if err := d.Run(ctx); err != nil {
				return fmt.Errorf("daemon: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&noPublish, "no-publish", false, "Skip CloudWatch and SNS; keep logs and Prometheus metrics")
	return cmd
}
