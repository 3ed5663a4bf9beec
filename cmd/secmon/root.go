package main

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pankaj-dahiya-devops/secmon/internal/app"
	"github.com/pankaj-dahiya-devops/secmon/internal/config"
	"github.com/pankaj-dahiya-devops/secmon/internal/logging"
	"github.com/pankaj-dahiya-devops/secmon/internal/providers/aws/common"
	"github.com/pankaj-dahiya-devops/secmon/internal/version"
)

// cli carries the persistent flags and the injectable AWS seams shared by
// every subcommand.
type cli struct {
	configPath string
	logLevel   string

	provider     common.AWSClientProvider
	newCollector app.CollectorFactory
}

func newRootCmd() *cobra.Command {
	return newCLI(common.NewDefaultAWSClientProvider(), app.DefaultCollectorFactory).rootCmd()
}

func newCLI(provider common.AWSClientProvider, newCollector app.CollectorFactory) *cli {
	return &cli{provider: provider, newCollector: newCollector}
}

func (c *cli) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "secmon",
		Short:         "secmon evaluates AWS resource configuration against security rules",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "Config file (default: ~/.config/secmon/secmon.yaml when present)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "Override log.level (debug, info, warn, error)")

	root.AddCommand(
		c.checkCmd(),
		c.daemonCmd(),
		c.rulesCmd(),
		c.validateCmd(),
		c.historyCmd(),
		c.doctorCmd(),
		newVersionCmd(),
	)
	return root
}

// settings loads the config file and builds the root logger. Logs go to the
// command's stderr so reports on stdout stay machine-readable.
func (c *cli) settings(cmd *cobra.Command) (*config.Config, zerolog.Logger, error) {
	cfg, err := config.NewFileLoader(c.configPath).Load()
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	if c.logLevel != "" {
		cfg.Log.Level = c.logLevel
	}
	logger, err := logging.New("secmon", logging.Options{
		Level:   cfg.Log.Level,
		Console: cfg.Log.Console,
		Out:     cmd.ErrOrStderr(),
	})
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return cfg, logger, nil
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprint(cmd.OutOrStdout(), version.Info())
		},
	}
}
