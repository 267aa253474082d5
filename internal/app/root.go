// Package app implements the zonectl commands.
package app

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/poyrazK/zonectl/internal/config"
	"github.com/poyrazK/zonectl/internal/logger"
)

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	var (
		configPath string
		cfg        config.Config
	)

	root := &cobra.Command{
		Use:   "zonectl",
		Short: "zonectl edits BIND zone files and keeps their SOA serials current",
		Long: `zonectl appends and deletes resource records in BIND master files,
creates and registers zones on first use, bumps the SOA serial after
every change and asks the name server to reload the zone.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			var err error
			if cfg, err = config.ReadConfig(configPath); err != nil {
				return err
			}
			return logger.Init(cfg.Log)
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to the configuration file")

	root.AddCommand(
		newServeCmd(&cfg),
		newReloadAgentCmd(&cfg),
		newRecordCmd(&cfg),
		newCheckCmd(&cfg),
		newBenchCmd(),
	)
	return root
}

// Execute runs the root command.
func Execute() error {
	err := NewRootCmd().Execute()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "zonectl: %v\n", err)
	}
	return err
}
