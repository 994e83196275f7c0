package main

import (
	"github.com/spf13/cobra"

	"github.com/AntonStoeckl/lending-workflow-go/lending/config"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

type rootOptions struct {
	configPath string
	lookupEnv  func(string) (string, bool)
}

func (o *rootOptions) loadConfig() (config.Config, error) {
	return config.Load(o.configPath, o.lookupEnv)
}

func newRootCommand(lookupEnv func(string) (string, bool)) *cobra.Command {
	opts := &rootOptions{lookupEnv: lookupEnv}

	cmd := &cobra.Command{
		Use:           "lendingd",
		Short:         "Lending workflow service",
		Long:          "Members list items and request them from each other; owners approve or reject the requests.",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "path to a YAML config file")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newMigrateCommand(opts))
	cmd.AddCommand(newTokenCommand(opts))

	return cmd
}
