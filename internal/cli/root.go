// Package cli implements the papersync command line.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/entrypoint"
	"github.com/mrlokans/papersync/internal/logger"
)

// NewRootCommand builds the command tree. Without a subcommand the HTTP
// server is started.
func NewRootCommand(version string) *cobra.Command {
	serve := newServeCommand(version)

	root := &cobra.Command{
		Use:           "papersync",
		Short:         "Sync Zotero records into Craft reading notes",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}
	root.AddCommand(serve, newSyncCommand(), newCheckCommand(), newRunsCommand())
	return root
}

func newServeCommand(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, scheduler and task queue",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			log := newLogger(cfg)
			defer log.Sync()
			return entrypoint.Run(cfg, log, version)
		},
	}
}

func newLogger(cfg *config.Config) logger.Logger {
	return logger.NewWithOptions(logger.Options{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
		File:   cfg.Log.File,
	})
}
