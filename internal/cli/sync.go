package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/entities"
	"github.com/mrlokans/papersync/internal/entrypoint"
)

var errSyncFailed = errors.New("sync failed")

func newSyncCommand() *cobra.Command {
	var noColor bool

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Run one sync pass and print its progress",
		Long: "Run one sync pass with the effective settings (database overrides, then environment, then defaults).\n" +
			"Press Ctrl-C to stop after the record in flight.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if noColor {
				disableColor()
			}

			cfg := config.NewConfig()
			log := newLogger(cfg)
			defer log.Sync()

			app, err := entrypoint.NewApp(cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			out := cmd.OutOrStdout()
			printer := NewEventPrinter(out)
			summary, err := app.SyncService.RunAndWait(ctx, entities.SyncTriggerCLI, printer.Print)
			if err != nil {
				return err
			}

			fmt.Fprintln(out)
			RenderSummary(out, summary)
			if summary.Status() == entities.SyncStatusFailed {
				return errSyncFailed
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	return cmd
}

// commandContext returns the command's context, or a background one when
// the command runs outside Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
