package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/craft"
	"github.com/mrlokans/papersync/internal/entrypoint"
	"github.com/mrlokans/papersync/internal/zotero"
)

type connectionChecker interface {
	CheckConnection(ctx context.Context) bool
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the Zotero and Craft credentials",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			log := newLogger(cfg)
			defer log.Sync()

			app, err := entrypoint.NewApp(cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			ctx, cancel := context.WithTimeout(commandContext(cmd), time.Minute)
			defer cancel()

			passCfg := app.Settings.GetSyncSettings().PassConfig(cfg)
			out := cmd.OutOrStdout()

			var source, destination connectionChecker
			if passCfg.Zotero.APIKey != "" {
				source = zotero.NewClient(passCfg.Zotero, log)
			}
			if passCfg.Craft.Token != "" {
				destination = craft.NewClient(passCfg.Craft, log)
			}

			ok := reportConnection(ctx, out, "Zotero", source)
			ok = reportConnection(ctx, out, "Craft", destination) && ok
			if target := passCfg.Target(); target != "" {
				fmt.Fprintln(out, infoColor.Sprint("ℹ ")+"Target: "+target)
			} else {
				fmt.Fprintln(out, warningColor.Sprint("⚠ ")+"No collection or parent document configured")
				ok = false
			}
			if !ok {
				return fmt.Errorf("connection check failed")
			}
			return nil
		},
	}
}

// reportConnection prints the state of one service and reports whether it
// is usable. A nil checker means the service is not configured.
func reportConnection(ctx context.Context, out io.Writer, name string, checker connectionChecker) bool {
	switch {
	case checker == nil:
		fmt.Fprintln(out, warningColor.Sprint("⚠ ")+name+": not configured")
		return false
	case checker.CheckConnection(ctx):
		fmt.Fprintln(out, successColor.Sprint("✓ ")+name+": connected")
		return true
	default:
		fmt.Fprintln(out, errorColor.Sprint("✗ ")+name+": connection failed")
		return false
	}
}
