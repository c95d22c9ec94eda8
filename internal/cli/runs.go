package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mrlokans/papersync/internal/config"
	"github.com/mrlokans/papersync/internal/entrypoint"
)

func newRunsCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent sync runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.NewConfig()
			log := newLogger(cfg)
			defer log.Sync()

			app, err := entrypoint.NewApp(cfg, log)
			if err != nil {
				return err
			}
			defer app.Close()

			runs, err := app.Runs.ListRecent(limit)
			if err != nil {
				return fmt.Errorf("failed to list sync runs: %w", err)
			}
			if len(runs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No sync runs recorded yet")
				return nil
			}
			RenderRuns(cmd.OutOrStdout(), runs)
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 10, "Number of runs to show")
	return cmd
}
