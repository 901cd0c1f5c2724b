package main

import (
	"fmt"

	"github.com/propgrid/propgrid/internal/app"
	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/spf13/cobra"
)

var publishSnapshot bool

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Write the built-in datasets into the dataset store",
	Long: `Writes the built-in fixtures into the sqlite dataset store. With
--snapshot the fixtures are also published to object storage, where a
running service picks them up before the store on its next start.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := cfg.EnsureDirectories(); err != nil {
			return err
		}

		store, err := dataset.OpenSQLiteStore(cfg.Datasets.SQLitePath)
		if err != nil {
			return fmt.Errorf("failed to open dataset store: %w", err)
		}
		defer store.Close()

		sinks := []dataset.Sink{store}
		if publishSnapshot {
			objects, err := app.OpenStorage(ctx, cfg)
			if err != nil {
				return fmt.Errorf("failed to initialize storage: %w", err)
			}
			sinks = append(sinks, dataset.NewSnapshotSource(objects, cfg.Datasets.SnapshotPrefix))
		}

		names, err := app.Seed(ctx, sinks, logger)
		if err != nil {
			return err
		}
		for _, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "seeded %s\n", name)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().BoolVar(&publishSnapshot, "snapshot", false, "also publish snapshots to object storage")
}
