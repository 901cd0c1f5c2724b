package main

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/spf13/cobra"
)

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the datasets the service would serve",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := openRegistry(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		printDatasets(cmd.OutOrStdout(), registry.List())
		return nil
	},
}

func printDatasets(w io.Writer, datasets []*dataset.Dataset) {
	if len(datasets) == 0 {
		fmt.Fprintln(w, "No datasets")
		return
	}

	bold := color.New(color.Bold).SprintFunc()
	table := uitable.New()
	table.Separator = "  "
	table.AddRow(bold("NAME"), bold("TITLE"), bold("ROWS"), bold("COLUMNS"), bold("VERSION"))
	for _, ds := range datasets {
		info := ds.Info()
		table.AddRow(info.Name, info.Title, info.RowCount, len(info.Columns), shortVersion(info.Version))
	}
	fmt.Fprintln(w, table)
}

func shortVersion(v string) string {
	if len(v) > 12 {
		return v[:12]
	}
	return v
}
