package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/propgrid/propgrid/internal/app"
	"github.com/propgrid/propgrid/internal/config"
	"github.com/propgrid/propgrid/internal/dataset"
	"github.com/propgrid/propgrid/internal/render"
	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// viewOptions are the flags of the view command.
type viewOptions struct {
	Search   string
	Sort     string
	Desc     bool
	Page     int
	PageSize int
	JSON     bool
}

var viewOpts viewOptions

var viewCmd = &cobra.Command{
	Use:   "view <dataset>",
	Short: "Print one page of a dataset",
	Example: `
propgrid view properties
propgrid view properties --search portland
propgrid view properties --sort leaseCount --desc --page 2 --page-size 25 --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		registry, err := openRegistry(cmd.Context(), cfg, logger)
		if err != nil {
			return err
		}
		ds, err := registry.Get(args[0])
		if err != nil {
			return err
		}
		return printView(cmd.OutOrStdout(), ds, cfg.View, viewOpts)
	},
}

func init() {
	viewCmd.Flags().StringVarP(&viewOpts.Search, "search", "s", "", "search query")
	viewCmd.Flags().StringVar(&viewOpts.Sort, "sort", "", "sort field")
	viewCmd.Flags().BoolVar(&viewOpts.Desc, "desc", false, "sort descending")
	viewCmd.Flags().IntVarP(&viewOpts.Page, "page", "p", 1, "page number")
	viewCmd.Flags().IntVarP(&viewOpts.PageSize, "page-size", "n", 0, "page size (default from config)")
	viewCmd.Flags().BoolVar(&viewOpts.JSON, "json", false, "print JSON instead of a table")
}

// viewOutput is the JSON form of a printed view.
type viewOutput struct {
	Dataset string          `json:"dataset"`
	State   types.ViewState `json:"state"`
	Result  *view.Result    `json:"result"`
	Headers []string        `json:"headers"`
	Display [][]string      `json:"display"`
}

// printView drives a controller through the events the flags describe and
// writes the resolved page to w.
func printView(w io.Writer, ds *dataset.Dataset, vc config.ViewConfig, opts viewOptions) error {
	pageSize := vc.DefaultPageSize
	if pageSize <= 0 {
		pageSize = view.DefaultPageSize
	}

	ctrl, err := view.NewController(ds.Rows, ds.Definition,
		view.WithPageSize(pageSize),
		view.WithPageSizeOptions(vc.PageSizeOptions))
	if err != nil {
		return err
	}

	ctrl.OnSearch(opts.Search)
	if opts.Sort != "" {
		if err := ctrl.OnSort(opts.Sort); err != nil {
			return err
		}
		if opts.Desc {
			if err := ctrl.OnSort(opts.Sort); err != nil {
				return err
			}
		}
	}
	if opts.PageSize != 0 {
		if err := ctrl.OnPageSizeChange(opts.PageSize); err != nil {
			return err
		}
	}
	ctrl.OnPageChange(opts.Page)

	res, err := ctrl.Resolve()
	if err != nil {
		return err
	}

	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(viewOutput{
			Dataset: ds.Name,
			State:   ctrl.State(),
			Result:  res,
			Headers: view.Headers(ds.Definition.Columns),
			Display: view.Display(res.Rows, ds.Definition.Columns),
		})
	}

	render.Table(w, ds.Title, ds.Definition, ctrl.State(), res)
	return nil
}

// openRegistry loads the datasets the service would serve, without
// starting it.
func openRegistry(ctx context.Context, c *config.Config, logger *zap.Logger) (*dataset.Registry, error) {
	if err := c.EnsureDirectories(); err != nil {
		return nil, err
	}

	objects, err := app.OpenStorage(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}
	store, err := dataset.OpenSQLiteStore(c.Datasets.SQLitePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset store: %w", err)
	}
	defer store.Close()

	registry := dataset.NewRegistry(logger)
	err = app.LoadDatasets(ctx, registry, app.Sources{
		Snapshots: dataset.NewSnapshotSource(objects, c.Datasets.SnapshotPrefix),
		Store:     store,
		Fixtures:  c.Datasets.LoadFixtures,
	}, logger)
	if err != nil {
		return nil, err
	}
	return registry, nil
}
