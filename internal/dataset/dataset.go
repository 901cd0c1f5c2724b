// Package dataset provides named row collections, the sources they are
// loaded from, and the registry the API layers resolve views against.
package dataset

import (
	"context"
	"encoding/hex"
	"encoding/json"

	"github.com/propgrid/propgrid/internal/view"
	"github.com/propgrid/propgrid/pkg/types"
	"github.com/spaolacci/murmur3"
)

// Dataset is a named, immutable row collection with its view definition.
// Rows must not be modified after construction; replace the dataset instead.
type Dataset struct {
	Name       string
	Title      string
	Definition view.Definition
	Rows       []types.Row

	// Version is a content hash of Rows. It keys memoised views.
	Version string
}

// New creates a dataset and computes its version.
func New(name, title string, def view.Definition, rows []types.Row) *Dataset {
	if title == "" {
		title = name
	}
	if rows == nil {
		rows = []types.Row{}
	}
	return &Dataset{
		Name:       name,
		Title:      title,
		Definition: def,
		Rows:       rows,
		Version:    Version(rows),
	}
}

// Version hashes rows with murmur3 over their JSON encoding. encoding/json
// sorts map keys, so equal rows always hash equally.
func Version(rows []types.Row) string {
	h := murmur3.New128()
	enc := json.NewEncoder(h)
	for _, row := range rows {
		if err := enc.Encode(row); err != nil {
			// Unencodable values cannot come from any source; fold the
			// error text in so the version still changes with the rows.
			h.Write([]byte(err.Error()))
		}
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Source supplies the rows of a named dataset.
type Source interface {
	// Rows returns the rows of dataset name in display order.
	// Returns a DATASET_NOT_FOUND error if the source has no such dataset.
	Rows(ctx context.Context, name string) ([]types.Row, error)
}

// Sink stores the rows of a named dataset.
type Sink interface {
	// Store replaces the rows of dataset name.
	Store(ctx context.Context, name string, rows []types.Row) error
}

// Info summarises a dataset for listings.
type Info struct {
	Name         string                   `json:"name"`
	Title        string                   `json:"title"`
	Version      string                   `json:"version"`
	RowCount     int                      `json:"row_count"`
	Columns      []types.ColumnDescriptor `json:"columns"`
	SearchFields []string                 `json:"search_fields"`
}

// Info returns the listing summary of d.
func (d *Dataset) Info() Info {
	return Info{
		Name:         d.Name,
		Title:        d.Title,
		Version:      d.Version,
		RowCount:     len(d.Rows),
		Columns:      d.Definition.Columns,
		SearchFields: d.Definition.SearchFields,
	}
}
