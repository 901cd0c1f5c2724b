package dataset

import (
	"context"
	"fmt"
	"sort"
	"sync"

	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/internal/view"
	"go.uber.org/zap"
)

// Definition describes how a dataset is displayed, independent of where its
// rows come from.
type Definition struct {
	Title string
	View  view.Definition
}

// Registry holds the datasets served by the API. It is safe for concurrent
// use; datasets themselves are immutable and replaced wholesale.
type Registry struct {
	mu       sync.RWMutex
	datasets map[string]*Dataset
	logger   *zap.Logger
}

// NewRegistry creates an empty registry.
func NewRegistry(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		datasets: make(map[string]*Dataset),
		logger:   logger,
	}
}

// Add registers ds, failing if the name is taken.
func (r *Registry) Add(ds *Dataset) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.datasets[ds.Name]; exists {
		return gerrors.NewDatasetError(gerrors.CodeDuplicateDataset, fmt.Sprintf("dataset %q already registered", ds.Name), nil)
	}
	r.datasets[ds.Name] = ds
	return nil
}

// Put registers ds, replacing any dataset with the same name.
func (r *Registry) Put(ds *Dataset) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.datasets[ds.Name] = ds
}

// Get returns the dataset called name.
func (r *Registry) Get(name string) (*Dataset, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ds, ok := r.datasets[name]
	if !ok {
		return nil, gerrors.NewDatasetError(gerrors.CodeDatasetNotFound, fmt.Sprintf("dataset %q not found", name), nil)
	}
	return ds, nil
}

// List returns all datasets ordered by name.
func (r *Registry) List() []*Dataset {
	r.mu.RLock()
	out := make([]*Dataset, 0, len(r.datasets))
	for _, ds := range r.datasets {
		out = append(out, ds)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Load fetches the rows of name from src, validates them against def and
// registers the resulting dataset, replacing any previous version.
func (r *Registry) Load(ctx context.Context, name string, def Definition, src Source) (*Dataset, error) {
	if err := def.View.ValidateColumns(); err != nil {
		return nil, fmt.Errorf("dataset %q: %w", name, err)
	}

	rows, err := src.Rows(ctx, name)
	if err != nil {
		return nil, err
	}

	ds := New(name, def.Title, def.View, rows)
	r.Put(ds)
	r.logger.Info("dataset loaded",
		zap.String("dataset", name),
		zap.Int("rows", len(rows)),
		zap.String("version", ds.Version))
	return ds, nil
}
