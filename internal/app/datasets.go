package app

import (
	"context"
	"fmt"
	"sort"

	"github.com/propgrid/propgrid/internal/config"
	"github.com/propgrid/propgrid/internal/dataset"
	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/internal/storage"
	"go.uber.org/zap"
)

// OpenStorage creates the object storage named by cfg.Storage.
func OpenStorage(ctx context.Context, cfg *config.Config) (storage.ObjectStorage, error) {
	switch cfg.Storage.Type {
	case config.StorageS3:
		s3cfg := storage.DefaultS3Config()
		if cfg.Storage.S3.Region != "" {
			s3cfg.Region = cfg.Storage.S3.Region
		}
		s3cfg.Endpoint = cfg.Storage.S3.Endpoint
		s3cfg.UsePathStyle = cfg.Storage.S3.UsePathStyle
		return storage.NewS3Storage(ctx, cfg.Storage.S3.Bucket, s3cfg)
	case config.StorageLocal, "":
		return storage.NewLocalStorage(cfg.Storage.Path)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", cfg.Storage.Type)
	}
}

// Sources lists dataset sources in load order.
type Sources struct {
	Snapshots *dataset.SnapshotSource
	Store     *dataset.SQLiteStore

	// Fixtures are consulted last when set.
	Fixtures bool
}

// LoadDatasets registers every built-in dataset from the first source that
// has it: the published snapshot, then the sqlite store, then the fixtures.
// A dataset no source has is skipped.
func LoadDatasets(ctx context.Context, registry *dataset.Registry, src Sources, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	defs := dataset.Definitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		def := defs[name]
		loaded := false
		for _, s := range src.ordered() {
			_, err := registry.Load(ctx, name, def, s.source)
			if err == nil {
				loaded = true
				break
			}
			if !gerrors.IsNotFound(err) {
				return fmt.Errorf("load %s from %s: %w", name, s.name, err)
			}
			logger.Debug("dataset not in source", zap.String("dataset", name), zap.String("source", s.name))
		}
		if !loaded {
			logger.Warn("dataset unavailable", zap.String("dataset", name))
		}
	}
	return nil
}

type namedSource struct {
	name   string
	source dataset.Source
}

func (s Sources) ordered() []namedSource {
	var out []namedSource
	if s.Snapshots != nil {
		out = append(out, namedSource{"snapshot", s.Snapshots})
	}
	if s.Store != nil {
		out = append(out, namedSource{"sqlite", s.Store})
	}
	if s.Fixtures {
		out = append(out, namedSource{"fixture", dataset.FixtureSource{}})
	}
	return out
}

// Seed writes the built-in fixtures into every given sink and returns the
// names written.
func Seed(ctx context.Context, sinks []dataset.Sink, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	defs := dataset.Definitions()
	names := make([]string, 0, len(defs))
	for name := range defs {
		names = append(names, name)
	}
	sort.Strings(names)

	fixtures := dataset.FixtureSource{}
	for _, name := range names {
		rows, err := fixtures.Rows(ctx, name)
		if err != nil {
			return nil, err
		}
		for _, sink := range sinks {
			if err := sink.Store(ctx, name, rows); err != nil {
				return nil, fmt.Errorf("seed %s: %w", name, err)
			}
		}
		logger.Info("dataset seeded",
			zap.String("dataset", name),
			zap.Int("rows", len(rows)),
			zap.Int("sinks", len(sinks)))
	}
	return names, nil
}
