package dataset

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"
	"strings"

	"github.com/golang/snappy"
	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/internal/storage"
	"github.com/propgrid/propgrid/pkg/types"
)

// SnapshotExt is the object suffix of a dataset snapshot.
const SnapshotExt = ".json.sz"

// SnapshotSource loads datasets published to object storage as
// snappy-compressed JSON arrays under <prefix>/<name>.json.sz.
type SnapshotSource struct {
	store  storage.ObjectStorage
	prefix string
}

// NewSnapshotSource creates a snapshot source rooted at prefix.
func NewSnapshotSource(store storage.ObjectStorage, prefix string) *SnapshotSource {
	return &SnapshotSource{store: store, prefix: strings.Trim(prefix, "/")}
}

// ObjectPath returns the object path of the snapshot of name.
func (s *SnapshotSource) ObjectPath(name string) string {
	return path.Join(s.prefix, name+SnapshotExt)
}

// Rows implements Source.
func (s *SnapshotSource) Rows(ctx context.Context, name string) ([]types.Row, error) {
	objectPath := s.ObjectPath(name)
	data, err := s.store.Get(ctx, objectPath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, gerrors.NewDatasetError(gerrors.CodeDatasetNotFound, fmt.Sprintf("no snapshot at %s", objectPath), err)
		}
		return nil, gerrors.NewStorageError(gerrors.CodeDownloadFailed, fmt.Sprintf("failed to fetch %s", objectPath), err)
	}

	raw, err := snappy.Decode(nil, data)
	if err != nil {
		return nil, gerrors.NewDatasetError(gerrors.CodeDecodeFailed, fmt.Sprintf("snapshot %s is not snappy encoded", objectPath), err)
	}

	var rows []types.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, gerrors.NewDatasetError(gerrors.CodeDecodeFailed, fmt.Sprintf("snapshot %s is not a JSON array of records", objectPath), err)
	}
	if rows == nil {
		rows = []types.Row{}
	}
	return rows, nil
}

// Store implements Sink by publishing a snapshot.
func (s *SnapshotSource) Store(ctx context.Context, name string, rows []types.Row) error {
	if rows == nil {
		rows = []types.Row{}
	}
	raw, err := json.Marshal(rows)
	if err != nil {
		return gerrors.NewDatasetError(gerrors.CodeDecodeFailed, fmt.Sprintf("rows of %q are not encodable", name), err)
	}

	objectPath := s.ObjectPath(name)
	if err := s.store.Put(ctx, objectPath, snappy.Encode(nil, raw)); err != nil {
		return gerrors.NewStorageError(gerrors.CodeUploadFailed, fmt.Sprintf("failed to publish %s", objectPath), err)
	}
	return nil
}

// Names lists the datasets that have a published snapshot.
func (s *SnapshotSource) Names(ctx context.Context) ([]string, error) {
	objects, err := s.store.ListObjects(ctx, s.prefix)
	if err != nil {
		return nil, gerrors.NewStorageError(gerrors.CodeDownloadFailed, "failed to list snapshots", err)
	}

	var names []string
	for _, obj := range objects {
		base := path.Base(obj)
		if strings.HasSuffix(base, SnapshotExt) {
			names = append(names, strings.TrimSuffix(base, SnapshotExt))
		}
	}
	return names, nil
}
