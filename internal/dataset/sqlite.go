package dataset

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/snappy"
	_ "github.com/mattn/go-sqlite3"
	gerrors "github.com/propgrid/propgrid/internal/errors"
	"github.com/propgrid/propgrid/pkg/types"
)

// SQLiteStore persists datasets in a SQLite database. Each row is stored as a
// snappy-compressed JSON document and read back in insertion order.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// StoredDataset summarises one dataset held by a SQLiteStore.
type StoredDataset struct {
	Name      string
	Version   string
	RowCount  int
	UpdatedAt time.Time
}

const sqliteSchema = `
	CREATE TABLE IF NOT EXISTS datasets (
		name TEXT PRIMARY KEY,
		version TEXT NOT NULL,
		row_count INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS dataset_rows (
		dataset TEXT NOT NULL,
		seq INTEGER NOT NULL,
		doc BLOB NOT NULL,
		PRIMARY KEY (dataset, seq)
	) WITHOUT ROWID;
`

// OpenSQLiteStore opens (creating if needed) the store at path.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("dataset: failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to open SQLite store: %w", err)
	}
	// SQLite allows a single writer; one connection avoids busy errors.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("dataset: failed to create schema: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Store implements Sink. It replaces the dataset's rows in one transaction.
func (s *SQLiteStore) Store(ctx context.Context, name string, rows []types.Row) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dataset: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_rows WHERE dataset = ?`, name); err != nil {
		return fmt.Errorf("dataset: failed to clear rows: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO dataset_rows (dataset, seq, doc) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("dataset: failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, row := range rows {
		raw, err := json.Marshal(row)
		if err != nil {
			return gerrors.NewDatasetError(gerrors.CodeDecodeFailed, fmt.Sprintf("row %d of %q is not encodable", i, name), err)
		}
		if _, err := stmt.ExecContext(ctx, name, i, snappy.Encode(nil, raw)); err != nil {
			return fmt.Errorf("dataset: failed to insert row %d: %w", i, err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO datasets (name, version, row_count, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET version = excluded.version, row_count = excluded.row_count, updated_at = excluded.updated_at`,
		name, Version(rows), len(rows), time.Now().UnixNano())
	if err != nil {
		return fmt.Errorf("dataset: failed to record dataset: %w", err)
	}

	return tx.Commit()
}

// Rows implements Source.
func (s *SQLiteStore) Rows(ctx context.Context, name string) ([]types.Row, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT row_count FROM datasets WHERE name = ?`, name).Scan(&count)
	if err == sql.ErrNoRows {
		return nil, gerrors.NewDatasetError(gerrors.CodeDatasetNotFound, fmt.Sprintf("dataset %q not in %s", name, s.path), nil)
	}
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to look up %q: %w", name, err)
	}

	rs, err := s.db.QueryContext(ctx, `SELECT doc FROM dataset_rows WHERE dataset = ? ORDER BY seq`, name)
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to query rows: %w", err)
	}
	defer rs.Close()

	rows := make([]types.Row, 0, count)
	for rs.Next() {
		var compressed []byte
		if err := rs.Scan(&compressed); err != nil {
			return nil, fmt.Errorf("dataset: failed to scan row: %w", err)
		}
		row, err := decodeRow(compressed)
		if err != nil {
			return nil, gerrors.NewDatasetError(gerrors.CodeDecodeFailed, fmt.Sprintf("row %d of %q", len(rows), name), err)
		}
		rows = append(rows, row)
	}
	if err := rs.Err(); err != nil {
		return nil, fmt.Errorf("dataset: row iteration failed: %w", err)
	}
	return rows, nil
}

// List returns the datasets held by the store, ordered by name.
func (s *SQLiteStore) List(ctx context.Context) ([]StoredDataset, error) {
	rs, err := s.db.QueryContext(ctx, `SELECT name, version, row_count, updated_at FROM datasets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("dataset: failed to list datasets: %w", err)
	}
	defer rs.Close()

	var out []StoredDataset
	for rs.Next() {
		var (
			sd      StoredDataset
			updated int64
		)
		if err := rs.Scan(&sd.Name, &sd.Version, &sd.RowCount, &updated); err != nil {
			return nil, fmt.Errorf("dataset: failed to scan dataset: %w", err)
		}
		sd.UpdatedAt = time.Unix(0, updated)
		out = append(out, sd)
	}
	return out, rs.Err()
}

// Delete removes a dataset and its rows.
func (s *SQLiteStore) Delete(ctx context.Context, name string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("dataset: failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dataset_rows WHERE dataset = ?`, name); err != nil {
		return fmt.Errorf("dataset: failed to delete rows: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM datasets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("dataset: failed to delete dataset: %w", err)
	}
	return tx.Commit()
}

func decodeRow(compressed []byte) (types.Row, error) {
	raw, err := snappy.Decode(nil, compressed)
	if err != nil {
		return nil, fmt.Errorf("snappy decompress failed: %w", err)
	}
	var row types.Row
	if err := json.Unmarshal(raw, &row); err != nil {
		return nil, fmt.Errorf("json decode failed: %w", err)
	}
	return row, nil
}
