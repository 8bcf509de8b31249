// Package catalogcache keeps the last node catalog fetched from the backend
// in a SQLite file, so the editor can start offline.
package catalogcache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/specialistvlad/blueprintgo/internal/catalog"
	"github.com/specialistvlad/blueprintgo/internal/ctxlog"
)

// ErrEmpty is returned by FetchCatalog when nothing has been cached yet.
var ErrEmpty = errors.New("catalog cache is empty")

// Store is a catalog.Source and catalog.Sink backed by SQLite.
type Store struct {
	db     *sql.DB
	ownsDB bool
	now    func() time.Time
}

var (
	_ catalog.Source = (*Store)(nil)
	_ catalog.Sink   = (*Store)(nil)
)

// Open opens (or creates) the cache file at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog cache %s: %w", path, err)
	}
	s, err := New(db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	s.ownsDB = true
	return s, nil
}

// New initializes the schema in db and returns a store using it. The caller
// keeps ownership of db.
func New(db *sql.DB) (*Store, error) {
	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize catalog cache schema: %w", err)
	}
	return s, nil
}

func (s *Store) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS node_types (
			node_id  TEXT PRIMARY KEY,
			position INTEGER NOT NULL,
			record   BLOB NOT NULL,
			saved_at INTEGER NOT NULL
		);`,
	)
	return err
}

// SaveCatalog replaces the cached catalog with records.
func (s *Store) SaveCatalog(ctx context.Context, records []catalog.NodeRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM node_types`); err != nil {
		return err
	}

	savedAt := s.now().UnixMilli()
	for i, rec := range records {
		raw, err := json.Marshal(rec)
		if err != nil {
			return fmt.Errorf("failed to encode node type %q: %w", rec.NodeID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO node_types (node_id, position, record, saved_at)
			VALUES (?, ?, ?, ?)`,
			rec.NodeID, i, raw, savedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to store node type %q: %w", rec.NodeID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	ctxlog.FromContext(ctx).Debug("Node catalog cached.", "node_types", len(records))
	return nil
}

// FetchCatalog returns the cached records in the order they were saved.
func (s *Store) FetchCatalog(ctx context.Context) ([]catalog.NodeRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT node_id, record
		FROM node_types
		ORDER BY position`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []catalog.NodeRecord
	for rows.Next() {
		var (
			id  string
			raw []byte
		)
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, err
		}
		var rec catalog.NodeRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("failed to decode cached node type %q: %w", id, err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, ErrEmpty
	}
	return records, nil
}

// SavedAt reports when the cached catalog was written.
func (s *Store) SavedAt(ctx context.Context) (time.Time, error) {
	var ms sql.NullInt64
	err := s.db.QueryRowContext(ctx, `SELECT MAX(saved_at) FROM node_types`).Scan(&ms)
	if err != nil {
		return time.Time{}, err
	}
	if !ms.Valid {
		return time.Time{}, ErrEmpty
	}
	return time.UnixMilli(ms.Int64), nil
}

// Close closes the database when the store opened it.
func (s *Store) Close() error {
	if !s.ownsDB {
		return nil
	}
	return s.db.Close()
}
