// Package sqlite provides a SQLite-backed world store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/nathoo/dpcq/store"
	"github.com/nathoo/dpcq/store/sqlite/migrations"
)

// Store persists one world blob per group in SQLite.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a SQLite world store and applies embedded migrations.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_pragma=busy_timeout(5000)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) ready(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	return nil
}

// Get returns the blob stored for groupID.
func (s *Store) Get(ctx context.Context, groupID string) ([]byte, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	var data []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT data FROM worlds WHERE group_id = ?`, groupID).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get world %s: %w", groupID, err)
	}
	return data, nil
}

// Put upserts the blob for groupID.
func (s *Store) Put(ctx context.Context, groupID string, data []byte) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if strings.TrimSpace(groupID) == "" {
		return fmt.Errorf("group id is required")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO worlds (group_id, data, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(group_id) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		groupID, data, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("put world %s: %w", groupID, err)
	}
	return nil
}

// Delete removes the blob for groupID. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, groupID string) error {
	if err := s.ready(ctx); err != nil {
		return err
	}
	if _, err := s.sqlDB.ExecContext(ctx, `DELETE FROM worlds WHERE group_id = ?`, groupID); err != nil {
		return fmt.Errorf("delete world %s: %w", groupID, err)
	}
	return nil
}

// List returns every stored group id in order.
func (s *Store) List(ctx context.Context) ([]string, error) {
	if err := s.ready(ctx); err != nil {
		return nil, err
	}
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT group_id FROM worlds ORDER BY group_id`)
	if err != nil {
		return nil, fmt.Errorf("list worlds: %w", err)
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan world id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

var _ store.Store = (*Store)(nil)
