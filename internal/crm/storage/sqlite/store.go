package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/arvela/crmops/internal/crm/storage"
	"github.com/arvela/crmops/internal/crm/storage/sqlite/migrations"
	"github.com/arvela/crmops/internal/platform/storage/sqlitemigrate"
	_ "modernc.org/sqlite"
)

func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

// fromMillis reverses toMillis for persisted millisecond timestamps.
func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// toNullMillis maps optional domain times to sql.NullInt64 for nullable columns.
func toNullMillis(value *time.Time) sql.NullInt64 {
	if value == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: toMillis(*value), Valid: true}
}

// fromNullMillis maps nullable SQL timestamps back into optional time values.
func fromNullMillis(value sql.NullInt64) *time.Time {
	if !value.Valid {
		return nil
	}
	t := fromMillis(value.Int64)
	return &t
}

// Store provides a SQLite-backed store implementing the CRM storage interfaces.
type Store struct {
	sqlDB *sql.DB
}

// Open opens a CRM SQLite store at the provided path and applies the bundled
// baseline snapshot.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	cleanPath := filepath.Clean(path)
	dsn := cleanPath + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	store := &Store{sqlDB: sqlDB}
	if err := sqlitemigrate.ApplyMigrations(sqlDB, migrations.FS, ""); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return store, nil
}

// Close closes the underlying SQLite database.
//
// Close is nil-safe so callers can defer it in all startup paths.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// With opens a store, runs fn, and always closes the store afterwards.
//
// Every tool used to repeat the open/query/close scaffold inline; this is the
// one place that owns the store lifecycle now.
func With(path string, fn func(*Store) error) error {
	store, err := Open(path)
	if err != nil {
		return err
	}
	runErr := fn(store)
	if closeErr := store.Close(); closeErr != nil {
		closeErr = fmt.Errorf("close store: %w", closeErr)
		return errors.Join(runErr, closeErr)
	}
	return runErr
}

var (
	_ storage.WorkspaceStore = (*Store)(nil)
	_ storage.UserStore      = (*Store)(nil)
	_ storage.SellerStore    = (*Store)(nil)
	_ storage.CompanyStore   = (*Store)(nil)
	_ storage.PersonStore    = (*Store)(nil)
	_ storage.ProgressStore  = (*Store)(nil)
)
