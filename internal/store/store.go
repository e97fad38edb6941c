package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/kianmotamedipinnacle-boop/jet-dashboard/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DBPath returns the SQLite database location under home.
func DBPath(home string) string {
	return filepath.Join(config.ProtectedDir(home), "db.sqlite")
}

type sqliteStore struct {
	DB *sql.DB

	// Hot-path statements, prepared once at open.
	stmtUpsertCard     *sql.Stmt
	stmtAppendActivity *sql.Stmt
	stmtSaveStatus     *sql.Stmt
}

var sqlitePragmas = []string{
	// WAL lets the UI keep reading while a column is being rewritten.
	"PRAGMA journal_mode=WAL;",
	"PRAGMA synchronous=NORMAL;",
	"PRAGMA temp_store=MEMORY;",
	"PRAGMA cache_size=-20000;", // KiB
}

// Open opens (creating if needed) the SQLite store at home/protected/db.sqlite.
// For postgres use postgres.Open; this package cannot import it.
func Open(home string) (Store, error) {
	if home == "" {
		return nil, errors.New("store: home required")
	}
	path := DBPath(home)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return OpenFile(path)
}

// OpenFile opens a SQLite database at an explicit path or "file:" DSN.
func OpenFile(path string) (Store, error) {
	if path == "" {
		return nil, errors.New("store: sqlite path required")
	}
	dsn := path
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + path + "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx := context.Background()
	s := &sqliteStore{DB: db}
	for _, q := range sqlitePragmas {
		if _, err := db.ExecContext(ctx, q); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := s.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := s.prepare(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// EnsureSchema opens the store at home once so pending migrations run.
func EnsureSchema(home string) error {
	s, err := Open(home)
	if err != nil {
		return err
	}
	return s.Close()
}

func (s *sqliteStore) prepare(ctx context.Context) error {
	stmts := []struct {
		dest **sql.Stmt
		q    string
	}{
		{&s.stmtUpsertCard, `
INSERT INTO kanban_cards(id, title, description, tags, status, priority, auto_pickup, sort_order, created_date, updated_date)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  title=excluded.title, description=excluded.description, tags=excluded.tags,
  status=excluded.status, priority=excluded.priority, auto_pickup=excluded.auto_pickup,
  sort_order=excluded.sort_order, updated_date=excluded.updated_date`},
		{&s.stmtAppendActivity, `INSERT INTO activity_log(id, timestamp, action_type, description, metadata) VALUES(?, ?, ?, ?, ?)`},
		{&s.stmtSaveStatus, `
INSERT INTO status(id, status, last_sync, updated_at) VALUES(?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET status=excluded.status, last_sync=excluded.last_sync, updated_at=excluded.updated_at`},
	}
	for _, st := range stmts {
		prepared, err := s.DB.PrepareContext(ctx, st.q)
		if err != nil {
			return err
		}
		*st.dest = prepared
	}
	return nil
}

func (s *sqliteStore) Driver() string { return "sqlite" }

func (s *sqliteStore) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	for _, st := range []*sql.Stmt{s.stmtUpsertCard, s.stmtAppendActivity, s.stmtSaveStatus} {
		if st != nil {
			_ = st.Close()
		}
	}
	return s.DB.Close()
}

// Migrate applies the embedded migrations missing from schema_migrations,
// each in its own transaction.
func (s *sqliteStore) Migrate(ctx context.Context) error {
	if _, err := s.DB.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  applied_at INTEGER NOT NULL
);`); err != nil {
		return err
	}
	applied, err := s.appliedVersions(ctx)
	if err != nil {
		return err
	}
	migs, err := LoadMigrations(migrationsFS, "migrations")
	if err != nil {
		return err
	}
	for _, m := range Pending(migs, applied) {
		if err := s.apply(ctx, m); err != nil {
			return fmt.Errorf("migration %s failed: %w", m.Name, err)
		}
	}
	return nil
}

func (s *sqliteStore) appliedVersions(ctx context.Context) (map[int]bool, error) {
	rows, err := s.DB.QueryContext(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	applied := make(map[int]bool)
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		applied[v] = true
	}
	return applied, rows.Err()
}

func (s *sqliteStore) apply(ctx context.Context, m Migration) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, m.SQL); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO schema_migrations(version, applied_at) VALUES(?, ?)`, m.Version, time.Now().Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// ValidCollection reports whether name is a known collection and therefore a safe table name.
func ValidCollection(name string) bool {
	return slices.Contains(Collections, name)
}
