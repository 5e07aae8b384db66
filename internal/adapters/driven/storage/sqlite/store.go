package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/lexrag/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/lexrag/internal/core/ports/driven"
)

// DatabaseFile is the database name inside the data directory.
const DatabaseFile = "lexrag.db"

// pragmas in the DSN apply to every pooled connection.
const pragmas = "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"

// Store owns the database connection. The port adapters are thin views
// over it, obtained through the getters.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens <dataDir>/lexrag.db, creating the directory and applying
// pending migrations. An empty dataDir means ~/.lexrag/data.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".lexrag", "data")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	path := filepath.Join(dataDir, DatabaseFile)
	db, err := sql.Open("sqlite", path+pragmas)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db, path: path}
	if err := s.migrate(context.Background(), migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

// Path returns the database file path.
func (s *Store) Path() string { return s.path }

// DocumentStore returns the documents and chunks port.
func (s *Store) DocumentStore() driven.DocumentStore { return &documentStore{store: s} }

// SearchEngine returns keyword search over the FTS5 table.
func (s *Store) SearchEngine() driven.SearchEngine { return &searchEngine{store: s} }

// VectorIndex returns similarity search over stored chunk embeddings.
func (s *Store) VectorIndex() driven.VectorIndex { return &vectorIndex{store: s} }

// SchedulerStore returns scheduled task state and run history.
func (s *Store) SchedulerStore() driven.SchedulerStore { return &schedulerStore{store: s} }

// migration is an NNN_name.up.sql file. Each file records its own version
// in schema_migrations.
type migration struct {
	version int
	name    string
}

func pendingMigrations(fsys fs.FS, applied int) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, fmt.Errorf("listing migrations: %w", err)
	}

	var out []migration
	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			continue
		}
		version, err := strconv.Atoi(prefix)
		if err != nil || version <= applied {
			continue
		}
		out = append(out, migration{version: version, name: name})
	}
	slices.SortFunc(out, func(a, b migration) int { return a.version - b.version })
	return out, nil
}

// migrate applies pending migrations in version order, each in its own
// transaction.
func (s *Store) migrate(ctx context.Context, fsys fs.FS) error {
	if _, err := s.db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`); err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var applied int
	if err := s.db.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM schema_migrations").Scan(&applied); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	pending, err := pendingMigrations(fsys, applied)
	if err != nil {
		return err
	}
	for _, m := range pending {
		script, err := fs.ReadFile(fsys, m.name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", m.name, err)
		}
		if err := s.inTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, string(script))
			return err
		}); err != nil {
			return fmt.Errorf("executing migration %s: %w", m.name, err)
		}
	}
	return nil
}

// inTx runs fn in a transaction, committing when it returns nil.
func (s *Store) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
