// Package database implements the Isomer object store on SQLite. Every
// registered schema gets its own collection table; objects are stored
// as JSON documents keyed by uuid and validated on the way in.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ri0t/isomer/internal/config"
	"github.com/ri0t/isomer/internal/errors"
	"github.com/ri0t/isomer/internal/logging"
	"github.com/ri0t/isomer/internal/schemata"
)

// Store is the instance object store.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

var collectionPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Initialize opens (or creates) the configured store and prepares a
// collection for every registered schema. When the store cannot be
// made available this fails with the no-database error.
func Initialize(ctx context.Context, cfg *config.Config) (*Store, error) {
	return Open(ctx, cfg.Database.File())
}

// Open is Initialize on an explicit store file, used for inspecting
// snapshots.
func Open(ctx context.Context, path string) (*Store, error) {
	timer := logging.StartTimer(logging.EmitterDB, "Initialize")
	defer timer.Stop()

	logging.DB("Initializing object store at %s", path)

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		logging.Get(logging.EmitterDB).Critical("Cannot create database directory: %v", err)
		return nil, errors.Wrap(errors.NoDatabase, "cannot create database directory", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		logging.Get(logging.EmitterDB).Critical("Cannot open database at %s: %v", path, err)
		return nil, errors.Wrap(errors.NoDatabase, "cannot open database at "+path, err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		logging.Get(logging.EmitterDB).Critical("Database at %s does not answer: %v", path, err)
		return nil, errors.Wrap(errors.NoDatabase, "database at "+path+" does not answer", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		logging.DBDebug("Failed to set sqlite busy_timeout: %v", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		logging.DBDebug("Failed to set sqlite journal_mode=WAL: %v", err)
	}
	if _, err := db.Exec("PRAGMA synchronous = NORMAL"); err != nil {
		logging.DBDebug("Failed to set sqlite synchronous=NORMAL: %v", err)
	}
	logging.DBDebug("Opened SQLite database connection")

	store := &Store{db: db, dbPath: path}
	if err := store.initialize(); err != nil {
		db.Close()
		logging.Get(logging.EmitterDB).Critical("Failed to initialize collections: %v", err)
		return nil, errors.Wrap(errors.NoDatabase, "failed to initialize collections", err)
	}

	logging.DB("Object store ready, %d collections", len(schemata.Names()))
	return store, nil
}

// initialize creates one collection table per registered schema and
// applies pending column migrations. Indexes on migrated columns are
// created last so stores from older releases come up cleanly.
func (s *Store) initialize() error {
	tables := make([]string, 0, len(schemata.Names()))
	for _, name := range schemata.Names() {
		table, err := collectionTable(name)
		if err != nil {
			return err
		}
		ddl := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			uuid TEXT PRIMARY KEY,
			name TEXT,
			data TEXT NOT NULL,
			created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
			updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)`, table)
		if _, err := s.db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to create collection %s: %w", name, err)
		}
		tables = append(tables, table)
	}

	if err := RunMigrations(s.db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	for _, table := range tables {
		index := fmt.Sprintf("CREATE INDEX IF NOT EXISTS idx_%s_name ON %s(name)", table, table)
		if _, err := s.db.Exec(index); err != nil {
			logging.Get(logging.EmitterDB).Warn("Failed to index %s by name: %v", table, err)
		}
	}
	return nil
}

// collectionTable maps a schema name onto its table name, refusing
// anything that cannot be a safe identifier.
func collectionTable(name string) (string, error) {
	if !collectionPattern.MatchString(name) {
		return "", errors.Newf(errors.InvalidSchema, "schema name %q cannot name a collection", name)
	}
	return "objects_" + name, nil
}

// Close closes the store.
func (s *Store) Close() error {
	logging.DB("Closing object store")
	return s.db.Close()
}

// Path returns the store file location.
func (s *Store) Path() string {
	return s.dbPath
}

// DB exposes the underlying connection for maintenance operations.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Collections lists the collection names present in the store, sorted.
func (s *Store) Collections() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name LIKE 'objects_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list collections: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var table string
		if err := rows.Scan(&table); err != nil {
			return nil, err
		}
		names = append(names, table[len("objects_"):])
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	sort.Strings(names)
	return names, nil
}

// Status describes the store for `iso db status`.
type Status struct {
	Path        string
	SizeBytes   int64
	Collections map[string]int64
}

// Stats counts the objects in every collection.
func (s *Store) Stats() (Status, error) {
	timer := logging.StartTimer(logging.EmitterDB, "Stats")
	defer timer.Stop()

	status := Status{Path: s.dbPath, Collections: make(map[string]int64)}

	if info, err := os.Stat(s.dbPath); err == nil {
		status.SizeBytes = info.Size()
	}

	names, err := s.Collections()
	if err != nil {
		return status, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, name := range names {
		table, err := collectionTable(name)
		if err != nil {
			continue
		}
		var count int64
		if err := s.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&count); err != nil {
			logging.DBDebug("Count on %s failed: %v", name, err)
			continue
		}
		status.Collections[name] = count
	}
	return status, nil
}
