// Package store persists snapshots in an SQLite database under a .plens/
// directory. The database assigns snapshot ids; everything else about a
// snapshot is stored exactly as captured.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// StoreDirName is the per-project directory holding the database and run
// history.
const StoreDirName = ".plens"

const dbFileName = "snapshots.db"

const schema = `
CREATE TABLE IF NOT EXISTS snapshots (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	name          TEXT    NOT NULL,
	preset_name   TEXT    NOT NULL DEFAULT '',
	enabled_count INTEGER NOT NULL DEFAULT 0,
	timestamp     INTEGER NOT NULL,
	payload       TEXT    NOT NULL
);
`

// pragmas applied on open, driver-agnostic via EXEC.
var pragmas = []string{
	"PRAGMA foreign_keys = ON",
	"PRAGMA journal_mode = WAL",
	"PRAGMA busy_timeout = 10000",
	"PRAGMA synchronous = NORMAL",
}

// Store wraps the open database.
type Store struct {
	db *sql.DB
}

// Init creates a .plens/ directory in dir and initializes the database.
// Returns the store root path.
func Init(dir string) (string, error) {
	root := filepath.Join(dir, StoreDirName)
	if _, err := os.Stat(root); err == nil {
		return "", fmt.Errorf("snapshot store already initialized at %s", root)
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("creating %s: %w", root, err)
	}

	s, err := Open(root)
	if err != nil {
		return "", err
	}
	defer s.Close()

	return root, nil
}

// Discover walks up from the current directory to find the nearest .plens/
// directory.
func Discover() (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting working directory: %w", err)
	}
	return DiscoverFrom(dir)
}

// DiscoverFrom walks up from the given directory to find the nearest .plens/
// directory.
func DiscoverFrom(dir string) (string, error) {
	for {
		candidate := filepath.Join(dir, StoreDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached filesystem root
			return "", fmt.Errorf("no snapshot store found (run 'plens init' to create one)")
		}
		dir = parent
	}
}

// Open opens (creating if needed) the snapshot database under root and
// applies the production pragmas and schema.
func Open(root string) (*Store, error) {
	path := filepath.Join(root, dbFileName)
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying %q: %w", p, err)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens an in-memory store, for tests.
func OpenMemory() (*Store, error) {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("opening in-memory database: %w", err)
	}
	// A pooled second connection would see its own empty memory database.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}
