// Package memory is the SQLite persistence layer for PRDs, stories,
// templates and workspace memory entries.
package memory

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

// DBFileName is the database file created inside the base directory.
const DBFileName = "storywing.db"

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	Exec(query string, args ...any) (sql.Result, error)
	Query(query string, args ...any) (*sql.Rows, error)
	QueryRow(query string, args ...any) *sql.Row
}

// queries holds every statement. It is embedded in SQLiteStore and Tx so
// the same methods run either directly or inside a transaction.
type queries struct {
	q querier
}

// SQLiteStore persists the workflow's entities.
type SQLiteStore struct {
	queries
	db       *sql.DB
	basePath string
}

// Tx is a store bound to an open transaction.
type Tx struct {
	queries
}

// NewSQLiteStore opens (creating if needed) the database under basePath.
// Pass ":memory:" for an in-process database.
func NewSQLiteStore(basePath string) (*SQLiteStore, error) {
	var dbPath string
	if basePath == ":memory:" {
		dbPath = ":memory:"
	} else {
		dbPath = filepath.Join(basePath, DBFileName)
		if err := os.MkdirAll(basePath, 0755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// One connection: every ":memory:" connection is its own database, and
	// SQLite serializes writers anyway.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	store := &SQLiteStore{
		queries:  queries{q: db},
		db:       db,
		basePath: basePath,
	}
	if err := store.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return store, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// WithTx runs fn in a transaction, committing if fn returns nil. Only use
// tx inside fn; calling methods on s from fn blocks on the single
// connection.
func (s *SQLiteStore) WithTx(fn func(tx *Tx) error) error {
	sqlTx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = sqlTx.Rollback() }()

	if err := fn(&Tx{queries: queries{q: sqlTx}}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS prds (
		id TEXT PRIMARY KEY,
		workspace_path TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		branch_name TEXT NOT NULL DEFAULT '',
		quality_checks TEXT NOT NULL DEFAULT '[]',  -- JSON array
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS stories (
		id TEXT PRIMARY KEY,
		prd_id TEXT,                                 -- NULL for standalone stories
		workspace_path TEXT NOT NULL,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		priority TEXT NOT NULL DEFAULT 'medium',
		status TEXT NOT NULL DEFAULT 'pending',
		acceptance_criteria TEXT NOT NULL DEFAULT '[]',
		depends_on TEXT NOT NULL DEFAULT '[]',
		dependency_reasons TEXT NOT NULL DEFAULT '{}',
		sort_order INTEGER NOT NULL DEFAULT 0,
		attempts INTEGER NOT NULL DEFAULT 0,
		max_attempts INTEGER NOT NULL DEFAULT 3,
		learnings TEXT NOT NULL DEFAULT '[]',
		priority_recommendation TEXT,                -- JSON, NULL when cleared
		estimate TEXT,                               -- JSON
		external_ref TEXT,                           -- JSON
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL,
		FOREIGN KEY (prd_id) REFERENCES prds(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		category TEXT NOT NULL DEFAULT '',
		title_template TEXT NOT NULL,
		description_template TEXT NOT NULL DEFAULT '',
		criteria_templates TEXT NOT NULL DEFAULT '[]',
		default_priority TEXT NOT NULL DEFAULT 'medium',
		tags TEXT NOT NULL DEFAULT '[]',
		is_built_in INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS memories (
		id TEXT PRIMARY KEY,
		workspace_path TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		key TEXT NOT NULL DEFAULT '',
		content TEXT NOT NULL,
		confidence REAL NOT NULL DEFAULT 1.0,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prds_workspace ON prds(workspace_path);
	CREATE INDEX IF NOT EXISTS idx_stories_prd ON stories(prd_id, sort_order);
	CREATE INDEX IF NOT EXISTS idx_stories_workspace ON stories(workspace_path, sort_order);
	CREATE INDEX IF NOT EXISTS idx_memories_workspace ON memories(workspace_path, confidence);
	`
	_, err := s.db.Exec(schema)
	return err
}
