package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

var ErrEmptyPath = errors.New("sqlite database path must not be empty")

const schema = `
CREATE TABLE IF NOT EXISTS servers (
	address TEXT NOT NULL PRIMARY KEY,
	version_slug TEXT NOT NULL,
	online_players INTEGER NOT NULL,
	probed_at INTEGER NOT NULL,
	item TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS servers_probed_at ON servers (probed_at);
CREATE INDEX IF NOT EXISTS servers_version_slug ON servers (version_slug);
`

// Open opens or creates the database at path and makes sure the schema exists
func Open(ctx context.Context, path string) (*sql.DB, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", fmt.Sprintf("file:%s", path))
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// sqlite allows a single writer at a time
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA busy_timeout = 5000;`,
		schema,
	} {
		if _, err = db.ExecContext(ctx, stmt); err != nil {
			db.Close() // nolint: errcheck
			return nil, fmt.Errorf("init sqlite: %w", err)
		}
	}

	return db, nil
}
