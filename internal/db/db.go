package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the fluxcoach database. The pool is
// capped at one connection: the database belongs to a single local
// user, and the recompute walk must not interleave with other writers.
// WAL keeps the walk's one-transaction-per-day pattern cheap, and the
// busy timeout lets a second CLI invocation wait out a walk in
// progress instead of failing immediately.
func Open(path string) (*sql.DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.Ping(); err != nil {
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	if _, err := sqldb.Exec(`
PRAGMA journal_mode = WAL;
PRAGMA busy_timeout = 5000;
PRAGMA foreign_keys = ON;
`); err != nil {
		return nil, fmt.Errorf("apply connection pragmas: %w", err)
	}
	return sqldb, nil
}
