// Package store caches fetched route details on disk so recently
// viewed routes stay readable without a network connection.
package store

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// Open opens (creating if needed) the cache database at path and
// ensures the schema exists. The connection pool is capped at one
// connection; the cache is single-process and sqlite prefers it.
func Open(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open cache database: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := createSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// createSchema creates the cache tables. Safe to call multiple times,
// uses IF NOT EXISTS.
func createSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("create cache schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS route_cache (
    route_id  TEXT PRIMARY KEY,
    name      TEXT NOT NULL,
    status    TEXT NOT NULL,
    payload   TEXT NOT NULL,
    cached_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_route_cache_cached_at ON route_cache(cached_at);
`
