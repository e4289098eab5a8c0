// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"database/sql"
	"fmt"
	"strings"
)

// CreateSchema creates all tables needed for the application.
// Safe to call multiple times - uses IF NOT EXISTS.
func CreateSchema(db *sql.DB) error {
	// One statement per Exec; the SQLite driver stops after the first.
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt == "" {
			continue
		}
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to create schema: %w", err)
		}
	}

	return nil
}

// The DDL is shared by PostgreSQL and SQLite. Timestamps are stored as
// UTC unix milliseconds.
const schema = `
-- Login credentials
CREATE TABLE IF NOT EXISTS account (
    user_id TEXT PRIMARY KEY,
    email TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    display_name TEXT NOT NULL DEFAULT '',
    created_at BIGINT NOT NULL
);

-- Per-identity voting state
CREATE TABLE IF NOT EXISTS user_record (
    user_id TEXT PRIMARY KEY,
    name TEXT NOT NULL DEFAULT '',
    email TEXT NOT NULL DEFAULT '',
    membership_id TEXT,
    created_at BIGINT NOT NULL DEFAULT 0,
    has_voted BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE INDEX IF NOT EXISTS idx_user_record_has_voted ON user_record(has_voted);

-- Vote tallies
CREATE TABLE IF NOT EXISTS candidate_tally (
    candidate_id TEXT PRIMARY KEY,
    vote_count BIGINT NOT NULL DEFAULT 0 CHECK (vote_count >= 0)
);
`
