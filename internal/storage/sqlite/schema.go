package sqlite

import (
	"database/sql"
	"fmt"
)

// createSchema creates the identity table. Safe to call multiple times.
//
// The UNIQUE column on public_id is the write-time uniqueness
// constraint: a duplicate registration fails at INSERT instead of being
// discovered by a later scan.
func createSchema(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS identity (
    ref TEXT PRIMARY KEY,
    public_id TEXT NOT NULL UNIQUE,
    kind TEXT NOT NULL CHECK (kind IN ('participant', 'anonymous_proxy')),
    record TEXT NOT NULL,
    email TEXT,
    created_at TIMESTAMP NOT NULL,
    updated_at TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_identity_kind ON identity(kind);
CREATE INDEX IF NOT EXISTS idx_identity_email ON identity(email);
`
