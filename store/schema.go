package store

import (
	"context"
	"database/sql"
	"fmt"
)

// DefaultTable is the rows table used when no name is configured.
const DefaultTable = "grid_rows"

// ChangeLogTable records every committed operation.
const ChangeLogTable = "row_change_log"

func rowsSchema(table string) string {
	return `CREATE TABLE IF NOT EXISTS ` + table + ` (
    id         TEXT PRIMARY KEY,
    payload    BLOB NOT NULL,
    updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
}

// ChangeLogDDL returns the DDL of the change log table.
func ChangeLogDDL() string {
	return `CREATE TABLE IF NOT EXISTS ` + ChangeLogTable + ` (
    scn        INTEGER PRIMARY KEY AUTOINCREMENT,
    row_table  TEXT NOT NULL,
    op         TEXT NOT NULL,
    row_id     TEXT NOT NULL,
    payload    BLOB,
    created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);`
}

// EnsureSchema creates the rows table and the change log if they do not
// already exist.
func EnsureSchema(ctx context.Context, db *sql.DB, table string) error {
	if err := validIdentifier(table); err != nil {
		return err
	}
	for _, ddl := range []string{rowsSchema(table), ChangeLogDDL()} {
		if _, err := db.ExecContext(ctx, ddl); err != nil {
			return fmt.Errorf("store: ensure schema: %w", err)
		}
	}
	return nil
}

// validIdentifier accepts plain SQL identifiers only, since table names are
// interpolated into statements.
func validIdentifier(name string) error {
	if name == "" {
		return fmt.Errorf("store: empty table name")
	}
	for i, r := range name {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return fmt.Errorf("store: invalid table name %q", name)
		}
	}
	return nil
}
