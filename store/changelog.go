package store

import (
	"context"
	"database/sql"
	"time"
)

// Change log operations.
const (
	OpInsert = "insert"
	OpUpdate = "update"
	OpDelete = "delete"
)

// LogEntry mirrors a single row of the change log. Payload holds the CBOR
// record for inserts and updates and the last stored record for deletes.
type LogEntry struct {
	SCN       int64
	Table     string
	Op        string
	RowID     string
	Payload   []byte
	CreatedAt time.Time
}

func appendLog(ctx context.Context, tx *sql.Tx, table, op, id string, payload []byte) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO `+ChangeLogTable+`(row_table, op, row_id, payload) VALUES(?, ?, ?, ?)`,
		table, op, id, payload)
	return err
}

// Changes returns up to limit change log entries of the store's table with
// an SCN greater than after, oldest first. A non-positive limit returns all.
func (s *SQLiteStore[T]) Changes(ctx context.Context, after int64, limit int) ([]LogEntry, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT scn, row_table, op, row_id, payload, created_at FROM `+ChangeLogTable+`
WHERE row_table = ? AND scn > ? ORDER BY scn LIMIT ?`, s.table, after, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.SCN, &e.Table, &e.Op, &e.RowID, &e.Payload, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
