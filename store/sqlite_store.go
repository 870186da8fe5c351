package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/danbne/velaxios-sub000/engine"
	"github.com/danbne/velaxios-sub000/row"
	"github.com/danbne/velaxios-sub000/tracker"
	"github.com/danbne/velaxios-sub000/workset"
)

// FieldError is returned by a Validator to point at one field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Field + ": " + e.Message }

// Validator checks a record before it is inserted or updated.
type Validator[T any] func(data T) error

// SQLiteStore implements workset.Backend on a SQLite table holding one CBOR
// payload per row.
type SQLiteStore[T any] struct {
	db       *sql.DB
	table    string
	validate Validator[T]
	newID    func() string
	logger   *zap.Logger
}

// Option configures a SQLiteStore.
type Option[T any] func(*SQLiteStore[T])

// WithTable sets the rows table name.
func WithTable[T any](table string) Option[T] {
	return func(s *SQLiteStore[T]) { s.table = table }
}

// WithValidator sets the record validator run before any write.
func WithValidator[T any](v Validator[T]) Option[T] {
	return func(s *SQLiteStore[T]) { s.validate = v }
}

// WithIDGenerator replaces the uuid generator used for inserted rows.
func WithIDGenerator[T any](gen func() string) Option[T] {
	return func(s *SQLiteStore[T]) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// WithLogger sets the logger.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(s *SQLiteStore[T]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSQLiteStore creates a SQLite-backed store. It ensures the schema exists
// in the provided database.
func NewSQLiteStore[T any](ctx context.Context, db *sql.DB, opts ...Option[T]) (*SQLiteStore[T], error) {
	if db == nil {
		return nil, fmt.Errorf("store: db is nil")
	}
	s := &SQLiteStore[T]{
		db:     db,
		table:  DefaultTable,
		newID:  uuid.NewString,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := EnsureSchema(ctx, db, s.table); err != nil {
		return nil, err
	}
	return s, nil
}

// Open registers the SQL functions, opens dsn and returns a store on it.
// The caller owns the returned *sql.DB.
func Open[T any](ctx context.Context, dsn string, opts ...Option[T]) (*SQLiteStore[T], *sql.DB, error) {
	if err := engine.RegisterFunctions(); err != nil {
		return nil, nil, fmt.Errorf("store: register functions: %w", err)
	}
	db, err := engine.Open(dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("store: open %s: %w", dsn, err)
	}
	s, err := NewSQLiteStore[T](ctx, db, opts...)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	return s, db, nil
}

// FetchAll returns every stored row in insertion order.
func (s *SQLiteStore[T]) FetchAll(ctx context.Context) ([]row.Record[T], error) {
	if ctx == nil {
		ctx = context.Background()
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, payload FROM `+s.table+` ORDER BY rowid`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []row.Record[T]
	for rows.Next() {
		var id string
		var payload []byte
		if err := rows.Scan(&id, &payload); err != nil {
			return nil, err
		}
		data, err := DecodePayload[T](payload)
		if err != nil {
			return nil, fmt.Errorf("store: row %s: %w", id, err)
		}
		out = append(out, row.Record[T]{ID: id, Data: data})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// CommitBatch validates every operation of batch and, if all pass, applies
// them in one transaction. Rejected batches write nothing and return a
// *workset.ValidationError naming the offending rows. New rows receive
// server ids; Result.Added follows the order of batch.ToAdd.
func (s *SQLiteStore[T]) CommitBatch(ctx context.Context, batch tracker.Batch[T]) (tracker.Result[T], error) {
	res := tracker.Result[T]{
		Added:   []row.Record[T]{},
		Updated: []row.Record[T]{},
		Deleted: []string{},
	}
	if batch.Empty() {
		return res, nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return res, err
	}
	defer func() { _ = tx.Rollback() }()

	if items, err := s.check(ctx, tx, batch); err != nil {
		return res, err
	} else if len(items) > 0 {
		return res, &workset.ValidationError{Message: "batch rejected", Items: items}
	}

	insert, err := tx.PrepareContext(ctx, `INSERT INTO `+s.table+`(id, payload) VALUES(?, ?)`)
	if err != nil {
		return res, err
	}
	defer insert.Close()
	for _, rec := range batch.ToAdd {
		payload, err := EncodePayload(rec.Data)
		if err != nil {
			return res, err
		}
		id := s.newID()
		if _, err := insert.ExecContext(ctx, id, payload); err != nil {
			return res, fmt.Errorf("store: insert %s: %w", rec.ID, err)
		}
		if err := appendLog(ctx, tx, s.table, OpInsert, id, payload); err != nil {
			return res, err
		}
		res.Added = append(res.Added, row.Record[T]{ID: id, Data: rec.Data})
	}

	update, err := tx.PrepareContext(ctx, `UPDATE `+s.table+` SET payload = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`)
	if err != nil {
		return res, err
	}
	defer update.Close()
	for _, rec := range batch.ToUpdate {
		payload, err := EncodePayload(rec.Data)
		if err != nil {
			return res, err
		}
		if _, err := update.ExecContext(ctx, payload, rec.ID); err != nil {
			return res, fmt.Errorf("store: update %s: %w", rec.ID, err)
		}
		if err := appendLog(ctx, tx, s.table, OpUpdate, rec.ID, payload); err != nil {
			return res, err
		}
		res.Updated = append(res.Updated, rec)
	}

	for _, id := range batch.ToDelete {
		var payload []byte
		err := tx.QueryRowContext(ctx, `DELETE FROM `+s.table+` WHERE id = ? RETURNING payload`, id).Scan(&payload)
		if errors.Is(err, sql.ErrNoRows) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("store: delete %s: %w", id, err)
		}
		if err := appendLog(ctx, tx, s.table, OpDelete, id, payload); err != nil {
			return res, err
		}
		res.Deleted = append(res.Deleted, id)
	}

	if err := tx.Commit(); err != nil {
		return tracker.Result[T]{Added: []row.Record[T]{}, Updated: []row.Record[T]{}, Deleted: []string{}}, err
	}
	s.logger.Debug("batch committed",
		zap.String("table", s.table),
		zap.Int("added", len(res.Added)),
		zap.Int("updated", len(res.Updated)),
		zap.Int("deleted", len(res.Deleted)))
	return res, nil
}

// check collects per-item validation failures without writing anything.
func (s *SQLiteStore[T]) check(ctx context.Context, tx *sql.Tx, batch tracker.Batch[T]) ([]workset.ItemError, error) {
	var items []workset.ItemError
	validate := func(id string, data T) {
		if s.validate == nil {
			return
		}
		if err := s.validate(data); err != nil {
			item := workset.ItemError{ID: id, Message: err.Error()}
			var ferr *FieldError
			if errors.As(err, &ferr) {
				item.Field, item.Message = ferr.Field, ferr.Message
			}
			items = append(items, item)
		}
	}

	for _, rec := range batch.ToAdd {
		validate(rec.ID, rec.Data)
	}
	for _, rec := range batch.ToUpdate {
		if row.IsTempID(rec.ID) {
			items = append(items, workset.ItemError{ID: rec.ID, Message: "temporary id cannot be updated"})
			continue
		}
		exists, err := s.exists(ctx, tx, rec.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			items = append(items, workset.ItemError{ID: rec.ID, Message: "row not found"})
			continue
		}
		validate(rec.ID, rec.Data)
	}
	for _, id := range batch.ToDelete {
		if row.IsTempID(id) {
			items = append(items, workset.ItemError{ID: id, Message: "temporary id cannot be deleted"})
		}
	}
	return items, nil
}

func (s *SQLiteStore[T]) exists(ctx context.Context, tx *sql.Tx, id string) (bool, error) {
	var one int
	err := tx.QueryRowContext(ctx, `SELECT 1 FROM `+s.table+` WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// PurgeTempRows deletes rows stored under a temporary id, which only a
// faulty writer can produce, and returns how many were removed.
func (s *SQLiteStore[T]) PurgeTempRows(ctx context.Context) (int64, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	r, err := s.db.ExecContext(ctx, `DELETE FROM `+s.table+` WHERE is_temp_id(id)`)
	if err != nil {
		return 0, fmt.Errorf("store: purge temp rows: %w", err)
	}
	return r.RowsAffected()
}

// Table returns the rows table name.
func (s *SQLiteStore[T]) Table() string { return s.table }

// Ensure SQLiteStore satisfies the workset.Backend interface.
var _ workset.Backend[struct{}] = (*SQLiteStore[struct{}])(nil)
