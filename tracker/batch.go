package tracker

import "github.com/danbne/velaxios-sub000/row"

// Batch is a snapshot of the pending operations of a row collection. It is
// computed once and passed by value, so later edits to the collection do not
// alter it.
type Batch[T any] struct {
	ToAdd    []row.Record[T]
	ToUpdate []row.Record[T]
	ToDelete []string
}

// Empty reports whether the batch carries no operation.
func (b Batch[T]) Empty() bool {
	return len(b.ToAdd) == 0 && len(b.ToUpdate) == 0 && len(b.ToDelete) == 0
}

// Size returns the number of operations in the batch.
func (b Batch[T]) Size() int {
	return len(b.ToAdd) + len(b.ToUpdate) + len(b.ToDelete)
}

// IDs returns the primary keys of every row touched by the batch.
func (b Batch[T]) IDs() []string {
	ids := make([]string, 0, b.Size())
	for _, r := range b.ToAdd {
		ids = append(ids, r.ID)
	}
	for _, r := range b.ToUpdate {
		ids = append(ids, r.ID)
	}
	return append(ids, b.ToDelete...)
}

// RowFailure identifies a row the server could not apply within an otherwise
// successful batch.
type RowFailure struct {
	ID     string
	Reason string
}

// Result is the authoritative answer of a batch commit. Added and Updated
// hold server records, Deleted the keys actually removed and Failed the rows
// rejected individually. All fields may be empty.
type Result[T any] struct {
	Added   []row.Record[T]
	Updated []row.Record[T]
	Deleted []string
	Failed  []RowFailure
}

// Pending computes the batch for rows. New rows that are also deleted are
// never part of it. clone deep-copies application data; nil copies by value.
func Pending[T any](rows []row.Row[T], clone func(T) T) Batch[T] {
	var b Batch[T]
	for _, r := range rows {
		m := r.Meta
		switch {
		case m.New && !m.Deleted:
			b.ToAdd = append(b.ToAdd, copyRecord(r.Record, clone))
		case m.Dirty && !m.New && !m.Deleted:
			b.ToUpdate = append(b.ToUpdate, copyRecord(r.Record, clone))
		case m.Deleted && !m.New:
			b.ToDelete = append(b.ToDelete, r.ID)
		}
	}
	return b
}

func copyRecord[T any](rec row.Record[T], clone func(T) T) row.Record[T] {
	if clone != nil {
		rec.Data = clone(rec.Data)
	}
	return rec
}
