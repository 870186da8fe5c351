package row

// Meta holds the status flags of a single row.
type Meta struct {
	// New is set for rows created client-side that were never committed.
	New bool
	// Dirty is set for committed rows edited since the last sync point.
	// It is never set together with New.
	Dirty bool
	// Deleted marks a tombstone awaiting server confirmation.
	Deleted bool
	// Failed is a visual overlay for rows whose last save attempt failed.
	Failed bool
}

// Pending reports whether the flags describe an unsaved change.
func (m Meta) Pending() bool { return m.New || m.Dirty || m.Deleted }

// Record is an application record together with its primary key. It is the
// shape exchanged with the fetch and commit collaborators.
type Record[T any] struct {
	ID   string
	Data T
}

// Row composes a record with the metadata owned by the editing core.
type Row[T any] struct {
	Record[T]
	Meta Meta
}

// Committed wraps a server record as a clean row.
func Committed[T any](rec Record[T]) Row[T] {
	return Row[T]{Record: rec}
}

// Fresh returns a new, never committed row.
func Fresh[T any](id string, data T) Row[T] {
	return Row[T]{Record: Record[T]{ID: id, Data: data}, Meta: Meta{New: true}}
}

// MarkEdited applies the edit transition: committed rows become dirty, new
// rows stay new.
func (m Meta) MarkEdited() Meta {
	if !m.New {
		m.Dirty = true
	}
	return m
}

// MarkDeleted applies the tombstone transition. Deletion supersedes edit
// tracking, so Dirty is cleared while New is kept.
func (m Meta) MarkDeleted() Meta {
	m.Deleted = true
	m.Dirty = false
	return m
}
