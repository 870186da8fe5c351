package grid

import (
	"sync"
	"sync/atomic"

	"github.com/danbne/velaxios-sub000/row"
)

// View is an in-memory read-only subscriber of row transactions. It keeps
// rows in the order they were added and publishes every transaction as a
// new snapshot, so readers never observe a half-applied change.
type View[T any] struct {
	writeMu sync.Mutex
	state   atomic.Pointer[viewSnapshot[T]]
	applied atomic.Int64
}

type viewSnapshot[T any] struct {
	order []string
	rows  map[string]row.Row[T]
}

// NewView returns an empty view.
func NewView[T any]() *View[T] {
	v := &View[T]{}
	v.state.Store(&viewSnapshot[T]{rows: map[string]row.Row[T]{}})
	return v
}

// ApplyTransaction implements Surface. Removes are applied first, then
// updates, then adds.
func (v *View[T]) ApplyTransaction(tx Transaction[T]) {
	if tx.Empty() {
		return
	}
	v.writeMu.Lock()
	defer v.writeMu.Unlock()

	cur := v.state.Load()
	next := &viewSnapshot[T]{
		order: make([]string, 0, len(cur.order)+len(tx.Add)),
		rows:  make(map[string]row.Row[T], len(cur.rows)+len(tx.Add)),
	}
	for id, r := range cur.rows {
		next.rows[id] = r
	}

	removed := make(map[string]bool, len(tx.Remove))
	for _, r := range tx.Remove {
		id := RowID(r)
		removed[id] = true
		delete(next.rows, id)
	}
	for _, id := range cur.order {
		if !removed[id] {
			next.order = append(next.order, id)
		}
	}
	for _, r := range tx.Update {
		id := RowID(r)
		if _, ok := next.rows[id]; ok {
			next.rows[id] = r
		}
	}
	for _, r := range tx.Add {
		id := RowID(r)
		if _, ok := next.rows[id]; !ok {
			next.order = append(next.order, id)
		}
		next.rows[id] = r
	}

	v.state.Store(next)
	v.applied.Add(1)
}

// Rows returns the visible rows in display order.
func (v *View[T]) Rows() []row.Row[T] {
	cur := v.state.Load()
	out := make([]row.Row[T], 0, len(cur.order))
	for _, id := range cur.order {
		out = append(out, cur.rows[id])
	}
	return out
}

// Get returns the row with the given id.
func (v *View[T]) Get(id string) (row.Row[T], bool) {
	r, ok := v.state.Load().rows[id]
	return r, ok
}

// Len returns the number of visible rows.
func (v *View[T]) Len() int { return len(v.state.Load().order) }

// Applied returns how many non-empty transactions were applied.
func (v *View[T]) Applied() int { return int(v.applied.Load()) }

var _ Surface[struct{}] = (*View[struct{}])(nil)
