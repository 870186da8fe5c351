package tracker

import "github.com/danbne/velaxios-sub000/row"

// Counts groups rows by classification.
type Counts struct {
	Added    int
	Modified int
	Deleted  int
}

// Total returns the number of changed rows.
func (c Counts) Total() int { return c.Added + c.Modified + c.Deleted }

// Tracker keeps change counters up to date as rows transition between
// states. The owner of the row collection reports every transition, which
// keeps HasUnsavedChanges and Counts constant time.
//
// Tracker is not safe for concurrent use; it is guarded by its owner.
type Tracker struct {
	counts  Counts
	pending int
	failed  int
}

// Add accounts for a row entering the collection.
func (t *Tracker) Add(m row.Meta) { t.apply(m, 1) }

// Remove accounts for a row leaving the collection.
func (t *Tracker) Remove(m row.Meta) { t.apply(m, -1) }

// Observe accounts for a flag transition of a row that stays in the collection.
func (t *Tracker) Observe(before, after row.Meta) {
	if before == after {
		return
	}
	t.apply(before, -1)
	t.apply(after, 1)
}

// Reset recomputes all counters from rows.
func (t *Tracker) Reset(metas []row.Meta) {
	*t = Tracker{}
	for _, m := range metas {
		t.apply(m, 1)
	}
}

func (t *Tracker) apply(m row.Meta, delta int) {
	switch {
	case m.New && !m.Deleted:
		t.counts.Added += delta
	case m.Dirty && !m.New && !m.Deleted:
		t.counts.Modified += delta
	case m.Deleted && !m.New:
		t.counts.Deleted += delta
	}
	if m.Pending() {
		t.pending += delta
	}
	if m.Failed {
		t.failed += delta
	}
}

// HasUnsavedChanges reports whether any row is new, dirty or deleted.
func (t *Tracker) HasUnsavedChanges() bool { return t.pending > 0 }

// Counts returns the number of rows per change class.
func (t *Tracker) Counts() Counts { return t.counts }

// Failed returns the number of rows carrying the failed overlay.
func (t *Tracker) Failed() int { return t.failed }

// Class returns the styling class of a row.
func Class(m row.Meta) row.Class { return row.ClassOf(m) }
