package tracker

import (
	"testing"

	"github.com/danbne/velaxios-sub000/row"
)

type asset struct {
	Name string
	Tags []string
}

func sampleRows() []row.Row[asset] {
	return []row.Row[asset]{
		row.Committed(row.Record[asset]{ID: "p1", Data: asset{Name: "clean"}}),
		{Record: row.Record[asset]{ID: "p2", Data: asset{Name: "edited"}}, Meta: row.Meta{Dirty: true}},
		{Record: row.Record[asset]{ID: "p3", Data: asset{Name: "gone"}}, Meta: row.Meta{Deleted: true}},
		row.Fresh("new_1", asset{Name: "added"}),
		{Record: row.Record[asset]{ID: "new_2"}, Meta: row.Meta{New: true, Deleted: true}},
		{Record: row.Record[asset]{ID: "p4"}, Meta: row.Meta{Failed: true}},
	}
}

func TestPendingClassifiesRows(t *testing.T) {
	b := Pending(sampleRows(), nil)
	if len(b.ToAdd) != 1 || b.ToAdd[0].ID != "new_1" {
		t.Fatalf("ToAdd = %+v, want [new_1]", b.ToAdd)
	}
	if len(b.ToUpdate) != 1 || b.ToUpdate[0].ID != "p2" {
		t.Fatalf("ToUpdate = %+v, want [p2]", b.ToUpdate)
	}
	if len(b.ToDelete) != 1 || b.ToDelete[0] != "p3" {
		t.Fatalf("ToDelete = %v, want [p3]", b.ToDelete)
	}
	if b.Size() != 3 || b.Empty() {
		t.Fatalf("Size() = %d, Empty() = %v", b.Size(), b.Empty())
	}
}

// TestPendingIsSnapshot verifies that mutating the source rows after the
// batch was computed does not leak into it.
func TestPendingIsSnapshot(t *testing.T) {
	rows := []row.Row[asset]{row.Fresh("new_1", asset{Name: "a", Tags: []string{"x"}})}
	clone := func(a asset) asset {
		a.Tags = append([]string(nil), a.Tags...)
		return a
	}
	b := Pending(rows, clone)

	rows[0].Data.Name = "changed"
	rows[0].Data.Tags[0] = "y"
	rows[0].ID = "other"

	if got := b.ToAdd[0]; got.ID != "new_1" || got.Data.Name != "a" || got.Data.Tags[0] != "x" {
		t.Fatalf("batch mutated through source rows: %+v", got)
	}
}

func TestPendingEmpty(t *testing.T) {
	rows := []row.Row[asset]{
		row.Committed(row.Record[asset]{ID: "p1"}),
		{Record: row.Record[asset]{ID: "p2"}, Meta: row.Meta{Failed: true}},
	}
	if b := Pending(rows, nil); !b.Empty() {
		t.Fatalf("Pending() = %+v, want empty", b)
	}
}

func TestTrackerCounts(t *testing.T) {
	rows := sampleRows()
	metas := make([]row.Meta, len(rows))
	for i, r := range rows {
		metas[i] = r.Meta
	}

	var tr Tracker
	tr.Reset(metas)
	want := Counts{Added: 1, Modified: 1, Deleted: 1}
	if got := tr.Counts(); got != want {
		t.Fatalf("Counts() = %+v, want %+v", got, want)
	}
	if !tr.HasUnsavedChanges() {
		t.Fatalf("HasUnsavedChanges() = false, want true")
	}
	if tr.Failed() != 1 {
		t.Fatalf("Failed() = %d, want 1", tr.Failed())
	}

	before := metas[1]
	metas[1] = before.MarkDeleted()
	tr.Observe(before, metas[1])
	if got := tr.Counts(); got.Modified != 0 || got.Deleted != 2 {
		t.Fatalf("after delete Counts() = %+v", got)
	}

	for _, m := range metas {
		tr.Remove(m)
	}
	if got := tr.Counts(); got != (Counts{}) || tr.HasUnsavedChanges() || tr.Failed() != 0 {
		t.Fatalf("after removing every row: Counts() = %+v, pending = %v", got, tr.HasUnsavedChanges())
	}
}
