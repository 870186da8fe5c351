package workset

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/danbne/velaxios-sub000/grid"
	"github.com/danbne/velaxios-sub000/row"
	"github.com/danbne/velaxios-sub000/tracker"
)

type asset struct {
	Name  string
	Owner string
}

type commitFunc func(ctx context.Context, batch tracker.Batch[asset]) (tracker.Result[asset], error)

// newTestSet loads recs into a fresh Set wired to a grid.View. commit may be
// nil, in which case the batch is echoed back.
func newTestSet(t *testing.T, recs []row.Record[asset], commit commitFunc) (*Set[asset], *grid.View[asset]) {
	t.Helper()
	view := grid.NewView[asset]()
	backend := BackendFuncs[asset]{
		Fetch: func(context.Context) ([]row.Record[asset], error) {
			return append([]row.Record[asset](nil), recs...), nil
		},
		Commit: commit,
	}
	s, err := New[asset](backend, WithSurface[asset](view))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	return s, view
}

func committedRecords() []row.Record[asset] {
	return []row.Record[asset]{
		{ID: "p1", Data: asset{Name: "pump", Owner: "ops"}},
		{ID: "p2", Data: asset{Name: "valve", Owner: "ops"}},
	}
}

// assertViewMatches verifies the rendering surface mirrors the collection.
func assertViewMatches(t *testing.T, s *Set[asset], view *grid.View[asset]) {
	t.Helper()
	if got, want := view.Rows(), s.Rows(); !reflect.DeepEqual(got, want) {
		t.Fatalf("view out of sync:\n view = %+v\n set  = %+v", got, want)
	}
}

func TestLoadStartsClean(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	if s.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", s.Len())
	}
	if s.HasUnsavedChanges() {
		t.Fatalf("HasUnsavedChanges() = true after load")
	}
	for _, r := range s.Rows() {
		if r.Meta != (row.Meta{}) {
			t.Fatalf("row %s loaded with flags %+v", r.ID, r.Meta)
		}
	}
	assertViewMatches(t, s, view)
}

func TestAddNewRowAssignsTempID(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	r := s.AddNewRow(asset{Name: "fan"})
	if !row.IsTempID(r.ID) {
		t.Fatalf("AddNewRow id %q is not a temp id", r.ID)
	}
	if !r.Meta.New || r.Meta.Dirty {
		t.Fatalf("AddNewRow meta = %+v", r.Meta)
	}
	rows := s.Rows()
	if rows[len(rows)-1].ID != r.ID {
		t.Fatalf("new row not appended last")
	}
	if got := s.ChangeCounts(); got != (tracker.Counts{Added: 1}) {
		t.Fatalf("ChangeCounts() = %+v", got)
	}
	if s.RowClass(r.ID) != row.ClassNew {
		t.Fatalf("RowClass = %s, want new", s.RowClass(r.ID))
	}
	assertViewMatches(t, s, view)
}

// TestEditNewRowStaysNew verifies that editing an unsaved row never flips it
// to dirty.
func TestEditNewRowStaysNew(t *testing.T) {
	s, _ := newTestSet(t, nil, nil)
	r := s.AddNewRow(asset{Name: "fan"})
	if err := s.EditRow(r.ID, asset{Name: "fan", Owner: "hvac"}); err != nil {
		t.Fatalf("EditRow failed: %v", err)
	}
	got, _ := s.Get(r.ID)
	if !got.Meta.New || got.Meta.Dirty {
		t.Fatalf("edited new row meta = %+v, want New only", got.Meta)
	}
	if got.Data.Owner != "hvac" {
		t.Fatalf("edit not applied: %+v", got.Data)
	}
}

func TestEditCommittedRowMarksDirty(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	if err := s.EditRow("p1", asset{Name: "pump-2", Owner: "ops"}); err != nil {
		t.Fatalf("EditRow failed: %v", err)
	}
	got, _ := s.Get("p1")
	if !got.Meta.Dirty || got.Meta.New {
		t.Fatalf("meta = %+v, want dirty", got.Meta)
	}
	if !s.HasUnsavedChanges() || s.ChangeCounts().Modified != 1 {
		t.Fatalf("tracker did not see the edit: %+v", s.ChangeCounts())
	}
	if s.RowClass("p1") != row.ClassDirty {
		t.Fatalf("RowClass = %s, want dirty", s.RowClass("p1"))
	}
	assertViewMatches(t, s, view)
}

func TestEditRowErrors(t *testing.T) {
	s, _ := newTestSet(t, committedRecords(), nil)
	if err := s.EditRow("missing", asset{}); !errors.Is(err, ErrRowNotFound) {
		t.Fatalf("EditRow(missing) = %v, want ErrRowNotFound", err)
	}
	s.DeleteSelectedRows([]string{"p1"})
	if err := s.EditRow("p1", asset{Name: "x"}); !errors.Is(err, ErrRowDeleted) {
		t.Fatalf("EditRow(tombstone) = %v, want ErrRowDeleted", err)
	}
	got, _ := s.Get("p1")
	if got.Data.Name != "pump" {
		t.Fatalf("tombstone data changed: %+v", got.Data)
	}
}

// TestNewRowDeletedVanishes verifies that deleting an unsaved row removes it
// without ever reaching the batch.
func TestNewRowDeletedVanishes(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	r := s.AddNewRow(asset{Name: "fan"})
	if n := s.DeleteSelectedRows([]string{r.ID}); n != 1 {
		t.Fatalf("DeleteSelectedRows = %d, want 1", n)
	}
	if _, ok := s.Get(r.ID); ok {
		t.Fatalf("deleted new row still present")
	}
	b := s.Pending()
	if !b.Empty() {
		t.Fatalf("Pending() = %+v, want empty", b)
	}
	if s.HasUnsavedChanges() {
		t.Fatalf("HasUnsavedChanges() = true after add+delete")
	}
	assertViewMatches(t, s, view)
}

func TestDeleteCommittedRowTombstones(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	if err := s.EditRow("p1", asset{Name: "pump-2"}); err != nil {
		t.Fatalf("EditRow failed: %v", err)
	}
	s.DeleteSelectedRows([]string{"p1", "p1", "unknown"})
	got, ok := s.Get("p1")
	if !ok {
		t.Fatalf("tombstone removed from collection")
	}
	if !got.Meta.Deleted || got.Meta.Dirty {
		t.Fatalf("tombstone meta = %+v", got.Meta)
	}
	if got := s.ChangeCounts(); got != (tracker.Counts{Deleted: 1}) {
		t.Fatalf("ChangeCounts() = %+v", got)
	}
	assertViewMatches(t, s, view)
}

func TestEmptySelectionIsNoop(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	applied := view.Applied()
	if n := s.DeleteSelectedRows(nil); n != 0 {
		t.Fatalf("DeleteSelectedRows(nil) = %d", n)
	}
	if _, ok := s.DuplicateSelectedRow(nil); ok {
		t.Fatalf("DuplicateSelectedRow(nil) reported a duplicate")
	}
	if _, ok := s.DuplicateSelectedRow([]string{"missing"}); ok {
		t.Fatalf("DuplicateSelectedRow(missing) reported a duplicate")
	}
	if s.Len() != 2 || s.HasUnsavedChanges() || view.Applied() != applied {
		t.Fatalf("empty selection mutated state")
	}
}

func TestDuplicateSelectedRow(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	s.DeleteSelectedRows([]string{"p2"})
	dup, ok := s.DuplicateSelectedRow([]string{"missing", "p2", "p1"})
	if !ok {
		t.Fatalf("DuplicateSelectedRow failed")
	}
	if dup.Data != (asset{Name: "valve", Owner: "ops"}) {
		t.Fatalf("duplicate data = %+v, want copy of p2", dup.Data)
	}
	if !row.IsTempID(dup.ID) || dup.Meta != (row.Meta{New: true}) {
		t.Fatalf("duplicate = %+v", dup)
	}
	assertViewMatches(t, s, view)
}

func TestDiscardAllChanges(t *testing.T) {
	s, view := newTestSet(t, committedRecords(), nil)
	s.AddNewRow(asset{Name: "fan"})
	if err := s.EditRow("p1", asset{Name: "pump-2"}); err != nil {
		t.Fatalf("EditRow failed: %v", err)
	}
	if err := s.EditRow("p2", asset{Name: "valve-2"}); err != nil {
		t.Fatalf("EditRow failed: %v", err)
	}
	s.DeleteSelectedRows([]string{"p2"})

	s.DiscardAllChanges()

	if s.HasUnsavedChanges() {
		t.Fatalf("HasUnsavedChanges() = true after discard")
	}
	want := []row.Row[asset]{
		row.Committed(committedRecords()[0]),
		row.Committed(committedRecords()[1]),
	}
	if got := s.Rows(); !reflect.DeepEqual(got, want) {
		t.Fatalf("Rows() after discard = %+v, want %+v", got, want)
	}
	assertViewMatches(t, s, view)
}

func TestCloneIsUsedForDuplicates(t *testing.T) {
	type doc struct{ Tags []string }
	backend := BackendFuncs[doc]{Fetch: func(context.Context) ([]row.Record[doc], error) {
		return []row.Record[doc]{{ID: "d1", Data: doc{Tags: []string{"a"}}}}, nil
	}}
	clone := func(d doc) doc { return doc{Tags: append([]string(nil), d.Tags...)} }
	s, err := New[doc](backend, WithCloner(clone))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	dup, _ := s.DuplicateSelectedRow([]string{"d1"})
	dup.Data.Tags[0] = "changed"
	src, _ := s.Get("d1")
	if src.Data.Tags[0] != "a" {
		t.Fatalf("duplicate shares data with its source")
	}
}

func TestNewRequiresBackend(t *testing.T) {
	if _, err := New[asset](nil); err == nil {
		t.Fatalf("New(nil) succeeded")
	}
}

func TestCustomIDGenerator(t *testing.T) {
	n := 0
	gen := func() string {
		n++
		return row.TempIDPrefix + string(rune('a'+n))
	}
	s, err := New[asset](BackendFuncs[asset]{}, WithIDGenerator[asset](gen))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if r := s.AddNewRow(asset{}); r.ID != "new_b" {
		t.Fatalf("AddNewRow id = %q, want new_b", r.ID)
	}
}

func TestIDGeneratorOutputIsForcedTemporary(t *testing.T) {
	gen := func() string { return "p1" }
	s, _ := newTestSet(t, committedRecords(), nil)
	s.newID = gen
	r := s.AddNewRow(asset{Name: "fan"})
	if r.ID != row.TempIDPrefix+"p1" || !row.IsTempID(r.ID) {
		t.Fatalf("AddNewRow id = %q, want %q", r.ID, row.TempIDPrefix+"p1")
	}
	dup, ok := s.DuplicateSelectedRow([]string{r.ID})
	if !ok || dup.ID == r.ID || !row.IsTempID(dup.ID) {
		t.Fatalf("duplicate id = %q, want a fresh temp id", dup.ID)
	}
}
