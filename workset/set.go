package workset

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/danbne/velaxios-sub000/grid"
	"github.com/danbne/velaxios-sub000/row"
	"github.com/danbne/velaxios-sub000/tracker"
)

// Set is the working collection of rows for one grid.
type Set[T any] struct {
	mu      sync.Mutex
	backend Backend[T]
	surface grid.Surface[T]
	logger  *zap.Logger
	clone   func(T) T
	newID   func() string

	order   []string
	byID    map[string]*entry[T]
	tracker tracker.Tracker

	// version is bumped by every user mutation; entries remember the value
	// of their last mutation so reconciliation can spot in-flight edits.
	version uint64
	loadGen uint64
	saving  bool
	closed  bool
}

type entry[T any] struct {
	row     row.Row[T]
	version uint64
	// baseline is the last data known to be committed; nil for new rows.
	baseline *T
}

// Option configures a Set.
type Option[T any] func(*Set[T])

// WithSurface sets the rendering surface notified of every change.
func WithSurface[T any](surface grid.Surface[T]) Option[T] {
	return func(s *Set[T]) {
		if surface != nil {
			s.surface = surface
		}
	}
}

// WithLogger sets the logger.
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(s *Set[T]) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithCloner sets the deep-copy function used for duplicates, baselines and
// batch snapshots. Without it application data is copied by value.
func WithCloner[T any](clone func(T) T) Option[T] {
	return func(s *Set[T]) { s.clone = clone }
}

// WithIDGenerator replaces row.GenerateTempID. Ids failing row.IsTempID
// get row.TempIDPrefix prepended; ids already in use fall back to
// row.GenerateTempID.
func WithIDGenerator[T any](gen func() string) Option[T] {
	return func(s *Set[T]) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// New creates an empty Set backed by backend. Call Load to populate it.
func New[T any](backend Backend[T], opts ...Option[T]) (*Set[T], error) {
	if backend == nil {
		return nil, fmt.Errorf("workset: backend is nil")
	}
	s := &Set[T]{
		backend: backend,
		surface: grid.Nop[T]{},
		logger:  zap.NewNop(),
		newID:   row.GenerateTempID,
		byID:    make(map[string]*entry[T]),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Load replaces the collection with the rows returned by the fetcher. All
// local changes are lost; callers guard this with a navigation guard.
func (s *Set[T]) Load(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	s.loadGen++
	gen := s.loadGen
	s.mu.Unlock()

	recs, err := s.backend.FetchAll(ctx)
	if err != nil {
		return fmt.Errorf("workset: fetch rows: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrClosed
	}
	if gen != s.loadGen {
		s.logger.Debug("dropping superseded load", zap.Uint64("generation", gen))
		return nil
	}

	var tx grid.Transaction[T]
	for _, id := range s.order {
		tx.Remove = append(tx.Remove, s.byID[id].row)
	}
	s.order = make([]string, 0, len(recs))
	s.byID = make(map[string]*entry[T], len(recs))
	for _, rec := range recs {
		if _, dup := s.byID[rec.ID]; dup {
			s.logger.Warn("duplicate row id in fetch result", zap.String("id", rec.ID))
			continue
		}
		e := &entry[T]{row: row.Committed(rec)}
		e.baseline = s.copyData(rec.Data)
		s.order = append(s.order, rec.ID)
		s.byID[rec.ID] = e
		tx.Add = append(tx.Add, e.row)
	}
	s.resetTracker()
	s.surface.ApplyTransaction(tx)
	s.logger.Info("rows loaded", zap.Int("rows", len(s.order)))
	return nil
}

// AddNewRow appends a new row holding defaults under a temporary id.
func (s *Set[T]) AddNewRow(defaults T) row.Row[T] {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := row.Fresh(s.tempID(), defaults)
	s.insert(r)
	s.surface.ApplyTransaction(grid.Transaction[T]{Add: []row.Row[T]{r}})
	return r
}

// EditRow records an edit reported by the rendering surface. Committed rows
// become dirty; new rows stay new.
func (s *Set[T]) EditRow(id string, data T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.byID[id]
	if !ok {
		return fmt.Errorf("workset: edit %q: %w", id, ErrRowNotFound)
	}
	if e.row.Meta.Deleted {
		return fmt.Errorf("workset: edit %q: %w", id, ErrRowDeleted)
	}
	before := e.row.Meta
	e.row.Data = data
	e.row.Meta = before.MarkEdited()
	s.touch(e)
	s.tracker.Observe(before, e.row.Meta)
	s.surface.ApplyTransaction(grid.Transaction[T]{Update: []row.Row[T]{e.row}})
	return nil
}

// DeleteSelectedRows deletes the selected rows. Committed rows become
// tombstones until the server confirms the delete; new rows are removed
// outright. Unknown ids and an empty selection are ignored. It returns the
// number of rows affected.
func (s *Set[T]) DeleteSelectedRows(selection []string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tx grid.Transaction[T]
	for _, id := range selection {
		e, ok := s.byID[id]
		if !ok {
			continue
		}
		switch {
		case e.row.Meta.New:
			s.remove(id)
			tx.Remove = append(tx.Remove, e.row)
		case !e.row.Meta.Deleted:
			before := e.row.Meta
			e.row.Meta = before.MarkDeleted()
			s.touch(e)
			s.tracker.Observe(before, e.row.Meta)
			tx.Update = append(tx.Update, e.row)
		}
	}
	s.surface.ApplyTransaction(tx)
	return len(tx.Remove) + len(tx.Update)
}

// DuplicateSelectedRow appends a new row copying the data of the first
// selected row. It reports false when the selection names no known row.
func (s *Set[T]) DuplicateSelectedRow(selection []string) (row.Row[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range selection {
		src, ok := s.byID[id]
		if !ok {
			continue
		}
		r := row.Fresh(s.tempID(), *s.copyData(src.row.Data))
		s.insert(r)
		s.surface.ApplyTransaction(grid.Transaction[T]{Add: []row.Row[T]{r}})
		return r, true
	}
	return row.Row[T]{}, false
}

// DiscardAllChanges drops new rows, reverts edited and tombstoned rows to
// their last committed data and clears every flag.
func (s *Set[T]) DiscardAllChanges() {
	s.mu.Lock()
	defer s.mu.Unlock()

	var tx grid.Transaction[T]
	for _, id := range append([]string(nil), s.order...) {
		e := s.byID[id]
		m := e.row.Meta
		switch {
		case m.New:
			s.remove(id)
			tx.Remove = append(tx.Remove, e.row)
		case m.Dirty || m.Deleted || m.Failed:
			if e.baseline != nil && (m.Dirty || m.Deleted) {
				e.row.Data = *s.copyData(*e.baseline)
			}
			e.row.Meta = row.Meta{}
			s.touch(e)
			tx.Update = append(tx.Update, e.row)
		}
	}
	s.resetTracker()
	s.surface.ApplyTransaction(tx)
	if !tx.Empty() {
		s.logger.Info("changes discarded", zap.Int("removed", len(tx.Remove)), zap.Int("reverted", len(tx.Update)))
	}
}

// Close tears the set down. Fetches and commits completing afterwards no
// longer mutate the collection.
func (s *Set[T]) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// Rows returns a copy of the collection in display order.
func (s *Set[T]) Rows() []row.Row[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowsLocked()
}

// Get returns the row with the given id.
func (s *Set[T]) Get(id string) (row.Row[T], bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return row.Row[T]{}, false
	}
	return e.row, true
}

// Len returns the number of rows, tombstones included.
func (s *Set[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// HasUnsavedChanges reports whether any row is new, dirty or deleted.
func (s *Set[T]) HasUnsavedChanges() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.HasUnsavedChanges()
}

// ChangeCounts returns the number of added, modified and deleted rows.
func (s *Set[T]) ChangeCounts() tracker.Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Counts()
}

// RowClass returns the styling class of the row with the given id, or
// row.ClassNone for unknown ids.
func (s *Set[T]) RowClass(id string) row.Class {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.byID[id]; ok {
		return tracker.Class(e.row.Meta)
	}
	return row.ClassNone
}

// Pending returns a snapshot of the batch the next save would submit.
func (s *Set[T]) Pending() tracker.Batch[T] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return tracker.Pending(s.rowsLocked(), s.clone)
}

// Saving reports whether a save is in flight.
func (s *Set[T]) Saving() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saving
}

func (s *Set[T]) rowsLocked() []row.Row[T] {
	out := make([]row.Row[T], 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id].row)
	}
	return out
}

// tempID returns an unused temporary id from the configured generator.
func (s *Set[T]) tempID() string {
	id := s.newID()
	if !row.IsTempID(id) {
		s.logger.Warn("id generator returned a non-temporary id", zap.String("id", id))
		id = row.TempIDPrefix + id
	}
	if _, taken := s.byID[id]; taken {
		s.logger.Warn("id generator returned an id in use", zap.String("id", id))
		id = row.GenerateTempID()
	}
	return id
}

func (s *Set[T]) insert(r row.Row[T]) *entry[T] {
	e := &entry[T]{row: r}
	if !r.Meta.New {
		e.baseline = s.copyData(r.Data)
	}
	s.touch(e)
	s.order = append(s.order, r.ID)
	s.byID[r.ID] = e
	s.tracker.Add(r.Meta)
	return e
}

func (s *Set[T]) remove(id string) {
	e, ok := s.byID[id]
	if !ok {
		return
	}
	delete(s.byID, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	s.tracker.Remove(e.row.Meta)
}

func (s *Set[T]) touch(e *entry[T]) {
	s.version++
	e.version = s.version
}

func (s *Set[T]) resetTracker() {
	metas := make([]row.Meta, 0, len(s.order))
	for _, id := range s.order {
		metas = append(metas, s.byID[id].row.Meta)
	}
	s.tracker.Reset(metas)
}

func (s *Set[T]) copyData(data T) *T {
	if s.clone != nil {
		data = s.clone(data)
	}
	return &data
}
