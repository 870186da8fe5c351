package workset

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/danbne/velaxios-sub000/grid"
	"github.com/danbne/velaxios-sub000/row"
	"github.com/danbne/velaxios-sub000/tracker"
)

// SaveChanges submits the pending batch in one commit call and reconciles
// the result. It is a no-op when nothing is pending or when another save is
// in flight. A failed commit leaves every pending flag untouched, marks the
// affected rows as failed and is returned as a *SaveError; it is never
// retried.
func (s *Set[T]) SaveChanges(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return wrapSaveError("save", ErrClosed)
	}
	if s.saving {
		s.mu.Unlock()
		s.logger.Debug("save already in flight")
		return nil
	}
	batch := tracker.Pending(s.rowsLocked(), s.clone)
	if batch.Empty() {
		s.mu.Unlock()
		s.logger.Debug("nothing to save")
		return nil
	}
	s.clearFailed()
	snapshot := s.version
	s.saving = true
	s.mu.Unlock()

	s.logger.Info("saving batch",
		zap.Int("add", len(batch.ToAdd)),
		zap.Int("update", len(batch.ToUpdate)),
		zap.Int("delete", len(batch.ToDelete)))

	res, err := s.backend.CommitBatch(ctx, batch)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.saving = false
	if s.closed {
		return wrapSaveError("commit", ErrClosed)
	}
	if err != nil {
		failed := s.markFailed(batch, err)
		s.logger.Warn("save failed", zap.Int("failedRows", failed), zap.Error(err))
		return wrapSaveError("commit", err)
	}
	s.reconcile(batch, snapshot, res)
	s.logger.Info("batch saved",
		zap.Int("added", len(res.Added)),
		zap.Int("updated", len(res.Updated)),
		zap.Int("deleted", len(res.Deleted)),
		zap.Int("failed", len(res.Failed)))
	return nil
}

// clearFailed drops the failed overlay before a new attempt.
func (s *Set[T]) clearFailed() {
	if s.tracker.Failed() == 0 {
		return
	}
	var tx grid.Transaction[T]
	for _, id := range s.order {
		e := s.byID[id]
		if !e.row.Meta.Failed {
			continue
		}
		before := e.row.Meta
		e.row.Meta.Failed = false
		s.tracker.Observe(before, e.row.Meta)
		tx.Update = append(tx.Update, e.row)
	}
	s.surface.ApplyTransaction(tx)
}

// markFailed flags the rows named by a validation error, or every row of the
// batch when the error does not identify any.
func (s *Set[T]) markFailed(batch tracker.Batch[T], err error) int {
	ids := batch.IDs()
	var verr *ValidationError
	if errors.As(err, &verr) {
		if named := verr.RowIDs(); len(named) > 0 {
			ids = named
		}
	}
	var tx grid.Transaction[T]
	for _, id := range ids {
		e, ok := s.byID[id]
		if !ok || e.row.Meta.Failed {
			continue
		}
		before := e.row.Meta
		e.row.Meta.Failed = true
		s.tracker.Observe(before, e.row.Meta)
		tx.Update = append(tx.Update, e.row)
	}
	s.surface.ApplyTransaction(tx)
	return len(tx.Update)
}

// reconcile merges a commit result into the collection. Rows mutated after
// snapshot was taken keep their pending flags so they make the next batch.
func (s *Set[T]) reconcile(batch tracker.Batch[T], snapshot uint64, res tracker.Result[T]) {
	var removed []row.Row[T]
	touched := make(map[string]bool)
	added := make(map[string]bool)
	failed := make(map[string]bool, len(res.Failed))
	for _, f := range res.Failed {
		failed[f.ID] = true
	}
	editedInFlight := func(e *entry[T]) bool { return e.version > snapshot }

	for _, id := range res.Deleted {
		if e, ok := s.byID[id]; ok {
			s.remove(id)
			removed = append(removed, e.row)
		}
	}

	// Server records for the batch's new rows. When the server answered one
	// record per add, records line up with batch.ToAdd.
	pairs := len(res.Added) == len(batch.ToAdd)
	skipAdded := make(map[int]bool)
	adds := 0
	for _, rec := range batch.ToAdd {
		if !failed[rec.ID] {
			adds++
		}
	}
	if len(res.Added) == 0 && adds > 0 {
		for _, rec := range batch.ToAdd {
			e, ok := s.byID[rec.ID]
			if !ok || !e.row.Meta.New || failed[rec.ID] {
				continue
			}
			e.row.Meta.New = false
			e.row.Meta.Dirty = editedInFlight(e)
			e.baseline = s.copyData(rec.Data)
			touched[rec.ID] = true
		}
		s.logger.Warn("commit returned no added rows, keeping local rows", zap.Int("rows", adds))
	} else {
		for i, rec := range batch.ToAdd {
			if failed[rec.ID] {
				continue
			}
			e, ok := s.byID[rec.ID]
			if !ok {
				// Deleted or discarded while in flight: the server row must
				// go in the next batch.
				if !pairs {
					s.logger.Warn("row removed during save has no server id", zap.String("id", rec.ID))
					continue
				}
				server := res.Added[i]
				skipAdded[i] = true
				if _, exists := s.byID[server.ID]; exists {
					continue
				}
				ne := s.insert(row.Row[T]{Record: server, Meta: row.Meta{Deleted: true}})
				ne.baseline = s.copyData(server.Data)
				added[server.ID] = true
				continue
			}
			if !e.row.Meta.New {
				continue
			}
			if !pairs && editedInFlight(e) {
				// No server record to carry the edit; keep the row new.
				s.logger.Warn("row edited during save kept unsaved", zap.String("id", rec.ID))
				continue
			}
			s.remove(rec.ID)
			removed = append(removed, e.row)
			if pairs && editedInFlight(e) {
				// Keep the local edit on top of the server record.
				server := res.Added[i]
				r := row.Row[T]{Record: row.Record[T]{ID: server.ID, Data: e.row.Data}, Meta: row.Meta{Dirty: true}}
				ne := s.insert(r)
				ne.baseline = s.copyData(server.Data)
				added[server.ID] = true
				skipAdded[i] = true
			}
		}
	}

	for i, rec := range res.Added {
		if skipAdded[i] {
			continue
		}
		if e, ok := s.byID[rec.ID]; ok {
			e.row.Data = rec.Data
			e.row.Meta = row.Meta{}
			e.baseline = s.copyData(rec.Data)
			touched[rec.ID] = true
			continue
		}
		ne := s.insert(row.Committed(rec))
		ne.version = 0 // server rows carry no local edit
		added[rec.ID] = true
	}

	// Rows reverted by a discard during flight hold pre-save data that the
	// server no longer has; they adopt the committed record.
	committed := make(map[string]row.Record[T], len(batch.ToUpdate)+len(res.Updated))
	for _, rec := range batch.ToUpdate {
		committed[rec.ID] = rec
	}
	for _, rec := range res.Updated {
		committed[rec.ID] = rec
	}
	for _, id := range s.order {
		rec, ok := committed[id]
		if !ok || failed[id] {
			continue
		}
		e := s.byID[id]
		e.baseline = s.copyData(rec.Data)
		if !editedInFlight(e) || !e.row.Meta.Pending() {
			e.row.Data = rec.Data
		}
		touched[id] = true
	}

	for _, id := range s.order {
		e := s.byID[id]
		if added[id] && !e.row.Meta.Dirty {
			continue
		}
		m := e.row.Meta
		switch {
		case failed[id]:
			m.Failed = true
		case editedInFlight(e):
			continue
		default:
			if m.Dirty {
				e.baseline = s.copyData(e.row.Data)
			}
			m.Dirty = false
			m.Failed = false
		}
		if m != e.row.Meta {
			e.row.Meta = m
			touched[id] = true
		}
	}
	s.resetTracker()

	tx := grid.Transaction[T]{Remove: removed}
	for _, id := range s.order {
		e := s.byID[id]
		switch {
		case added[id]:
			tx.Add = append(tx.Add, e.row)
		case touched[id]:
			tx.Update = append(tx.Update, e.row)
		}
	}
	s.surface.ApplyTransaction(tx)
}
