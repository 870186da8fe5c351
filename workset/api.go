package workset

import (
	"context"

	"github.com/danbne/velaxios-sub000/row"
	"github.com/danbne/velaxios-sub000/tracker"
)

// Fetcher loads the authoritative rows, in server order.
type Fetcher[T any] interface {
	FetchAll(ctx context.Context) ([]row.Record[T], error)
}

// Committer applies a batch as one all-or-nothing operation and returns the
// authoritative records. Rejected batches should be reported with a
// *ValidationError so rows can be flagged individually.
type Committer[T any] interface {
	CommitBatch(ctx context.Context, batch tracker.Batch[T]) (tracker.Result[T], error)
}

// Backend combines both collaborators of a Set.
type Backend[T any] interface {
	Fetcher[T]
	Committer[T]
}

// BackendFuncs adapts plain functions to Backend.
type BackendFuncs[T any] struct {
	Fetch  func(ctx context.Context) ([]row.Record[T], error)
	Commit func(ctx context.Context, batch tracker.Batch[T]) (tracker.Result[T], error)
}

// FetchAll implements Fetcher. A nil Fetch returns no rows.
func (f BackendFuncs[T]) FetchAll(ctx context.Context) ([]row.Record[T], error) {
	if f.Fetch == nil {
		return nil, nil
	}
	return f.Fetch(ctx)
}

// CommitBatch implements Committer. A nil Commit echoes the batch back as
// if every operation succeeded.
func (f BackendFuncs[T]) CommitBatch(ctx context.Context, batch tracker.Batch[T]) (tracker.Result[T], error) {
	if f.Commit == nil {
		return tracker.Result[T]{Added: batch.ToAdd, Updated: batch.ToUpdate, Deleted: batch.ToDelete}, nil
	}
	return f.Commit(ctx, batch)
}

var _ Backend[struct{}] = BackendFuncs[struct{}]{}
