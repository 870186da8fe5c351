package grid

import "github.com/danbne/velaxios-sub000/row"

// Transaction is a set of row changes applied to a surface as one update.
type Transaction[T any] struct {
	Add    []row.Row[T]
	Update []row.Row[T]
	Remove []row.Row[T]
}

// Empty reports whether the transaction carries no change.
func (tx Transaction[T]) Empty() bool {
	return len(tx.Add) == 0 && len(tx.Update) == 0 && len(tx.Remove) == 0
}

// Surface is the transaction-apply capability of a rendering widget.
type Surface[T any] interface {
	ApplyTransaction(tx Transaction[T])
}

// RowID returns the identity the surface uses to diff transactions. It is
// the primary key; temporary ids are ordinary identities.
func RowID[T any](r row.Row[T]) string { return r.ID }

// Nop is a Surface that ignores every transaction.
type Nop[T any] struct{}

// ApplyTransaction implements Surface.
func (Nop[T]) ApplyTransaction(Transaction[T]) {}
