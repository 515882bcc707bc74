package repositories

import "context"

// TxFn is a function executed within a transaction
type TxFn func(ctx context.Context) error

// TransactionManager runs a function inside a database transaction. The
// transaction is stored in the context so repositories participate in it
// automatically.
type TransactionManager interface {
	ExecTx(ctx context.Context, fn TxFn) error

	// LockSite serializes concurrent work on one site for the remainder of
	// the enclosing transaction. Must be called inside ExecTx.
	LockSite(ctx context.Context, siteID string) error
}
