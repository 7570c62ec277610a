package postgres

import (
	"context"
)

// IClient is what services need from the store: a unit of work boundary.
// Repositories join the transaction through the context.
type IClient interface {
	// WithTx runs fn inside a transaction, nesting through savepoints
	WithTx(ctx context.Context, fn func(context.Context) error) error

	// InTx reports whether ctx already carries a transaction
	InTx(ctx context.Context) bool
}

var _ IClient = (*DB)(nil)

// InTx reports whether ctx already carries a transaction
func (db *DB) InTx(ctx context.Context) bool {
	_, ok := GetTx(ctx)
	return ok
}
