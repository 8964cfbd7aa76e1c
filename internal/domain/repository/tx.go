package repository

import "context"

// TxManager runs a function inside a single database transaction. The
// context passed to fn carries the transaction; repository methods called
// with it participate in it. Workflow transitions use this so that the
// status change, the validation trace and the notifications commit or roll
// back together.
type TxManager interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
