package locker

import "context"

// AdvisoryLocker serialises critical sections keyed by an int64.
// The Postgres implementation holds a transaction-scoped advisory lock and
// passes that transaction to fn through ctx; fn must not need a second
// connection from the same pool.
type AdvisoryLocker interface {
	WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error
}
