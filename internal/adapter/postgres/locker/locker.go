package locker

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/prodline/internal/adapter/postgres"
	portlocker "github.com/alanyang/prodline/internal/port/locker"
)

var _ portlocker.AdvisoryLocker = (*Locker)(nil)

// Locker serialises pipeline work per project across every server process
// sharing the database. The lock is transaction-scoped: WithLock opens one
// transaction, takes pg_advisory_xact_lock on it and hands the transaction to
// fn through the context, so the critical section holds a single pooled
// connection. The lock is released on commit or rollback.
type Locker struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Locker {
	return &Locker{pool: pool}
}

func (l *Locker) WithLock(ctx context.Context, key int64, fn func(ctx context.Context) error) error {
	tx, err := l.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin advisory lock tx: %w", err)
	}
	defer tx.Rollback(context.Background()) //nolint:errcheck

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", key); err != nil {
		return postgres.MapConflict(fmt.Errorf("acquire advisory lock %d: %w", key, err))
	}

	if err := fn(postgres.WithTx(ctx, tx)); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return postgres.MapConflict(fmt.Errorf("commit advisory lock tx: %w", err))
	}
	return nil
}
