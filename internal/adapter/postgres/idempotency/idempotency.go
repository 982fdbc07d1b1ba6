package idempotency

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portidem "github.com/alanyang/prodline/internal/port/idempotency"
)

var _ portidem.Store = (*Repository)(nil)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Check looks up a previously stored response for key.
func (r *Repository) Check(ctx context.Context, key string) (portidem.Record, bool, error) {
	var rec portidem.Record
	err := r.pool.QueryRow(ctx,
		`SELECT operation_type, status_code, response_body FROM processed_operations WHERE idempotency_key = $1`, key,
	).Scan(&rec.OpType, &rec.StatusCode, &rec.Body)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return portidem.Record{}, false, nil
		}
		return portidem.Record{}, false, fmt.Errorf("checking idempotency key: %w", err)
	}
	return rec, true, nil
}

// Store records the response for key. The first writer wins.
func (r *Repository) Store(ctx context.Context, key, opType string, rec portidem.Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO processed_operations (idempotency_key, operation_type, status_code, response_body, created_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (idempotency_key) DO NOTHING`,
		key, opType, rec.StatusCode, rec.Body,
	)
	if err != nil {
		return fmt.Errorf("storing idempotency key: %w", err)
	}
	return nil
}

// Sweep deletes records older than ttl and returns how many were removed.
func (r *Repository) Sweep(ctx context.Context, ttl time.Duration) (int, error) {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM processed_operations WHERE created_at < NOW() - make_interval(secs => $1)`,
		ttl.Seconds(),
	)
	if err != nil {
		return 0, fmt.Errorf("sweeping idempotency keys: %w", err)
	}
	return int(tag.RowsAffected()), nil
}
