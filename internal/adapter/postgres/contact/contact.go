package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	portcontact "github.com/alanyang/prodline/internal/port/contact"
)

var _ portcontact.Directory = (*Directory)(nil)

type Directory struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Directory {
	return &Directory{pool: pool}
}

func (d *Directory) HandleFor(ctx context.Context, actorID uuid.UUID) (string, error) {
	var handle string
	err := d.pool.QueryRow(ctx, `SELECT handle FROM actor_contacts WHERE actor_id = $1`, actorID).Scan(&handle)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("querying contact handle: %w", err)
	}
	return handle, nil
}

func (d *Directory) SetHandle(ctx context.Context, actorID uuid.UUID, handle string) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO actor_contacts (actor_id, handle, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (actor_id) DO UPDATE SET handle = EXCLUDED.handle, updated_at = NOW()`,
		actorID, handle,
	)
	if err != nil {
		return fmt.Errorf("storing contact handle: %w", err)
	}
	return nil
}
