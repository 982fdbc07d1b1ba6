package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyang/prodline/internal/adapter/postgres"
	pgproject "github.com/alanyang/prodline/internal/adapter/postgres/project"
	pgtask "github.com/alanyang/prodline/internal/adapter/postgres/task"
	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	portpipeline "github.com/alanyang/prodline/internal/port/pipeline"
)

var _ portpipeline.UnitOfWork = (*UnitOfWork)(nil)

// UnitOfWork runs each mutation in one transaction holding the project row
// FOR UPDATE. The version column guards against writers that bypass the lock.
// When the context already carries a transaction (see locker.WithLock) the
// unit runs in a savepoint on it, so a failed attempt can be rolled back and
// retried without leaving the caller's connection.
type UnitOfWork struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *UnitOfWork {
	return &UnitOfWork{pool: pool}
}

func (u *UnitOfWork) Atomically(ctx context.Context, projectID uuid.UUID, fn portpipeline.MutateFunc) error {
	tx, err := u.begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(context.Background()) //nolint:errcheck

	p, err := pgproject.Scan(tx.QueryRow(ctx,
		`SELECT `+pgproject.Columns+` FROM projects WHERE id = $1 FOR UPDATE`, projectID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("project %s: %w", projectID, domainpipeline.ErrNotFound)
		}
		return postgres.MapConflict(fmt.Errorf("lock project: %w", err))
	}

	rows, err := tx.Query(ctx,
		`SELECT `+pgtask.Columns+` FROM tasks WHERE project_id = $1 ORDER BY position`, projectID)
	if err != nil {
		return postgres.MapConflict(fmt.Errorf("load tasks: %w", err))
	}
	p.Tasks, err = pgtask.ScanAll(rows)
	rows.Close()
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}

	loaded := make(map[uuid.UUID]domaintask.Task, len(p.Tasks))
	for _, t := range p.Tasks {
		loaded[t.ID] = t
	}
	version := p.Version

	if err := fn(ctx, &p); err != nil {
		return err
	}

	if err := persist(ctx, tx, &p, version, loaded); err != nil {
		return postgres.MapConflict(err)
	}
	if err := tx.Commit(ctx); err != nil {
		return postgres.MapConflict(fmt.Errorf("commit pipeline tx: %w", err))
	}
	return nil
}

func (u *UnitOfWork) begin(ctx context.Context) (pgx.Tx, error) {
	if outer, ok := postgres.TxFrom(ctx); ok {
		tx, err := outer.Begin(ctx)
		if err != nil {
			return nil, fmt.Errorf("begin pipeline savepoint: %w", err)
		}
		return tx, nil
	}
	tx, err := u.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return nil, fmt.Errorf("begin pipeline tx: %w", err)
	}
	return tx, nil
}

func persist(ctx context.Context, tx pgx.Tx, p *domainproject.Project, version int64, loaded map[uuid.UUID]domaintask.Task) error {
	if len(p.Tasks) < len(loaded) {
		return fmt.Errorf("%w: tasks cannot be removed from project %s", domainpipeline.ErrInvariantViolation, p.ID)
	}

	tag, err := tx.Exec(ctx, `
		UPDATE projects SET status = $3, updated_at = $4, version = version + 1
		WHERE id = $1 AND version = $2`,
		p.ID, version, p.Status, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%w: project %s changed since version %d", domainpipeline.ErrConcurrencyConflict, p.ID, version)
	}

	b := &pgx.Batch{}
	for _, t := range p.Tasks {
		prev, ok := loaded[t.ID]
		switch {
		case !ok:
			b.Queue(`
				INSERT INTO tasks (id, project_id, stage, position, assigned_to, status, start_date, end_date, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
				t.ID, t.ProjectID, t.Stage, t.Position, t.AssignedTo, t.Status, t.StartDate, t.EndDate, t.UpdatedAt,
			)
		case !prev.UpdatedAt.Equal(t.UpdatedAt):
			b.Queue(`
				UPDATE tasks SET assigned_to = $2, status = $3, start_date = $4, end_date = $5, updated_at = $6
				WHERE id = $1`,
				t.ID, t.AssignedTo, t.Status, t.StartDate, t.EndDate, t.UpdatedAt,
			)
		}
	}
	if b.Len() == 0 {
		return nil
	}

	br := tx.SendBatch(ctx, b)
	for i := 0; i < b.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("write tasks: %w", err)
		}
	}
	return br.Close()
}
