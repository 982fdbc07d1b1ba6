package project

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	pgtask "github.com/alanyang/prodline/internal/adapter/postgres/task"
	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	portproject "github.com/alanyang/prodline/internal/port/project"
)

var _ portproject.Repository = (*Repository)(nil)

// Columns is the select list every project query uses.
const Columns = `id, title, description, status, created_by, created_at, updated_at, version`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Create(ctx context.Context, p domainproject.Project) (domainproject.Project, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO projects (id, title, description, status, created_by, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0)
		RETURNING `+Columns,
		p.ID, p.Title, p.Description, p.Status, p.CreatedBy, p.CreatedAt, p.UpdatedAt,
	)
	out, err := Scan(row)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("insert project: %w", err)
	}
	out.Tasks = []domaintask.Task{}
	return out, nil
}

// GetByID loads the project with its tasks in stage order.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domainproject.Project, error) {
	p, err := Scan(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM projects WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domainproject.Project{}, fmt.Errorf("project %s: %w", id, domainpipeline.ErrNotFound)
		}
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+pgtask.Columns+` FROM tasks WHERE project_id = $1 ORDER BY position`, id)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project tasks: %w", err)
	}
	defer rows.Close()
	if p.Tasks, err = pgtask.ScanAll(rows); err != nil {
		return domainproject.Project{}, fmt.Errorf("get project tasks: %w", err)
	}
	return p, nil
}

// List returns matching projects newest first, each with its tasks attached.
func (r *Repository) List(ctx context.Context, filters domainproject.ListFilters) ([]domainproject.Project, error) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.Status != nil {
		args = append(args, *filters.Status)
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filters.CreatedBy != nil {
		args = append(args, *filters.CreatedBy)
		conds = append(conds, fmt.Sprintf("created_by = $%d", len(args)))
	}
	query := `SELECT ` + Columns + ` FROM projects`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	projects := []domainproject.Project{}
	for rows.Next() {
		p, err := Scan(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		p.Tasks = []domaintask.Task{}
		projects = append(projects, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	ids := make([]uuid.UUID, len(projects))
	index := make(map[uuid.UUID]int, len(projects))
	for i, p := range projects {
		ids[i] = p.ID
		index[p.ID] = i
	}
	trows, err := r.pool.Query(ctx,
		`SELECT `+pgtask.Columns+` FROM tasks WHERE project_id = ANY($1) ORDER BY project_id, position`, ids)
	if err != nil {
		return nil, fmt.Errorf("listing project tasks: %w", err)
	}
	defer trows.Close()
	tasks, err := pgtask.ScanAll(trows)
	if err != nil {
		return nil, fmt.Errorf("listing project tasks: %w", err)
	}
	for _, t := range tasks {
		i := index[t.ProjectID]
		projects[i].Tasks = append(projects[i].Tasks, t)
	}
	return projects, nil
}

// Delete removes the project; tasks go with it through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("project %s: %w", id, domainpipeline.ErrNotFound)
	}
	return nil
}

func (r *Repository) CountByStatus(ctx context.Context) (map[domainproject.Status]int, error) {
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM projects GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("counting projects: %w", err)
	}
	defer rows.Close()

	out := make(map[domainproject.Status]int)
	for rows.Next() {
		var (
			status domainproject.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning project count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *Repository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM projects WHERE created_at >= $1`, since,
	).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting new projects: %w", err)
	}
	return n, nil
}

// Scan reads one row selected with Columns. Tasks are left nil.
func Scan(row pgx.Row) (domainproject.Project, error) {
	var p domainproject.Project
	err := row.Scan(
		&p.ID, &p.Title, &p.Description, &p.Status, &p.CreatedBy,
		&p.CreatedAt, &p.UpdatedAt, &p.Version,
	)
	return p, err
}
