package task

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	porttask "github.com/alanyang/prodline/internal/port/task"
)

var _ porttask.Repository = (*Repository)(nil)

// Columns is the select list every task query uses; Scan reads it back.
const Columns = `id, project_id, stage, position, assigned_to, status, start_date, end_date, updated_at`

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (domaintask.Task, error) {
	t, err := Scan(r.pool.QueryRow(ctx, `SELECT `+Columns+` FROM tasks WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domaintask.Task{}, fmt.Errorf("task %s: %w", id, domainpipeline.ErrNotFound)
		}
		return domaintask.Task{}, fmt.Errorf("querying task: %w", err)
	}
	return t, nil
}

func (r *Repository) List(ctx context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error) {
	where, args := whereClause(filters)
	rows, err := r.pool.Query(ctx,
		`SELECT `+Columns+` FROM tasks`+where+` ORDER BY project_id, position`, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()
	return ScanAll(rows)
}

func (r *Repository) CountByStatus(ctx context.Context, filters domaintask.ListFilters) (map[domaintask.Status]int, error) {
	where, args := whereClause(filters)
	rows, err := r.pool.Query(ctx, `SELECT status, COUNT(*) FROM tasks`+where+` GROUP BY status`, args...)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	defer rows.Close()

	out := make(map[domaintask.Status]int)
	for rows.Next() {
		var (
			status domaintask.Status
			n      int
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scanning task count: %w", err)
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *Repository) AssigneeStats(ctx context.Context) (map[uuid.UUID]map[domaintask.Status]int, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT assigned_to, status, COUNT(*)
		FROM tasks
		WHERE assigned_to IS NOT NULL
		GROUP BY assigned_to, status`)
	if err != nil {
		return nil, fmt.Errorf("querying assignee stats: %w", err)
	}
	defer rows.Close()

	out := make(map[uuid.UUID]map[domaintask.Status]int)
	for rows.Next() {
		var (
			actor  uuid.UUID
			status domaintask.Status
			n      int
		)
		if err := rows.Scan(&actor, &status, &n); err != nil {
			return nil, fmt.Errorf("scanning assignee stats: %w", err)
		}
		if out[actor] == nil {
			out[actor] = make(map[domaintask.Status]int)
		}
		out[actor][status] = n
	}
	return out, rows.Err()
}

func whereClause(filters domaintask.ListFilters) (string, []interface{}) {
	var (
		conds []string
		args  []interface{}
	)
	if filters.ProjectID != nil {
		args = append(args, *filters.ProjectID)
		conds = append(conds, fmt.Sprintf("project_id = $%d", len(args)))
	}
	if len(filters.Status) > 0 {
		statuses := make([]string, len(filters.Status))
		for i, s := range filters.Status {
			statuses[i] = string(s)
		}
		args = append(args, statuses)
		conds = append(conds, fmt.Sprintf("status = ANY($%d)", len(args)))
	}
	if filters.AssignedTo != nil {
		args = append(args, *filters.AssignedTo)
		conds = append(conds, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if filters.EndedSince != nil {
		args = append(args, *filters.EndedSince)
		conds = append(conds, fmt.Sprintf("end_date >= $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// Scan reads one row selected with Columns.
func Scan(row pgx.Row) (domaintask.Task, error) {
	var t domaintask.Task
	err := row.Scan(
		&t.ID, &t.ProjectID, &t.Stage, &t.Position, &t.AssignedTo,
		&t.Status, &t.StartDate, &t.EndDate, &t.UpdatedAt,
	)
	return t, err
}

func ScanAll(rows pgx.Rows) ([]domaintask.Task, error) {
	tasks := []domaintask.Task{}
	for rows.Next() {
		t, err := Scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
