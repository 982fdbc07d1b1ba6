package task

import (
	"context"

	"github.com/google/uuid"

	domaintask "github.com/alanyang/prodline/internal/domain/task"
)

// Repository is the read side of the task store. Writes go through
// port/pipeline.UnitOfWork so project status is recomputed atomically.
type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (domaintask.Task, error)
	List(ctx context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error)
	// CountByStatus counts tasks matching filters grouped by status.
	CountByStatus(ctx context.Context, filters domaintask.ListFilters) (map[domaintask.Status]int, error)
	// AssigneeStats returns per-assignee status counts for every assigned task.
	AssigneeStats(ctx context.Context) (map[uuid.UUID]map[domaintask.Status]int, error)
}
