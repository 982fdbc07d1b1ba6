package task

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	porttask "github.com/alanyang/prodline/internal/port/task"
)

// Service is the read side of tasks. Status and assignee changes go through
// service/pipeline so the owning project stays consistent.
type Service struct {
	repo porttask.Repository
}

func NewService(repo porttask.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domaintask.Task, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domaintask.Task{}, fmt.Errorf("get task: %w", err)
	}
	return t, nil
}

// List returns tasks matching filters, ordered by project then stage position.
// Unknown statuses in the filter are rejected before touching the store.
func (s *Service) List(ctx context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error) {
	for _, st := range filters.Status {
		if !st.Valid() {
			return nil, fmt.Errorf("list tasks: %w: unknown status %q", domainpipeline.ErrInvalidInput, st)
		}
	}
	tasks, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// ForAssignee lists an actor's tasks, optionally narrowed to some statuses.
func (s *Service) ForAssignee(ctx context.Context, actor uuid.UUID, statuses ...domaintask.Status) ([]domaintask.Task, error) {
	return s.List(ctx, domaintask.ListFilters{AssignedTo: &actor, Status: statuses})
}
