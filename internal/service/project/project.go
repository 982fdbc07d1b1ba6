package project

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"github.com/alanyang/prodline/internal/domain/event"
	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	portbus "github.com/alanyang/prodline/internal/port/eventbus"
	portproject "github.com/alanyang/prodline/internal/port/project"
)

// PipelineCreator instantiates the task sequence of a persisted project.
// Satisfied by *service/pipeline.Service.
type PipelineCreator interface {
	CreatePipeline(ctx context.Context, projectID uuid.UUID) ([]domaintask.Task, error)
}

type Service struct {
	repo     portproject.Repository
	pipeline PipelineCreator
	bus      portbus.EventBus
}

func NewService(repo portproject.Repository, pipeline PipelineCreator, bus portbus.EventBus) *Service {
	return &Service{repo: repo, pipeline: pipeline, bus: bus}
}

// Create persists a new project and immediately instantiates its pipeline.
// If pipeline creation fails the project row is kept; the caller may retry
// with CreatePipeline.
func (s *Service) Create(ctx context.Context, title, description string, createdBy *uuid.UUID) (domainproject.Project, error) {
	title = strings.TrimSpace(title)
	if err := validation.Validate(title, validation.Required, validation.Length(1, 200)); err != nil {
		return domainproject.Project{}, fmt.Errorf("create project: %w: title %v", domainpipeline.ErrInvalidInput, err)
	}

	created, err := s.repo.Create(ctx, domainproject.New(title, description, createdBy))
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("create project: %w", err)
	}

	tasks, err := s.pipeline.CreatePipeline(ctx, created.ID)
	if err != nil {
		return created, fmt.Errorf("create project pipeline: %w", err)
	}
	created.Tasks = tasks
	created.Recompute()
	return created, nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (domainproject.Project, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domainproject.Project{}, fmt.Errorf("get project: %w", err)
	}
	return p, nil
}

func (s *Service) List(ctx context.Context, filters domainproject.ListFilters) ([]domainproject.Project, error) {
	projects, err := s.repo.List(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Delete removes the project together with all of its tasks.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	slog.InfoContext(ctx, "project deleted", "project_id", id)
	s.bus.Publish(ctx, event.New(event.TypeProjectDeleted, id, id)) //nolint:errcheck
	return nil
}

// StatusReport is the read model behind GetProjectStatus.
type StatusReport struct {
	ProjectID       uuid.UUID            `json:"project_id"`
	Title           string               `json:"title"`
	Status          domainproject.Status `json:"status"`
	CurrentTask     *domaintask.Task     `json:"current_task,omitempty"`
	CompletedStages int                  `json:"completed_stages"`
	TotalStages     int                  `json:"total_stages"`
	Tasks           []domaintask.Task    `json:"tasks"`
}

// GetProjectStatus returns the stored project status along with its tasks in
// stage order. Read-only.
func (s *Service) GetProjectStatus(ctx context.Context, id uuid.UUID) (StatusReport, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return StatusReport{}, fmt.Errorf("get project status: %w", err)
	}

	r := StatusReport{
		ProjectID:   p.ID,
		Title:       p.Title,
		Status:      p.Status,
		CurrentTask: p.CurrentTask(),
		TotalStages: len(p.Tasks),
		Tasks:       p.Tasks,
	}
	if r.Tasks == nil {
		r.Tasks = []domaintask.Task{}
	}
	for _, t := range p.Tasks {
		if t.Status == domaintask.StatusCompleted {
			r.CompletedStages++
		}
	}
	return r, nil
}
