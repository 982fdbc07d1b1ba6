package report

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	portproject "github.com/alanyang/prodline/internal/port/project"
	porttask "github.com/alanyang/prodline/internal/port/task"
)

// Service answers read-only reporting queries. Nothing here mutates state.
type Service struct {
	projects portproject.Repository
	tasks    porttask.Repository
	now      func() time.Time
}

type Option func(*Service)

// WithClock replaces the clock used for month boundaries.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(projects portproject.Repository, tasks porttask.Repository, opts ...Option) *Service {
	s := &Service{
		projects: projects,
		tasks:    tasks,
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MonthStart is midnight UTC on the first day of t's month.
func MonthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Rate is completed*100/total over every task assigned to the actor, 0 when
// the actor has no tasks.
func Rate(counts map[domaintask.Status]int) float64 {
	total := 0
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(counts[domaintask.StatusCompleted]) * 100 / float64(total)
}

type ActorStats struct {
	ActorID        uuid.UUID `json:"actor_id"`
	Total          int       `json:"total"`
	NotStarted     int       `json:"not_started"`
	InProgress     int       `json:"in_progress"`
	Held           int       `json:"held"`
	Completed      int       `json:"completed"`
	CompletionRate float64   `json:"completion_rate"`
}

func newActorStats(actor uuid.UUID, counts map[domaintask.Status]int) ActorStats {
	s := ActorStats{
		ActorID:        actor,
		NotStarted:     counts[domaintask.StatusNotStarted],
		InProgress:     counts[domaintask.StatusInProgress],
		Held:           counts[domaintask.StatusHeld],
		Completed:      counts[domaintask.StatusCompleted],
		CompletionRate: Rate(counts),
	}
	s.Total = s.NotStarted + s.InProgress + s.Held + s.Completed
	return s
}

// CompletionRate reports the share of the actor's assigned tasks that are completed.
func (s *Service) CompletionRate(ctx context.Context, actor uuid.UUID) (ActorStats, error) {
	counts, err := s.tasks.CountByStatus(ctx, domaintask.ListFilters{AssignedTo: &actor})
	if err != nil {
		return ActorStats{}, fmt.Errorf("completion rate: %w", err)
	}
	return newActorStats(actor, counts), nil
}

type Dashboard struct {
	TotalProjects           int                          `json:"total_projects"`
	TotalTasks              int                          `json:"total_tasks"`
	TotalActors             int                          `json:"total_actors"`
	NewProjectsThisMonth    int                          `json:"new_projects_this_month"`
	CompletedTasksThisMonth int                          `json:"completed_tasks_this_month"`
	ProjectStatuses         map[domainproject.Status]int `json:"project_statuses"`
	TaskStatuses            map[domaintask.Status]int    `json:"task_statuses"`
}

// Dashboard returns per-status counts of projects and tasks, plus activity
// since the start of the current UTC month. Every status is present in the
// maps, zero included. TotalActors counts distinct assignees.
func (s *Service) Dashboard(ctx context.Context) (Dashboard, error) {
	pc, err := s.projects.CountByStatus(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: count projects: %w", err)
	}
	tc, err := s.tasks.CountByStatus(ctx, domaintask.ListFilters{})
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: count tasks: %w", err)
	}

	since := MonthStart(s.now())
	newProjects, err := s.projects.CountCreatedSince(ctx, since)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: count new projects: %w", err)
	}
	done, err := s.tasks.CountByStatus(ctx, domaintask.ListFilters{
		Status:     []domaintask.Status{domaintask.StatusCompleted},
		EndedSince: &since,
	})
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: count completed tasks: %w", err)
	}
	actors, err := s.tasks.AssigneeStats(ctx)
	if err != nil {
		return Dashboard{}, fmt.Errorf("dashboard: count actors: %w", err)
	}

	d := Dashboard{
		TotalActors:             len(actors),
		NewProjectsThisMonth:    newProjects,
		CompletedTasksThisMonth: done[domaintask.StatusCompleted],
		ProjectStatuses: make(map[domainproject.Status]int, len(domainproject.Statuses)),
		TaskStatuses:    make(map[domaintask.Status]int, len(domaintask.Statuses)),
	}
	for _, st := range domainproject.Statuses {
		d.ProjectStatuses[st] = pc[st]
		d.TotalProjects += pc[st]
	}
	for _, st := range domaintask.Statuses {
		d.TaskStatuses[st] = tc[st]
		d.TotalTasks += tc[st]
	}
	return d, nil
}

// Leaderboard ranks every actor holding at least one task by completion rate,
// highest first. Ties go to the actor with more completed tasks.
func (s *Service) Leaderboard(ctx context.Context) ([]ActorStats, error) {
	stats, err := s.tasks.AssigneeStats(ctx)
	if err != nil {
		return nil, fmt.Errorf("leaderboard: %w", err)
	}

	board := make([]ActorStats, 0, len(stats))
	for actor, counts := range stats {
		board = append(board, newActorStats(actor, counts))
	}
	sort.Slice(board, func(i, j int) bool {
		a, b := board[i], board[j]
		if a.CompletionRate != b.CompletionRate {
			return a.CompletionRate > b.CompletionRate
		}
		if a.Completed != b.Completed {
			return a.Completed > b.Completed
		}
		return a.ActorID.String() < b.ActorID.String()
	})
	return board, nil
}
