package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domainproject "github.com/alanyang/prodline/internal/domain/project"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	portpipeline "github.com/alanyang/prodline/internal/port/pipeline"
	portproject "github.com/alanyang/prodline/internal/port/project"
	porttask "github.com/alanyang/prodline/internal/port/task"
)

var (
	_ portpipeline.UnitOfWork = (*Store)(nil)
	_ portproject.Repository  = (*ProjectRepository)(nil)
	_ porttask.Repository     = (*TaskRepository)(nil)
)

// Store keeps projects and their tasks in process memory. Mutations go
// through Atomically with optimistic versioning: fn runs on a private copy
// and the commit fails with ErrConcurrencyConflict if another writer got
// there first.
type Store struct {
	mu       sync.RWMutex
	projects map[uuid.UUID]domainproject.Project
	taskIdx  map[uuid.UUID]uuid.UUID // task id -> project id
}

func NewStore() *Store {
	return &Store{
		projects: make(map[uuid.UUID]domainproject.Project),
		taskIdx:  make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *Store) Projects() *ProjectRepository { return &ProjectRepository{s: s} }
func (s *Store) Tasks() *TaskRepository       { return &TaskRepository{s: s} }

func clone(p domainproject.Project) domainproject.Project {
	out := p
	out.Tasks = make([]domaintask.Task, len(p.Tasks))
	for i, t := range p.Tasks {
		out.Tasks[i] = cloneTask(t)
	}
	return out
}

func cloneTask(t domaintask.Task) domaintask.Task {
	if t.AssignedTo != nil {
		a := *t.AssignedTo
		t.AssignedTo = &a
	}
	if t.StartDate != nil {
		d := *t.StartDate
		t.StartDate = &d
	}
	if t.EndDate != nil {
		d := *t.EndDate
		t.EndDate = &d
	}
	return t
}

func (s *Store) Atomically(ctx context.Context, projectID uuid.UUID, fn portpipeline.MutateFunc) error {
	s.mu.RLock()
	stored, ok := s.projects[projectID]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, domainpipeline.ErrNotFound)
	}

	work := clone(stored)
	version := stored.Version
	if err := fn(ctx, &work); err != nil {
		return err
	}
	if len(work.Tasks) < len(stored.Tasks) {
		return fmt.Errorf("%w: tasks cannot be removed from project %s", domainpipeline.ErrInvariantViolation, projectID)
	}
	if err := checkTaskSet(work); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.projects[projectID]
	if !ok {
		return fmt.Errorf("project %s: %w", projectID, domainpipeline.ErrNotFound)
	}
	if current.Version != version {
		return fmt.Errorf("%w: project %s changed since version %d", domainpipeline.ErrConcurrencyConflict, projectID, version)
	}

	work.Version = version + 1
	sort.SliceStable(work.Tasks, func(i, j int) bool { return work.Tasks[i].Position < work.Tasks[j].Position })
	s.projects[projectID] = work
	for _, t := range work.Tasks {
		s.taskIdx[t.ID] = projectID
	}
	return nil
}

// checkTaskSet enforces the uniqueness the Postgres schema gets from its
// UNIQUE constraints.
func checkTaskSet(p domainproject.Project) error {
	stages := make(map[string]struct{}, len(p.Tasks))
	positions := make(map[int]struct{}, len(p.Tasks))
	for _, t := range p.Tasks {
		if _, dup := stages[string(t.Stage)]; dup {
			return fmt.Errorf("%w: duplicate stage %s in project %s", domainpipeline.ErrInvariantViolation, t.Stage, p.ID)
		}
		if _, dup := positions[t.Position]; dup {
			return fmt.Errorf("%w: duplicate position %d in project %s", domainpipeline.ErrInvariantViolation, t.Position, p.ID)
		}
		stages[string(t.Stage)] = struct{}{}
		positions[t.Position] = struct{}{}
	}
	return nil
}

// ── projects ─────────────────────────────────────────────────────────────────

type ProjectRepository struct{ s *Store }

func (r *ProjectRepository) Create(_ context.Context, p domainproject.Project) (domainproject.Project, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.projects[p.ID]; exists {
		return domainproject.Project{}, fmt.Errorf("insert project: %s already exists", p.ID)
	}
	p.Version = 0
	p.Tasks = []domaintask.Task{}
	r.s.projects[p.ID] = p
	return clone(p), nil
}

func (r *ProjectRepository) GetByID(_ context.Context, id uuid.UUID) (domainproject.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	p, ok := r.s.projects[id]
	if !ok {
		return domainproject.Project{}, fmt.Errorf("project %s: %w", id, domainpipeline.ErrNotFound)
	}
	return clone(p), nil
}

func (r *ProjectRepository) List(_ context.Context, filters domainproject.ListFilters) ([]domainproject.Project, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []domainproject.Project{}
	for _, p := range r.s.projects {
		if filters.Status != nil && p.Status != *filters.Status {
			continue
		}
		if filters.CreatedBy != nil && (p.CreatedBy == nil || *p.CreatedBy != *filters.CreatedBy) {
			continue
		}
		out = append(out, clone(p))
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *ProjectRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.projects[id]
	if !ok {
		return fmt.Errorf("project %s: %w", id, domainpipeline.ErrNotFound)
	}
	for _, t := range p.Tasks {
		delete(r.s.taskIdx, t.ID)
	}
	delete(r.s.projects, id)
	return nil
}

func (r *ProjectRepository) CountByStatus(_ context.Context) (map[domainproject.Status]int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make(map[domainproject.Status]int)
	for _, p := range r.s.projects {
		out[p.Status]++
	}
	return out, nil
}

func (r *ProjectRepository) CountCreatedSince(_ context.Context, since time.Time) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	n := 0
	for _, p := range r.s.projects {
		if !p.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

// ── tasks ────────────────────────────────────────────────────────────────────

type TaskRepository struct{ s *Store }

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (domaintask.Task, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	if pid, ok := r.s.taskIdx[id]; ok {
		for _, t := range r.s.projects[pid].Tasks {
			if t.ID == id {
				return cloneTask(t), nil
			}
		}
	}
	return domaintask.Task{}, fmt.Errorf("task %s: %w", id, domainpipeline.ErrNotFound)
}

func (r *TaskRepository) List(_ context.Context, filters domaintask.ListFilters) ([]domaintask.Task, error) {
	out := []domaintask.Task{}
	r.each(filters, func(t domaintask.Task) { out = append(out, cloneTask(t)) })
	sort.Slice(out, func(i, j int) bool {
		if out[i].ProjectID != out[j].ProjectID {
			return out[i].ProjectID.String() < out[j].ProjectID.String()
		}
		return out[i].Position < out[j].Position
	})
	return out, nil
}

func (r *TaskRepository) CountByStatus(_ context.Context, filters domaintask.ListFilters) (map[domaintask.Status]int, error) {
	out := make(map[domaintask.Status]int)
	r.each(filters, func(t domaintask.Task) { out[t.Status]++ })
	return out, nil
}

func (r *TaskRepository) AssigneeStats(_ context.Context) (map[uuid.UUID]map[domaintask.Status]int, error) {
	out := make(map[uuid.UUID]map[domaintask.Status]int)
	r.each(domaintask.ListFilters{}, func(t domaintask.Task) {
		if t.AssignedTo == nil {
			return
		}
		if out[*t.AssignedTo] == nil {
			out[*t.AssignedTo] = make(map[domaintask.Status]int)
		}
		out[*t.AssignedTo][t.Status]++
	})
	return out, nil
}

func (r *TaskRepository) each(filters domaintask.ListFilters, fn func(domaintask.Task)) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for pid, p := range r.s.projects {
		if filters.ProjectID != nil && pid != *filters.ProjectID {
			continue
		}
		for _, t := range p.Tasks {
			if matches(t, filters) {
				fn(t)
			}
		}
	}
}

func matches(t domaintask.Task, filters domaintask.ListFilters) bool {
	if filters.AssignedTo != nil && !t.IsAssignedTo(*filters.AssignedTo) {
		return false
	}
	if filters.EndedSince != nil && (t.EndDate == nil || t.EndDate.Before(*filters.EndedSince)) {
		return false
	}
	if len(filters.Status) == 0 {
		return true
	}
	for _, s := range filters.Status {
		if t.Status == s {
			return true
		}
	}
	return false
}
