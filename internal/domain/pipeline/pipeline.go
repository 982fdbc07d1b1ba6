package pipeline

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/prodline/internal/domain/project"
	"github.com/alanyang/prodline/internal/domain/stage"
	"github.com/alanyang/prodline/internal/domain/task"
)

// Outcome describes what a single transition changed inside the atomic unit.
// Side effects (events, notification) are derived from it after commit.
type Outcome struct {
	Task           task.Task      `json:"task"`
	From           task.Status    `json:"from"`
	Activated      *task.Task     `json:"activated,omitempty"`
	PreviousStatus project.Status `json:"previous_project_status"`
	ProjectStatus  project.Status `json:"project_status"`
}

func (o Outcome) ProjectStatusChanged() bool {
	return o.PreviousStatus != o.ProjectStatus
}

// Instantiate creates one not-started task per catalog stage, activates the
// first and recomputes the project status. A project that already owns tasks
// is rejected: instantiation is not idempotent.
func Instantiate(p *project.Project, cat stage.Catalog, now time.Time) ([]task.Task, error) {
	if err := cat.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvariantViolation, err)
	}
	if len(p.Tasks) > 0 {
		return nil, fmt.Errorf("%w: project %s already has %d tasks", ErrInvariantViolation, p.ID, len(p.Tasks))
	}

	tasks := make([]task.Task, 0, cat.Len())
	for i, id := range cat {
		tasks = append(tasks, task.New(p.ID, id, i, now))
	}
	tasks[0].Activate(now)

	p.Tasks = tasks
	p.Recompute()
	p.UpdatedAt = now
	return tasks, nil
}

// Successor resolves the task bound to the stage after t's stage in catalog
// order. It never looks at statuses, so an out-of-order stage can't be picked.
func Successor(p *project.Project, cat stage.Catalog, t task.Task) *task.Task {
	next, ok := cat.Next(t.Stage)
	if !ok {
		return nil
	}
	for i := range p.Tasks {
		if p.Tasks[i].Stage == next {
			return &p.Tasks[i]
		}
	}
	return nil
}

// Apply validates and applies an externally requested status change.
// Checks run in order: target domain, transition table, then assignee.
// On error p is left untouched.
func Apply(p *project.Project, cat stage.Catalog, taskID uuid.UUID, to task.Status, actor uuid.UUID, now time.Time) (Outcome, error) {
	t := p.Task(taskID)
	if t == nil {
		return Outcome{}, fmt.Errorf("task %s in project %s: %w", taskID, p.ID, ErrNotFound)
	}
	if !to.Valid() {
		return Outcome{}, fmt.Errorf("%w: unknown target status %q", ErrInvalidTransition, to)
	}
	from := t.Status
	if !from.CanRequest(to) {
		return Outcome{}, fmt.Errorf("%w: %s → %s for stage %s", ErrInvalidTransition, from, to, t.Stage)
	}
	if !t.IsAssignedTo(actor) {
		return Outcome{}, fmt.Errorf("%w: actor %s is not assigned to task %s", ErrPermissionDenied, actor, taskID)
	}

	out := Outcome{From: from, PreviousStatus: p.Status}

	switch to {
	case task.StatusCompleted:
		t.Complete(now)
		if next := Successor(p, cat, *t); next != nil && next.Status == task.StatusNotStarted {
			next.Activate(now)
			activated := *next
			out.Activated = &activated
		}
	case task.StatusHeld:
		t.Hold(now)
	case task.StatusInProgress:
		t.Resume(now)
	}

	out.Task = *t
	out.ProjectStatus = p.Recompute()
	p.UpdatedAt = now
	return out, nil
}

// Assign sets or clears the assignee of a task that is not yet completed.
func Assign(p *project.Project, taskID uuid.UUID, assignee *uuid.UUID, now time.Time) (task.Task, error) {
	t := p.Task(taskID)
	if t == nil {
		return task.Task{}, fmt.Errorf("task %s in project %s: %w", taskID, p.ID, ErrNotFound)
	}
	if t.Status.Terminal() {
		return task.Task{}, fmt.Errorf("%w: task %s is already completed", ErrInvalidTransition, taskID)
	}
	if assignee == nil {
		t.Unassign(now)
	} else {
		t.Assign(*assignee, now)
	}
	p.UpdatedAt = now
	return *t, nil
}
