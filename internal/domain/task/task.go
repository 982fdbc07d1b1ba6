package task

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/prodline/internal/domain/stage"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusHeld       Status = "held"
)

// Statuses lists every task status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusHeld}

var validTransitions = map[Status][]Status{
	StatusNotStarted: {StatusInProgress},
	StatusInProgress: {StatusCompleted, StatusHeld},
	StatusHeld:       {StatusInProgress},
	StatusCompleted:  {},
}

// internalOnly are edges the pipeline performs itself; callers can never request them.
var internalOnly = map[Status]Status{
	StatusNotStarted: StatusInProgress,
}

func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}

// CanRequest reports whether an external actor may ask for s→target.
func (s Status) CanRequest(target Status) bool {
	if to, ok := internalOnly[s]; ok && to == target {
		return false
	}
	return s.CanTransitionTo(target)
}

func (s Status) Terminal() bool { return s == StatusCompleted }

// ParseStatus rejects values outside the enumeration.
func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown task status %q", raw)
	}
	return s, nil
}

type Task struct {
	ID         uuid.UUID  `json:"id"`
	ProjectID  uuid.UUID  `json:"project_id"`
	Stage      stage.ID   `json:"stage"`
	Position   int        `json:"position"`
	AssignedTo *uuid.UUID `json:"assigned_to,omitempty"`
	Status     Status     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// New builds an unassigned, not-started task for one catalog slot.
func New(projectID uuid.UUID, id stage.ID, position int, now time.Time) Task {
	return Task{
		ID:        uuid.New(),
		ProjectID: projectID,
		Stage:     id,
		Position:  position,
		Status:    StatusNotStarted,
		UpdatedAt: now,
	}
}

// IsAssignedTo reports whether actor is the task's assignee.
func (t Task) IsAssignedTo(actor uuid.UUID) bool {
	return t.AssignedTo != nil && *t.AssignedTo == actor
}

// Activate moves a not-started task to in_progress and stamps its start date.
func (t *Task) Activate(now time.Time) {
	t.Status = StatusInProgress
	t.StartDate = &now
	t.UpdatedAt = now
}

func (t *Task) Complete(now time.Time) {
	t.Status = StatusCompleted
	t.EndDate = &now
	t.UpdatedAt = now
}

// Hold pauses the task; dates are left untouched.
func (t *Task) Hold(now time.Time) {
	t.Status = StatusHeld
	t.UpdatedAt = now
}

// Resume returns a held task to in_progress, keeping the original start date.
func (t *Task) Resume(now time.Time) {
	t.Status = StatusInProgress
	t.UpdatedAt = now
}

func (t *Task) Assign(actor uuid.UUID, now time.Time) {
	a := actor
	t.AssignedTo = &a
	t.UpdatedAt = now
}

func (t *Task) Unassign(now time.Time) {
	t.AssignedTo = nil
	t.UpdatedAt = now
}

type ListFilters struct {
	ProjectID  *uuid.UUID
	Status     []Status
	AssignedTo *uuid.UUID
	// EndedSince keeps tasks whose end date is at or after the given instant.
	EndedSince *time.Time
}
