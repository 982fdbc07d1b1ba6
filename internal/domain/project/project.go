package project

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/prodline/internal/domain/task"
)

type Status string

const (
	StatusNotStarted Status = "not_started"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusHeld       Status = "held"
)

// Statuses lists every project status in display order.
var Statuses = []Status{StatusNotStarted, StatusInProgress, StatusCompleted, StatusHeld}

func (s Status) Valid() bool {
	switch s {
	case StatusNotStarted, StatusInProgress, StatusCompleted, StatusHeld:
		return true
	}
	return false
}

func ParseStatus(raw string) (Status, error) {
	s := Status(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown project status %q", raw)
	}
	return s, nil
}

// Aggregate derives a project status from its task statuses. Precedence:
// any held → held; all completed → completed; any started → in_progress;
// otherwise not_started. An empty pipeline is not_started.
func Aggregate(statuses []task.Status) Status {
	if len(statuses) == 0 {
		return StatusNotStarted
	}
	var held, completed, inProgress int
	for _, s := range statuses {
		switch s {
		case task.StatusHeld:
			held++
		case task.StatusCompleted:
			completed++
		case task.StatusInProgress:
			inProgress++
		}
	}
	switch {
	case held > 0:
		return StatusHeld
	case completed == len(statuses):
		return StatusCompleted
	case inProgress > 0 || completed > 0:
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

type Project struct {
	ID          uuid.UUID   `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description"`
	Status      Status      `json:"status"`
	CreatedBy   *uuid.UUID  `json:"created_by,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
	Version     int64       `json:"version"`
	Tasks       []task.Task `json:"tasks"`
}

func New(title, description string, createdBy *uuid.UUID) Project {
	now := time.Now().UTC()
	return Project{
		ID:          uuid.New(),
		Title:       title,
		Description: description,
		Status:      StatusNotStarted,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
		Tasks:       []task.Task{},
	}
}

// Recompute refreshes the derived status from the current task set.
func (p *Project) Recompute() Status {
	statuses := make([]task.Status, len(p.Tasks))
	for i, t := range p.Tasks {
		statuses[i] = t.Status
	}
	p.Status = Aggregate(statuses)
	return p.Status
}

// Task returns a pointer into Tasks for in-place mutation.
func (p *Project) Task(id uuid.UUID) *task.Task {
	for i := range p.Tasks {
		if p.Tasks[i].ID == id {
			return &p.Tasks[i]
		}
	}
	return nil
}

// CurrentTask returns the active slot: the lowest-positioned in_progress or
// held task.
func (p *Project) CurrentTask() *task.Task {
	for i := range p.Tasks {
		switch p.Tasks[i].Status {
		case task.StatusInProgress, task.StatusHeld:
			return &p.Tasks[i]
		}
	}
	return nil
}

type ListFilters struct {
	Status    *Status
	CreatedBy *uuid.UUID
}
