package pipeline

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyang/prodline/internal/domain/event"
	domainpipeline "github.com/alanyang/prodline/internal/domain/pipeline"
	domainproject "github.com/alanyang/prodline/internal/domain/project"
	"github.com/alanyang/prodline/internal/domain/stage"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
	portcontact "github.com/alanyang/prodline/internal/port/contact"
	portbus "github.com/alanyang/prodline/internal/port/eventbus"
	portlocker "github.com/alanyang/prodline/internal/port/locker"
	portnotifier "github.com/alanyang/prodline/internal/port/notifier"
	portpipeline "github.com/alanyang/prodline/internal/port/pipeline"
	porttask "github.com/alanyang/prodline/internal/port/task"
)

const (
	DefaultMaxAttempts  = 3
	DefaultRetryBackoff = 25 * time.Millisecond
)

// Service is the pipeline controller: it instantiates task sequences,
// validates and applies transitions, and asks the notifier to inform the
// next assignee once the change has committed.
// It holds no per-project state; every call works on a freshly loaded aggregate.
type Service struct {
	uow      portpipeline.UnitOfWork
	tasks    porttask.Repository
	bus      portbus.EventBus
	notifier portnotifier.Notifier
	contacts portcontact.Directory
	catalog  stage.Catalog
	locker   portlocker.AdvisoryLocker

	maxAttempts int
	backoff     time.Duration
	now         func() time.Time
}

type Option func(*Service)

// WithRetry bounds how many times a transition is re-run after a concurrency conflict.
func WithRetry(maxAttempts int, backoff time.Duration) Option {
	return func(s *Service) {
		if maxAttempts > 0 {
			s.maxAttempts = maxAttempts
		}
		if backoff >= 0 {
			s.backoff = backoff
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func NewService(
	uow portpipeline.UnitOfWork,
	tasks porttask.Repository,
	bus portbus.EventBus,
	notifier portnotifier.Notifier,
	contacts portcontact.Directory,
	catalog stage.Catalog,
	locker portlocker.AdvisoryLocker,
	opts ...Option,
) *Service {
	s := &Service{
		uow:         uow,
		tasks:       tasks,
		bus:         bus,
		notifier:    notifier,
		contacts:    contacts,
		catalog:     catalog,
		locker:      locker,
		maxAttempts: DefaultMaxAttempts,
		backoff:     DefaultRetryBackoff,
		now:         func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Catalog returns the stage catalog pipelines are instantiated from.
func (s *Service) Catalog() stage.Catalog { return s.catalog }

// TransitionResult is returned by ApplyTransition. Delivery is set only when
// a successor was activated and a notification was attempted.
type TransitionResult struct {
	domainpipeline.Outcome
	Delivery *portnotifier.DeliveryResult `json:"delivery,omitempty"`
}

// CreatePipeline instantiates one task per catalog stage for a persisted
// project and activates the first. Fails with ErrInvariantViolation if the
// project already has tasks.
func (s *Service) CreatePipeline(ctx context.Context, projectID uuid.UUID) ([]domaintask.Task, error) {
	var (
		created []domaintask.Task
		status  domainproject.Status
	)
	err := s.atomically(ctx, projectID, func(ctx context.Context, p *domainproject.Project) error {
		tasks, err := domainpipeline.Instantiate(p, s.catalog, s.now())
		if err != nil {
			return err
		}
		created = tasks
		status = p.Status
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("create pipeline: %w", err)
	}

	slog.InfoContext(ctx, "pipeline created", "project_id", projectID, "stages", len(created), "project_status", status)
	s.publish(ctx, event.New(event.TypePipelineCreated, projectID, projectID))
	s.publish(ctx, event.New(event.TypeTaskActivated, created[0].ID, projectID))
	s.publish(ctx, event.New(event.TypeProjectStatusChanged, projectID, projectID))
	return created, nil
}

// ApplyTransition is the single entry point for externally requested status
// changes. The completion→successor→aggregation sequence runs as one atomic
// unit; notification happens only after it commits and never reverts it.
func (s *Service) ApplyTransition(ctx context.Context, taskID uuid.UUID, to domaintask.Status, actor uuid.UUID) (TransitionResult, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return TransitionResult{}, fmt.Errorf("apply transition: %w", err)
	}

	var (
		out   domainpipeline.Outcome
		title string
	)
	err = s.atomically(ctx, t.ProjectID, func(ctx context.Context, p *domainproject.Project) error {
		o, err := domainpipeline.Apply(p, s.catalog, taskID, to, actor, s.now())
		if err != nil {
			return err
		}
		out = o
		title = p.Title
		return nil
	})
	if err != nil {
		return TransitionResult{}, fmt.Errorf("apply transition: %w", err)
	}

	slog.InfoContext(ctx, "task transitioned",
		"task_id", taskID,
		"project_id", t.ProjectID,
		"stage", out.Task.Stage,
		"from", out.From,
		"to", out.Task.Status,
		"project_status", out.ProjectStatus,
	)

	res := TransitionResult{Outcome: out}
	s.publishOutcome(ctx, t.ProjectID, out)

	if out.Activated != nil {
		res.Delivery = s.notifyActivated(ctx, title, *out.Activated)
	}
	return res, nil
}

// AssignTask sets (or clears, when assignee is nil) the task's assignee.
func (s *Service) AssignTask(ctx context.Context, taskID uuid.UUID, assignee *uuid.UUID) (domaintask.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return domaintask.Task{}, fmt.Errorf("assign task: %w", err)
	}

	var updated domaintask.Task
	err = s.atomically(ctx, t.ProjectID, func(ctx context.Context, p *domainproject.Project) error {
		u, err := domainpipeline.Assign(p, taskID, assignee, s.now())
		if err != nil {
			return err
		}
		updated = u
		return nil
	})
	if err != nil {
		return domaintask.Task{}, fmt.Errorf("assign task: %w", err)
	}

	s.publish(ctx, event.New(event.TypeTaskAssigned, taskID, t.ProjectID))
	return updated, nil
}

// atomically serialises work on one project and re-runs the whole unit when
// the store reports a concurrent writer, up to maxAttempts.
func (s *Service) atomically(ctx context.Context, projectID uuid.UUID, fn portpipeline.MutateFunc) error {
	return s.locker.WithLock(ctx, advisoryKey(projectID), func(ctx context.Context) error {
		var err error
		for attempt := 1; attempt <= s.maxAttempts; attempt++ {
			err = s.uow.Atomically(ctx, projectID, fn)
			if !errors.Is(err, domainpipeline.ErrConcurrencyConflict) {
				return err
			}
			slog.WarnContext(ctx, "pipeline: concurrent modification, retrying",
				"project_id", projectID, "attempt", attempt, "max_attempts", s.maxAttempts)
			if attempt == s.maxAttempts {
				break
			}
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(s.backoff * time.Duration(attempt)):
			}
		}
		return fmt.Errorf("gave up after %d attempts: %w", s.maxAttempts, err)
	})
}

func (s *Service) publishOutcome(ctx context.Context, projectID uuid.UUID, out domainpipeline.Outcome) {
	switch out.Task.Status {
	case domaintask.StatusCompleted:
		s.publish(ctx, event.New(event.TypeTaskCompleted, out.Task.ID, projectID))
	case domaintask.StatusHeld:
		s.publish(ctx, event.New(event.TypeTaskHeld, out.Task.ID, projectID))
	case domaintask.StatusInProgress:
		s.publish(ctx, event.New(event.TypeTaskResumed, out.Task.ID, projectID))
	}
	if out.Activated != nil {
		s.publish(ctx, event.New(event.TypeTaskActivated, out.Activated.ID, projectID))
	}
	if out.ProjectStatusChanged() {
		s.publish(ctx, event.New(event.TypeProjectStatusChanged, projectID, projectID))
	}
}

func (s *Service) publish(ctx context.Context, e event.Event) {
	if err := s.bus.Publish(ctx, e); err != nil {
		slog.ErrorContext(ctx, "failed to publish event", "type", e.Type, "entity_id", e.EntityID, "error", err)
	}
}

// notifyActivated tells the assignee of a freshly activated task. Unassigned
// tasks and actors without a registered handle are skipped.
func (s *Service) notifyActivated(ctx context.Context, projectTitle string, t domaintask.Task) *portnotifier.DeliveryResult {
	if t.AssignedTo == nil {
		slog.InfoContext(ctx, "activated task has no assignee, skipping notification", "task_id", t.ID, "stage", t.Stage)
		return nil
	}

	handle, err := s.contacts.HandleFor(ctx, *t.AssignedTo)
	if err != nil {
		slog.ErrorContext(ctx, "failed to resolve messaging handle", "actor_id", *t.AssignedTo, "error", err)
		return nil
	}
	if handle == "" {
		slog.WarnContext(ctx, "assignee has no messaging handle, skipping notification", "actor_id", *t.AssignedTo, "task_id", t.ID)
		return nil
	}

	res := s.notifier.Notify(ctx, handle, MessageBody(projectTitle, t.Stage))
	if res.Delivered {
		slog.InfoContext(ctx, "assignee notified", "task_id", t.ID, "actor_id", *t.AssignedTo, "message_id", res.MessageID)
	} else {
		slog.WarnContext(ctx, "notification not delivered",
			"task_id", t.ID, "actor_id", *t.AssignedTo, "fallback_link", res.FallbackLink, "error", res.Error)
	}
	return &res
}

// MessageBody is the text sent to the assignee of a newly active stage.
func MessageBody(projectTitle string, id stage.ID) string {
	return fmt.Sprintf("You have a new task: %s - %s", projectTitle, id.Label())
}

// advisoryKey hashes a project id to a stable int64 for pg_advisory_lock.
func advisoryKey(projectID uuid.UUID) int64 {
	h := fnv.New64a()
	h.Write(projectID[:])
	h.Write([]byte("pipeline"))
	return int64(h.Sum64())
}
