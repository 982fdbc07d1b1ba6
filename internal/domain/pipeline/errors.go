package pipeline

import "errors"

var (
	// ErrInvariantViolation marks an operation that would break pipeline
	// structure, such as instantiating tasks twice. Never retried.
	ErrInvariantViolation = errors.New("pipeline invariant violation")

	// ErrInvalidTransition is returned when the requested status change is not
	// permitted from the task's current status.
	ErrInvalidTransition = errors.New("invalid transition")

	// ErrPermissionDenied is returned when the acting actor is not the task's assignee.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrConcurrencyConflict is returned by stores when the atomic unit lost a
	// race with another writer. The whole transition is retried.
	ErrConcurrencyConflict = errors.New("concurrent modification")

	ErrNotFound = errors.New("not found")
)

// ErrInvalidInput wraps boundary validation failures (empty title, malformed handle).
var ErrInvalidInput = errors.New("invalid input")
