package pipeline

import (
	"context"

	"github.com/google/uuid"

	domainproject "github.com/alanyang/prodline/internal/domain/project"
)

// MutateFunc edits the loaded aggregate in place. Returning an error aborts
// the unit without persisting anything.
type MutateFunc func(ctx context.Context, p *domainproject.Project) error

// UnitOfWork runs an atomic read-modify-write over one project and its task
// set. Implementations load the project with tasks in stage order, call fn,
// then persist the project status and every task in a single commit.
// A lost race is reported as domain pipeline.ErrConcurrencyConflict and the
// caller retries the whole unit.
type UnitOfWork interface {
	Atomically(ctx context.Context, projectID uuid.UUID, fn MutateFunc) error
}
