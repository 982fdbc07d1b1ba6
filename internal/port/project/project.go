package project

import (
	"context"
	"time"

	"github.com/google/uuid"

	domainproject "github.com/alanyang/prodline/internal/domain/project"
)

// Repository manages project records. Tasks are loaded alongside the project
// on GetByID; they are only ever written through port/pipeline.UnitOfWork.
type Repository interface {
	Create(ctx context.Context, p domainproject.Project) (domainproject.Project, error)
	GetByID(ctx context.Context, id uuid.UUID) (domainproject.Project, error)
	List(ctx context.Context, filters domainproject.ListFilters) ([]domainproject.Project, error)
	// Delete removes the project and cascades to its tasks.
	Delete(ctx context.Context, id uuid.UUID) error
	CountByStatus(ctx context.Context) (map[domainproject.Status]int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}
