package contact

import (
	"context"

	"github.com/google/uuid"
)

// Directory maps actors to the messaging handle notifications are sent to.
type Directory interface {
	// HandleFor returns the actor's handle, or "" when none is registered.
	HandleFor(ctx context.Context, actorID uuid.UUID) (string, error)
	SetHandle(ctx context.Context, actorID uuid.UUID, handle string) error
}
