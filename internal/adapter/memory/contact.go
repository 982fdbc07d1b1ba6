package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	portcontact "github.com/alanyang/prodline/internal/port/contact"
)

var _ portcontact.Directory = (*Directory)(nil)

type Directory struct {
	mu      sync.RWMutex
	handles map[uuid.UUID]string
}

func NewDirectory() *Directory {
	return &Directory{handles: make(map[uuid.UUID]string)}
}

func (d *Directory) HandleFor(_ context.Context, actorID uuid.UUID) (string, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.handles[actorID], nil
}

func (d *Directory) SetHandle(_ context.Context, actorID uuid.UUID, handle string) error {
	d.mu.Lock()
	d.handles[actorID] = handle
	d.mu.Unlock()
	return nil
}
