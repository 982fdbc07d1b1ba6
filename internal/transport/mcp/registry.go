package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/alanyang/prodline/internal/domain/event"
	domaintask "github.com/alanyang/prodline/internal/domain/task"
)

// SessionRegistry maps open MCP sessions to the actor that registered on
// them, so task events can be pushed to the assignee's client.
type SessionRegistry struct {
	mu        sync.RWMutex
	bySession map[string]uuid.UUID // sessionID → actorID
	byActor   map[uuid.UUID]string // actorID → sessionID

	// mcpSrv is set after the MCP server is constructed.
	mcpMu  sync.RWMutex
	mcpSrv *mcpserver.MCPServer
}

func NewSessionRegistry() *SessionRegistry {
	return &SessionRegistry{
		bySession: make(map[string]uuid.UUID),
		byActor:   make(map[uuid.UUID]string),
	}
}

func (r *SessionRegistry) SetMCPServer(s *mcpserver.MCPServer) {
	r.mcpMu.Lock()
	r.mcpSrv = s
	r.mcpMu.Unlock()
}

// Register binds a session to an actor. A newer session replaces an older one.
func (r *SessionRegistry) Register(sessionID string, actorID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if old, ok := r.byActor[actorID]; ok {
		delete(r.bySession, old)
	}
	if prev, ok := r.bySession[sessionID]; ok {
		delete(r.byActor, prev)
	}
	r.bySession[sessionID] = actorID
	r.byActor[actorID] = sessionID
}

// Unregister drops a closed session and returns the actor it was bound to.
func (r *SessionRegistry) Unregister(sessionID string) (uuid.UUID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	actorID, ok := r.bySession[sessionID]
	if !ok {
		return uuid.Nil, false
	}
	delete(r.bySession, sessionID)
	if r.byActor[actorID] == sessionID {
		delete(r.byActor, actorID)
	}
	return actorID, true
}

func (r *SessionRegistry) IsConnected(actorID uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.byActor[actorID]
	return ok
}

// NotifyActor pushes payload to the actor's session. Offline actors are a no-op.
func (r *SessionRegistry) NotifyActor(_ context.Context, actorID uuid.UUID, payload any) error {
	r.mu.RLock()
	sessionID, ok := r.byActor[actorID]
	r.mu.RUnlock()
	if !ok {
		return nil
	}

	r.mcpMu.RLock()
	srv := r.mcpSrv
	r.mcpMu.RUnlock()
	if srv == nil {
		return fmt.Errorf("mcp server not initialized")
	}

	params, err := toParams(payload)
	if err != nil {
		return fmt.Errorf("serialize notification: %w", err)
	}
	return srv.SendNotificationToSpecificClient(sessionID, "notifications/message", params)
}

// TaskLookup resolves the task an event refers to.
type TaskLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (domaintask.Task, error)
}

// Forward relays task activations and assignments to the assignee's session.
// It is installed as an event bus handler on the task channel.
func (r *SessionRegistry) Forward(tasks TaskLookup) func(ctx context.Context, e event.Event) {
	return func(ctx context.Context, e event.Event) {
		if e.Type != event.TypeTaskActivated && e.Type != event.TypeTaskAssigned {
			return
		}
		t, err := tasks.GetByID(ctx, e.EntityID)
		if err != nil {
			slog.WarnContext(ctx, "mcp: task lookup for forward failed", "task_id", e.EntityID, "error", err)
			return
		}
		if t.AssignedTo == nil {
			return
		}
		payload := map[string]any{"event": e.Type, "task": t}
		if err := r.NotifyActor(ctx, *t.AssignedTo, payload); err != nil {
			slog.WarnContext(ctx, "mcp: forward failed", "actor_id", *t.AssignedTo, "error", err)
		}
	}
}

func toParams(payload any) (map[string]any, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	var params map[string]any
	if err := json.Unmarshal(data, &params); err != nil {
		return map[string]any{"data": payload}, nil
	}
	return params, nil
}
