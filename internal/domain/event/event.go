package event

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypePipelineCreated      Type = "pipeline_created"
	TypeTaskActivated        Type = "task_activated"
	TypeTaskCompleted        Type = "task_completed"
	TypeTaskHeld             Type = "task_held"
	TypeTaskResumed          Type = "task_resumed"
	TypeTaskAssigned         Type = "task_assigned"
	TypeProjectStatusChanged Type = "project_status_changed"
	TypeProjectDeleted       Type = "project_deleted"
)

// Channel is a domain-scoped Postgres NOTIFY channel.
// All event types within a domain share one LISTEN connection.
type Channel string

const (
	ChannelProject Channel = "project"
	ChannelTask    Channel = "task"
)

// Channels lists every channel the websocket bridge subscribes to.
var Channels = []Channel{ChannelProject, ChannelTask}

var typeToChannel = map[Type]Channel{
	TypePipelineCreated:      ChannelProject,
	TypeProjectStatusChanged: ChannelProject,
	TypeProjectDeleted:       ChannelProject,
	TypeTaskActivated:        ChannelTask,
	TypeTaskCompleted:        ChannelTask,
	TypeTaskHeld:             ChannelTask,
	TypeTaskResumed:          ChannelTask,
	TypeTaskAssigned:         ChannelTask,
}

// ChannelFor returns the domain channel for a given event type.
func ChannelFor(t Type) Channel { return typeToChannel[t] }

// Event carries identifiers only, not full state.
// Subscribers fetch fresh state from the appropriate repository.
type Event struct {
	Type      Type      `json:"type"`
	EntityID  uuid.UUID `json:"entity_id"`
	ProjectID uuid.UUID `json:"project_id"`
	Timestamp time.Time `json:"timestamp"`
}

func New(eventType Type, entityID, projectID uuid.UUID) Event {
	return Event{
		Type:      eventType,
		EntityID:  entityID,
		ProjectID: projectID,
		Timestamp: time.Now().UTC(),
	}
}
