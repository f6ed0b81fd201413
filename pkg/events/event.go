package events

import (
	"time"

	"github.com/google/uuid"
)

// Event codes published on the bus.
const (
	TypeMaterialRegistered  = "MATERIAL_REGISTERED"
	TypeMaterialIndexed     = "MATERIAL_INDEXED"
	TypeMaterialIndexFailed = "MATERIAL_INDEX_FAILED"
	TypeMaterialDeleted     = "MATERIAL_DELETED"
)

// Event defines the contract for all system events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "MATERIAL_INDEXED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// BaseEvent is the plain implementation used for all material events.
type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewMaterialRegistered(materialId uuid.UUID, source string) BaseEvent {
	return BaseEvent{
		Type: TypeMaterialRegistered,
		Data: map[string]interface{}{
			"material_id": materialId,
			"source":      source,
		},
		OccurredAt: time.Now(),
	}
}

func NewMaterialIndexed(materialId uuid.UUID, source string, chunkCount int) BaseEvent {
	return BaseEvent{
		Type: TypeMaterialIndexed,
		Data: map[string]interface{}{
			"material_id": materialId,
			"source":      source,
			"chunk_count": chunkCount,
		},
		OccurredAt: time.Now(),
	}
}

func NewMaterialIndexFailed(materialId uuid.UUID, source, reason string) BaseEvent {
	return BaseEvent{
		Type: TypeMaterialIndexFailed,
		Data: map[string]interface{}{
			"material_id": materialId,
			"source":      source,
			"reason":      reason,
		},
		OccurredAt: time.Now(),
	}
}

func NewMaterialDeleted(materialId uuid.UUID, source string) BaseEvent {
	return BaseEvent{
		Type: TypeMaterialDeleted,
		Data: map[string]interface{}{
			"material_id": materialId,
			"source":      source,
		},
		OccurredAt: time.Now(),
	}
}
