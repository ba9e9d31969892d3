package events

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Entity names the record kind a change event refers to.
type Entity string

const (
	EntityExpense  Entity = "expense"
	EntityCategory Entity = "category"
)

// Action names what happened to the record.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
	ActionDeleted Action = "deleted"
)

// ChangeMessage is the payload published after a committed write.
// Consumers fetch the current row themselves; the message only says
// what moved.
type ChangeMessage struct {
	Entity    Entity    `json:"entity"`
	Action    Action    `json:"action"`
	EntityID  uuid.UUID `json:"entity_id"`
	UserID    uuid.UUID `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

// NewChangeMessage stamps a change event with the current time.
func NewChangeMessage(entity Entity, action Action, entityID, userID uuid.UUID) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		Action:    action,
		EntityID:  entityID,
		UserID:    userID,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// ChangeMessageFromJSON creates a message from JSON bytes.
func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var msg ChangeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
