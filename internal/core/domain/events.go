package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type EventType string

const (
	EventInstalled   EventType = "INSTALLED"
	EventUpdated     EventType = "UPDATED"
	EventRemoved     EventType = "REMOVED"
	EventRestored    EventType = "RESTORED"
	EventReplaced    EventType = "REPLACED"
	EventHardDeleted EventType = "HARD_DELETED"
)

// ComponentEvent is one immutable entry of a component's history.
type ComponentEvent struct {
	ID          uuid.UUID        `json:"id"`
	ComponentID uuid.UUID        `json:"component_id"`
	BikeID      uuid.UUID        `json:"bike_id"`
	UserID      uuid.UUID        `json:"user_id"`
	Type        EventType        `json:"event_type"`
	At          time.Time        `json:"at"`
	Distance    *decimal.Decimal `json:"distance,omitempty"`
	RecordedAt  time.Time        `json:"recorded_at"`
}

func NewComponentEvent(c *Component, userID uuid.UUID, t EventType, at time.Time, distance *decimal.Decimal) *ComponentEvent {
	return &ComponentEvent{
		ID:          uuid.New(),
		ComponentID: c.ID,
		BikeID:      c.BikeID,
		UserID:      userID,
		Type:        t,
		At:          at,
		Distance:    distance,
	}
}
