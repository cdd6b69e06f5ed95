package outbound

import (
	"context"
	"time"

	"item-service/internal/domain/item"

	"github.com/google/uuid"
)

// EventType represents the type of item change being broadcast
type EventType string

const (
	EventTypeItemCreated EventType = "item.created"
	EventTypeItemUpdated EventType = "item.updated"
	EventTypeItemDeleted EventType = "item.deleted"
)

// Event is emitted after a mutation has been committed
type Event struct {
	Type      EventType  `json:"type"`
	ItemID    uuid.UUID  `json:"item_id"`
	Item      *item.Item `json:"item,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewEvent builds an event stamped with the current time
func NewEvent(eventType EventType, id uuid.UUID, it *item.Item) Event {
	return Event{
		Type:      eventType,
		ItemID:    id,
		Item:      it,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher delivers item events to an external system
type Publisher interface {
	// Publish sends one event. Implementations may deliver asynchronously.
	Publish(ctx context.Context, event Event) error

	// Close releases the underlying connection
	Close() error
}

// Subscriber is implemented by publishers that can also stream events back
type Subscriber interface {
	// Subscribe delivers events on the returned channel until ctx is cancelled
	Subscribe(ctx context.Context) (<-chan Event, error)
}
