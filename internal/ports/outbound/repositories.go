package outbound

import (
	"context"

	"item-service/internal/domain/item"

	"github.com/google/uuid"
)

// ItemRepository defines the interface for item data operations.
// Absence is reported through the boolean result, never as an error.
type ItemRepository interface {
	// List returns up to limit items starting at offset, newest first, and the count of all items
	List(ctx context.Context, limit, offset int) ([]*item.Item, int, error)

	// GetByID retrieves an item by ID
	GetByID(ctx context.Context, id uuid.UUID) (*item.Item, bool, error)

	// Create persists a new item and returns the stored entity
	Create(ctx context.Context, in item.Create) (*item.Item, error)

	// Update applies a partial update and returns the stored entity
	Update(ctx context.Context, id uuid.UUID, patch item.Update) (*item.Item, bool, error)

	// Delete removes an item, reporting whether it existed
	Delete(ctx context.Context, id uuid.UUID) (bool, error)
}

// StoreProber is implemented by the data store connector
type StoreProber interface {
	// Probe reports whether the store can answer a query. It never returns an error.
	Probe(ctx context.Context) bool
}
