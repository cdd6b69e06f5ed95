package inbound

import (
	"context"

	"item-service/internal/domain/health"
	"item-service/internal/domain/item"

	"github.com/google/uuid"
)

// ItemService defines the item use cases exposed to the HTTP layer
type ItemService interface {
	// ListItems returns a page of items and the count of all items
	ListItems(ctx context.Context, req ListItemsRequest) (*item.ListResult, error)

	// GetItem retrieves an item; found is false when no item has the id
	GetItem(ctx context.Context, id uuid.UUID) (it *item.Item, found bool, err error)

	// CreateItem persists a new item
	CreateItem(ctx context.Context, in item.Create) (*item.Item, error)

	// UpdateItem applies a partial update; found is false when no item has the id
	UpdateItem(ctx context.Context, id uuid.UUID, patch item.Update) (it *item.Item, found bool, err error)

	// DeleteItem removes an item; the result is false when no item had the id
	DeleteItem(ctx context.Context, id uuid.UUID) (bool, error)
}

// HealthService reports liveness and readiness
type HealthService interface {
	// Liveness always reports healthy
	Liveness(ctx context.Context) health.Response

	// Readiness reports healthy only when the store answers a probe
	Readiness(ctx context.Context) health.Response
}

// request to list items
type ListItemsRequest struct {
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

// Pagination bounds
const (
	DefaultLimit = 100
	MaxLimit     = 1000
)
