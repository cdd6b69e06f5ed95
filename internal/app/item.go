package app

import (
	"context"

	"item-service/internal/domain/item"
	"item-service/internal/ports/inbound"
	"item-service/internal/ports/outbound"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ItemService implements the item use cases
type ItemService struct {
	itemRepo  outbound.ItemRepository
	publisher outbound.Publisher
	logger    zerolog.Logger
}

type ItemServiceParams struct {
	ItemRepo  outbound.ItemRepository
	Publisher outbound.Publisher
	Logger    zerolog.Logger
}

// NewItemService creates a new item service
func NewItemService(params ItemServiceParams) *ItemService {
	return &ItemService{
		itemRepo:  params.ItemRepo,
		publisher: params.Publisher,
		logger:    params.Logger.With().Str("component", "item_service").Logger(),
	}
}

// ListItems returns one page of items and the count of all items
func (service *ItemService) ListItems(ctx context.Context, req inbound.ListItemsRequest) (*item.ListResult, error) {
	items, total, err := service.itemRepo.List(ctx, req.Limit, req.Offset)
	if err != nil {
		service.logger.Error().Err(err).Int("limit", req.Limit).Int("offset", req.Offset).Msg("Failed to list items")
		return nil, err
	}

	service.logger.Debug().
		Int("limit", req.Limit).
		Int("offset", req.Offset).
		Int("returned", len(items)).
		Int("total", total).
		Msg("Items listed")

	return &item.ListResult{Items: items, Total: total}, nil
}

// GetItem retrieves an item by ID
func (service *ItemService) GetItem(ctx context.Context, id uuid.UUID) (*item.Item, bool, error) {
	it, found, err := service.itemRepo.GetByID(ctx, id)
	if err != nil {
		service.logger.Error().Err(err).Str("item_id", id.String()).Msg("Failed to retrieve item")
		return nil, false, err
	}
	return it, found, nil
}

// CreateItem persists a new item and announces it
func (service *ItemService) CreateItem(ctx context.Context, in item.Create) (*item.Item, error) {
	it, err := service.itemRepo.Create(ctx, in)
	if err != nil {
		service.logger.Error().Err(err).Str("name", in.Name).Msg("Failed to save item to database")
		return nil, err
	}

	service.logger.Info().Str("item_id", it.ID.String()).Msg("Item created successfully")
	service.publish(ctx, outbound.NewEvent(outbound.EventTypeItemCreated, it.ID, it))

	return it, nil
}

// UpdateItem applies a partial update and announces it
func (service *ItemService) UpdateItem(ctx context.Context, id uuid.UUID, patch item.Update) (*item.Item, bool, error) {
	it, found, err := service.itemRepo.Update(ctx, id, patch)
	if err != nil {
		service.logger.Error().Err(err).Str("item_id", id.String()).Msg("Failed to update item")
		return nil, false, err
	}
	if !found {
		service.logger.Debug().Str("item_id", id.String()).Msg("Item to update not found")
		return nil, false, nil
	}

	service.logger.Info().
		Str("item_id", id.String()).
		Bool("name_set", patch.Name.Set).
		Bool("description_set", patch.Description.Set).
		Bool("touch_only", patch.IsEmpty()).
		Msg("Item updated successfully")
	service.publish(ctx, outbound.NewEvent(outbound.EventTypeItemUpdated, it.ID, it))

	return it, true, nil
}

// DeleteItem removes an item and announces it
func (service *ItemService) DeleteItem(ctx context.Context, id uuid.UUID) (bool, error) {
	deleted, err := service.itemRepo.Delete(ctx, id)
	if err != nil {
		service.logger.Error().Err(err).Str("item_id", id.String()).Msg("Failed to delete item")
		return false, err
	}
	if !deleted {
		service.logger.Debug().Str("item_id", id.String()).Msg("Item to delete not found")
		return false, nil
	}

	service.logger.Info().Str("item_id", id.String()).Msg("Item deleted successfully")
	service.publish(ctx, outbound.NewEvent(outbound.EventTypeItemDeleted, id, nil))

	return true, nil
}

// publish is best effort: a failed publish never changes the outcome of the
// committed mutation.
func (service *ItemService) publish(ctx context.Context, event outbound.Event) {
	if service.publisher == nil {
		return
	}

	if err := service.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		service.logger.Error().
			Err(err).
			Str("event_type", string(event.Type)).
			Str("item_id", event.ItemID.String()).
			Msg("Failed to publish item event")
	}
}
