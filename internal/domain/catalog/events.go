package catalog

import (
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeItem is the aggregate type for catalog items
const AggregateTypeItem = "Item"

// Event type constants
const (
	EventTypeItemCreated = "ItemCreated"
	EventTypeItemUpdated = "ItemUpdated"
	EventTypeItemDeleted = "ItemDeleted"
)

// ItemCreatedEvent is published when an item enters the catalog,
// either explicitly or through a purchase line
type ItemCreatedEvent struct {
	shared.BaseDomainEvent
	ItemID    uuid.UUID `json:"item_id"`
	TradeName string    `json:"trade_name"`
}

// NewItemCreatedEvent creates a new ItemCreatedEvent
func NewItemCreatedEvent(item *Item) *ItemCreatedEvent {
	return &ItemCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemCreated, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		TradeName:       item.TradeName,
	}
}

// ItemUpdatedEvent is published when item attributes change
type ItemUpdatedEvent struct {
	shared.BaseDomainEvent
	ItemID    uuid.UUID `json:"item_id"`
	TradeName string    `json:"trade_name"`
}

// NewItemUpdatedEvent creates a new ItemUpdatedEvent
func NewItemUpdatedEvent(item *Item) *ItemUpdatedEvent {
	return &ItemUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemUpdated, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
		TradeName:       item.TradeName,
	}
}

// ItemDeletedEvent is published when an unreferenced item is removed
type ItemDeletedEvent struct {
	shared.BaseDomainEvent
	ItemID uuid.UUID `json:"item_id"`
}

// NewItemDeletedEvent creates a new ItemDeletedEvent
func NewItemDeletedEvent(item *Item) *ItemDeletedEvent {
	return &ItemDeletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemDeleted, AggregateTypeItem, item.ID),
		ItemID:          item.ID,
	}
}
