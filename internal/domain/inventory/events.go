package inventory

import (
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// AggregateTypeStock is the aggregate type for stock events, keyed by item id
const AggregateTypeStock = "Stock"

// EventTypeStockAdjusted is published once per item per committed post
const EventTypeStockAdjusted = "StockAdjusted"

// StockAdjustedEvent records a committed stock change
type StockAdjustedEvent struct {
	shared.BaseDomainEvent
	ItemID     uuid.UUID `json:"item_id"`
	Before     int64     `json:"before"`
	After      int64     `json:"after"`
	SourceType string    `json:"source_type"`
	SourceID   uuid.UUID `json:"source_id"`
}

// NewStockAdjustedEvent creates a StockAdjustedEvent for a document
func NewStockAdjustedEvent(adj Adjustment, sourceType string, sourceID uuid.UUID) *StockAdjustedEvent {
	return &StockAdjustedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockAdjusted, AggregateTypeStock, adj.ItemID),
		ItemID:          adj.ItemID,
		Before:          adj.Before,
		After:           adj.After,
		SourceType:      sourceType,
		SourceID:        sourceID,
	}
}

// Events turns a result into StockAdjusted events, skipping no-op adjustments
func (r *Result) Events(sourceType string, sourceID uuid.UUID) []shared.DomainEvent {
	events := make([]shared.DomainEvent, 0, len(r.Adjustments))
	for _, adj := range r.Adjustments {
		if adj.Delta() == 0 {
			continue
		}
		events = append(events, NewStockAdjustedEvent(adj, sourceType, sourceID))
	}
	return events
}
