package catalog

import (
	"context"
	"strings"

	appevent "github.com/clinicrx/backend/internal/application/event"
	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/state"
	"github.com/clinicrx/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ItemService handles item catalog operations
type ItemService struct {
	scope          state.TransactionScope
	eventPublisher shared.EventPublisher
}

// NewItemService creates a new ItemService
func NewItemService(scope state.TransactionScope) *ItemService {
	return &ItemService{scope: scope}
}

// SetEventPublisher sets the event publisher for the service
func (s *ItemService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// Create registers a new item with zero stock. A trade name that already
// exists is reported as ambiguous unless the caller opts in to a duplicate.
func (s *ItemService) Create(ctx context.Context, req CreateItemRequest) (*ItemResponse, error) {
	events := appevent.NewBuffer()
	var response ItemResponse

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		if matches := snap.Items.FindByTradeName(req.TradeName); len(matches) > 0 && !req.AllowDuplicateName {
			return catalog.AmbiguousTradeNameError(req.TradeName, matches)
		}

		item, err := catalog.NewItem(req.attributes())
		if err != nil {
			return err
		}
		if err := snap.Items.Add(item); err != nil {
			return err
		}

		events.Collect(item)
		response = ToItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	logger.L(ctx).Info("item created",
		zap.String("item_id", response.ID.String()),
		zap.String("trade_name", response.TradeName),
	)
	return &response, nil
}

// Update replaces an item's attributes. Stock is left to the ledger.
func (s *ItemService) Update(ctx context.Context, id uuid.UUID, req UpdateItemRequest) (*ItemResponse, error) {
	events := appevent.NewBuffer()
	var response ItemResponse

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		item, err := snap.Items.MustGet(id)
		if err != nil {
			return err
		}
		if err := item.CheckVersion(req.ExpectedVersion); err != nil {
			return err
		}
		if !req.AllowDuplicateName {
			if others := otherItems(snap.Items.FindByTradeName(req.TradeName), id); len(others) > 0 {
				return catalog.AmbiguousTradeNameError(req.TradeName, others)
			}
		}
		if err := item.Update(req.attributes()); err != nil {
			return err
		}

		events.Collect(item)
		response = ToItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}

	events.Publish(ctx, s.eventPublisher)
	return &response, nil
}

func otherItems(items []*catalog.Item, id uuid.UUID) []*catalog.Item {
	out := make([]*catalog.Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}

// Delete removes an item that no invoice line refers to
func (s *ItemService) Delete(ctx context.Context, id uuid.UUID) error {
	events := appevent.NewBuffer()

	err := s.scope.Execute(ctx, func(snap *state.Snapshot) error {
		item, err := snap.Items.MustGet(id)
		if err != nil {
			return err
		}
		if snap.ItemReferenced(id) {
			return shared.NewValidationError(shared.CodeItemReferenced, "id",
				"item "+item.TradeName+" is referenced by invoices and cannot be deleted")
		}
		if err := snap.Items.Remove(id); err != nil {
			return err
		}

		events.Add(catalog.NewItemDeletedEvent(item))
		return nil
	})
	if err != nil {
		return err
	}

	events.Publish(ctx, s.eventPublisher)
	logger.L(ctx).Info("item deleted", zap.String("item_id", id.String()))
	return nil
}

// GetByID returns a single item
func (s *ItemService) GetByID(ctx context.Context, id uuid.UUID) (*ItemResponse, error) {
	var response ItemResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		item, err := snap.Items.MustGet(id)
		if err != nil {
			return err
		}
		response = ToItemResponse(item)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &response, nil
}

// List returns items in creation order, narrowed by the filter
func (s *ItemService) List(ctx context.Context, filter ItemListFilter) ([]ItemResponse, error) {
	var responses []ItemResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		items := snap.Items.List()
		if filter.LowStockAt != nil {
			items = snap.Items.LowStock(*filter.LowStockAt)
		}

		search := catalog.FoldName(filter.Search)
		responses = make([]ItemResponse, 0, len(items))
		for _, item := range items {
			if filter.ExpiringBefore != nil && !item.IsExpiredAt(*filter.ExpiringBefore) {
				continue
			}
			if search != "" && !matchesSearch(item, search) {
				continue
			}
			responses = append(responses, ToItemResponse(item))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

// FindByTradeName returns every item whose trade name matches exactly,
// ignoring case and surrounding whitespace
func (s *ItemService) FindByTradeName(ctx context.Context, name string) ([]ItemResponse, error) {
	var responses []ItemResponse
	err := s.scope.View(ctx, func(snap *state.Snapshot) error {
		responses = ToItemResponses(snap.Items.FindByTradeName(name))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return responses, nil
}

func matchesSearch(item *catalog.Item, folded string) bool {
	return strings.Contains(catalog.FoldName(item.TradeName), folded) ||
		strings.Contains(catalog.FoldName(item.GenericName), folded)
}
