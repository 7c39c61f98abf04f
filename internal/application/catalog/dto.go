package catalog

import (
	"time"

	"github.com/clinicrx/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateItemRequest represents a request to register an item
type CreateItemRequest struct {
	TradeName     string          `json:"trade_name" binding:"required,min=1,max=200"`
	GenericName   string          `json:"generic_name" binding:"max=200"`
	Formulation   string          `json:"formulation" binding:"max=100"`
	Strength      string          `json:"strength" binding:"max=100"`
	UnitPriceBuy  decimal.Decimal `json:"unit_price_buy"`
	UnitPriceSell decimal.Decimal `json:"unit_price_sell"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	// AllowDuplicateName registers the item even when the trade name is taken
	AllowDuplicateName bool `json:"allow_duplicate_name"`
}

func (r CreateItemRequest) attributes() catalog.ItemAttributes {
	return catalog.ItemAttributes{
		TradeName:     r.TradeName,
		GenericName:   r.GenericName,
		Formulation:   r.Formulation,
		Strength:      r.Strength,
		UnitPriceBuy:  r.UnitPriceBuy,
		UnitPriceSell: r.UnitPriceSell,
		ExpiryDate:    r.ExpiryDate,
	}
}

// UpdateItemRequest replaces an item's descriptive and price fields.
// Stock cannot be set here.
type UpdateItemRequest struct {
	TradeName       string          `json:"trade_name" binding:"required,min=1,max=200"`
	GenericName     string          `json:"generic_name" binding:"max=200"`
	Formulation     string          `json:"formulation" binding:"max=100"`
	Strength        string          `json:"strength" binding:"max=100"`
	UnitPriceBuy    decimal.Decimal `json:"unit_price_buy"`
	UnitPriceSell   decimal.Decimal `json:"unit_price_sell"`
	ExpiryDate      *time.Time      `json:"expiry_date"`
	ExpectedVersion int             `json:"expected_version"`
	// AllowDuplicateName permits renaming onto a trade name another item holds
	AllowDuplicateName bool `json:"allow_duplicate_name"`
}

func (r UpdateItemRequest) attributes() catalog.ItemAttributes {
	return catalog.ItemAttributes{
		TradeName:     r.TradeName,
		GenericName:   r.GenericName,
		Formulation:   r.Formulation,
		Strength:      r.Strength,
		UnitPriceBuy:  r.UnitPriceBuy,
		UnitPriceSell: r.UnitPriceSell,
		ExpiryDate:    r.ExpiryDate,
	}
}

// ItemListFilter narrows an item listing. Zero values mean no restriction.
type ItemListFilter struct {
	Search         string     `form:"search"`
	LowStockAt     *int64     `form:"low_stock_at" binding:"omitempty,min=0"`
	ExpiringBefore *time.Time `form:"expiring_before" time_format:"2006-01-02"`
}

// ItemResponse represents an item in API responses
type ItemResponse struct {
	ID            uuid.UUID       `json:"id"`
	TradeName     string          `json:"trade_name"`
	GenericName   string          `json:"generic_name"`
	Formulation   string          `json:"formulation"`
	Strength      string          `json:"strength"`
	Stock         int64           `json:"stock"`
	UnitPriceBuy  decimal.Decimal `json:"unit_price_buy"`
	UnitPriceSell decimal.Decimal `json:"unit_price_sell"`
	ExpiryDate    *time.Time      `json:"expiry_date,omitempty"`
	Version       int             `json:"version"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// ToItemResponse converts a domain Item to ItemResponse
func ToItemResponse(item *catalog.Item) ItemResponse {
	return ItemResponse{
		ID:            item.ID,
		TradeName:     item.TradeName,
		GenericName:   item.GenericName,
		Formulation:   item.Formulation,
		Strength:      item.Strength,
		Stock:         item.Stock,
		UnitPriceBuy:  item.UnitPriceBuy,
		UnitPriceSell: item.UnitPriceSell,
		ExpiryDate:    item.ExpiryDate,
		Version:       item.GetVersion(),
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

// ToItemResponses converts a slice of items
func ToItemResponses(items []*catalog.Item) []ItemResponse {
	responses := make([]ItemResponse, len(items))
	for i, item := range items {
		responses[i] = ToItemResponse(item)
	}
	return responses
}
