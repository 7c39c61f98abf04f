package trade

import (
	"time"

	appcatalog "github.com/clinicrx/backend/internal/application/catalog"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/domain/trade"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NameResolution tells a purchase line what to do when a new item's trade
// name already exists in the catalog
type NameResolution string

const (
	// NameResolutionNone rejects the line as ambiguous
	NameResolutionNone NameResolution = ""
	// NameResolutionMerge adds the quantity to an existing item
	NameResolutionMerge NameResolution = "merge"
	// NameResolutionCreate creates a separate item under the same name
	NameResolutionCreate NameResolution = "create"
)

// NewItemInput describes an item introduced by a purchase line
type NewItemInput struct {
	TradeName     string          `json:"trade_name" binding:"required,min=1,max=200"`
	GenericName   string          `json:"generic_name" binding:"max=200"`
	Formulation   string          `json:"formulation" binding:"max=100"`
	Strength      string          `json:"strength" binding:"max=100"`
	UnitPriceSell decimal.Decimal `json:"unit_price_sell"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	Resolution    NameResolution  `json:"resolution" binding:"omitempty,oneof=merge create"`
	// MergeInto picks the candidate when the name matches several items
	MergeInto *uuid.UUID `json:"merge_into"`
}

// PurchaseLineInput is one purchase line. Exactly one of ItemID and NewItem is set.
type PurchaseLineInput struct {
	ItemID    *uuid.UUID       `json:"item_id"`
	NewItem   *NewItemInput    `json:"new_item"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0,lte=1000000000"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// SalesLineInput is one sales line. UnitPrice defaults to the item's sell price.
type SalesLineInput struct {
	ItemID    uuid.UUID        `json:"item_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0,lte=1000000000"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// CreatePurchaseInvoiceRequest represents a request to post a purchase
type CreatePurchaseInvoiceRequest struct {
	SupplierName string              `json:"supplier_name" binding:"required,min=1,max=200"`
	Date         time.Time           `json:"date"`
	Lines        []PurchaseLineInput `json:"lines" binding:"required,min=1,dive"`
	Discount     decimal.Decimal     `json:"discount"`
	PaidAmount   decimal.Decimal     `json:"paid_amount"`
	OpeningStock bool                `json:"opening_stock"`
}

// EditPurchaseInvoiceRequest replaces the lines and settlement inputs of a purchase
type EditPurchaseInvoiceRequest struct {
	Lines           []PurchaseLineInput `json:"lines" binding:"required,min=1,dive"`
	Discount        decimal.Decimal     `json:"discount"`
	PaidAmount      decimal.Decimal     `json:"paid_amount"`
	ExpectedVersion int                 `json:"expected_version"`
}

// CustomerInput identifies the buyer of a sale
type CustomerInput struct {
	Name    string `json:"name" binding:"max=200"`
	Phone   string `json:"phone" binding:"max=50"`
	Address string `json:"address" binding:"max=500"`
}

func (c CustomerInput) toDomain() trade.Customer {
	return trade.Customer{Name: c.Name, Phone: c.Phone, Address: c.Address}
}

// CreateSalesInvoiceRequest represents a request to post a sale directly
type CreateSalesInvoiceRequest struct {
	Customer   CustomerInput    `json:"customer"`
	Date       time.Time        `json:"date"`
	Lines      []SalesLineInput `json:"lines" binding:"required,min=1,dive"`
	Discount   decimal.Decimal  `json:"discount"`
	PaidAmount decimal.Decimal  `json:"paid_amount"`
}

// EditSalesInvoiceRequest replaces the lines and settlement inputs of a sale.
// A nil Customer keeps the current one.
type EditSalesInvoiceRequest struct {
	Customer        *CustomerInput   `json:"customer"`
	Lines           []SalesLineInput `json:"lines" binding:"required,min=1,dive"`
	Discount        decimal.Decimal  `json:"discount"`
	PaidAmount      decimal.Decimal  `json:"paid_amount"`
	ExpectedVersion int              `json:"expected_version"`
}

// ReturnInvoiceRequest reverses an invoice
type ReturnInvoiceRequest struct {
	ExpectedVersion int `json:"expected_version"`
}

// OpenDraftRequest starts a sales draft
type OpenDraftRequest struct {
	Customer CustomerInput `json:"customer"`
}

// AddDraftLineRequest stages a line on a draft
type AddDraftLineRequest struct {
	ItemID    uuid.UUID        `json:"item_id" binding:"required"`
	Quantity  int64            `json:"quantity" binding:"required,gt=0,lte=1000000000"`
	UnitPrice *decimal.Decimal `json:"unit_price"`
}

// PostDraftRequest turns a draft into a posted sale
type PostDraftRequest struct {
	Date       time.Time       `json:"date"`
	Discount   decimal.Decimal `json:"discount"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
}

// InvoiceListFilter narrows an invoice listing
type InvoiceListFilter struct {
	Status string     `form:"status" binding:"omitempty,oneof=POSTED INITIAL RETURNED"`
	From   *time.Time `form:"from" time_format:"2006-01-02"`
	To     *time.Time `form:"to" time_format:"2006-01-02"`
	Search string     `form:"search"`
}

func (f InvoiceListFilter) matches(status trade.InvoiceStatus, date time.Time) bool {
	if f.Status != "" && string(status) != f.Status {
		return false
	}
	if f.From != nil && date.Before(*f.From) {
		return false
	}
	if f.To != nil && date.After(*f.To) {
		return false
	}
	return true
}

// LineItemResponse represents an invoice line in API responses
type LineItemResponse struct {
	ItemID    uuid.UUID       `json:"item_id"`
	ItemName  string          `json:"item_name"`
	Quantity  int64           `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// SettlementResponse carries the money fields shared by both invoice kinds
type SettlementResponse struct {
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      decimal.Decimal `json:"discount"`
	NetPayable    decimal.Decimal `json:"net_payable"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	PaymentStatus string          `json:"payment_status"`
}

// PurchaseInvoiceResponse represents a purchase invoice in API responses
type PurchaseInvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	Date          time.Time          `json:"date"`
	SupplierName  string             `json:"supplier_name"`
	Status        string             `json:"status"`
	Lines         []LineItemResponse `json:"lines"`
	SettlementResponse
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Version    int        `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// CustomerResponse represents a sales customer
type CustomerResponse struct {
	Name        string `json:"name"`
	Phone       string `json:"phone"`
	Address     string `json:"address"`
	DisplayName string `json:"display_name"`
}

// SalesInvoiceResponse represents a sales invoice in API responses
type SalesInvoiceResponse struct {
	ID            uuid.UUID          `json:"id"`
	InvoiceNumber string             `json:"invoice_number"`
	Date          time.Time          `json:"date"`
	Customer      CustomerResponse   `json:"customer"`
	Status        string             `json:"status"`
	Lines         []LineItemResponse `json:"lines"`
	SettlementResponse
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	Version    int        `json:"version"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

// DraftLineResponse is a staged line plus what is still available
type DraftLineResponse struct {
	LineItemResponse
	Available int64 `json:"available"`
}

// SalesDraftResponse represents an unsaved sale
type SalesDraftResponse struct {
	ID        uuid.UUID           `json:"id"`
	Customer  CustomerResponse    `json:"customer"`
	Lines     []DraftLineResponse `json:"lines"`
	Total     decimal.Decimal     `json:"total"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// PurchaseInvoiceResult is the outcome of a purchase operation: the invoice,
// the items whose stock changed and any reversal warnings
type PurchaseInvoiceResult struct {
	Invoice  PurchaseInvoiceResponse           `json:"invoice"`
	Items    []appcatalog.ItemResponse         `json:"items"`
	Warnings []shared.DanglingReferenceWarning `json:"warnings,omitempty"`
}

// SalesInvoiceResult is the outcome of a sales operation
type SalesInvoiceResult struct {
	Invoice  SalesInvoiceResponse              `json:"invoice"`
	Items    []appcatalog.ItemResponse         `json:"items"`
	Warnings []shared.DanglingReferenceWarning `json:"warnings,omitempty"`
}

// ToLineItemResponses converts domain lines
func ToLineItemResponses(lines []trade.LineItem) []LineItemResponse {
	out := make([]LineItemResponse, len(lines))
	for i, l := range lines {
		out[i] = LineItemResponse{
			ItemID:    l.ItemID,
			ItemName:  l.ItemName,
			Quantity:  l.Quantity,
			UnitPrice: l.UnitPrice,
			LineTotal: l.LineTotal,
		}
	}
	return out
}

// ToPurchaseInvoiceResponse converts a domain PurchaseInvoice
func ToPurchaseInvoiceResponse(p *trade.PurchaseInvoice) PurchaseInvoiceResponse {
	return PurchaseInvoiceResponse{
		ID:            p.ID,
		InvoiceNumber: p.InvoiceNumber,
		Date:          p.Date,
		SupplierName:  p.SupplierName,
		Status:        p.Status.String(),
		Lines:         ToLineItemResponses(p.Lines),
		SettlementResponse: SettlementResponse{
			TotalAmount:   p.TotalAmount,
			Discount:      p.Discount,
			NetPayable:    p.NetPayable,
			PaidAmount:    p.PaidAmount,
			DueAmount:     p.DueAmount,
			PaymentStatus: p.PaymentStatus().String(),
		},
		ReturnedAt: p.ReturnedAt,
		Version:    p.GetVersion(),
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

// ToCustomerResponse converts a domain Customer
func ToCustomerResponse(c trade.Customer) CustomerResponse {
	return CustomerResponse{
		Name:        c.Name,
		Phone:       c.Phone,
		Address:     c.Address,
		DisplayName: c.DisplayName(),
	}
}

// ToSalesInvoiceResponse converts a domain SalesInvoice
func ToSalesInvoiceResponse(s *trade.SalesInvoice) SalesInvoiceResponse {
	return SalesInvoiceResponse{
		ID:            s.ID,
		InvoiceNumber: s.InvoiceNumber,
		Date:          s.Date,
		Customer:      ToCustomerResponse(s.Customer),
		Status:        s.Status.String(),
		Lines:         ToLineItemResponses(s.Lines),
		SettlementResponse: SettlementResponse{
			TotalAmount:   s.TotalAmount,
			Discount:      s.Discount,
			NetPayable:    s.NetPayable,
			PaidAmount:    s.PaidAmount,
			DueAmount:     s.DueAmount,
			PaymentStatus: s.PaymentStatus().String(),
		},
		ReturnedAt: s.ReturnedAt,
		Version:    s.GetVersion(),
		CreatedAt:  s.CreatedAt,
		UpdatedAt:  s.UpdatedAt,
	}
}
