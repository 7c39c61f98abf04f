package trade

import (
	"github.com/clinicrx/backend/internal/domain/finance"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypePurchaseInvoice = "PurchaseInvoice"
	AggregateTypeSalesInvoice    = "SalesInvoice"
)

// Event type constants
const (
	EventTypePurchaseInvoicePosted   = "PurchaseInvoicePosted"
	EventTypePurchaseInvoiceEdited   = "PurchaseInvoiceEdited"
	EventTypePurchaseInvoiceReturned = "PurchaseInvoiceReturned"
	EventTypeSalesInvoicePosted      = "SalesInvoicePosted"
	EventTypeSalesInvoiceEdited      = "SalesInvoiceEdited"
	EventTypeSalesInvoiceReturned    = "SalesInvoiceReturned"
	EventTypeInvoicePaymentRecorded  = "InvoicePaymentRecorded"
)

// InvoicePostedEvent is published when an invoice's lines are first applied
type InvoicePostedEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Status     InvoiceStatus   `json:"status"`
	NetPayable decimal.Decimal `json:"net_payable"`
	PaidAmount decimal.Decimal `json:"paid_amount"`
	LineCount  int             `json:"line_count"`
}

// NewPurchaseInvoicePostedEvent creates a posted event for a purchase
func NewPurchaseInvoicePostedEvent(p *PurchaseInvoice) *InvoicePostedEvent {
	return &InvoicePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseInvoicePosted, AggregateTypePurchaseInvoice, p.ID),
		InvoiceID:       p.ID,
		Status:          p.Status,
		NetPayable:      p.NetPayable,
		PaidAmount:      p.PaidAmount,
		LineCount:       len(p.Lines),
	}
}

// NewSalesInvoicePostedEvent creates a posted event for a sale
func NewSalesInvoicePostedEvent(s *SalesInvoice) *InvoicePostedEvent {
	return &InvoicePostedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesInvoicePosted, AggregateTypeSalesInvoice, s.ID),
		InvoiceID:       s.ID,
		Status:          s.Status,
		NetPayable:      s.NetPayable,
		PaidAmount:      s.PaidAmount,
		LineCount:       len(s.Lines),
	}
}

// InvoiceEditedEvent is published after an edit replaced the applied lines
type InvoiceEditedEvent struct {
	shared.BaseDomainEvent
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	PreviousLines int             `json:"previous_lines"`
	NetPayable    decimal.Decimal `json:"net_payable"`
	DueAmount     decimal.Decimal `json:"due_amount"`
}

// NewPurchaseInvoiceEditedEvent creates an edited event for a purchase
func NewPurchaseInvoiceEditedEvent(p *PurchaseInvoice, previous []LineItem) *InvoiceEditedEvent {
	return &InvoiceEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseInvoiceEdited, AggregateTypePurchaseInvoice, p.ID),
		InvoiceID:       p.ID,
		PreviousLines:   len(previous),
		NetPayable:      p.NetPayable,
		DueAmount:       p.DueAmount,
	}
}

// NewSalesInvoiceEditedEvent creates an edited event for a sale
func NewSalesInvoiceEditedEvent(s *SalesInvoice, previous []LineItem) *InvoiceEditedEvent {
	return &InvoiceEditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesInvoiceEdited, AggregateTypeSalesInvoice, s.ID),
		InvoiceID:       s.ID,
		PreviousLines:   len(previous),
		NetPayable:      s.NetPayable,
		DueAmount:       s.DueAmount,
	}
}

// InvoiceReturnedEvent is published when an invoice is reversed and made terminal
type InvoiceReturnedEvent struct {
	shared.BaseDomainEvent
	InvoiceID uuid.UUID `json:"invoice_id"`
}

// NewPurchaseInvoiceReturnedEvent creates a returned event for a purchase
func NewPurchaseInvoiceReturnedEvent(p *PurchaseInvoice) *InvoiceReturnedEvent {
	return &InvoiceReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseInvoiceReturned, AggregateTypePurchaseInvoice, p.ID),
		InvoiceID:       p.ID,
	}
}

// NewSalesInvoiceReturnedEvent creates a returned event for a sale
func NewSalesInvoiceReturnedEvent(s *SalesInvoice) *InvoiceReturnedEvent {
	return &InvoiceReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSalesInvoiceReturned, AggregateTypeSalesInvoice, s.ID),
		InvoiceID:       s.ID,
	}
}

// PaymentRecordedEvent is published for every accepted due payment
type PaymentRecordedEvent struct {
	shared.BaseDomainEvent
	InvoiceID  uuid.UUID             `json:"invoice_id"`
	Amount     decimal.Decimal       `json:"amount"`
	PaidAmount decimal.Decimal       `json:"paid_amount"`
	DueAmount  decimal.Decimal       `json:"due_amount"`
	Status     finance.PaymentStatus `json:"payment_status"`
}

// NewPaymentRecordedEvent creates a PaymentRecordedEvent
func NewPaymentRecordedEvent(aggType string, invoiceID uuid.UUID, amount decimal.Decimal, s finance.Settlement) *PaymentRecordedEvent {
	return &PaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentRecorded, aggType, invoiceID),
		InvoiceID:       invoiceID,
		Amount:          amount,
		PaidAmount:      s.PaidAmount,
		DueAmount:       s.DueAmount,
		Status:          s.PaymentStatus(),
	}
}
