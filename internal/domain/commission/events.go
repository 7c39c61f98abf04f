package commission

import (
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Aggregate type constants
const (
	AggregateTypeReferrer          = "Referrer"
	AggregateTypeDiagnosticInvoice = "DiagnosticInvoice"
)

// Event type constants
const (
	EventTypeReferrerCreated           = "ReferrerCreated"
	EventTypeCommissionPaymentRecorded = "CommissionPaymentRecorded"
	EventTypeDiagnosticInvoiceRecorded = "DiagnosticInvoiceRecorded"
)

// ReferrerCreatedEvent is published when a referrer is registered
type ReferrerCreatedEvent struct {
	shared.BaseDomainEvent
	Name string `json:"name"`
}

// NewReferrerCreatedEvent creates a ReferrerCreatedEvent
func NewReferrerCreatedEvent(r *Referrer) *ReferrerCreatedEvent {
	return &ReferrerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReferrerCreated, AggregateTypeReferrer, r.ID),
		Name:            r.Name,
	}
}

// CommissionPaymentRecordedEvent is published for every payout
type CommissionPaymentRecordedEvent struct {
	shared.BaseDomainEvent
	PaymentID uuid.UUID       `json:"payment_id"`
	Amount    decimal.Decimal `json:"amount"`
	Balance   decimal.Decimal `json:"balance"`
}

// NewCommissionPaymentRecordedEvent creates the event with the post-payment balance
func NewCommissionPaymentRecordedEvent(p *CommissionPayment, balance decimal.Decimal) *CommissionPaymentRecordedEvent {
	return &CommissionPaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCommissionPaymentRecorded, AggregateTypeReferrer, p.ReferrerID),
		PaymentID:       p.ID,
		Amount:          p.Amount,
		Balance:         balance,
	}
}

// DiagnosticInvoiceRecordedEvent is published when a diagnostic bill is logged
type DiagnosticInvoiceRecordedEvent struct {
	shared.BaseDomainEvent
	Commission decimal.Decimal `json:"commission"`
}

// NewDiagnosticInvoiceRecordedEvent creates a DiagnosticInvoiceRecordedEvent
func NewDiagnosticInvoiceRecordedEvent(d *DiagnosticInvoice) *DiagnosticInvoiceRecordedEvent {
	return &DiagnosticInvoiceRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDiagnosticInvoiceRecorded, AggregateTypeDiagnosticInvoice, d.ID),
		Commission:      d.Commission,
	}
}
