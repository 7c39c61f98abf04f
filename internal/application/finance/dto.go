package finance

import (
	"github.com/clinicrx/backend/internal/domain/finance"
	"github.com/clinicrx/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceKind tells which side of the books a payment settles
type InvoiceKind string

const (
	InvoiceKindPurchase InvoiceKind = "purchase"
	InvoiceKindSales    InvoiceKind = "sales"
)

// RecordPaymentRequest records a partial payment against an invoice due
type RecordPaymentRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	ExpectedVersion int             `json:"expected_version"`
}

// SettlementResponse is an invoice's money state after a payment
type SettlementResponse struct {
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	InvoiceNumber string          `json:"invoice_number"`
	Kind          InvoiceKind     `json:"kind"`
	Counterparty  string          `json:"counterparty"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	Discount      decimal.Decimal `json:"discount"`
	NetPayable    decimal.Decimal `json:"net_payable"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	DueAmount     decimal.Decimal `json:"due_amount"`
	PaymentStatus string          `json:"payment_status"`
	Version       int             `json:"version"`
}

func toSettlementResponse(id uuid.UUID, number string, kind InvoiceKind, counterparty string, s finance.Settlement, version int) SettlementResponse {
	return SettlementResponse{
		InvoiceID:     id,
		InvoiceNumber: number,
		Kind:          kind,
		Counterparty:  counterparty,
		TotalAmount:   s.TotalAmount,
		Discount:      s.Discount,
		NetPayable:    s.NetPayable,
		PaidAmount:    s.PaidAmount,
		DueAmount:     s.DueAmount,
		PaymentStatus: s.PaymentStatus().String(),
		Version:       version,
	}
}

// CounterpartyDueResponse is the outstanding balance with one supplier or customer
type CounterpartyDueResponse struct {
	Name         string          `json:"name"`
	InvoiceCount int             `json:"invoice_count"`
	NetPayable   decimal.Decimal `json:"net_payable"`
	PaidAmount   decimal.Decimal `json:"paid_amount"`
	DueAmount    decimal.Decimal `json:"due_amount"`
}

// DueSummaryResponse lists what the clinic owes and is owed
type DueSummaryResponse struct {
	Suppliers       []CounterpartyDueResponse `json:"suppliers"`
	Customers       []CounterpartyDueResponse `json:"customers"`
	TotalPayable    decimal.Decimal           `json:"total_payable"`
	TotalReceivable decimal.Decimal           `json:"total_receivable"`
}

func toDueSummaryResponse(s report.DueSummary) DueSummaryResponse {
	convert := func(in []report.CounterpartyDue) []CounterpartyDueResponse {
		out := make([]CounterpartyDueResponse, len(in))
		for i, d := range in {
			out[i] = CounterpartyDueResponse{
				Name:         d.Name,
				InvoiceCount: d.InvoiceCount,
				NetPayable:   d.NetPayable,
				PaidAmount:   d.PaidAmount,
				DueAmount:    d.DueAmount,
			}
		}
		return out
	}
	return DueSummaryResponse{
		Suppliers:       convert(s.Suppliers),
		Customers:       convert(s.Customers),
		TotalPayable:    s.TotalPayable,
		TotalReceivable: s.TotalReceivable,
	}
}
