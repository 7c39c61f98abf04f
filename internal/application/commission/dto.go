package commission

import (
	"time"

	"github.com/clinicrx/backend/internal/domain/commission"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateReferrerRequest registers a referring doctor or agent
type CreateReferrerRequest struct {
	Name string `json:"name" binding:"required,min=1,max=200"`
	Area string `json:"area" binding:"max=200"`
}

// RecordDiagnosticInvoiceRequest logs a diagnostic bill and the commission it generates
type RecordDiagnosticInvoiceRequest struct {
	PatientName string          `json:"patient_name" binding:"max=200"`
	ReferrerID  *uuid.UUID      `json:"referrer_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Commission  decimal.Decimal `json:"commission"`
	Date        time.Time       `json:"date"`
}

// RecordCommissionPaymentRequest records a payout to a referrer
type RecordCommissionPaymentRequest struct {
	ReferrerID uuid.UUID       `json:"referrer_id" binding:"required"`
	Amount     decimal.Decimal `json:"amount"`
	Method     string          `json:"method" binding:"omitempty,oneof=CASH BANK MOBILE CHEQUE cash bank mobile cheque"`
	Date       time.Time       `json:"date"`
	Note       string          `json:"note" binding:"max=500"`
}

// ReferrerResponse represents a referrer in API responses
type ReferrerResponse struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Area      string    `json:"area"`
	CreatedAt time.Time `json:"created_at"`
}

// DiagnosticInvoiceResponse represents a diagnostic bill
type DiagnosticInvoiceResponse struct {
	ID          uuid.UUID       `json:"id"`
	Date        time.Time       `json:"date"`
	PatientName string          `json:"patient_name"`
	ReferrerID  *uuid.UUID      `json:"referrer_id,omitempty"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Commission  decimal.Decimal `json:"commission"`
}

// CommissionPaymentResponse represents a payout
type CommissionPaymentResponse struct {
	ID         uuid.UUID       `json:"id"`
	ReferrerID uuid.UUID       `json:"referrer_id"`
	Amount     decimal.Decimal `json:"amount"`
	Date       time.Time       `json:"date"`
	Method     string          `json:"method"`
	Note       string          `json:"note,omitempty"`
}

// BalanceResponse is a referrer's commission position. Balance is negative
// when more was paid than generated.
type BalanceResponse struct {
	Referrer  ReferrerResponse `json:"referrer"`
	Generated decimal.Decimal  `json:"generated"`
	Paid      decimal.Decimal  `json:"paid"`
	Balance   decimal.Decimal  `json:"balance"`
	Overpaid  bool             `json:"overpaid"`
}

// StatementResponse is a balance plus the records behind it
type StatementResponse struct {
	BalanceResponse
	Invoices []DiagnosticInvoiceResponse `json:"invoices"`
	Payments []CommissionPaymentResponse `json:"payments"`
}

// PaymentResult is a recorded payout and the balance right after it
type PaymentResult struct {
	Payment CommissionPaymentResponse `json:"payment"`
	Balance BalanceResponse           `json:"balance"`
}

// ToReferrerResponse converts a domain Referrer
func ToReferrerResponse(r *commission.Referrer) ReferrerResponse {
	return ReferrerResponse{ID: r.ID, Name: r.Name, Area: r.Area, CreatedAt: r.CreatedAt}
}

// ToDiagnosticInvoiceResponse converts a domain DiagnosticInvoice
func ToDiagnosticInvoiceResponse(d *commission.DiagnosticInvoice) DiagnosticInvoiceResponse {
	return DiagnosticInvoiceResponse{
		ID:          d.ID,
		Date:        d.Date,
		PatientName: d.PatientName,
		ReferrerID:  d.ReferrerID,
		TotalAmount: d.TotalAmount,
		Commission:  d.Commission,
	}
}

// ToCommissionPaymentResponse converts a domain CommissionPayment
func ToCommissionPaymentResponse(p *commission.CommissionPayment) CommissionPaymentResponse {
	return CommissionPaymentResponse{
		ID:         p.ID,
		ReferrerID: p.ReferrerID,
		Amount:     p.Amount,
		Date:       p.Date,
		Method:     string(p.Method),
		Note:       p.Note,
	}
}

func toBalanceResponse(st commission.Statement) BalanceResponse {
	return BalanceResponse{
		Referrer:  ToReferrerResponse(st.Referrer),
		Generated: st.Generated,
		Paid:      st.Paid,
		Balance:   st.Balance,
		Overpaid:  st.Overpaid,
	}
}

func toStatementResponse(st commission.Statement) StatementResponse {
	resp := StatementResponse{
		BalanceResponse: toBalanceResponse(st),
		Invoices:        make([]DiagnosticInvoiceResponse, len(st.Invoices)),
		Payments:        make([]CommissionPaymentResponse, len(st.Payments)),
	}
	for i, inv := range st.Invoices {
		resp.Invoices[i] = ToDiagnosticInvoiceResponse(inv)
	}
	for i, p := range st.Payments {
		resp.Payments[i] = ToCommissionPaymentResponse(p)
	}
	return resp
}
