package finance

import (
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentStatus is derived from the due amount, never stored on its own
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "UNPAID"
	PaymentStatusPartial PaymentStatus = "PARTIAL"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

// String returns the string representation of PaymentStatus
func (s PaymentStatus) String() string {
	return string(s)
}

// Settlement holds the money side of an invoice:
//
//	NetPayable = TotalAmount - Discount
//	DueAmount  = NetPayable - PaidAmount
type Settlement struct {
	TotalAmount decimal.Decimal
	Discount    decimal.Decimal
	NetPayable  decimal.Decimal
	PaidAmount  decimal.Decimal
	DueAmount   decimal.Decimal
}

// NewSettlement computes a settlement from scratch
func NewSettlement(total, discount, paid decimal.Decimal) (Settlement, error) {
	if total.IsNegative() {
		return Settlement{}, shared.NewValidationError(shared.CodeInvalidAmount, "total_amount", "total cannot be negative")
	}
	if discount.IsNegative() {
		return Settlement{}, shared.NewValidationError(shared.CodeInvalidDiscount, "discount", "discount cannot be negative")
	}
	if shared.ExceedsWithTolerance(discount, total) {
		return Settlement{}, shared.NewValidationError(shared.CodeInvalidDiscount, "discount", "discount cannot exceed total amount")
	}

	net := total.Sub(discount)
	if net.IsNegative() {
		net = decimal.Zero
	}
	if paid.IsNegative() {
		return Settlement{}, &shared.InvalidPaymentError{Amount: paid, Due: net, Reason: "paid amount cannot be negative"}
	}
	if shared.ExceedsWithTolerance(paid, net) {
		return Settlement{}, &shared.InvalidPaymentError{Amount: paid, Due: net, Reason: "paid amount exceeds net payable"}
	}

	return Settlement{
		TotalAmount: total,
		Discount:    discount,
		NetPayable:  net,
		PaidAmount:  paid,
		DueAmount:   net.Sub(paid),
	}, nil
}

// ApplyPayment returns the settlement after a partial payment. Payments are
// rejected when non-positive or larger than the current due.
func (s Settlement) ApplyPayment(amount decimal.Decimal) (Settlement, error) {
	if !amount.IsPositive() {
		return s, &shared.InvalidPaymentError{Amount: amount, Due: s.DueAmount, Reason: "payment amount must be positive"}
	}
	if shared.ExceedsWithTolerance(amount, s.DueAmount) {
		return s, &shared.InvalidPaymentError{Amount: amount, Due: s.DueAmount, Reason: "payment amount exceeds due " + s.DueAmount.StringFixed(2)}
	}

	next := s
	next.PaidAmount = s.PaidAmount.Add(amount)
	next.DueAmount = s.NetPayable.Sub(next.PaidAmount)
	return next, nil
}

// PaymentStatus derives the payment status
func (s Settlement) PaymentStatus() PaymentStatus {
	switch {
	case shared.IsSettledAmount(s.DueAmount):
		return PaymentStatusPaid
	case s.PaidAmount.IsPositive():
		return PaymentStatusPartial
	default:
		return PaymentStatusUnpaid
	}
}

// IsSettled reports whether nothing remains due
func (s Settlement) IsSettled() bool {
	return s.PaymentStatus() == PaymentStatusPaid
}

// Consistent reports whether the stored fields satisfy the settlement identities
// and the paid amount does not exceed the net payable.
func (s Settlement) Consistent() bool {
	return shared.ApproxEqual(s.NetPayable, s.TotalAmount.Sub(s.Discount)) &&
		shared.ApproxEqual(s.DueAmount, s.NetPayable.Sub(s.PaidAmount)) &&
		!shared.ExceedsWithTolerance(s.PaidAmount, s.NetPayable)
}
