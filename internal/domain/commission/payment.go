package commission

import (
	"strings"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how a commission payout was made
type PaymentMethod string

const (
	PaymentMethodCash   PaymentMethod = "CASH"
	PaymentMethodBank   PaymentMethod = "BANK"
	PaymentMethodMobile PaymentMethod = "MOBILE"
	PaymentMethodCheque PaymentMethod = "CHEQUE"
)

// IsValid checks if the method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodBank, PaymentMethodMobile, PaymentMethodCheque:
		return true
	}
	return false
}

// ParsePaymentMethod accepts any case and defaults blank input to cash
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return PaymentMethodCash, nil
	}
	m := PaymentMethod(s)
	if !m.IsValid() {
		return "", shared.NewValidationError(shared.CodeValidationFailed, "method", "unknown payment method "+s)
	}
	return m, nil
}

// CommissionPayment is one manual payout to a referrer. Payments are append-only.
type CommissionPayment struct {
	shared.BaseEntity
	ReferrerID uuid.UUID
	Amount     decimal.Decimal
	Date       time.Time
	Method     PaymentMethod
	Note       string
}

// NewCommissionPayment validates and creates a payout record
func NewCommissionPayment(referrerID uuid.UUID, amount decimal.Decimal, method PaymentMethod, date time.Time, note string) (*CommissionPayment, error) {
	if referrerID == uuid.Nil {
		return nil, shared.NewValidationError(shared.CodeValidationFailed, "referrer_id", "referrer is required")
	}
	if !amount.IsPositive() {
		return nil, &shared.InvalidPaymentError{Amount: amount, Reason: "commission payment must be positive"}
	}
	if !method.IsValid() {
		return nil, shared.NewValidationError(shared.CodeValidationFailed, "method", "unknown payment method "+string(method))
	}
	if date.IsZero() {
		date = time.Now()
	}
	return &CommissionPayment{
		BaseEntity: shared.NewBaseEntity(),
		ReferrerID: referrerID,
		Amount:     amount,
		Date:       date,
		Method:     method,
		Note:       strings.TrimSpace(note),
	}, nil
}

// Clone returns a copy
func (p *CommissionPayment) Clone() *CommissionPayment {
	c := *p
	return &c
}
