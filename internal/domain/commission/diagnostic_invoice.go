package commission

import (
	"strings"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiagnosticInvoice is a clinic/diagnostic bill owned by the billing desk.
// The commission ledger only reads its referrer reference and commission field.
type DiagnosticInvoice struct {
	shared.BaseEntity
	Date        time.Time
	PatientName string
	ReferrerID  *uuid.UUID
	TotalAmount decimal.Decimal
	Commission  decimal.Decimal
}

// NewDiagnosticInvoice records a diagnostic bill with an optional referrer
func NewDiagnosticInvoice(patientName string, referrerID *uuid.UUID, total, commission decimal.Decimal, date time.Time) (*DiagnosticInvoice, error) {
	if total.IsNegative() {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "total_amount", "total cannot be negative")
	}
	if commission.IsNegative() {
		return nil, shared.NewValidationError(shared.CodeInvalidAmount, "commission", "commission cannot be negative")
	}
	if referrerID == nil && commission.IsPositive() {
		return nil, shared.NewValidationError(shared.CodeValidationFailed, "referrer_id", "commission requires a referrer")
	}
	if date.IsZero() {
		date = time.Now()
	}
	var ref *uuid.UUID
	if referrerID != nil {
		id := *referrerID
		ref = &id
	}
	return &DiagnosticInvoice{
		BaseEntity:  shared.NewBaseEntity(),
		Date:        date,
		PatientName: strings.TrimSpace(patientName),
		ReferrerID:  ref,
		TotalAmount: total,
		Commission:  commission,
	}, nil
}

// ReferredBy reports whether the invoice references the given referrer
func (d *DiagnosticInvoice) ReferredBy(referrerID uuid.UUID) bool {
	return d.ReferrerID != nil && *d.ReferrerID == referrerID
}

// Clone returns a copy
func (d *DiagnosticInvoice) Clone() *DiagnosticInvoice {
	c := *d
	if d.ReferrerID != nil {
		id := *d.ReferrerID
		c.ReferrerID = &id
	}
	return &c
}
