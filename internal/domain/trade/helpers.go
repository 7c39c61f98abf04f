package trade

import (
	"errors"
	"strings"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// withInvoiceID stamps payment errors with the invoice they concern
func withInvoiceID(err error, id uuid.UUID) error {
	var pe *shared.InvalidPaymentError
	if errors.As(err, &pe) {
		pe.InvoiceID = id
	}
	return err
}

func invoiceNumber(prefix string, id uuid.UUID) string {
	return prefix + "-" + strings.ToUpper(id.String()[:8])
}

func normalizeDate(date time.Time) time.Time {
	if date.IsZero() {
		return time.Now()
	}
	return date
}
