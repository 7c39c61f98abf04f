package trade

import (
	"errors"
	"testing"
	"time"

	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func createTestLine(t *testing.T, qty int64, price string) LineItem {
	t.Helper()
	line, err := NewLineItem(uuid.New(), "Napa", qty, dec(price))
	require.NoError(t, err)
	return line
}

func createTestPurchase(t *testing.T, lines ...LineItem) *PurchaseInvoice {
	t.Helper()
	inv, err := NewPurchaseInvoice("Square Pharma", time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), lines, dec("0"), dec("0"), false)
	require.NoError(t, err)
	return inv
}

func TestNewLineItem(t *testing.T) {
	t.Run("computes line total", func(t *testing.T) {
		line := createTestLine(t, 3, "2.50")
		assert.True(t, line.LineTotal.Equal(dec("7.5")))
	})

	t.Run("rejects zero quantity", func(t *testing.T) {
		_, err := NewLineItem(uuid.New(), "Napa", 0, dec("1"))
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeInvalidQuantity, ve.Code)
	})

	t.Run("rejects nil item", func(t *testing.T) {
		_, err := NewLineItem(uuid.Nil, "Napa", 1, dec("1"))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestNewPurchaseInvoice(t *testing.T) {
	t.Run("posted purchase", func(t *testing.T) {
		lines := []LineItem{createTestLine(t, 10, "5"), createTestLine(t, 2, "25")}
		inv, err := NewPurchaseInvoice(" Square Pharma ", time.Time{}, lines, dec("20"), dec("30"), false)
		require.NoError(t, err)

		assert.Equal(t, "Square Pharma", inv.SupplierName)
		assert.Equal(t, InvoiceStatusPosted, inv.Status)
		assert.False(t, inv.Date.IsZero())
		assert.True(t, inv.TotalAmount.Equal(dec("100")))
		assert.True(t, inv.NetPayable.Equal(dec("80")))
		assert.True(t, inv.DueAmount.Equal(dec("50")))
		assert.Contains(t, inv.InvoiceNumber, "PUR-")
		assert.Equal(t, inventory.DirectionPurchase, inv.Direction())

		events := inv.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, EventTypePurchaseInvoicePosted, events[0].EventType())
	})

	t.Run("opening stock is Initial", func(t *testing.T) {
		inv, err := NewPurchaseInvoice("Opening", time.Now(), []LineItem{createTestLine(t, 1, "1")}, dec("0"), dec("0"), true)
		require.NoError(t, err)
		assert.Equal(t, InvoiceStatusInitial, inv.Status)
		assert.True(t, inv.IsOpeningStock())
	})

	t.Run("empty supplier", func(t *testing.T) {
		_, err := NewPurchaseInvoice("  ", time.Now(), []LineItem{createTestLine(t, 1, "1")}, dec("0"), dec("0"), false)
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, "supplier_name", ve.Field)
	})

	t.Run("empty lines", func(t *testing.T) {
		_, err := NewPurchaseInvoice("Square", time.Now(), nil, dec("0"), dec("0"), false)
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeEmptyLines, ve.Code)
	})

	t.Run("paid above net", func(t *testing.T) {
		_, err := NewPurchaseInvoice("Square", time.Now(), []LineItem{createTestLine(t, 1, "10")}, dec("0"), dec("11"), false)
		var pe *shared.InvalidPaymentError
		require.True(t, errors.As(err, &pe))
		assert.NotEqual(t, uuid.Nil, pe.InvoiceID)
	})
}

func TestPurchaseInvoice_Revise(t *testing.T) {
	original := createTestLine(t, 10, "5")
	inv := createTestPurchase(t, original)
	inv.ClearDomainEvents()
	id, date, created := inv.ID, inv.Date, inv.CreatedAt

	revised := original
	revised.Quantity = 6
	revised.recalculate()
	require.NoError(t, inv.Revise([]LineItem{revised}, dec("5"), dec("10")))

	assert.Equal(t, id, inv.ID)
	assert.Equal(t, date, inv.Date)
	assert.Equal(t, created, inv.CreatedAt)
	assert.Equal(t, int64(6), inv.Lines[0].Quantity)
	assert.True(t, inv.TotalAmount.Equal(dec("30")))
	assert.True(t, inv.DueAmount.Equal(dec("15")))
	assert.Equal(t, 2, inv.GetVersion())
	assert.True(t, inv.Consistent())

	t.Run("rejects empty lines without mutation", func(t *testing.T) {
		err := inv.Revise(nil, dec("0"), dec("0"))
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
		assert.Equal(t, int64(6), inv.Lines[0].Quantity)
	})

	t.Run("returned invoice cannot be edited", func(t *testing.T) {
		other := createTestPurchase(t, createTestLine(t, 1, "1"))
		require.NoError(t, other.MarkReturned())
		err := other.Revise([]LineItem{createTestLine(t, 1, "1")}, dec("0"), dec("0"))
		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, "INVALID_STATE", de.Code)
	})
}

func TestPurchaseInvoice_RecordPayment(t *testing.T) {
	inv, err := NewPurchaseInvoice("Square", time.Now(), []LineItem{createTestLine(t, 10, "100")}, dec("0"), dec("1000"), false)
	require.NoError(t, err)

	err = inv.RecordPayment(dec("50"))
	var pe *shared.InvalidPaymentError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, inv.ID, pe.InvoiceID)
	assert.True(t, inv.PaidAmount.Equal(dec("1000")))
	assert.Equal(t, 1, inv.GetVersion())
}

func TestPurchaseInvoice_MarkReturned(t *testing.T) {
	inv := createTestPurchase(t, createTestLine(t, 1, "1"))
	require.NoError(t, inv.MarkReturned())

	assert.Equal(t, InvoiceStatusReturned, inv.Status)
	assert.NotNil(t, inv.ReturnedAt)
	assert.Error(t, inv.MarkReturned())
	assert.Error(t, inv.RecordPayment(dec("1")))
}

func TestPurchaseInvoice_Clone(t *testing.T) {
	inv := createTestPurchase(t, createTestLine(t, 1, "1"))
	clone := inv.Clone()
	clone.Lines[0].Quantity = 99

	assert.Equal(t, int64(1), inv.Lines[0].Quantity)
	assert.Empty(t, clone.GetDomainEvents())
	assert.NotEmpty(t, inv.GetDomainEvents())
}
