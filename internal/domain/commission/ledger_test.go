package commission

import (
	"errors"
	"testing"
	"time"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestReferrer(t *testing.T, name string) *Referrer {
	t.Helper()
	r, err := NewReferrer(name, "Mirpur")
	require.NoError(t, err)
	return r
}

func createTestDiagnostic(t *testing.T, referrer *Referrer, commission int64) *DiagnosticInvoice {
	t.Helper()
	var ref *uuid.UUID
	if referrer != nil {
		ref = &referrer.ID
	}
	inv, err := NewDiagnosticInvoice("Patient", ref, decimal.NewFromInt(commission*5), decimal.NewFromInt(commission), time.Now())
	require.NoError(t, err)
	return inv
}

func createTestPayment(t *testing.T, referrer *Referrer, amount int64) *CommissionPayment {
	t.Helper()
	p, err := NewCommissionPayment(referrer.ID, decimal.NewFromInt(amount), PaymentMethodCash, time.Now(), "")
	require.NoError(t, err)
	return p
}

func TestLedger_Balance(t *testing.T) {
	r := createTestReferrer(t, "Dr. Rahman")
	other := createTestReferrer(t, "Dr. Karim")

	invoices := []*DiagnosticInvoice{
		createTestDiagnostic(t, r, 200),
		createTestDiagnostic(t, r, 150),
		createTestDiagnostic(t, other, 75),
		createTestDiagnostic(t, nil, 0),
	}
	payments := []*CommissionPayment{createTestPayment(t, r, 100)}

	ledger := NewLedger(invoices, payments)
	assert.True(t, ledger.GeneratedFor(r.ID).Equal(decimal.NewFromInt(350)))
	assert.True(t, ledger.PaidFor(r.ID).Equal(decimal.NewFromInt(100)))
	assert.True(t, ledger.Balance(r.ID).Equal(decimal.NewFromInt(250)))
	assert.True(t, ledger.Balance(other.ID).Equal(decimal.NewFromInt(75)))
}

func TestLedger_Overpaid(t *testing.T) {
	r := createTestReferrer(t, "Dr. Rahman")
	ledger := NewLedger(
		[]*DiagnosticInvoice{createTestDiagnostic(t, r, 100)},
		[]*CommissionPayment{createTestPayment(t, r, 80), createTestPayment(t, r, 40)},
	)

	st := ledger.Statement(r)
	assert.True(t, st.Balance.Equal(decimal.NewFromInt(-20)))
	assert.True(t, st.Overpaid)
	assert.Len(t, st.Invoices, 1)
	assert.Len(t, st.Payments, 2)
}

func TestLedger_Summary(t *testing.T) {
	a := createTestReferrer(t, "A")
	b := createTestReferrer(t, "B")
	ledger := NewLedger([]*DiagnosticInvoice{createTestDiagnostic(t, a, 10)}, nil)

	summary := ledger.Summary([]*Referrer{a, b})
	require.Len(t, summary, 2)
	assert.True(t, summary[0].Balance.Equal(decimal.NewFromInt(10)))
	assert.True(t, summary[1].Balance.IsZero())
	assert.Nil(t, summary[0].Payments)
}

func TestNewCommissionPayment(t *testing.T) {
	r := createTestReferrer(t, "Dr. Rahman")

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewCommissionPayment(r.ID, decimal.Zero, PaymentMethodCash, time.Now(), "")
		var pe *shared.InvalidPaymentError
		require.True(t, errors.As(err, &pe))
	})

	t.Run("rejects unknown method", func(t *testing.T) {
		_, err := NewCommissionPayment(r.ID, decimal.NewFromInt(1), PaymentMethod("BARTER"), time.Now(), "")
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("defaults date", func(t *testing.T) {
		p, err := NewCommissionPayment(r.ID, decimal.NewFromInt(1), PaymentMethodBank, time.Time{}, " note ")
		require.NoError(t, err)
		assert.False(t, p.Date.IsZero())
		assert.Equal(t, "note", p.Note)
	})
}

func TestParsePaymentMethod(t *testing.T) {
	m, err := ParsePaymentMethod(" mobile ")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodMobile, m)

	m, err = ParsePaymentMethod("")
	require.NoError(t, err)
	assert.Equal(t, PaymentMethodCash, m)

	_, err = ParsePaymentMethod("barter")
	assert.Error(t, err)
}

func TestNewDiagnosticInvoice(t *testing.T) {
	t.Run("commission needs referrer", func(t *testing.T) {
		_, err := NewDiagnosticInvoice("P", nil, decimal.NewFromInt(100), decimal.NewFromInt(10), time.Now())
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})

	t.Run("copies referrer id", func(t *testing.T) {
		id := uuid.New()
		inv, err := NewDiagnosticInvoice("P", &id, decimal.NewFromInt(100), decimal.NewFromInt(10), time.Now())
		require.NoError(t, err)
		id = uuid.New()
		assert.NotEqual(t, id, *inv.ReferrerID)
	})
}

func TestNewReferrer(t *testing.T) {
	_, err := NewReferrer(" ", "Area")
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}
