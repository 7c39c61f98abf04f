package finance

import (
	"errors"
	"testing"

	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestNewSettlement(t *testing.T) {
	t.Run("computes net and due", func(t *testing.T) {
		s, err := NewSettlement(d("1000"), d("100"), d("300"))
		require.NoError(t, err)

		assert.True(t, s.NetPayable.Equal(d("900")))
		assert.True(t, s.DueAmount.Equal(d("600")))
		assert.Equal(t, PaymentStatusPartial, s.PaymentStatus())
		assert.True(t, s.Consistent())
	})

	t.Run("fully paid", func(t *testing.T) {
		s, err := NewSettlement(d("50"), d("0"), d("50"))
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusPaid, s.PaymentStatus())
		assert.True(t, s.IsSettled())
	})

	t.Run("unpaid", func(t *testing.T) {
		s, err := NewSettlement(d("50"), d("0"), d("0"))
		require.NoError(t, err)
		assert.Equal(t, PaymentStatusUnpaid, s.PaymentStatus())
	})

	t.Run("rejects negative discount", func(t *testing.T) {
		_, err := NewSettlement(d("50"), d("-1"), d("0"))
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Equal(t, shared.CodeInvalidDiscount, ve.Code)
	})

	t.Run("rejects discount above total", func(t *testing.T) {
		_, err := NewSettlement(d("50"), d("60"), d("0"))
		var ve *shared.ValidationError
		require.True(t, errors.As(err, &ve))
	})

	t.Run("rejects overpayment", func(t *testing.T) {
		_, err := NewSettlement(d("50"), d("10"), d("41"))
		var pe *shared.InvalidPaymentError
		require.True(t, errors.As(err, &pe))
	})

	t.Run("tolerates rounding on paid amount", func(t *testing.T) {
		s, err := NewSettlement(d("33.33"), d("0"), d("33.34"))
		require.NoError(t, err)
		assert.True(t, s.IsSettled())
	})
}

func TestSettlement_ApplyPayment(t *testing.T) {
	t.Run("partial then full", func(t *testing.T) {
		s, err := NewSettlement(d("1000"), d("0"), d("0"))
		require.NoError(t, err)

		s, err = s.ApplyPayment(d("400"))
		require.NoError(t, err)
		assert.True(t, s.PaidAmount.Equal(d("400")))
		assert.True(t, s.DueAmount.Equal(d("600")))

		s, err = s.ApplyPayment(d("600"))
		require.NoError(t, err)
		assert.True(t, s.DueAmount.IsZero())
		assert.True(t, s.Consistent())
	})

	t.Run("rejects payment on settled invoice", func(t *testing.T) {
		s, err := NewSettlement(d("1000"), d("0"), d("1000"))
		require.NoError(t, err)

		after, err := s.ApplyPayment(d("50"))
		var pe *shared.InvalidPaymentError
		require.True(t, errors.As(err, &pe))
		assert.True(t, after.PaidAmount.Equal(d("1000")))
		assert.True(t, s.PaidAmount.Equal(d("1000")))
	})

	t.Run("rejects non-positive", func(t *testing.T) {
		s, err := NewSettlement(d("10"), d("0"), d("0"))
		require.NoError(t, err)

		for _, amount := range []string{"0", "-5"} {
			_, err := s.ApplyPayment(d(amount))
			assert.ErrorIs(t, err, shared.ErrInvalidPayment, amount)
		}
	})
}
