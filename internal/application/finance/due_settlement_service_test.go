package finance

import (
	"context"
	"testing"

	apptrade "github.com/clinicrx/backend/internal/application/trade"
	"github.com/clinicrx/backend/internal/domain/shared"
	"github.com/clinicrx/backend/internal/infrastructure/store"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	purchases *apptrade.PurchaseInvoiceService
	sales     *apptrade.SalesInvoiceService
	dues      *DueSettlementService
}

func newTestEnv() *testEnv {
	st := store.NewMemoryStore(nil, nil)
	return &testEnv{
		purchases: apptrade.NewPurchaseInvoiceService(st),
		sales:     apptrade.NewSalesInvoiceService(st),
		dues:      NewDueSettlementService(st),
	}
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func (e *testEnv) purchase(t *testing.T, supplier string, unitPrice, paid string) *apptrade.PurchaseInvoiceResult {
	t.Helper()
	price := dec(unitPrice)
	res, err := e.purchases.Create(context.Background(), apptrade.CreatePurchaseInvoiceRequest{
		SupplierName: supplier,
		Lines: []apptrade.PurchaseLineInput{{
			NewItem:   &apptrade.NewItemInput{TradeName: "Item " + uuid.NewString()[:8], UnitPriceSell: price},
			Quantity:  10,
			UnitPrice: &price,
		}},
		PaidAmount: dec(paid),
	})
	require.NoError(t, err)
	return res
}

func TestDueSettlementService_RecordPurchasePayment(t *testing.T) {
	ctx := context.Background()

	t.Run("partial then full", func(t *testing.T) {
		env := newTestEnv()
		inv := env.purchase(t, "Acme", "100", "0")

		resp, err := env.dues.RecordPurchasePayment(ctx, inv.Invoice.ID, RecordPaymentRequest{Amount: dec("400")})
		require.NoError(t, err)
		assert.True(t, dec("600").Equal(resp.DueAmount))
		assert.Equal(t, "PARTIAL", resp.PaymentStatus)

		resp, err = env.dues.RecordPurchasePayment(ctx, inv.Invoice.ID, RecordPaymentRequest{Amount: dec("600"), ExpectedVersion: resp.Version})
		require.NoError(t, err)
		assert.True(t, resp.DueAmount.IsZero())
		assert.Equal(t, "PAID", resp.PaymentStatus)
	})

	t.Run("payment on a settled invoice is rejected", func(t *testing.T) {
		env := newTestEnv()
		inv := env.purchase(t, "Acme", "100", "1000")

		_, err := env.dues.RecordPurchasePayment(ctx, inv.Invoice.ID, RecordPaymentRequest{Amount: dec("50")})
		var perr *shared.InvalidPaymentError
		require.ErrorAs(t, err, &perr)
		assert.Equal(t, inv.Invoice.ID, perr.InvoiceID)
		assert.True(t, perr.Due.IsZero())

		got, err := env.purchases.GetByID(ctx, inv.Invoice.ID)
		require.NoError(t, err)
		assert.True(t, dec("1000").Equal(got.PaidAmount))
	})

	t.Run("amount checks", func(t *testing.T) {
		env := newTestEnv()
		inv := env.purchase(t, "Acme", "10", "0")

		for _, amount := range []string{"0", "-5", "100.02"} {
			_, err := env.dues.RecordPurchasePayment(ctx, inv.Invoice.ID, RecordPaymentRequest{Amount: dec(amount)})
			assert.ErrorIs(t, err, shared.ErrInvalidPayment, amount)
		}

		resp, err := env.dues.RecordPurchasePayment(ctx, inv.Invoice.ID, RecordPaymentRequest{Amount: dec("100.005")})
		require.NoError(t, err)
		assert.Equal(t, "PAID", resp.PaymentStatus)
	})

	t.Run("returned invoice carries no due", func(t *testing.T) {
		env := newTestEnv()
		inv := env.purchase(t, "Acme", "10", "0")
		_, err := env.purchases.Return(ctx, inv.Invoice.ID, apptrade.ReturnInvoiceRequest{})
		require.NoError(t, err)

		_, err = env.dues.RecordPurchasePayment(ctx, inv.Invoice.ID, RecordPaymentRequest{Amount: dec("1")})
		assert.Equal(t, "INVALID_STATE", shared.ErrorCode(err))
	})

	t.Run("unknown invoice", func(t *testing.T) {
		env := newTestEnv()
		_, err := env.dues.RecordPurchasePayment(ctx, uuid.New(), RecordPaymentRequest{Amount: dec("1")})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestDueSettlementService_RecordSalesPayment(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	stocked := env.purchase(t, "Acme", "5", "50")

	sale, err := env.sales.Create(ctx, apptrade.CreateSalesInvoiceRequest{
		Customer: apptrade.CustomerInput{Name: "Rahim"},
		Lines:    []apptrade.SalesLineInput{{ItemID: stocked.Items[0].ID, Quantity: 4}},
	})
	require.NoError(t, err)

	resp, err := env.dues.RecordSalesPayment(ctx, sale.Invoice.ID, RecordPaymentRequest{Amount: dec("5")})
	require.NoError(t, err)
	assert.Equal(t, InvoiceKindSales, resp.Kind)
	assert.Equal(t, "Rahim", resp.Counterparty)
	assert.True(t, dec("15").Equal(resp.DueAmount))

	_, err = env.dues.RecordSalesPayment(ctx, sale.Invoice.ID, RecordPaymentRequest{Amount: dec("5"), ExpectedVersion: sale.Invoice.Version})
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestDueSettlementService_GetDueSummary(t *testing.T) {
	ctx := context.Background()
	env := newTestEnv()
	env.purchase(t, "Acme", "10", "40")
	env.purchase(t, "Acme", "10", "100")
	env.purchase(t, "Beximco", "20", "0")

	summary, err := env.dues.GetDueSummary(ctx)
	require.NoError(t, err)
	require.Len(t, summary.Suppliers, 2)
	assert.Equal(t, "Beximco", summary.Suppliers[0].Name)
	assert.True(t, dec("200").Equal(summary.Suppliers[0].DueAmount))
	assert.Equal(t, "Acme", summary.Suppliers[1].Name)
	assert.Equal(t, 2, summary.Suppliers[1].InvoiceCount)
	assert.True(t, dec("60").Equal(summary.Suppliers[1].DueAmount))
	assert.True(t, dec("260").Equal(summary.TotalPayable))
	assert.Empty(t, summary.Customers)
}
