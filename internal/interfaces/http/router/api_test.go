package router

import (
	"bytes"
	"encoding/json"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	catalogapp "github.com/clinicrx/backend/internal/application/catalog"
	commissionapp "github.com/clinicrx/backend/internal/application/commission"
	financeapp "github.com/clinicrx/backend/internal/application/finance"
	reportapp "github.com/clinicrx/backend/internal/application/report"
	tradeapp "github.com/clinicrx/backend/internal/application/trade"
	"github.com/clinicrx/backend/internal/infrastructure/cache"
	"github.com/clinicrx/backend/internal/infrastructure/store"
	"github.com/clinicrx/backend/internal/interfaces/http/handler"
	"github.com/clinicrx/backend/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type testAPI struct {
	t      *testing.T
	engine *gin.Engine
	store  *store.MemoryStore
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	st := store.NewMemoryStore(nil, nil)
	idem := cache.NewInMemoryIdempotencyStore(time.Minute)
	t.Cleanup(func() { _ = idem.Close() })

	engine, err := NewEngine(EngineConfig{
		Logger:         zap.NewNop(),
		MaxBodySize:    1 << 20,
		Idempotency:    idem,
		IdempotencyTTL: time.Hour,
	})
	require.NoError(t, err)

	r := NewRouter(engine)
	RegisterAPI(r, Handlers{
		Items:      handler.NewItemHandler(catalogapp.NewItemService(st)),
		Purchases:  handler.NewPurchaseHandler(tradeapp.NewPurchaseInvoiceService(st)),
		Sales:      handler.NewSalesHandler(tradeapp.NewSalesInvoiceService(st)),
		Finance:    handler.NewFinanceHandler(financeapp.NewDueSettlementService(st)),
		Commission: handler.NewCommissionHandler(commissionapp.NewCommissionService(st)),
		Reports:    handler.NewReportHandler(reportapp.NewReportService(st, 10)),
	})
	r.Setup()
	RegisterSystem(engine, handler.NewSystemHandler(st))

	return &testAPI{t: t, engine: engine, store: st}
}

type apiResponse struct {
	code int
	body map[string]any
	raw  string
}

// data returns the "data" member as an object
func (r apiResponse) data() map[string]any {
	d, _ := r.body["data"].(map[string]any)
	return d
}

func (r apiResponse) list() []any {
	d, _ := r.body["data"].([]any)
	return d
}

func (r apiResponse) errorCode() string {
	e, _ := r.body["error"].(map[string]any)
	code, _ := e["code"].(string)
	return code
}

func (a *testAPI) do(method, path string, body any, headers ...string) apiResponse {
	a.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(a.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)

	resp := apiResponse{code: w.Code, raw: w.Body.String()}
	if w.Body.Len() > 0 && strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &resp.body), w.Body.String())
	}
	return resp
}

func obj(t *testing.T, v any, key string) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "not an object")
	child, ok := m[key].(map[string]any)
	require.True(t, ok, "missing object %q", key)
	return child
}

func assertMoney(t *testing.T, expected string, actual any) {
	t.Helper()
	s, ok := actual.(string)
	require.True(t, ok, "money should be a JSON string, got %T", actual)
	assert.True(t, decimal.RequireFromString(expected).Equal(decimal.RequireFromString(s)),
		"expected %s, got %s", expected, s)
}

// purchaseNapa posts 100 Napa at 0.80 with discount 5 and 50 paid
func (a *testAPI) purchaseNapa() (invoiceID, itemID string) {
	a.t.Helper()
	resp := a.do(http.MethodPost, "/api/v1/purchases", gin.H{
		"supplier_name": "Acme Pharma",
		"lines": []gin.H{{
			"new_item":   gin.H{"trade_name": "Napa", "unit_price_sell": "1.20"},
			"quantity":   100,
			"unit_price": "0.80",
		}},
		"discount":    "5",
		"paid_amount": "50",
	})
	require.Equal(a.t, http.StatusCreated, resp.code, resp.raw)

	inv := obj(a.t, resp.body["data"], "invoice")
	items := resp.data()["items"].([]any)
	require.Len(a.t, items, 1)
	return inv["id"].(string), items[0].(map[string]any)["id"].(string)
}

func TestAPI_ItemCatalog(t *testing.T) {
	api := newTestAPI(t)

	created := api.do(http.MethodPost, "/api/v1/items", gin.H{
		"trade_name":      "Seclo",
		"generic_name":    "Omeprazole",
		"strength":        "20mg",
		"unit_price_sell": "6.00",
	})
	require.Equal(t, http.StatusCreated, created.code, created.raw)
	id := created.data()["id"].(string)
	assert.EqualValues(t, 0, created.data()["stock"])

	got := api.do(http.MethodGet, "/api/v1/items/"+id, nil)
	assert.Equal(t, http.StatusOK, got.code)
	assert.Equal(t, "Omeprazole", got.data()["generic_name"])

	lookup := api.do(http.MethodGet, "/api/v1/items/lookup?trade_name=SECLO", nil)
	assert.Equal(t, http.StatusOK, lookup.code)
	assert.Len(t, lookup.list(), 1)

	dup := api.do(http.MethodPost, "/api/v1/items", gin.H{"trade_name": "seclo"})
	assert.Equal(t, http.StatusBadRequest, dup.code)
	assert.Equal(t, "AMBIGUOUS_TRADE_NAME", dup.errorCode())

	updated := api.do(http.MethodPut, "/api/v1/items/"+id, gin.H{
		"trade_name":      "Seclo 20",
		"unit_price_sell": "6.50",
	})
	require.Equal(t, http.StatusOK, updated.code, updated.raw)
	assert.Equal(t, "Seclo 20", updated.data()["trade_name"])
	assertMoney(t, "6.50", updated.data()["unit_price_sell"])

	deleted := api.do(http.MethodDelete, "/api/v1/items/"+id, nil)
	assert.Equal(t, http.StatusNoContent, deleted.code)

	missing := api.do(http.MethodGet, "/api/v1/items/"+id, nil)
	assert.Equal(t, http.StatusNotFound, missing.code)
	assert.Equal(t, "NOT_FOUND", missing.errorCode())

	bad := api.do(http.MethodGet, "/api/v1/items/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, bad.code)
	assert.Equal(t, "INVALID_ID", bad.errorCode())
}

func TestAPI_PurchaseSaleAndSettlement(t *testing.T) {
	api := newTestAPI(t)
	purchaseID, itemID := api.purchaseNapa()

	purchase := api.do(http.MethodGet, "/api/v1/purchases/"+purchaseID, nil)
	require.Equal(t, http.StatusOK, purchase.code)
	assertMoney(t, "80", purchase.data()["total_amount"])
	assertMoney(t, "75", purchase.data()["net_payable"])
	assertMoney(t, "25", purchase.data()["due_amount"])
	assert.Equal(t, "PARTIAL", purchase.data()["payment_status"])

	t.Run("sale beyond stock is rejected", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/api/v1/sales", gin.H{
			"lines": []gin.H{{"item_id": itemID, "quantity": 150}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.code)
		assert.Equal(t, "INSUFFICIENT_STOCK", resp.errorCode())
	})

	var saleID string
	t.Run("sale reduces stock", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/api/v1/sales", gin.H{
			"customer":    gin.H{"name": "Walk-in"},
			"lines":       []gin.H{{"item_id": itemID, "quantity": 10, "unit_price": "1.20"}},
			"paid_amount": "12",
		})
		require.Equal(t, http.StatusCreated, resp.code, resp.raw)
		inv := obj(t, resp.body["data"], "invoice")
		saleID = inv["id"].(string)
		assert.Equal(t, "POSTED", inv["status"])
		assert.Equal(t, "PAID", inv["payment_status"])

		item := api.do(http.MethodGet, "/api/v1/items/"+itemID, nil)
		assert.EqualValues(t, 90, item.data()["stock"])
	})

	t.Run("overpayment is rejected", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/api/v1/purchases/"+purchaseID+"/payments", gin.H{"amount": "30"})
		assert.Equal(t, http.StatusUnprocessableEntity, resp.code)
		assert.Equal(t, "INVALID_PAYMENT", resp.errorCode())
	})

	t.Run("payment settles the due", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/api/v1/purchases/"+purchaseID+"/payments", gin.H{"amount": "25"})
		require.Equal(t, http.StatusOK, resp.code, resp.raw)
		assertMoney(t, "0", resp.data()["due_amount"])
		assert.Equal(t, "PAID", resp.data()["payment_status"])

		dues := api.do(http.MethodGet, "/api/v1/dues", nil)
		require.Equal(t, http.StatusOK, dues.code)
		assertMoney(t, "0", dues.data()["total_payable"])
	})

	t.Run("referenced item cannot be deleted", func(t *testing.T) {
		resp := api.do(http.MethodDelete, "/api/v1/items/"+itemID, nil)
		assert.Equal(t, http.StatusBadRequest, resp.code)
		assert.Equal(t, "ITEM_REFERENCED", resp.errorCode())
	})

	t.Run("sale return restores stock", func(t *testing.T) {
		resp := api.do(http.MethodPost, "/api/v1/sales/"+saleID+"/return", nil)
		require.Equal(t, http.StatusOK, resp.code, resp.raw)
		assert.Equal(t, "RETURNED", obj(t, resp.body["data"], "invoice")["status"])

		item := api.do(http.MethodGet, "/api/v1/items/"+itemID, nil)
		assert.EqualValues(t, 100, item.data()["stock"])

		again := api.do(http.MethodPost, "/api/v1/sales/"+saleID+"/return", nil)
		assert.Equal(t, http.StatusUnprocessableEntity, again.code)
		assert.Equal(t, "INVALID_STATE", again.errorCode())
	})

	t.Run("ledger stays reconciled", func(t *testing.T) {
		resp := api.do(http.MethodGet, "/api/v1/reconciliation", nil)
		require.Equal(t, http.StatusOK, resp.code)
		assert.Equal(t, true, resp.data()["consistent"])
		assert.Empty(t, resp.data()["drifts"])
	})
}

func TestAPI_AmbiguousPurchaseLine(t *testing.T) {
	api := newTestAPI(t)
	_, itemID := api.purchaseNapa()
	revision := api.store.Revision()

	resp := api.do(http.MethodPost, "/api/v1/purchases", gin.H{
		"supplier_name": "Beta Pharma",
		"lines": []gin.H{{
			"new_item":   gin.H{"trade_name": "NAPA"},
			"quantity":   5,
			"unit_price": "0.80",
		}},
	})
	assert.Equal(t, http.StatusBadRequest, resp.code)
	assert.Equal(t, "AMBIGUOUS_TRADE_NAME", resp.errorCode())
	errInfo := resp.body["error"].(map[string]any)
	assert.Equal(t, []any{itemID}, errInfo["candidates"])
	assert.Equal(t, revision, api.store.Revision())
}

func TestAPI_RequestValidation(t *testing.T) {
	api := newTestAPI(t)

	resp := api.do(http.MethodPost, "/api/v1/purchases", gin.H{"lines": []gin.H{}})
	assert.Equal(t, http.StatusBadRequest, resp.code)
	assert.Equal(t, "VALIDATION_FAILED", resp.errorCode())
	details := resp.body["error"].(map[string]any)["details"].([]any)
	fields := make([]string, 0, len(details))
	for _, d := range details {
		fields = append(fields, d.(map[string]any)["field"].(string))
	}
	assert.Contains(t, fields, "supplier_name")
	assert.Contains(t, fields, "lines")

	huge := api.do(http.MethodPost, "/api/v1/purchases", gin.H{
		"supplier_name": "Acme",
		"lines": []gin.H{{
			"new_item":   gin.H{"trade_name": "Napa"},
			"quantity":   int64(math.MaxInt64),
			"unit_price": "1",
		}},
	})
	assert.Equal(t, http.StatusBadRequest, huge.code, huge.raw)
	assert.Equal(t, "VALIDATION_FAILED", huge.errorCode())
	assert.Equal(t, int64(0), api.store.Revision())

	malformed := api.do(http.MethodPost, "/api/v1/items", "not an object")
	assert.Equal(t, http.StatusBadRequest, malformed.code)
	assert.Equal(t, "INVALID_JSON", malformed.errorCode())

	unknown := api.do(http.MethodGet, "/api/v1/nowhere", nil)
	assert.Equal(t, http.StatusNotFound, unknown.code)
	assert.Equal(t, "ROUTE_NOT_FOUND", unknown.errorCode())

	report := api.do(http.MethodGet, "/api/v1/reports/profit-loss?from=2026-02-01&to=2026-01-01", nil)
	assert.Equal(t, http.StatusBadRequest, report.code)
}

func TestAPI_SalesDraft(t *testing.T) {
	api := newTestAPI(t)
	_, itemID := api.purchaseNapa()

	opened := api.do(http.MethodPost, "/api/v1/sales-drafts", gin.H{"customer": gin.H{"name": "Rahim"}})
	require.Equal(t, http.StatusCreated, opened.code, opened.raw)
	draftID := opened.data()["id"].(string)

	first := api.do(http.MethodPost, "/api/v1/sales-drafts/"+draftID+"/lines", gin.H{"item_id": itemID, "quantity": 60})
	require.Equal(t, http.StatusOK, first.code, first.raw)

	second := api.do(http.MethodPost, "/api/v1/sales-drafts/"+draftID+"/lines", gin.H{"item_id": itemID, "quantity": 50})
	assert.Equal(t, http.StatusUnprocessableEntity, second.code)
	assert.Equal(t, "INSUFFICIENT_STOCK", second.errorCode())

	third := api.do(http.MethodPost, "/api/v1/sales-drafts/"+draftID+"/lines", gin.H{"item_id": itemID, "quantity": 40})
	require.Equal(t, http.StatusOK, third.code, third.raw)
	lines := third.data()["lines"].([]any)
	require.Len(t, lines, 1)
	assert.EqualValues(t, 100, lines[0].(map[string]any)["quantity"])

	item := api.do(http.MethodGet, "/api/v1/items/"+itemID, nil)
	assert.EqualValues(t, 100, item.data()["stock"], "drafts do not move stock")

	posted := api.do(http.MethodPost, "/api/v1/sales-drafts/"+draftID+"/post", gin.H{"paid_amount": "100"})
	require.Equal(t, http.StatusCreated, posted.code, posted.raw)

	item = api.do(http.MethodGet, "/api/v1/items/"+itemID, nil)
	assert.EqualValues(t, 0, item.data()["stock"])

	gone := api.do(http.MethodGet, "/api/v1/sales-drafts/"+draftID, nil)
	assert.Equal(t, http.StatusNotFound, gone.code)

	other := api.do(http.MethodPost, "/api/v1/sales-drafts", nil)
	require.Equal(t, http.StatusCreated, other.code)
	discard := api.do(http.MethodDelete, "/api/v1/sales-drafts/"+other.data()["id"].(string), nil)
	assert.Equal(t, http.StatusNoContent, discard.code)
}

func TestAPI_IdempotentSale(t *testing.T) {
	api := newTestAPI(t)
	_, itemID := api.purchaseNapa()

	body := gin.H{"lines": []gin.H{{"item_id": itemID, "quantity": 10}}}
	first := api.do(http.MethodPost, "/api/v1/sales", body, middleware.IdempotencyHeader, "sale-42")
	require.Equal(t, http.StatusCreated, first.code, first.raw)

	replay := api.do(http.MethodPost, "/api/v1/sales", body, middleware.IdempotencyHeader, "sale-42")
	assert.Equal(t, http.StatusConflict, replay.code)
	assert.Equal(t, "DUPLICATE_REQUEST", replay.errorCode())

	item := api.do(http.MethodGet, "/api/v1/items/"+itemID, nil)
	assert.EqualValues(t, 90, item.data()["stock"])
}

func TestAPI_Commission(t *testing.T) {
	api := newTestAPI(t)

	referrer := api.do(http.MethodPost, "/api/v1/referrers", gin.H{"name": "Dr. Karim", "area": "Mirpur"})
	require.Equal(t, http.StatusCreated, referrer.code, referrer.raw)
	referrerID := referrer.data()["id"].(string)

	bill := api.do(http.MethodPost, "/api/v1/diagnostic-invoices", gin.H{
		"patient_name": "A. Rahman",
		"referrer_id":  referrerID,
		"total_amount": "1000",
		"commission":   "150",
	})
	require.Equal(t, http.StatusCreated, bill.code, bill.raw)

	payout := api.do(http.MethodPost, "/api/v1/commission-payments", gin.H{
		"referrer_id": referrerID,
		"amount":      "200",
		"method":      "BANK",
	})
	require.Equal(t, http.StatusCreated, payout.code, payout.raw)
	balance := obj(t, payout.body["data"], "balance")
	assertMoney(t, "-50", balance["balance"])
	assert.Equal(t, true, balance["overpaid"])

	statement := api.do(http.MethodGet, "/api/v1/referrers/"+referrerID+"/statement", nil)
	require.Equal(t, http.StatusOK, statement.code)
	assertMoney(t, "150", statement.data()["generated"])
	assert.Len(t, statement.data()["payments"], 1)

	summary := api.do(http.MethodGet, "/api/v1/commission/summary", nil)
	assert.Equal(t, http.StatusOK, summary.code)
	assert.Len(t, summary.list(), 1)

	unknown := api.do(http.MethodGet, "/api/v1/referrers/00000000-0000-0000-0000-000000000001/balance", nil)
	assert.Equal(t, http.StatusNotFound, unknown.code)
}

func TestAPI_ProfitLossAndHealth(t *testing.T) {
	api := newTestAPI(t)
	_, itemID := api.purchaseNapa()

	sale := api.do(http.MethodPost, "/api/v1/sales", gin.H{
		"lines": []gin.H{{"item_id": itemID, "quantity": 10, "unit_price": "1.20"}},
	})
	require.Equal(t, http.StatusCreated, sale.code, sale.raw)

	report := api.do(http.MethodGet, "/api/v1/reports/profit-loss", nil)
	require.Equal(t, http.StatusOK, report.code, report.raw)
	assertMoney(t, "12", report.data()["sales_revenue"])
	assertMoney(t, "75", report.data()["purchase_expense"])
	assertMoney(t, "-63", report.data()["gross_profit"])

	ready := api.do(http.MethodGet, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, ready.code)
	assert.EqualValues(t, api.store.Revision(), ready.body["revision"])
}
