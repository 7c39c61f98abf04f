package router

import (
	"github.com/clinicrx/backend/internal/interfaces/http/handler"
)

// Handlers is every handler the API exposes
type Handlers struct {
	Items      *handler.ItemHandler
	Purchases  *handler.PurchaseHandler
	Sales      *handler.SalesHandler
	Finance    *handler.FinanceHandler
	Commission *handler.CommissionHandler
	Reports    *handler.ReportHandler
}

// RegisterAPI declares the clinic API on r. Call r.Setup afterwards.
func RegisterAPI(r *Router, h Handlers) {
	items := NewDomainGroup("catalog", "/items")
	items.POST("", h.Items.Create)
	items.GET("", h.Items.List)
	items.GET("/lookup", h.Items.Lookup)
	items.GET("/:id", h.Items.GetByID)
	items.PUT("/:id", h.Items.Update)
	items.DELETE("/:id", h.Items.Delete)
	r.Register(items)

	purchases := NewDomainGroup("purchases", "/purchases")
	purchases.POST("", h.Purchases.Create)
	purchases.GET("", h.Purchases.List)
	purchases.GET("/:id", h.Purchases.GetByID)
	purchases.PUT("/:id", h.Purchases.Edit)
	purchases.POST("/:id/return", h.Purchases.Return)
	purchases.POST("/:id/payments", h.Finance.RecordPurchasePayment)
	r.Register(purchases)

	sales := NewDomainGroup("sales", "/sales")
	sales.POST("", h.Sales.Create)
	sales.GET("", h.Sales.List)
	sales.GET("/:id", h.Sales.GetByID)
	sales.PUT("/:id", h.Sales.Edit)
	sales.POST("/:id/return", h.Sales.Return)
	sales.POST("/:id/payments", h.Finance.RecordSalesPayment)
	r.Register(sales)

	drafts := NewDomainGroup("drafts", "/sales-drafts")
	drafts.POST("", h.Sales.OpenDraft)
	drafts.GET("/:id", h.Sales.GetDraft)
	drafts.DELETE("/:id", h.Sales.DiscardDraft)
	drafts.POST("/:id/lines", h.Sales.AddDraftLine)
	drafts.DELETE("/:id/lines/:item_id", h.Sales.RemoveDraftLine)
	drafts.POST("/:id/post", h.Sales.PostDraft)
	r.Register(drafts)

	commission := NewDomainGroup("commission", "")
	commission.POST("/referrers", h.Commission.CreateReferrer)
	commission.GET("/referrers", h.Commission.ListReferrers)
	commission.GET("/referrers/:id/balance", h.Commission.GetBalance)
	commission.GET("/referrers/:id/statement", h.Commission.GetStatement)
	commission.POST("/diagnostic-invoices", h.Commission.RecordDiagnosticInvoice)
	commission.POST("/commission-payments", h.Commission.RecordPayment)
	commission.GET("/commission/summary", h.Commission.GetSummary)
	r.Register(commission)

	reports := NewDomainGroup("reports", "")
	reports.GET("/reports/profit-loss", h.Reports.ProfitLoss)
	reports.GET("/reconciliation", h.Reports.Reconcile)
	reports.GET("/dues", h.Finance.DueSummary)
	r.Register(reports)
}
