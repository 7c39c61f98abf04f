package handler

import (
	tradeapp "github.com/clinicrx/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// PurchaseHandler serves purchase invoices
type PurchaseHandler struct {
	BaseHandler
	purchaseService *tradeapp.PurchaseInvoiceService
}

// NewPurchaseHandler creates a new PurchaseHandler
func NewPurchaseHandler(purchaseService *tradeapp.PurchaseInvoiceService) *PurchaseHandler {
	return &PurchaseHandler{purchaseService: purchaseService}
}

// Create posts a purchase and adds its quantities to stock. With
// opening_stock set the invoice is recorded as INITIAL. POST /purchases
func (h *PurchaseHandler) Create(c *gin.Context) {
	var req tradeapp.CreatePurchaseInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.purchaseService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Edit replaces a posted purchase's lines. PUT /purchases/:id
func (h *PurchaseHandler) Edit(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.EditPurchaseInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.purchaseService.Edit(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Return reverses a purchase. POST /purchases/:id/return
func (h *PurchaseHandler) Return(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReturnInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.purchaseService.Return(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByID GET /purchases/:id
func (h *PurchaseHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.purchaseService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List GET /purchases?status=&from=&to=&search=
func (h *PurchaseHandler) List(c *gin.Context) {
	var filter tradeapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	invoices, err := h.purchaseService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, invoices, len(invoices))
}
