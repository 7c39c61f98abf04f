package handler

import (
	tradeapp "github.com/clinicrx/backend/internal/application/trade"
	"github.com/gin-gonic/gin"
)

// SalesHandler serves sales invoices and unsaved sales drafts
type SalesHandler struct {
	BaseHandler
	salesService *tradeapp.SalesInvoiceService
}

// NewSalesHandler creates a new SalesHandler
func NewSalesHandler(salesService *tradeapp.SalesInvoiceService) *SalesHandler {
	return &SalesHandler{salesService: salesService}
}

// Create posts a sale in one step. POST /sales
func (h *SalesHandler) Create(c *gin.Context) {
	var req tradeapp.CreateSalesInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.salesService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// Edit replaces a posted sale's lines. PUT /sales/:id
func (h *SalesHandler) Edit(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.EditSalesInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.salesService.Edit(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// Return puts a sale's quantities back into stock. POST /sales/:id/return
func (h *SalesHandler) Return(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReturnInvoiceRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.salesService.Return(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}

// GetByID GET /sales/:id
func (h *SalesHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	invoice, err := h.salesService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, invoice)
}

// List GET /sales?status=&from=&to=&search=
func (h *SalesHandler) List(c *gin.Context) {
	var filter tradeapp.InvoiceListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BindError(c, err)
		return
	}

	invoices, err := h.salesService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, invoices, len(invoices))
}

// OpenDraft starts an unsaved sale. POST /sales-drafts
func (h *SalesHandler) OpenDraft(c *gin.Context) {
	var req tradeapp.OpenDraftRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	h.Created(c, h.salesService.OpenDraft(c.Request.Context(), req))
}

// GetDraft GET /sales-drafts/:id
func (h *SalesHandler) GetDraft(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	draft, err := h.salesService.GetDraft(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

// AddDraftLine stages a line, checking what is still available after the
// lines already staged. POST /sales-drafts/:id/lines
func (h *SalesHandler) AddDraftLine(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.AddDraftLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	draft, err := h.salesService.AddDraftLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

// RemoveDraftLine DELETE /sales-drafts/:id/lines/:item_id
func (h *SalesHandler) RemoveDraftLine(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	itemID, ok := h.parseID(c, "item_id")
	if !ok {
		return
	}

	draft, err := h.salesService.RemoveDraftLine(c.Request.Context(), id, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, draft)
}

// PostDraft turns a draft into a posted sale. POST /sales-drafts/:id/post
func (h *SalesHandler) PostDraft(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.PostDraftRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}

	result, err := h.salesService.PostDraft(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// DiscardDraft DELETE /sales-drafts/:id
func (h *SalesHandler) DiscardDraft(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	if err := h.salesService.DiscardDraft(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
