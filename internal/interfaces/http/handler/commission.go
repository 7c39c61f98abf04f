package handler

import (
	commissionapp "github.com/clinicrx/backend/internal/application/commission"
	"github.com/gin-gonic/gin"
)

// CommissionHandler serves referrers, diagnostic bills and commission payouts
type CommissionHandler struct {
	BaseHandler
	commissionService *commissionapp.CommissionService
}

// NewCommissionHandler creates a new CommissionHandler
func NewCommissionHandler(commissionService *commissionapp.CommissionService) *CommissionHandler {
	return &CommissionHandler{commissionService: commissionService}
}

// CreateReferrer POST /referrers
func (h *CommissionHandler) CreateReferrer(c *gin.Context) {
	var req commissionapp.CreateReferrerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	referrer, err := h.commissionService.CreateReferrer(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, referrer)
}

// ListReferrers GET /referrers
func (h *CommissionHandler) ListReferrers(c *gin.Context) {
	referrers, err := h.commissionService.ListReferrers(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, referrers, len(referrers))
}

// RecordDiagnosticInvoice POST /diagnostic-invoices
func (h *CommissionHandler) RecordDiagnosticInvoice(c *gin.Context) {
	var req commissionapp.RecordDiagnosticInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	invoice, err := h.commissionService.RecordDiagnosticInvoice(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, invoice)
}

// RecordPayment pays out commission. The balance may go negative.
// POST /commission-payments
func (h *CommissionHandler) RecordPayment(c *gin.Context) {
	var req commissionapp.RecordCommissionPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	result, err := h.commissionService.RecordPayment(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// GetBalance GET /referrers/:id/balance
func (h *CommissionHandler) GetBalance(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	balance, err := h.commissionService.GetBalance(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, balance)
}

// GetStatement GET /referrers/:id/statement
func (h *CommissionHandler) GetStatement(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	statement, err := h.commissionService.GetStatement(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, statement)
}

// GetSummary GET /commission/summary
func (h *CommissionHandler) GetSummary(c *gin.Context) {
	summary, err := h.commissionService.GetSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithTotal(c, summary, len(summary))
}
