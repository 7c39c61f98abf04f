package handler

import (
	"context"

	financeapp "github.com/clinicrx/backend/internal/application/finance"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FinanceHandler records partial payments against invoice dues and reports
// what is owed
type FinanceHandler struct {
	BaseHandler
	settlementService *financeapp.DueSettlementService
}

// NewFinanceHandler creates a new FinanceHandler
func NewFinanceHandler(settlementService *financeapp.DueSettlementService) *FinanceHandler {
	return &FinanceHandler{settlementService: settlementService}
}

type recordPaymentFunc func(context.Context, uuid.UUID, financeapp.RecordPaymentRequest) (*financeapp.SettlementResponse, error)

// RecordPurchasePayment pays part of a supplier due. POST /purchases/:id/payments
func (h *FinanceHandler) RecordPurchasePayment(c *gin.Context) {
	h.recordPayment(c, h.settlementService.RecordPurchasePayment)
}

// RecordSalesPayment collects part of a customer due. POST /sales/:id/payments
func (h *FinanceHandler) RecordSalesPayment(c *gin.Context) {
	h.recordPayment(c, h.settlementService.RecordSalesPayment)
}

func (h *FinanceHandler) recordPayment(c *gin.Context, record recordPaymentFunc) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req financeapp.RecordPaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	settlement, err := record(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, settlement)
}

// DueSummary lists supplier and customer dues by counterparty. GET /dues
func (h *FinanceHandler) DueSummary(c *gin.Context) {
	summary, err := h.settlementService.GetDueSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}
