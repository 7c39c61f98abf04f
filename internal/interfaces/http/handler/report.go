package handler

import (
	reportapp "github.com/clinicrx/backend/internal/application/report"
	"github.com/gin-gonic/gin"
)

// ReportHandler serves profit and loss and stock reconciliation
type ReportHandler struct {
	BaseHandler
	reportService *reportapp.ReportService
}

// NewReportHandler creates a new ReportHandler
func NewReportHandler(reportService *reportapp.ReportService) *ReportHandler {
	return &ReportHandler{reportService: reportService}
}

// ProfitLoss GET /reports/profit-loss?from=2026-01-01&to=2026-01-31
func (h *ReportHandler) ProfitLoss(c *gin.Context) {
	var req reportapp.ProfitLossRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BindError(c, err)
		return
	}
	if req.From != nil && req.To != nil && req.To.Before(*req.From) {
		h.BadRequest(c, "to must not be before from")
		return
	}

	report, err := h.reportService.GetProfitLoss(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// Reconcile recomputes every item's stock from its invoices and reports
// drift. GET /reconciliation
func (h *ReportHandler) Reconcile(c *gin.Context) {
	result, err := h.reportService.Reconcile(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
