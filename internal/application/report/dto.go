package report

import (
	"time"

	"github.com/clinicrx/backend/internal/domain/inventory"
	"github.com/clinicrx/backend/internal/domain/report"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ProfitLossRequest bounds a profit and loss report. Open ends are unbounded.
type ProfitLossRequest struct {
	From *time.Time `form:"from" time_format:"2006-01-02"`
	To   *time.Time `form:"to" time_format:"2006-01-02"`
}

func (r ProfitLossRequest) period() report.Period {
	var p report.Period
	if r.From != nil {
		p.From = *r.From
	}
	if r.To != nil {
		// a date-only upper bound covers the whole day
		p.To = r.To.Add(24*time.Hour - time.Nanosecond)
	}
	return p
}

// ProfitLossResponse is the trading summary for a period
type ProfitLossResponse struct {
	From            *time.Time      `json:"from,omitempty"`
	To              *time.Time      `json:"to,omitempty"`
	SalesRevenue    decimal.Decimal `json:"sales_revenue"`
	SalesDiscount   decimal.Decimal `json:"sales_discount"`
	PurchaseExpense decimal.Decimal `json:"purchase_expense"`
	GrossProfit     decimal.Decimal `json:"gross_profit"`
	SalesCount      int             `json:"sales_count"`
	PurchaseCount   int             `json:"purchase_count"`
}

// DriftResponse is one item whose stock disagrees with its invoices
type DriftResponse struct {
	ItemID     uuid.UUID `json:"item_id"`
	TradeName  string    `json:"trade_name"`
	Expected   int64     `json:"expected"`
	Actual     int64     `json:"actual"`
	Difference int64     `json:"difference"`
}

// ReconciliationResponse reports the result of a stock reconciliation
type ReconciliationResponse struct {
	Revision   int64           `json:"revision"`
	ItemCount  int             `json:"item_count"`
	Consistent bool            `json:"consistent"`
	Drifts     []DriftResponse `json:"drifts"`
}

func toDriftResponses(drifts []inventory.Drift) []DriftResponse {
	out := make([]DriftResponse, len(drifts))
	for i, d := range drifts {
		out[i] = DriftResponse{
			ItemID:     d.ItemID,
			TradeName:  d.TradeName,
			Expected:   d.Expected,
			Actual:     d.Actual,
			Difference: d.Difference(),
		}
	}
	return out
}
